/*
Copyright © 2026 the DO-Estimation authors.
This file is part of DO-Estimation.

DO-Estimation is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

DO-Estimation is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with DO-Estimation.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package doestutil wires the DO-Estimation pipeline into a command-line
// interface. Every configuration key is exposed as a flag bound to a viper
// instance, so values can come from the command line, a configuration file
// (--config) or DOEST_-prefixed environment variables.
package doestutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	doestimation "github.com/pystokes/do-estimation"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage string
	defaultVal  interface{}
	flagsets    []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage string
		defaultVal  interface{}
		flagsets    []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "input_data.argo_in_dir",
			usage: `
              input_data.argo_in_dir is the directory holding Argo profile
              text files. It is searched recursively.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "input_data.ssh_in_dir",
			usage: `
              input_data.ssh_in_dir is the directory holding daily
              sea-surface height NetCDF snapshots.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "input_data.sst_in_dir",
			usage: `
              input_data.sst_in_dir is the directory holding daily
              sea-surface temperature NetCDF snapshots.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.reference_date",
			usage: `
              preprocess.reference_date is the calendar date (YYYY-MM-DD)
              used as the zero point for elapsed days.`,
			defaultVal: "2000-01-01",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.interpolation.min_pressure",
			usage: `
              preprocess.interpolation.min_pressure is the shallowest level
              of the uniform pressure grid [dbar].`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.interpolation.max_pressure",
			usage: `
              preprocess.interpolation.max_pressure is the deepest level of
              the uniform pressure grid [dbar].`,
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.interpolation.pressure_interval",
			usage: `
              preprocess.interpolation.pressure_interval is the spacing of
              the uniform pressure grid [dbar].`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.crop.zonal_distance_in_degree",
			usage: `
              preprocess.crop.zonal_distance_in_degree is the east-west
              extent of each cropped patch in whole degrees.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "preprocess.crop.meridional_distance_in_degree",
			usage: `
              preprocess.crop.meridional_distance_in_degree is the
              north-south extent of each cropped patch in whole degrees.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.latitude.min",
			usage: `
              argo_selection.latitude.min is the southern edge of the
              profile selection box [degrees].`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.latitude.max",
			usage: `
              argo_selection.latitude.max is the northern edge of the
              profile selection box [degrees].`,
			defaultVal: 50.0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.longitude.min",
			usage: `
              argo_selection.longitude.min is the western edge of the
              profile selection box [degrees].`,
			defaultVal: 120.0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.longitude.max",
			usage: `
              argo_selection.longitude.max is the eastern edge of the
              profile selection box [degrees].`,
			defaultVal: 180.0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.date.min",
			usage: `
              argo_selection.date.min is the first observation date
              (YYYY-MM-DD) included in the dataset.`,
			defaultVal: "2010-01-01",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "argo_selection.date.max",
			usage: `
              argo_selection.date.max is the last observation date
              (YYYY-MM-DD) included in the dataset.`,
			defaultVal: "2010-12-31",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "output.dataset_file",
			usage: `
              output.dataset_file is the path the finished dataset is
              written to. An [ID] placeholder is replaced with an
              identifier issued for the run.`,
			defaultVal: "datasets/[ID]/dataset.nc",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DOEST")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(aggregateCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("doestutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "doest",
	Short: "A builder of ocean-interior estimation training data.",
	Long: `doest joins Argo float profiles with satellite sea-surface height and
temperature snapshots to build fixed-shape training datasets for
ocean-interior estimation models.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format 'DOEST_var'
where 'var' is the name of the configuration variable.`,
	DisableAutoGenTag: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("doest v%s\n", doestimation.Version)
	},
	DisableAutoGenTag: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build a training dataset from profile and snapshot files.",
	Long: `aggregate parses the Argo profile files, matches each profile to the
SSH and SST snapshots for its observation date, crops a patch around its
location, resamples the vertical measurements onto the uniform pressure
grid and writes the accumulated arrays to the output dataset file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return Aggregate(Cfg)
	},
	DisableAutoGenTag: true,
}

// Aggregate runs the aggregation pipeline with the given configuration and
// writes the finished dataset.
func Aggregate(cfg *viper.Viper) error {
	acfg, err := aggregatorConfig(cfg)
	if err != nil {
		return err
	}
	outFile, err := outputFile(cfg, time.Now())
	if err != nil {
		return err
	}

	agg, err := doestimation.NewAggregator(acfg, logrus.StandardLogger())
	if err != nil {
		return err
	}
	data, err := agg.Run()
	if err != nil {
		return err
	}
	if data.Len() == 0 {
		logrus.Warn("no profiles were accepted; not writing a dataset")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return fmt.Errorf("doestutil: create output directory: %v", err)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("doestutil: create output file: %v", err)
	}
	if err := data.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"records": data.Len(),
		"file":    outFile,
	}).Info("wrote dataset")
	return nil
}
