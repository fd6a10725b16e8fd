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

package doestutil

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	doestimation "github.com/pystokes/do-estimation"
)

const configDateLayout = "2006-01-02"

// aggregatorConfig assembles the aggregation configuration from cfg.
// Values are converted with cast so that a mistyped configuration entry
// surfaces as an error instead of a silent zero.
func aggregatorConfig(cfg *viper.Viper) (doestimation.AggregatorConfig, error) {
	var c doestimation.AggregatorConfig
	var err error

	c.ArgoDir = os.ExpandEnv(cfg.GetString("input_data.argo_in_dir"))
	c.SSHDir = os.ExpandEnv(cfg.GetString("input_data.ssh_in_dir"))
	c.SSTDir = os.ExpandEnv(cfg.GetString("input_data.sst_in_dir"))

	if c.ReferenceDate, err = configDate(cfg, "preprocess.reference_date"); err != nil {
		return c, err
	}

	if c.Grid.Min, err = configInt(cfg, "preprocess.interpolation.min_pressure"); err != nil {
		return c, err
	}
	if c.Grid.Max, err = configInt(cfg, "preprocess.interpolation.max_pressure"); err != nil {
		return c, err
	}
	if c.Grid.Interval, err = configInt(cfg, "preprocess.interpolation.pressure_interval"); err != nil {
		return c, err
	}

	if c.Crop.ZonalDegrees, err = configInt(cfg, "preprocess.crop.zonal_distance_in_degree"); err != nil {
		return c, err
	}
	if c.Crop.MeridionalDegrees, err = configInt(cfg, "preprocess.crop.meridional_distance_in_degree"); err != nil {
		return c, err
	}

	if c.Selection.LatMin, err = configFloat(cfg, "argo_selection.latitude.min"); err != nil {
		return c, err
	}
	if c.Selection.LatMax, err = configFloat(cfg, "argo_selection.latitude.max"); err != nil {
		return c, err
	}
	if c.Selection.LonMin, err = configFloat(cfg, "argo_selection.longitude.min"); err != nil {
		return c, err
	}
	if c.Selection.LonMax, err = configFloat(cfg, "argo_selection.longitude.max"); err != nil {
		return c, err
	}
	if c.Selection.DateMin, err = configDate(cfg, "argo_selection.date.min"); err != nil {
		return c, err
	}
	if c.Selection.DateMax, err = configDate(cfg, "argo_selection.date.max"); err != nil {
		return c, err
	}

	return c, nil
}

func configInt(cfg *viper.Viper, key string) (int, error) {
	v, err := cast.ToIntE(cfg.Get(key))
	if err != nil {
		return 0, fmt.Errorf("doestutil: configuration variable %s: %v", key, err)
	}
	return v, nil
}

func configFloat(cfg *viper.Viper, key string) (float64, error) {
	v, err := cast.ToFloat64E(cfg.Get(key))
	if err != nil {
		return 0, fmt.Errorf("doestutil: configuration variable %s: %v", key, err)
	}
	return v, nil
}

// configDate parses a YYYY-MM-DD (or, as found in some older configuration
// files, YYYYMMDD) calendar date.
func configDate(cfg *viper.Viper, key string) (time.Time, error) {
	s, err := cast.ToStringE(cfg.Get(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("doestutil: configuration variable %s: %v", key, err)
	}
	if t, err := time.ParseInLocation(configDateLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("doestutil: configuration variable %s: invalid date %q", key, s)
	}
	return t, nil
}

// datasetID issues an identifier for one aggregation run.
func datasetID(now time.Time) string {
	return now.UTC().Format("20060102150405")
}

// outputFile expands the [ID] placeholder in output.dataset_file with a
// run identifier. The output location is explicit configuration; nothing is
// read from the process environment beyond ${VAR} expansion in the path.
func outputFile(cfg *viper.Viper, now time.Time) (string, error) {
	p := os.ExpandEnv(cfg.GetString("output.dataset_file"))
	if p == "" {
		return "", fmt.Errorf("doestutil: configuration variable output.dataset_file is not specified")
	}
	return strings.Replace(p, "[ID]", datasetID(now), -1), nil
}
