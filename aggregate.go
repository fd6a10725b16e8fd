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

package doestimation

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SelectionBox bounds the profiles included in a dataset. Bounds are
// inclusive on every edge.
type SelectionBox struct {
	LatMin, LatMax   float64
	LonMin, LonMax   float64
	DateMin, DateMax time.Time
}

func (b SelectionBox) contains(lat, lon float64) bool {
	return b.LatMin <= lat && lat <= b.LatMax &&
		b.LonMin <= lon && lon <= b.LonMax
}

// AggregatorConfig configures an aggregation run. All values are consumed
// explicitly; nothing is read from the process environment.
type AggregatorConfig struct {
	ArgoDir string // profile text files, searched recursively
	SSHDir  string // SSH snapshot files, one per date
	SSTDir  string // SST snapshot files, one per date

	ReferenceDate time.Time // zero point for elapsed days
	Grid          VerticalGrid
	Crop          CropConfig
	Selection     SelectionBox
}

func (c AggregatorConfig) validate() error {
	for _, d := range []struct{ name, val string }{
		{"argo_in_dir", c.ArgoDir},
		{"ssh_in_dir", c.SSHDir},
		{"sst_in_dir", c.SSTDir},
	} {
		if d.val == "" {
			return fmt.Errorf("doestimation: configuration variable %s is not specified", d.name)
		}
	}
	if c.ReferenceDate.IsZero() {
		return fmt.Errorf("doestimation: configuration variable reference_date is not specified")
	}
	return c.Grid.validate()
}

// Aggregator joins Argo profiles with the SSH and SST snapshots matching
// their observation dates and accumulates the result into a Dataset. A
// single run is fully sequential; records appear in the order their source
// profiles were encountered.
type Aggregator struct {
	cfg AggregatorConfig
	log logrus.FieldLogger
}

// NewAggregator returns an aggregator for the given configuration. A nil
// logger defaults to the standard logrus logger.
func NewAggregator(cfg AggregatorConfig, log logrus.FieldLogger) (*Aggregator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{cfg: cfg, log: log}, nil
}

// Run enumerates the profile files and produces the dataset. Profiles
// outside the selection box or without both snapshot files for their date
// are skipped; a parse error abandons the remainder of the offending file
// but not the run.
func (a *Aggregator) Run() (*Dataset, error) {
	sshFiles, err := ListFieldFiles(a.cfg.SSHDir)
	if err != nil {
		return nil, err
	}
	sstFiles, err := ListFieldFiles(a.cfg.SSTDir)
	if err != nil {
		return nil, err
	}

	var recs []Record
	walkErr := filepath.WalkDir(a.cfg.ArgoDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".txt") {
			return nil
		}
		profiles, accepted, err := a.aggregateFile(path, sshFiles, sstFiles, &recs)
		if err != nil {
			a.log.WithFields(logrus.Fields{
				"file":  path,
				"error": err,
			}).Warn("abandoning rest of profile file")
			return nil
		}
		a.log.WithFields(logrus.Fields{
			"file":     path,
			"profiles": profiles,
			"accepted": accepted,
		}).Info("aggregated profile file")
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("doestimation: walk %s: %v", a.cfg.ArgoDir, walkErr)
	}
	return buildDataset(recs, a.cfg.Grid, a.cfg.Crop)
}

// aggregateFile scans one profile file and appends the accepted records.
func (a *Aggregator) aggregateFile(path string, sshFiles, sstFiles []string, recs *[]Record) (profiles, accepted int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	sc, err := NewProfileScanner(f, path)
	if err != nil {
		return 0, 0, err
	}
	for sc.Scan() {
		profiles++
		p := sc.Profile()
		rec, ok, err := a.process(p, sshFiles, sstFiles)
		if err != nil {
			// The block is already fully consumed, so dropping the profile
			// cannot desynchronize the scanner.
			a.log.WithFields(logrus.Fields{
				"file":  path,
				"date":  p.Date.Format(headerDateLayout),
				"error": err,
			}).Warn("dropping profile")
			continue
		}
		if ok {
			*recs = append(*recs, rec)
			accepted++
		}
	}
	return profiles, accepted, sc.Err()
}

// process applies the selection filters to one profile and, if it passes,
// builds its record. ok is false when the profile was filtered out.
func (a *Aggregator) process(p *ArgoProfile, sshFiles, sstFiles []string) (rec Record, ok bool, err error) {
	if !a.cfg.Selection.contains(p.Latitude, p.Longitude) {
		return Record{}, false, nil
	}
	if !InPeriod(p.Date, a.cfg.Selection.DateMin, a.cfg.Selection.DateMax) {
		return Record{}, false, nil
	}
	sshFile, ok := FindFieldFile(sshFiles, p.Date)
	if !ok {
		return Record{}, false, nil
	}
	sstFile, ok := FindFieldFile(sstFiles, p.Date)
	if !ok {
		return Record{}, false, nil
	}

	ssh, err := CropPatch(sshFile, SSH, p.Latitude, p.Longitude, a.cfg.Crop)
	if err != nil {
		return Record{}, false, err
	}
	sst, err := CropPatch(sstFile, SST, p.Latitude, p.Longitude, a.cfg.Crop)
	if err != nil {
		return Record{}, false, err
	}
	sal, err := InterpolateProfile(p.Pressure, p.Salinity, a.cfg.Grid)
	if err != nil {
		return Record{}, false, err
	}
	tem, err := InterpolateProfile(p.Pressure, p.Temperature, a.cfg.Grid)
	if err != nil {
		return Record{}, false, err
	}

	return Record{
		ElapsedDays: ElapsedDays(p.Date, a.cfg.ReferenceDate),
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Pressure:    a.cfg.Grid.Levels(),
		Salinity:    sal,
		Temperature: tem,
		SSHPatch:    ssh,
		SSTPatch:    sst,
	}, true, nil
}
