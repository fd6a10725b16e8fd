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
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// FieldKind identifies which satellite-derived surface field a gridded
// snapshot file holds.
type FieldKind int

const (
	// SSH is sea-surface height, stored in variable "zos" with dimensions
	// [time, latitude, longitude].
	SSH FieldKind = iota
	// SST is sea-surface temperature, stored in variable "thetao" with
	// dimensions [time, depth, latitude, longitude]; cropping always takes
	// the surface depth layer.
	SST
)

func (k FieldKind) String() string {
	switch k {
	case SSH:
		return "ssh"
	case SST:
		return "sst"
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

func (k FieldKind) varName() (string, error) {
	switch k {
	case SSH:
		return "zos", nil
	case SST:
		return "thetao", nil
	}
	return "", fmt.Errorf("doestimation: unknown field kind %d", int(k))
}

func (k FieldKind) dimCount() int {
	if k == SST {
		return 4
	}
	return 3
}

const fieldFileDateLayout = "20060102"

// FindFieldFile returns the first of files whose base name contains the
// product date marker "dm"+YYYYMMDD for the given date. The boolean is
// false when no file matches; the caller treats absence as "skip this
// profile".
func FindFieldFile(files []string, date time.Time) (string, bool) {
	marker := "dm" + date.Format(fieldFileDateLayout)
	for _, f := range files {
		if strings.Contains(filepath.Base(f), marker) {
			return f, true
		}
	}
	return "", false
}

// ListFieldFiles returns the paths of the NetCDF snapshot files directly
// inside dir, in lexical order.
func ListFieldFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("doestimation: list field files: %v", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".nc") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// CropConfig gives the full extent, in whole degrees, of the patch cropped
// around each profile. At 4 cells/degree a w-degree extent spans 4w+1 grid
// cells inclusive.
type CropConfig struct {
	ZonalDegrees      int
	MeridionalDegrees int
}

// Rows returns the meridional cell count of a patch.
func (c CropConfig) Rows() int { return c.MeridionalDegrees*CellsPerDegree + 1 }

// Cols returns the zonal cell count of a patch.
func (c CropConfig) Cols() int { return c.ZonalDegrees*CellsPerDegree + 1 }

// CropPatch extracts the patch centered on the grid-rounded (lat, lon) from
// the snapshot file at path. Masked cells are replaced with 0.0 and
// scale_factor/add_offset are applied when present, so the returned array is
// fully materialized with no mask metadata. The file handle is released
// before returning; repeated lookups for the same path reopen the file.
func CropPatch(path string, kind FieldKind, lat, lon float64, cfg CropConfig) (*sparse.DenseArray, error) {
	varName, err := kind.varName()
	if err != nil {
		return nil, err
	}

	latMin, latMax, err := AxisIndexRange(RoundToGrid(lat), cfg.MeridionalDegrees, Latitude)
	if err != nil {
		return nil, err
	}
	lonMin, lonMax, err := AxisIndexRange(RoundToGrid(lon), cfg.ZonalDegrees, Longitude)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("doestimation: open field file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("doestimation: read field file %s: %v", path, err)
	}

	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("doestimation: variable %s not in %s", varName, path)
	}
	if len(dims) != kind.dimCount() {
		return nil, fmt.Errorf("doestimation: variable %s in %s has %d dimensions, want %d",
			varName, path, len(dims), kind.dimCount())
	}
	nLat, nLon := dims[len(dims)-2], dims[len(dims)-1]
	if latMin < 0 || latMax >= nLat || lonMin < 0 || lonMax >= nLon {
		return nil, fmt.Errorf("doestimation: crop window [%d:%d, %d:%d] outside %dx%d grid in %s",
			latMin, latMax, lonMin, lonMax, nLat, nLon, path)
	}

	// Read the contiguous slab covering the latitude band at the first time
	// step (and the surface depth layer for SST); the longitude window is
	// selected in memory below.
	begin := make([]int, len(dims))
	end := make([]int, len(dims))
	begin[len(dims)-2], begin[len(dims)-1] = latMin, 0
	end[len(dims)-2], end[len(dims)-1] = latMax, nLon-1
	r := ff.Reader(varName, begin, end)
	n := (latMax - latMin + 1) * nLon
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("doestimation: read variable %s from %s: %v", varName, path, err)
	}
	vals, err := bufFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("doestimation: variable %s in %s: %v", varName, path, err)
	}

	fill, hasFill := attrFloat(ff.Header, varName, "_FillValue")
	if !hasFill {
		fill, hasFill = attrFloat(ff.Header, varName, "missing_value")
	}
	scale, ok := attrFloat(ff.Header, varName, "scale_factor")
	if !ok {
		scale = 1
	}
	offset, ok := attrFloat(ff.Header, varName, "add_offset")
	if !ok {
		offset = 0
	}

	patch := sparse.ZerosDense(latMax-latMin+1, lonMax-lonMin+1)
	for i := 0; i < patch.Shape[0]; i++ {
		for j := 0; j < patch.Shape[1]; j++ {
			v := vals[i*nLon+lonMin+j]
			switch {
			case hasFill && v == fill:
				patch.Set(0, i, j)
			case math.IsNaN(v):
				patch.Set(0, i, j)
			default:
				patch.Set(v*scale+offset, i, j)
			}
		}
	}
	return patch, nil
}

func bufFloat64s(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported data type %T", buf)
}

func attrFloat(h *cdf.Header, varName, attr string) (float64, bool) {
	switch a := h.GetAttribute(varName, attr).(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}
