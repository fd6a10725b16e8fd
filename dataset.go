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
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Record holds the data produced for one accepted profile.
type Record struct {
	ElapsedDays int
	Latitude    float64
	Longitude   float64
	Pressure    []float64
	Salinity    []float64
	Temperature []float64
	SSHPatch    *sparse.DenseArray
	SSTPatch    *sparse.DenseArray
}

// Dataset is the terminal output of an aggregation run: five parallel
// fixed-shape arrays in which index i refers to the same source profile
// everywhere.
type Dataset struct {
	Header      *sparse.DenseArray // [n, 3]: elapsed days, latitude, longitude
	Pressure    *sparse.DenseArray // [n, levels]
	Salinity    *sparse.DenseArray // [n, levels]
	Temperature *sparse.DenseArray // [n, levels]
	Maps        *sparse.DenseArray // [n, 2, rows, cols]: SSH patch then SST patch
}

// Len returns the number of records.
func (d *Dataset) Len() int { return d.Header.Shape[0] }

// buildDataset converts the accumulated records into fixed-shape arrays.
// The conversion is only valid when every record has the configured profile
// length and patch shape, which the aggregator guarantees by construction;
// it is re-checked here because a silent shape mismatch would misalign every
// later record.
func buildDataset(recs []Record, grid VerticalGrid, crop CropConfig) (*Dataset, error) {
	n := len(recs)
	levels := grid.Len()
	rows, cols := crop.Rows(), crop.Cols()
	d := &Dataset{
		Header:      sparse.ZerosDense(n, 3),
		Pressure:    sparse.ZerosDense(n, levels),
		Salinity:    sparse.ZerosDense(n, levels),
		Temperature: sparse.ZerosDense(n, levels),
		Maps:        sparse.ZerosDense(n, 2, rows, cols),
	}
	for i, r := range recs {
		if len(r.Pressure) != levels || len(r.Salinity) != levels || len(r.Temperature) != levels {
			return nil, fmt.Errorf("doestimation: record %d profile lengths (%d, %d, %d) != %d levels",
				i, len(r.Pressure), len(r.Salinity), len(r.Temperature), levels)
		}
		if err := checkPatchShape(r.SSHPatch, rows, cols, i, SSH); err != nil {
			return nil, err
		}
		if err := checkPatchShape(r.SSTPatch, rows, cols, i, SST); err != nil {
			return nil, err
		}
		d.Header.Set(float64(r.ElapsedDays), i, 0)
		d.Header.Set(r.Latitude, i, 1)
		d.Header.Set(r.Longitude, i, 2)
		for j := 0; j < levels; j++ {
			d.Pressure.Set(r.Pressure[j], i, j)
			d.Salinity.Set(r.Salinity[j], i, j)
			d.Temperature.Set(r.Temperature[j], i, j)
		}
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				d.Maps.Set(r.SSHPatch.Get(y, x), i, 0, y, x)
				d.Maps.Set(r.SSTPatch.Get(y, x), i, 1, y, x)
			}
		}
	}
	return d, nil
}

func checkPatchShape(p *sparse.DenseArray, rows, cols, rec int, kind FieldKind) error {
	if p == nil || len(p.Shape) != 2 || p.Shape[0] != rows || p.Shape[1] != cols {
		return fmt.Errorf("doestimation: record %d %s patch shape != [%d, %d]", rec, kind, rows, cols)
	}
	return nil
}

// datasetVars lists the dataset variables in the order they are written.
var datasetVars = []struct {
	name        string
	dims        []string
	description string
	units       string
}{
	{"HeaderInfo", []string{"record", "headerInfo"},
		"Elapsed days since the reference date, latitude and longitude per record", ""},
	{"Pressure", []string{"record", "level"},
		"Uniform pressure levels", "dbar"},
	{"Salinity", []string{"record", "level"},
		"Salinity interpolated onto the pressure levels", "psu"},
	{"Temperature", []string{"record", "level"},
		"Temperature interpolated onto the pressure levels", "degC"},
	{"Maps", []string{"record", "fieldKind", "y", "x"},
		"Cropped SSH and SST patches centered on each profile", ""},
}

// Write stores the dataset in a NetCDF file for the training stage.
func (d *Dataset) Write(ff *os.File) error {
	h := cdf.NewHeader(
		[]string{"record", "headerInfo", "level", "fieldKind", "y", "x"},
		[]int{d.Header.Shape[0], 3, d.Pressure.Shape[1], 2, d.Maps.Shape[2], d.Maps.Shape[3]})
	h.AddAttribute("", "comment", "DO-Estimation training dataset")
	h.AddAttribute("", "created", time.Now().UTC().Format(time.RFC3339))
	for _, v := range datasetVars {
		h.AddVariable(v.name, v.dims, []float32{0})
		h.AddAttribute(v.name, "description", v.description)
		if v.units != "" {
			h.AddAttribute(v.name, "units", v.units)
		}
	}
	h.Define()

	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("doestimation: write dataset: %v", err)
	}
	arrays := []*sparse.DenseArray{d.Header, d.Pressure, d.Salinity, d.Temperature, d.Maps}
	for i, v := range datasetVars {
		if err := writeNCF(f, v.name, arrays[i]); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(ff)
}

// ReadDataset loads a dataset previously stored with Write.
func ReadDataset(ff *os.File) (*Dataset, error) {
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("doestimation: read dataset: %v", err)
	}
	arrays := make([]*sparse.DenseArray, len(datasetVars))
	for i, v := range datasetVars {
		arrays[i], err = readNCF(f, v.name)
		if err != nil {
			return nil, err
		}
	}
	return &Dataset{
		Header:      arrays[0],
		Pressure:    arrays[1],
		Salinity:    arrays[2],
		Temperature: arrays[3],
		Maps:        arrays[4],
	}, nil
}

func writeNCF(f *cdf.File, varName string, data *sparse.DenseArray) error {
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(varName)
	start := make([]int, len(end))
	w := f.Writer(varName, start, end)
	if _, err := w.Write(data32); err != nil {
		return fmt.Errorf("doestimation: write variable %s: %v", varName, err)
	}
	return nil
}

func readNCF(f *cdf.File, varName string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("doestimation: variable %s not in dataset file", varName)
	}
	r := f.Reader(varName, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("doestimation: read variable %s: %v", varName, err)
	}
	data := sparse.ZerosDense(dims...)
	for i, v := range buf.([]float32) {
		data.Elements[i] = float64(v)
	}
	return data, nil
}
