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
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
)

const testFill = -9999

// fieldValue gives each grid cell a distinct value that is exactly
// representable as a float32.
func fieldValue(la, lo int) float64 { return float64(la*2000 + lo) }

func fieldDims(kind FieldKind, nLat, nLon int) ([]string, []int) {
	if kind == SST {
		return []string{"time", "depth", "latitude", "longitude"}, []int{1, 2, nLat, nLon}
	}
	return []string{"time", "latitude", "longitude"}, []int{1, nLat, nLon}
}

// writeFieldFile writes a snapshot fixture whose surface layer holds
// value(la, lo). For SST files the second depth layer is filled with -1 so a
// read of the wrong layer is visible in the patch.
func writeFieldFile(t *testing.T, path string, kind FieldKind, nLat, nLon int, value func(la, lo int) float32) {
	t.Helper()
	varName, err := kind.varName()
	if err != nil {
		t.Fatal(err)
	}
	dims, lengths := fieldDims(kind, nLat, nLon)
	h := cdf.NewHeader(dims, lengths)
	h.AddVariable(varName, dims, []float32{0})
	h.AddAttribute(varName, "_FillValue", []float32{testFill})
	h.Define()

	n := 1
	for _, l := range lengths {
		n *= l
	}
	buf := make([]float32, n)
	for la := 0; la < nLat; la++ {
		for lo := 0; lo < nLon; lo++ {
			buf[la*nLon+lo] = value(la, lo)
		}
	}
	if kind == SST {
		for i := nLat * nLon; i < n; i++ {
			buf[i] = -1
		}
	}

	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	w := f.Writer(varName, make([]int, len(lengths)), lengths)
	if _, err := w.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		t.Fatal(err)
	}
}

func TestCropPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh_dm20100101.nc")
	writeFieldFile(t, path, SSH, 16, 16, func(la, lo int) float32 {
		return float32(fieldValue(la, lo))
	})

	// Latitude -82° is grid index 4; a 2°-wide patch spans indices 0..8.
	// Longitude 1.5° is index 6, spanning 2..10.
	cfg := CropConfig{ZonalDegrees: 2, MeridionalDegrees: 2}
	patch, err := CropPatch(path, SSH, -82, 1.5, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(patch.Shape) != 2 || patch.Shape[0] != 9 || patch.Shape[1] != 9 {
		t.Fatalf("patch shape = %v, want [9 9]", patch.Shape)
	}
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			if got, want := patch.Get(i, j), fieldValue(i, 2+j); got != want {
				t.Fatalf("patch[%d, %d] = %v, want %v", i, j, got, want)
			}
		}
	}

	// Off-grid positions are rounded to the nearest cell first, so a float
	// position near (-82, 1.5) yields the identical patch.
	patch2, err := CropPatch(path, SSH, -82.1, 1.43, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range patch.Elements {
		if patch.Elements[i] != patch2.Elements[i] {
			t.Fatalf("rounded position produced a different patch at element %d", i)
		}
	}
}

func TestCropPatchSSTSurfaceLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sst_dm20100101.nc")
	writeFieldFile(t, path, SST, 16, 16, func(la, lo int) float32 {
		return float32(fieldValue(la, lo))
	})
	patch, err := CropPatch(path, SST, -82, 1.5, CropConfig{ZonalDegrees: 2, MeridionalDegrees: 2})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < patch.Shape[0]; i++ {
		for j := 0; j < patch.Shape[1]; j++ {
			got := patch.Get(i, j)
			if got == -1 {
				t.Fatalf("patch[%d, %d] came from the deep layer", i, j)
			}
			if want := fieldValue(i, 2+j); got != want {
				t.Fatalf("patch[%d, %d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestCropPatchMasked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssh_dm20100101.nc")
	writeFieldFile(t, path, SSH, 16, 16, func(la, lo int) float32 {
		switch {
		case la == 4 && lo == 6:
			return testFill
		case la == 5 && lo == 7:
			return float32(math.NaN())
		}
		return float32(fieldValue(la, lo))
	})
	patch, err := CropPatch(path, SSH, -82, 1.5, CropConfig{ZonalDegrees: 2, MeridionalDegrees: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := patch.Get(4, 4); got != 0 {
		t.Errorf("masked cell = %v, want 0", got)
	}
	if got := patch.Get(5, 5); got != 0 {
		t.Errorf("NaN cell = %v, want 0", got)
	}
	if got, want := patch.Get(0, 0), fieldValue(0, 2); got != want {
		t.Errorf("unmasked cell = %v, want %v", got, want)
	}
}

// TestCropPatchPacked reads int16 data packed with scale_factor/add_offset
// and a missing_value attribute, as distributed reanalysis products are.
func TestCropPatchPacked(t *testing.T) {
	const (
		missing = -32767
		scale   = 0.5
		offset  = 100.0
	)
	nLat, nLon := 16, 16
	dims, lengths := fieldDims(SSH, nLat, nLon)
	h := cdf.NewHeader(dims, lengths)
	h.AddVariable("zos", dims, []int16{0})
	h.AddAttribute("zos", "missing_value", []int16{missing})
	h.AddAttribute("zos", "scale_factor", []float64{scale})
	h.AddAttribute("zos", "add_offset", []float64{offset})
	h.Define()

	buf := make([]int16, nLat*nLon)
	for la := 0; la < nLat; la++ {
		for lo := 0; lo < nLon; lo++ {
			buf[la*nLon+lo] = int16(la*100 + lo)
		}
	}
	buf[4*nLon+6] = missing

	path := filepath.Join(t.TempDir(), "ssh_dm20100101.nc")
	ff, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Writer("zos", make([]int, len(lengths)), lengths).Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		t.Fatal(err)
	}
	ff.Close()

	patch, err := CropPatch(path, SSH, -82, 1.5, CropConfig{ZonalDegrees: 2, MeridionalDegrees: 2})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			want := float64(i*100+2+j)*scale + offset
			if i == 4 && j == 4 {
				want = 0 // the missing cell, unscaled
			}
			if got := patch.Get(i, j); got != want {
				t.Fatalf("patch[%d, %d] = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestCropPatchErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ssh_dm20100101.nc")
	writeFieldFile(t, path, SSH, 16, 16, func(la, lo int) float32 { return 0 })

	cfg := CropConfig{ZonalDegrees: 2, MeridionalDegrees: 2}
	if _, err := CropPatch(path, SSH, -83, 1.5, cfg); err == nil {
		t.Error("accepted a window extending below latitude index 0")
	}
	if _, err := CropPatch(path, SSH, -82, 359, cfg); err == nil {
		t.Error("accepted a window beyond the longitude extent")
	}
	// The fixture has no thetao variable.
	if _, err := CropPatch(path, SST, -82, 1.5, cfg); err == nil {
		t.Error("accepted a file without the requested variable")
	}
	if _, err := CropPatch(filepath.Join(dir, "nope.nc"), SSH, -82, 1.5, cfg); err == nil {
		t.Error("accepted a missing file")
	}
}

func TestFindFieldFile(t *testing.T) {
	files := []string{
		"/data/ssh/nrt_global_dm20100101_p.nc",
		"/data/ssh/nrt_global_dm20100102_p.nc",
	}
	got, ok := FindFieldFile(files, time.Date(2010, time.January, 2, 0, 0, 0, 0, time.UTC))
	if !ok || got != files[1] {
		t.Errorf("FindFieldFile(2010-01-02) = (%q, %v), want (%q, true)", got, ok, files[1])
	}
	if _, ok := FindFieldFile(files, time.Date(2010, time.January, 3, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("FindFieldFile matched a date with no snapshot")
	}
	if _, ok := FindFieldFile(nil, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("FindFieldFile matched against an empty list")
	}
}

func TestListFieldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_dm20100102.nc", "a_dm20100101.nc", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	files, err := ListFieldFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a_dm20100101.nc"),
		filepath.Join(dir, "b_dm20100102.nc"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("ListFieldFiles = %v, want %v", files, want)
	}
}
