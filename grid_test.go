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
	"errors"
	"math"
	"testing"
)

func TestRoundToGrid(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{35.5, 35.5},
		{35.4, 35.5},
		{35.6, 35.5},
		{140.25, 140.25},
		// Halfway values round away from zero, not to even.
		{0.125, 0.25},
		{0.375, 0.5},
		{-0.125, -0.25},
		{35.125, 35.25},
		{-35.125, -35.25},
		{0.1249, 0},
		{-0.1249, 0},
	}
	for _, test := range tests {
		if got := RoundToGrid(test.in); got != test.want {
			t.Errorf("RoundToGrid(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}

// TestRoundToGridCells checks that every value within
// [n*0.25−0.125, n*0.25+0.125) maps to n*0.25, with the boundary at +0.125
// rounding up.
func TestRoundToGridCells(t *testing.T) {
	const eps = 1e-9
	for n := -400; n <= 400; n++ {
		center := float64(n) * 0.25
		for _, in := range []float64{center - 0.125, center, center + 0.125 - eps} {
			want := center
			if in == center-0.125 && center <= 0 {
				// The lower boundary is halfway to the next cell; away from
				// zero it belongs to the cell below for non-positive centers.
				want = center - 0.25
			}
			if got := RoundToGrid(in); math.Abs(got-want) > eps {
				t.Fatalf("RoundToGrid(%v) = %v, want %v (n=%d)", in, got, want, n)
			}
		}
	}
}

func TestAxisIndexRange(t *testing.T) {
	tests := []struct {
		v        float64
		width    int
		axis     Axis
		min, max int
	}{
		// Latitude index 0 is at -83°.
		{35.5, 10, Latitude, 454, 494},
		{-83, 0, Latitude, 0, 0},
		{-82, 2, Latitude, 0, 8},
		{89.75, 0, Latitude, 691, 691},
		// Longitude has no origin offset.
		{140.25, 10, Longitude, 541, 581},
		{1.5, 2, Longitude, 2, 10},
		{0, 0, Longitude, 0, 0},
	}
	for _, test := range tests {
		min, max, err := AxisIndexRange(test.v, test.width, test.axis)
		if err != nil {
			t.Errorf("AxisIndexRange(%v, %d, %v): %v", test.v, test.width, test.axis, err)
			continue
		}
		if min != test.min || max != test.max {
			t.Errorf("AxisIndexRange(%v, %d, %v) = (%d, %d), want (%d, %d)",
				test.v, test.width, test.axis, min, max, test.min, test.max)
		}
		if got, want := max-min, test.width*CellsPerDegree; got != want {
			t.Errorf("AxisIndexRange(%v, %d, %v) spans %d cells, want %d",
				test.v, test.width, test.axis, got, want)
		}
	}
}

func TestAxisIndexRangeInvalidAxis(t *testing.T) {
	_, _, err := AxisIndexRange(0, 10, Axis(42))
	if err == nil {
		t.Fatal("AxisIndexRange accepted an invalid axis")
	}
	var axisErr *InvalidAxisError
	if !errors.As(err, &axisErr) {
		t.Fatalf("error %v is not an *InvalidAxisError", err)
	}
	if axisErr.Axis != Axis(42) {
		t.Errorf("InvalidAxisError.Axis = %v, want Axis(42)", axisErr.Axis)
	}
}
