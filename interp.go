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

	"gonum.org/v1/gonum/interp"
)

// VerticalGrid defines the uniform pressure grid profiles are resampled
// onto: Min, Min+Interval, …, Max [dbar], inclusive of Max.
type VerticalGrid struct {
	Min      int
	Max      int
	Interval int
}

func (g VerticalGrid) validate() error {
	if g.Interval <= 0 {
		return fmt.Errorf("doestimation: vertical grid interval %d must be positive", g.Interval)
	}
	if g.Max < g.Min {
		return fmt.Errorf("doestimation: vertical grid max %d below min %d", g.Max, g.Min)
	}
	if (g.Max-g.Min)%g.Interval != 0 {
		return fmt.Errorf("doestimation: vertical grid span %d not a multiple of interval %d", g.Max-g.Min, g.Interval)
	}
	return nil
}

// Len returns the number of grid levels.
func (g VerticalGrid) Len() int { return (g.Max-g.Min)/g.Interval + 1 }

// Levels returns the grid levels in increasing order. The result is
// identical for every profile interpolated with the same grid.
func (g VerticalGrid) Levels() []float64 {
	levels := make([]float64, g.Len())
	for i := range levels {
		levels[i] = float64(g.Min + i*g.Interval)
	}
	return levels
}

// InterpolateProfile fits a shape-preserving Akima spline through the
// (pressure, value) samples of one profile and evaluates it at every level
// of the grid. Levels outside the sampled pressure range are clamped to the
// shallowest or deepest sample value; the pipeline does not extrapolate.
//
// Pressure samples must be strictly increasing and at least three are
// required for the spline fit; profiles violating either condition are
// rejected with an error and skipped by the assembler.
func InterpolateProfile(pressure, values []float64, g VerticalGrid) ([]float64, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if len(pressure) != len(values) {
		return nil, fmt.Errorf("doestimation: interpolate: %d pressure samples but %d values", len(pressure), len(values))
	}
	if len(pressure) < 3 {
		return nil, fmt.Errorf("doestimation: interpolate: need at least 3 samples, have %d", len(pressure))
	}
	for i := 1; i < len(pressure); i++ {
		if pressure[i] <= pressure[i-1] {
			return nil, fmt.Errorf("doestimation: interpolate: pressure not strictly increasing at layer %d (%g after %g)",
				i, pressure[i], pressure[i-1])
		}
	}

	var spline interp.AkimaSpline
	if err := spline.Fit(pressure, values); err != nil {
		return nil, fmt.Errorf("doestimation: interpolate: %v", err)
	}

	lo, hi := pressure[0], pressure[len(pressure)-1]
	out := make([]float64, g.Len())
	for i, p := range g.Levels() {
		if p < lo {
			p = lo
		} else if p > hi {
			p = hi
		}
		out[i] = spline.Predict(p)
	}
	return out, nil
}
