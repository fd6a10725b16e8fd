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
)

// Axis identifies a geographic axis of the surface grid.
type Axis int

const (
	Latitude Axis = iota
	Longitude
)

func (a Axis) String() string {
	switch a {
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// The SSH and SST snapshots are distributed on a fixed 0.25° global grid.
// Index 0 on the latitude axis corresponds to −83.0°; the longitude axis
// starts at 0° with no offset. These are properties of the external product
// and are not discoverable from the files themselves.
const (
	// CellsPerDegree is the resolution of the surface grid.
	CellsPerDegree = 4
	latIndexOrigin = -83.0
)

// InvalidAxisError indicates an axis kind outside {Latitude, Longitude}.
type InvalidAxisError struct {
	Axis Axis
}

func (e *InvalidAxisError) Error() string {
	return fmt.Sprintf("doestimation: invalid axis %s; must be latitude or longitude", e.Axis)
}

// RoundToGrid rounds v to the nearest multiple of 0.25°. Halfway values
// round away from zero, so 35.125 maps to 35.25 and −35.125 to −35.25.
func RoundToGrid(v float64) float64 {
	return math.Round(v*CellsPerDegree) / CellsPerDegree
}

// AxisIndexRange returns the inclusive grid index bounds covering
// v ± widthDeg/2 along the given axis. v should already lie on the grid
// (see RoundToGrid).
func AxisIndexRange(v float64, widthDeg int, axis Axis) (minIdx, maxIdx int, err error) {
	var offset float64
	switch axis {
	case Latitude:
		offset = -latIndexOrigin
	case Longitude:
		offset = 0
	default:
		return 0, 0, &InvalidAxisError{Axis: axis}
	}
	half := float64(widthDeg) / 2
	minIdx = int(math.Round((v - half + offset) * CellsPerDegree))
	maxIdx = int(math.Round((v + half + offset) * CellsPerDegree))
	return minIdx, maxIdx, nil
}
