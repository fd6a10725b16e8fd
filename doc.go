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

// Package doestimation builds supervised-learning training datasets for
// ocean-interior estimation. It joins in-situ Argo float profiles with
// satellite-derived sea-surface height and temperature snapshots: each
// profile is matched to the gridded fields for its observation date, a
// fixed-size patch is cropped around its location, and the irregular
// vertical measurements are resampled onto a uniform pressure grid with a
// shape-preserving Akima spline. The accepted records accumulate into
// parallel fixed-shape arrays suitable for batch training.
package doestimation
