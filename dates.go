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

import "time"

// JulianDayNumber returns the Julian day number of the given date in the
// proleptic Gregorian calendar. The time-of-day component is ignored.
func JulianDayNumber(date time.Time) int {
	y, m, d := date.Year(), int(date.Month()), date.Day()
	a := (14 - m) / 12
	y += 4800 - a
	m += 12*a - 3
	return d + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// ElapsedDays returns the signed number of whole days from reference to
// date. The result is negative when date precedes reference.
func ElapsedDays(date, reference time.Time) int {
	return JulianDayNumber(date) - JulianDayNumber(reference)
}

// InPeriod reports whether date falls within [min, max], inclusive at both
// ends. Only calendar dates are compared; time-of-day and time zone are
// ignored.
func InPeriod(date, min, max time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(min)) && !d.After(dateOnly(max))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
