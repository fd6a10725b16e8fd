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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Argo profile files consist of consecutive blocks: a fixed-width header
// line, a parameter label line, exactly layer-count data lines and a
// separator line. The header encodes the observation date, position and
// layer count at fixed byte offsets; data lines hold pressure, salinity and
// temperature separated by runs of spaces.
const (
	headerDateBegin  = 20
	headerDateEnd    = 28
	headerLatBegin   = 29
	headerLatEnd     = 36
	headerLonBegin   = 37
	headerLonEnd     = 44
	headerLayerBegin = 44
	headerLayerEnd   = 48

	headerDateLayout = "20060102"
)

// ArgoProfile is one vertical series of pressure, salinity and temperature
// measurements from a single float surfacing. The three sample slices have
// LayerCount entries each, ordered from shallow to deep.
type ArgoProfile struct {
	Date        time.Time
	Latitude    float64
	Longitude   float64
	LayerCount  int
	Pressure    []float64
	Salinity    []float64
	Temperature []float64
}

// ParseError describes a malformed line in an Argo profile file. It aborts
// scanning of the file it occurs in but is recoverable by the caller, so a
// bad file does not take down a whole aggregation run.
type ParseError struct {
	Path string
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("doestimation: parse %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProfileScanner yields the profiles in one Argo text file. A block is
// always consumed whole — header, label line, layer-count data lines and
// separator — before the profile is handed to the caller, so downstream
// accept/reject decisions can never desynchronize the cursor for the
// remaining blocks. The scanner holds a forward index into the file's lines;
// it is not restartable.
type ProfileScanner struct {
	path  string
	lines []string
	pos   int
	prof  *ArgoProfile
	err   error
}

// NewProfileScanner reads all lines of r into memory and returns a scanner
// over them. path is used in error messages only.
func NewProfileScanner(r io.Reader, path string) (*ProfileScanner, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("doestimation: read %s: %v", path, err)
	}
	return &ProfileScanner{path: path, lines: lines}, nil
}

// Scan advances to the next profile block. It returns false when the file is
// exhausted or a parse error occurred; the two cases are distinguished by
// Err.
func (s *ProfileScanner) Scan() bool {
	s.prof = nil
	if s.err != nil || s.pos >= len(s.lines) {
		return false
	}

	header := s.lines[s.pos]
	s.pos++
	prof, err := parseHeader(header)
	if err != nil {
		s.fail(err)
		return false
	}

	// Parameter label line ("pr sa te").
	if s.pos >= len(s.lines) {
		s.fail(fmt.Errorf("missing parameter label line"))
		return false
	}
	s.pos++

	prof.Pressure = make([]float64, 0, prof.LayerCount)
	prof.Salinity = make([]float64, 0, prof.LayerCount)
	prof.Temperature = make([]float64, 0, prof.LayerCount)
	for i := 0; i < prof.LayerCount; i++ {
		if s.pos >= len(s.lines) {
			s.fail(fmt.Errorf("block truncated after %d of %d data lines", i, prof.LayerCount))
			return false
		}
		line := s.lines[s.pos]
		s.pos++
		pre, sal, tem, err := parseDataLine(line)
		if err != nil {
			s.fail(err)
			return false
		}
		prof.Pressure = append(prof.Pressure, pre)
		prof.Salinity = append(prof.Salinity, sal)
		prof.Temperature = append(prof.Temperature, tem)
	}

	// Separator line ("**...").
	if s.pos >= len(s.lines) {
		s.fail(fmt.Errorf("missing separator line"))
		return false
	}
	s.pos++

	s.prof = prof
	return true
}

// Profile returns the profile read by the last successful call to Scan.
func (s *ProfileScanner) Profile() *ArgoProfile { return s.prof }

// Err returns the first error encountered while scanning, if any.
func (s *ProfileScanner) Err() error { return s.err }

// LinesConsumed returns the number of lines the scanner has advanced past.
func (s *ProfileScanner) LinesConsumed() int { return s.pos }

func (s *ProfileScanner) fail(err error) {
	s.err = &ParseError{Path: s.path, Line: s.pos, Err: err}
}

func parseHeader(line string) (*ArgoProfile, error) {
	if len(line) < headerLayerEnd {
		return nil, fmt.Errorf("header too short: %d bytes, want at least %d", len(line), headerLayerEnd)
	}
	date, err := time.ParseInLocation(headerDateLayout, line[headerDateBegin:headerDateEnd], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("header date %q: %v", line[headerDateBegin:headerDateEnd], err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(line[headerLatBegin:headerLatEnd]), 64)
	if err != nil {
		return nil, fmt.Errorf("header latitude %q: %v", line[headerLatBegin:headerLatEnd], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(line[headerLonBegin:headerLonEnd]), 64)
	if err != nil {
		return nil, fmt.Errorf("header longitude %q: %v", line[headerLonBegin:headerLonEnd], err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[headerLayerBegin:headerLayerEnd]))
	if err != nil {
		return nil, fmt.Errorf("header layer count %q: %v", line[headerLayerBegin:headerLayerEnd], err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("header layer count %d out of range", n)
	}
	return &ArgoProfile{Date: date, Latitude: lat, Longitude: lon, LayerCount: n}, nil
}

func parseDataLine(line string) (pre, sal, tem float64, err error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("data line has %d fields, want 3", len(fields))
	}
	vals := make([]float64, 3)
	for i, f := range fields {
		vals[i], err = strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("data field %q: %v", f, err)
		}
	}
	return vals[0], vals[1], vals[2], nil
}
