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

// Command doest is a command-line interface for building DO-Estimation
// training datasets.
package main

import (
	"fmt"
	"os"

	"github.com/pystokes/do-estimation/doestutil"
)

func main() {
	if err := doestutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
