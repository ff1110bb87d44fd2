/*
Copyright © 2024 the co2map authors.
This file is part of co2map.

co2map is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

co2map is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with co2map.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command co2map is a command-line interface for mapping CO2 mass in
// reservoir simulation output.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/co2map/co2maputil"
)

func main() {
	if err := co2maputil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
