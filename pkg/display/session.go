/*
 * Copyright 2026 WiCAN Tools Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wicantools/wicanlog/pkg/models"
)

// Banner prints the session header once the device is confirmed.
func Banner(out io.Writer, address, path string, interval time.Duration, mode models.DisplayMode) {
	st := newStyles()
	sep := st.dim.Render(strings.Repeat(separatorChar, lineWidth))

	fmt.Fprintf(out, "\n%s\n", sep)
	fmt.Fprintf(out, "%s\n", st.header.Render("WiCAN found at: "+address))
	fmt.Fprintf(out, "Output file: %s\n", path)
	fmt.Fprintf(out, "Interval: %s | Display: %s\n", interval, mode)
	fmt.Fprintf(out, "%s\n", sep)
	fmt.Fprintf(out, "\nPress Ctrl+C to stop logging\n\n")
}

// Summary prints the end-of-session report: row and field counts, the
// artifact path, and the enumerated field list.
func Summary(out io.Writer, rows int, fields []string, path string) {
	st := newStyles()
	sep := st.dim.Render(strings.Repeat(separatorChar, lineWidth))

	fmt.Fprintf(out, "\n\n%s\n", sep)
	fmt.Fprintf(out, "%s\n", st.header.Render("Logging stopped."))
	fmt.Fprintf(out, "Total rows: %d\n", rows)
	fmt.Fprintf(out, "Total fields: %d\n", len(fields))

	if rows > 0 {
		fmt.Fprintf(out, "Data saved to: %s\n", st.accent.Render(path))
		fmt.Fprintf(out, "\nAll fields captured:\n")

		for i, field := range fields {
			fmt.Fprintf(out, "  %3d. %s\n", i+1, field)
		}
	}
}
