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

// Package display renders readings to the console. It holds no state
// beyond its styles; every Render call is a pure function of the
// reading passed in.
package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/wicantools/wicanlog/pkg/models"
)

// Dracula theme colors.
const (
	draculaCyan    = "#8BE9FD"
	draculaGreen   = "#50FA7B"
	draculaPurple  = "#BD93F9"
	draculaComment = "#6272A4"
)

const (
	lineWidth     = 78
	cellsPerLine  = 16
	separatorChar = "="
)

type styles struct {
	header, group, accent, dim lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)).
			Bold(true),
		group: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true),
		accent: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
	}
}

// Renderer writes the live console view of captured readings.
type Renderer struct {
	mode   models.DisplayMode
	out    io.Writer
	styles styles
}

func New(mode models.DisplayMode, out io.Writer) *Renderer {
	return &Renderer{
		mode:   mode,
		out:    out,
		styles: newStyles(),
	}
}

// Render displays one reading according to the configured mode.
func (r *Renderer) Render(reading *models.Reading, row int) {
	switch r.mode {
	case models.DisplayCompact:
		r.renderCompact(reading, row)
	case models.DisplayKey:
		r.renderKey(reading, row)
	default:
		r.renderAll(reading, row)
	}
}

// renderAll prints the full grouped readout.
func (r *Renderer) renderAll(reading *models.Reading, row int) {
	sep := r.styles.dim.Render(strings.Repeat(separatorChar, lineWidth))

	fmt.Fprintf(r.out, "\n%s\n", sep)
	fmt.Fprintf(r.out, "%s\n", r.styles.header.Render(
		fmt.Sprintf("[%s] Row %d | %d parameters", clockTime(reading.Timestamp), row, len(reading.Fields))))
	fmt.Fprintf(r.out, "%s\n", sep)

	groups := groupFields(reading)

	for _, name := range groupOrder {
		items, ok := groups[name]
		if !ok {
			continue
		}

		if name == groupCells {
			r.renderCells(items)
			continue
		}

		fmt.Fprintf(r.out, "\n%s\n", r.styles.group.Render("["+name+"]"))
		r.renderWrapped(items)
	}
}

// renderCells prints cell voltages in fixed-width rows of 16.
func (r *Renderer) renderCells(items []models.Field) {
	fmt.Fprintf(r.out, "\n%s\n", r.styles.group.Render(fmt.Sprintf("[%s] (%d cells)", groupCells, len(items))))

	cells := make([]string, len(items))
	for i, f := range items {
		cells[i] = formatValue(f.Name, f.Value)
	}

	for i := 0; i < len(cells); i += cellsPerLine {
		end := i + cellsPerLine
		if end > len(cells) {
			end = len(cells)
		}

		fmt.Fprintf(r.out, "  %s: %s\n",
			r.styles.dim.Render(fmt.Sprintf("%02d-%02d", i+1, end)),
			strings.Join(cells[i:end], " "))
	}
}

// renderWrapped prints key:value pairs, wrapping near the line width.
func (r *Renderer) renderWrapped(items []models.Field) {
	line := "  "

	for _, f := range items {
		formatted := fmt.Sprintf("%s:%s", shortKey(f.Name), formatValue(f.Name, f.Value))

		if len(line)+len(formatted) > lineWidth {
			fmt.Fprintln(r.out, line)

			line = "  "
		}

		line += formatted + " "
	}

	if strings.TrimSpace(line) != "" {
		fmt.Fprintln(r.out, line)
	}
}

// renderCompact prints a one-line summary of the headline metrics.
func (r *Renderer) renderCompact(reading *models.Reading, row int) {
	fmt.Fprintf(r.out, "[%s] #%d | SOC:%s | %s | %s | %s | %d params\n",
		clockTime(reading.Timestamp),
		row,
		headlineValue(reading, "SOC_pct", "SOC"),
		formatNamed(reading, "HV_Voltage_V"),
		formatNamed(reading, "HV_Current_A"),
		formatNamed(reading, "HV_Power_kW"),
		len(reading.Fields))
}

// renderKey prints only the headline state-of-charge metric.
func (r *Renderer) renderKey(reading *models.Reading, row int) {
	fmt.Fprintf(r.out, "[%s] Row %d | SOC: %s | %d params\n",
		clockTime(reading.Timestamp),
		row,
		headlineValue(reading, "SOC_pct", "SOC"),
		len(reading.Fields))
}

// groupFields buckets the reading's fields by group, sorted by name
// within each group.
func groupFields(reading *models.Reading) map[string][]models.Field {
	sorted := make([]models.Field, len(reading.Fields))
	copy(sorted, reading.Fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	groups := make(map[string][]models.Field)

	for _, f := range sorted {
		g := groupFor(f.Name)
		groups[g] = append(groups[g], f)
	}

	return groups
}

// headlineValue finds the first present key and formats it, falling
// back to a placeholder.
func headlineValue(reading *models.Reading, keys ...string) string {
	for _, k := range keys {
		if v, ok := reading.Value(k); ok {
			return formatValue(k, v)
		}
	}

	return "---"
}

func formatNamed(reading *models.Reading, key string) string {
	if v, ok := reading.Value(key); ok {
		return formatValue(key, v)
	}

	return "---"
}

func clockTime(t time.Time) string {
	return t.Format("15:04:05")
}
