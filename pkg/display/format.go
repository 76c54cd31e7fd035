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
	"strconv"
	"strings"
)

// Parameter groups in display order.
const (
	groupOther = "Other"
	groupDrive = "Drive"
	groupTemps = "Temps"
	groupTPMS  = "TPMS"
	groupVMCU  = "VMCU"
	groupBMS   = "BMS"
	groupCells = "Cells"
)

var groupOrder = []string{groupOther, groupDrive, groupTemps, groupTPMS, groupVMCU, groupBMS, groupCells}

// groupFor buckets a parameter by its name conventions.
func groupFor(key string) string {
	switch {
	case strings.HasPrefix(key, "Cell_") && strings.Contains(key, "_V"):
		return groupCells
	case strings.HasPrefix(key, "VMCU"):
		return groupVMCU
	case strings.HasPrefix(key, "BMS"):
		return groupBMS
	case strings.Contains(key, "Temp") || strings.Contains(key, "_C"):
		return groupTemps
	case strings.Contains(key, "Gear") || strings.Contains(key, "Brake") || strings.Contains(key, "Regen"):
		return groupDrive
	case strings.Contains(key, "psi"):
		return groupTPMS
	default:
		return groupOther
	}
}

// formatValue renders a value with a unit inferred from the parameter
// name. Nulls render as a placeholder.
func formatValue(key string, v interface{}) string {
	if v == nil {
		return "---"
	}

	f, ok := v.(float64)
	if !ok {
		if b, isBool := v.(bool); isBool {
			return strconv.FormatBool(b)
		}

		return fmt.Sprintf("%v", v)
	}

	switch {
	case strings.Contains(key, "Temp") || strings.Contains(key, "_C"):
		return fmt.Sprintf("%.0f°", f)
	case strings.Contains(key, "pct") || strings.Contains(key, "SOC") || strings.Contains(key, "SOH"):
		return fmt.Sprintf("%.1f%%", f)
	case strings.Contains(key, "Voltage") || strings.Contains(key, "_V"):
		return fmt.Sprintf("%.2fV", f)
	case strings.Contains(key, "Current") || strings.Contains(key, "_A"):
		return fmt.Sprintf("%.1fA", f)
	case strings.Contains(key, "Power") || strings.Contains(key, "_kW"):
		return fmt.Sprintf("%.1fkW", f)
	case strings.Contains(key, "psi"):
		return fmt.Sprintf("%.1f", f)
	default:
		return fmt.Sprintf("%.2f", f)
	}
}

var shortKeyReplacer = strings.NewReplacer(
	"_pct", "%",
	"_V", "V",
	"_A", "A",
	"_kW", "kW",
	"_C", "°",
	"_km", "km",
	"Batt_", "",
	"Cell_V_", "Cell",
)

// shortKey compacts a parameter name for the grouped readout.
func shortKey(key string) string {
	return shortKeyReplacer.Replace(key)
}
