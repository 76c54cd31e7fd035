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
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wicantools/wicanlog/pkg/models"
)

func sampleReading() *models.Reading {
	return &models.Reading{
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local),
		Fields: []models.Field{
			{Name: "SOC_pct", Value: 87.5},
			{Name: "HV_Voltage_V", Value: 398.2},
			{Name: "HV_Current_A", Value: -12.3},
			{Name: "HV_Power_kW", Value: -4.9},
			{Name: "Gear", Value: "D"},
			{Name: "Motor_Temp_C", Value: 41.0},
			{Name: "FL_psi", Value: 36.2},
			{Name: "BMS_Mode", Value: 2.0},
			{Name: "VMCU_Aux_V", Value: 12.8},
			{Name: "Cell_01_V", Value: 3.7},
			{Name: "Cell_02_V", Value: 3.69},
		},
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		key  string
		val  interface{}
		want string
	}{
		{"Motor_Temp_C", 41.4, "41°"},
		{"SOC_pct", 87.5, "87.5%"},
		{"SOH", 99.12, "99.1%"},
		{"HV_Voltage_V", 398.246, "398.25V"},
		{"HV_Current_A", -12.34, "-12.3A"},
		{"HV_Power_kW", -4.91, "-4.9kW"},
		{"FL_psi", 36.25, "36.2"},
		{"Odometer", 12345.678, "12345.68"},
		{"Range_km", nil, "---"},
		{"Gear", "D", "D"},
		{"Charging", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.key, tt.val))
		})
	}
}

func TestGroupFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"Cell_01_V", groupCells},
		{"VMCU_Aux_V", groupVMCU},
		{"BMS_Mode", groupBMS},
		{"Motor_Temp_C", groupTemps},
		{"Gear", groupDrive},
		{"Regen_Level", groupDrive},
		{"FL_psi", groupTPMS},
		{"SOC_pct", groupOther},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, groupFor(tt.key))
		})
	}
}

func TestShortKey(t *testing.T) {
	assert.Equal(t, "SOC%", shortKey("SOC_pct"))
	assert.Equal(t, "HVVoltageV", shortKey("HV_Voltage_V"))
	assert.Equal(t, "HV_PowerkW", shortKey("HV_Power_kW"))
}

func TestRenderAll(t *testing.T) {
	var buf bytes.Buffer

	New(models.DisplayAll, &buf).Render(sampleReading(), 7)

	out := buf.String()

	assert.Contains(t, out, "[09:26:53] Row 7 | 11 parameters")

	for _, group := range []string{"[Other]", "[Drive]", "[Temps]", "[TPMS]", "[VMCU]", "[BMS]"} {
		assert.Contains(t, out, group)
	}

	assert.Contains(t, out, "[Cells] (2 cells)")
	assert.Contains(t, out, "01-02: 3.70V 3.69V")

	// Groups appear in fixed order.
	assert.Less(t, strings.Index(out, "[Other]"), strings.Index(out, "[Drive]"))
	assert.Less(t, strings.Index(out, "[BMS]"), strings.Index(out, "[Cells]"))
}

func TestRenderCompact(t *testing.T) {
	var buf bytes.Buffer

	New(models.DisplayCompact, &buf).Render(sampleReading(), 3)

	line := buf.String()

	assert.Contains(t, line, "[09:26:53] #3")
	assert.Contains(t, line, "SOC:87.5%")
	assert.Contains(t, line, "398.20V")
	assert.Contains(t, line, "-12.3A")
	assert.Contains(t, line, "-4.9kW")
	assert.Contains(t, line, "11 params")
}

func TestRenderCompactMissingMetrics(t *testing.T) {
	var buf bytes.Buffer

	r := &models.Reading{
		Timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local),
		Fields:    []models.Field{{Name: "Odometer", Value: 100.0}},
	}

	New(models.DisplayCompact, &buf).Render(r, 1)

	assert.Contains(t, buf.String(), "SOC:--- | --- | --- | ---")
}

func TestRenderKey(t *testing.T) {
	var buf bytes.Buffer

	New(models.DisplayKey, &buf).Render(sampleReading(), 12)

	assert.Contains(t, buf.String(), "Row 12 | SOC: 87.5%")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer

	Summary(&buf, 42, []string{"timestamp", "SOC_pct"}, "wican_log_20260314_092653.csv")

	out := buf.String()

	assert.Contains(t, out, "Total rows: 42")
	assert.Contains(t, out, "Total fields: 2")
	assert.Contains(t, out, "wican_log_20260314_092653.csv")
	assert.Contains(t, out, "  1. timestamp")
	assert.Contains(t, out, "  2. SOC_pct")
}

func TestSummaryNoRows(t *testing.T) {
	var buf bytes.Buffer

	Summary(&buf, 0, []string{"timestamp"}, "wican_log.csv")

	out := buf.String()

	assert.Contains(t, out, "Total rows: 0")
	assert.NotContains(t, out, "Data saved")
}
