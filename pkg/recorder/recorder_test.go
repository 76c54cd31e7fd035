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

package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/models"
)

func reading(ts time.Time, fields ...models.Field) *models.Reading {
	return &models.Reading{Timestamp: ts, Fields: fields}
}

func f(name string, value interface{}) models.Field {
	return models.Field{Name: name, Value: value}
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, file.Close())
	}()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err, "artifact must always be a valid CSV table")

	return rows
}

func newTestLog(t *testing.T) *Log {
	t.Helper()

	return New(filepath.Join(t.TempDir(), "wican_log_test.csv"), logger.NewTestLogger())
}

func TestRecordFirstReading(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.Local)

	err := l.Record(reading(t0, f("SOC_pct", 87.5), f("HV_Voltage_V", 398.2)))
	require.NoError(t, err)

	table := readTable(t, l.Path())
	require.Len(t, table, 2)

	// New fields join the schema sorted, after the timestamp column.
	assert.Equal(t, []string{"timestamp", "HV_Voltage_V", "SOC_pct"}, table[0])
	assert.Equal(t, []string{"2026-03-14T09:26:53.589793", "398.2", "87.5"}, table[1])

	assert.Equal(t, 1, l.RowCount())
}

func TestRecordAppendsWithoutRewrite(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	for i := 0; i < 3; i++ {
		err := l.Record(reading(t0.Add(time.Duration(i)*time.Second), f("SOC_pct", 87.5-float64(i))))
		require.NoError(t, err)
	}

	table := readTable(t, l.Path())
	require.Len(t, table, 4)

	assert.Equal(t, []string{"timestamp", "SOC_pct"}, table[0])
	assert.Equal(t, "87.5", table[1][1])
	assert.Equal(t, "85.5", table[3][1])
}

func TestRecordMigratesOnNewField(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	t1 := t0.Add(time.Second)

	require.NoError(t, l.Record(reading(t0, f("SOC_pct", 87.5), f("HV_Voltage_V", 398.2))))
	require.NoError(t, l.Record(reading(t1, f("SOC_pct", 87.4), f("HV_Voltage_V", 398.1), f("Cell_01_V", 3.7))))

	table := readTable(t, l.Path())
	require.Len(t, table, 3)

	// Three value columns plus timestamp; existing column order kept,
	// the new field appended at the end.
	require.Equal(t, []string{"timestamp", "HV_Voltage_V", "SOC_pct", "Cell_01_V"}, table[0])

	// The earlier row has an empty cell for the field it never saw.
	assert.Equal(t, "", table[1][3])
	assert.Equal(t, "3.7", table[2][3])
	assert.Equal(t, "398.2", table[1][1])
}

func TestSchemaMonotonicity(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	require.NoError(t, l.Record(reading(t0, f("B_field", 1.0), f("A_field", 2.0))))
	require.NoError(t, l.Record(reading(t0.Add(time.Second), f("A_field", 2.0))))
	require.NoError(t, l.Record(reading(t0.Add(2*time.Second), f("C_field", 3.0))))
	require.NoError(t, l.Record(reading(t0.Add(3*time.Second), f("B_field", 1.0))))

	// Fields only accumulate; dropping a field from a reading never
	// removes its column, and columns never reorder.
	assert.Equal(t, []string{"timestamp", "A_field", "B_field", "C_field"}, l.Fields())

	table := readTable(t, l.Path())
	require.Len(t, table, 5)
	assert.Equal(t, l.Fields(), table[0])

	// Rows before the C_field migration replay with an empty cell.
	assert.Equal(t, "", table[1][3])
	assert.Equal(t, "", table[2][3])
	assert.Equal(t, "3", table[3][3])
	assert.Equal(t, "", table[4][3])
}

func TestMigrationRoundTrip(t *testing.T) {
	const total = 8

	const growAt = 4

	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	for i := 0; i < total; i++ {
		fields := []models.Field{f("SOC_pct", 87.5)}
		if i >= growAt {
			fields = append(fields, f("Cell_01_V", 3.7))
		}

		require.NoError(t, l.Record(reading(t0.Add(time.Duration(i)*time.Second), fields...)))
	}

	table := readTable(t, l.Path())
	require.Len(t, table, total+1)

	for i := 1; i <= total; i++ {
		if i-1 < growAt {
			assert.Empty(t, table[i][2], "row %d predates the field", i)
		} else {
			assert.Equal(t, "3.7", table[i][2], "row %d reported the field", i)
		}
	}
}

func TestRecordValueRendering(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	err := l.Record(reading(t0,
		f("Gear", "D"),
		f("Charging", false),
		f("Range_km", nil),
		f("SOC_pct", 87.0),
	))
	require.NoError(t, err)

	table := readTable(t, l.Path())
	require.Equal(t, []string{"timestamp", "Charging", "Gear", "Range_km", "SOC_pct"}, table[0])
	assert.Equal(t, []string{table[1][0], "false", "D", "", "87"}, table[1])
}

func TestArtifactReadableAfterEveryRecord(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	for i := 0; i < 5; i++ {
		fields := []models.Field{f("SOC_pct", 87.5)}

		// Grow the schema on every other reading.
		if i%2 == 1 {
			fields = append(fields, f(string(rune('A'+i))+"_field", float64(i)))
		}

		require.NoError(t, l.Record(reading(t0.Add(time.Duration(i)*time.Second), fields...)))

		table := readTable(t, l.Path())
		assert.Len(t, table, i+2, "after record %d the artifact is complete", i)
	}
}

func TestCloseFlushes(t *testing.T) {
	l := newTestLog(t)

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	require.NoError(t, l.Record(reading(t0, f("SOC_pct", 87.5))))
	require.NoError(t, l.Close())

	table := readTable(t, l.Path())
	assert.Len(t, table, 2)

	// Close is idempotent.
	require.NoError(t, l.Close())
}

func TestNoMigrationTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	l := New(filepath.Join(dir, "wican_log_test.csv"), logger.NewTestLogger())

	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	require.NoError(t, l.Record(reading(t0, f("SOC_pct", 87.5))))
	require.NoError(t, l.Record(reading(t0.Add(time.Second), f("SOC_pct", 87.4), f("Cell_01_V", 3.7))))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wican_log_test.csv", entries[0].Name())
}

func TestFileTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	assert.Equal(t, "wican_log_20260314_092653.csv", FileTimestamp(ts))
}
