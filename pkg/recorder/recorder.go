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

// Package recorder persists readings to a CSV artifact whose column
// set grows as the device reports fields never seen before.
package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wicantools/wicanlog/pkg/logger"
	"github.com/wicantools/wicanlog/pkg/models"
)

// timestampColumn is always the first schema column.
const timestampColumn = "timestamp"

// timestampLayout is an ISO-8601 local datetime with microseconds.
const timestampLayout = "2006-01-02T15:04:05.000000"

const artifactPerms = 0o644

// Log is a schema-evolving CSV log. The schema starts as just the
// timestamp column; unseen fields are appended in sorted batches and
// never removed or reordered. All prior readings are retained in
// memory so a schema migration can replay them. Not safe for
// concurrent use; the acquisition loop is its only writer.
type Log struct {
	path      string
	schema    []string
	schemaSet map[string]struct{}
	rows      []*models.Reading
	file      *os.File
	w         *csv.Writer
	logger    logger.Logger
}

func New(path string, log logger.Logger) *Log {
	return &Log{
		path:      path,
		schema:    []string{timestampColumn},
		schemaSet: map[string]struct{}{timestampColumn: {}},
		logger:    log,
	}
}

// Record appends one reading to the artifact. If the reading carries
// fields not yet in the schema, the schema grows first: on the very
// first reading that only means writing the header; afterwards the
// whole artifact is rewritten under the new schema, replaying every
// prior reading. When Record returns, the artifact is a complete,
// flushed table of all readings recorded so far.
func (l *Log) Record(reading *models.Reading) error {
	newFields := l.unseenFields(reading)

	if len(newFields) > 0 {
		sort.Strings(newFields)
		l.grow(newFields)

		if len(l.rows) == 0 {
			l.logger.Info().Int("fields", len(l.schema)).Msg("Initial schema established")
		} else {
			l.logger.Info().Strs("fields", newFields).Msg("New fields, migrating log")

			if err := l.migrate(); err != nil {
				return fmt.Errorf("schema migration: %w", err)
			}
		}
	}

	if l.file == nil {
		if err := l.open(); err != nil {
			return err
		}
	}

	if err := l.writeRow(reading); err != nil {
		return err
	}

	if err := l.flush(); err != nil {
		return err
	}

	l.rows = append(l.rows, reading)

	return nil
}

// RowCount returns the number of readings recorded.
func (l *Log) RowCount() int {
	return len(l.rows)
}

// Fields returns a copy of the current schema.
func (l *Log) Fields() []string {
	out := make([]string, len(l.schema))
	copy(out, l.schema)

	return out
}

// Path returns the artifact path.
func (l *Log) Path() string {
	return l.path
}

// Close flushes and closes the artifact.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}

	if err := l.flush(); err != nil {
		_ = l.file.Close()
		l.file = nil

		return err
	}

	err := l.file.Close()
	l.file = nil
	l.w = nil

	return err
}

func (l *Log) unseenFields(reading *models.Reading) []string {
	var unseen []string

	for _, f := range reading.Fields {
		if _, ok := l.schemaSet[f.Name]; !ok {
			unseen = append(unseen, f.Name)
		}
	}

	return unseen
}

func (l *Log) grow(fields []string) {
	for _, f := range fields {
		l.schema = append(l.schema, f)
		l.schemaSet[f] = struct{}{}
	}
}

// open creates the artifact and writes the header. Called exactly once
// per session, on the first recorded reading; the decision is purely
// in-memory state, the file is never introspected.
func (l *Log) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactPerms)
	if err != nil {
		return fmt.Errorf("creating log artifact: %w", err)
	}

	l.file = f
	l.w = csv.NewWriter(f)

	if err := l.w.Write(l.schema); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	return nil
}

// migrate rewrites the artifact under the grown schema, replaying all
// prior readings. The rewrite goes to a temp file in the same
// directory which is fsynced and renamed over the artifact, so an
// interruption mid-migration leaves the previous complete table in
// place.
func (l *Log) migrate() error {
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("closing artifact before migration: %w", err)
		}

		l.file = nil
		l.w = nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".migrate-*")
	if err != nil {
		return fmt.Errorf("creating migration file: %w", err)
	}

	if err := l.writeFull(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("closing migration file: %w", err)
	}

	if err := os.Chmod(tmp.Name(), artifactPerms); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("setting migration file mode: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replacing artifact: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, artifactPerms)
	if err != nil {
		return fmt.Errorf("reopening artifact: %w", err)
	}

	l.file = f
	l.w = csv.NewWriter(f)

	return nil
}

// writeFull writes the header and every prior reading under the
// current schema and syncs the file.
func (l *Log) writeFull(f *os.File) error {
	w := csv.NewWriter(f)

	if err := w.Write(l.schema); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range l.rows {
		if err := w.Write(l.renderRow(r)); err != nil {
			return fmt.Errorf("replaying row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing migration file: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing migration file: %w", err)
	}

	return nil
}

func (l *Log) writeRow(reading *models.Reading) error {
	if err := l.w.Write(l.renderRow(reading)); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}

	return nil
}

// renderRow lays the reading out under the schema. Fields absent from
// the reading render as empty cells.
func (l *Log) renderRow(reading *models.Reading) []string {
	row := make([]string, len(l.schema))

	for i, col := range l.schema {
		if col == timestampColumn {
			row[i] = reading.Timestamp.Format(timestampLayout)
			continue
		}

		if v, ok := reading.Value(col); ok {
			row[i] = models.FormatValue(v)
		}
	}

	return row
}

// flush pushes buffered rows through to durable storage.
func (l *Log) flush() error {
	l.w.Flush()

	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flushing artifact: %w", err)
	}

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing artifact: %w", err)
	}

	return nil
}

// FileTimestamp names an artifact for a session start time, matching
// the wican_log_YYYYMMDD_HHMMSS.csv convention.
func FileTimestamp(t time.Time) string {
	return fmt.Sprintf("wican_log_%s.csv", t.Format("20060102_150405"))
}
