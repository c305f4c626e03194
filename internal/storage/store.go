// Package storage persists scenario runs: one directory per run holding
// metadata.json and telemetry.csv, plus a SQLite index for listing.
package storage

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrBadTable    = errors.New("storage: row width does not match columns")
)

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
	indexFile     = "index.db"
)

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Mode       string             `json:"mode"`
	DynRate    float64            `json:"dyn_rate"`
	FswRate    float64            `json:"fsw_rate"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Samples    int                `json:"samples"`
	Figures    map[string]string  `json:"figures,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Table is a sampled telemetry table. Times are in seconds.
type Table struct {
	Columns []string
	Times   []float64
	Rows    [][]float64
}

func (t Table) validate() error {
	if len(t.Times) != len(t.Rows) {
		return fmt.Errorf("%w: %d times for %d rows", ErrBadTable, len(t.Times), len(t.Rows))
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrBadTable, i, len(row), len(t.Columns))
		}
	}
	return nil
}

type Store struct {
	baseDir string
	db      *sql.DB
}

// Open creates baseDir if needed and opens the run index.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	dsn := filepath.Join(filepath.Clean(baseDir), indexFile) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping index: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   TEXT NOT NULL,
	preset     TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL,
	duration_s REAL NOT NULL,
	samples    INTEGER NOT NULL,
	created_at INTEGER NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create index: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dir returns the directory of a run.
func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// Save writes the run directory and indexes it. An empty meta.ID is
// replaced by NewRunID.
func (s *Store) Save(ctx context.Context, meta RunMetadata, tel Table) (string, error) {
	if err := tel.validate(); err != nil {
		return "", err
	}
	if meta.ID == "" {
		meta.ID = NewRunID()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	meta.Samples = len(tel.Rows)
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTable(filepath.Join(runDir, telemetryFile), tel); err != nil {
		return "", err
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, scenario, preset, mode, duration_s, samples, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Scenario, meta.Preset, meta.Mode, meta.Duration, meta.Samples, meta.Timestamp.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: index run: %w", err)
	}
	return meta.ID, nil
}

// List returns indexed runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(ids))
	for _, id := range ids {
		meta, err := s.Load(id)
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode metadata: %w", err)
	}
	return &meta, nil
}

// LoadTelemetry reads the telemetry table of a run.
func (s *Store) LoadTelemetry(runID string) (Table, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), telemetryFile))
	if errors.Is(err, os.ErrNotExist) {
		return Table{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Table{}, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("storage: read telemetry: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	tel := Table{Columns: records[0][1:]}
	for i, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return Table{}, fmt.Errorf("storage: row %d time: %w", i+1, err)
		}
		row := make([]float64, len(rec)-1)
		for j, field := range rec[1:] {
			if row[j], err = strconv.ParseFloat(field, 64); err != nil {
				return Table{}, fmt.Errorf("storage: row %d col %d: %w", i+1, j+1, err)
			}
		}
		tel.Times = append(tel.Times, t)
		tel.Rows = append(tel.Rows, row)
	}
	return tel, nil
}

// Column returns the named column, or false when it is absent.
func (t Table) Column(name string) ([]float64, bool) {
	for j, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			out[i] = row[j]
		}
		return out, true
	}
	return nil, false
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(path string, tel Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, tel); err != nil {
		return err
	}
	return f.Close()
}
