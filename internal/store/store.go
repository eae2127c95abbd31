// Package store persists runs (a player advancing through a sequence of
// encounters) in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterkuimelis/netrun/internal/game"
	"github.com/peterkuimelis/netrun/internal/store/migrations"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"  // every encounter cleared
	StatusLost   Status = "lost" // player defeated
)

// Run is one persisted playthrough. Encounter is the index of the next
// encounter to fight.
type Run struct {
	ID         string
	PlayerName string
	Build      string
	Encounter  int
	Status     Status
	Player     *game.Player
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CombatRecord is the summary of one finished combat within a run.
type CombatRecord struct {
	RunID       string    `json:"run_id"`
	Encounter   int       `json:"encounter"`
	EncounterID string    `json:"encounter_id"`
	Result      string    `json:"result"`
	Turns       int       `json:"turns"`
	Credits     int       `json:"credits"`
	Reward      string    `json:"reward,omitempty"` // chosen reward card id, empty when skipped
	FinishedAt  time.Time `json:"finished_at"`
}

// Store persists runs in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite run store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateRun starts a new active run for the player at the first encounter.
func (s *Store) CreateRun(ctx context.Context, p *game.Player) (Run, error) {
	if err := s.ready(ctx); err != nil {
		return Run{}, err
	}
	if p == nil {
		return Run{}, fmt.Errorf("player is required")
	}
	data, err := p.Serialize()
	if err != nil {
		return Run{}, fmt.Errorf("encode player: %w", err)
	}
	now := s.now().UTC()
	run := Run{
		ID:         uuid.NewString(),
		PlayerName: p.Name,
		Build:      p.Build.ID,
		Status:     StatusActive,
		Player:     p,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO runs (id, player_name, build, encounter, status, player_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.PlayerName, run.Build, run.Encounter, string(run.Status), data,
		toMillis(now), toMillis(now),
	)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// SaveRun writes the run's progress and player state.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if run == nil || run.Player == nil {
		return fmt.Errorf("run with player is required")
	}
	data, err := run.Player.Serialize()
	if err != nil {
		return fmt.Errorf("encode player: %w", err)
	}
	run.UpdatedAt = s.now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE runs SET encounter = ?, status = ?, player_json = ?, updated_at = ? WHERE id = ?`,
		run.Encounter, string(run.Status), data, toMillis(run.UpdatedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("save run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

const runColumns = `id, player_name, build, encounter, status, player_json, created_at, updated_at`

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	if err := s.ready(ctx); err != nil {
		return Run{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recently updated first.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY updated_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its combat history.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordCombat appends a finished combat to the run's history. Recording the
// same encounter twice replaces the earlier entry.
func (s *Store) RecordCombat(ctx context.Context, rec CombatRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO combats (run_id, encounter, encounter_id, result, turns, credits, reward, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Encounter, rec.EncounterID, rec.Result, rec.Turns, rec.Credits, rec.Reward,
		toMillis(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("record combat for run %s: %w", rec.RunID, err)
	}
	return nil
}

// ListCombats returns a run's combat history in encounter order.
func (s *Store) ListCombats(ctx context.Context, runID string) ([]CombatRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT run_id, encounter, encounter_id, result, turns, credits, reward, finished_at
		 FROM combats WHERE run_id = ? ORDER BY encounter`, runID)
	if err != nil {
		return nil, fmt.Errorf("list combats: %w", err)
	}
	defer rows.Close()

	var out []CombatRecord
	for rows.Next() {
		var rec CombatRecord
		var finished int64
		if err := rows.Scan(&rec.RunID, &rec.Encounter, &rec.EncounterID, &rec.Result,
			&rec.Turns, &rec.Credits, &rec.Reward, &finished); err != nil {
			return nil, fmt.Errorf("list combats: %w", err)
		}
		rec.FinishedAt = fromMillis(finished)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list combats: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run              Run
		status           string
		data             []byte
		created, updated int64
	)
	if err := row.Scan(&run.ID, &run.PlayerName, &run.Build, &run.Encounter, &status,
		&data, &created, &updated); err != nil {
		return Run{}, err
	}
	p, err := game.DeserializePlayer(data)
	if err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.Player = p
	run.CreatedAt = fromMillis(created)
	run.UpdatedAt = fromMillis(updated)
	return run, nil
}
