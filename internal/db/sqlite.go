// Package db provides SQLite storage: a local calendar backend plus the
// series plan and habit records.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/calendar"
)

// SQLite stores calendars, series plans and habits for every user.
type SQLite struct {
	db *sql.DB

	mu   sync.Mutex
	locs map[string]*time.Location
}

// New opens the database at path and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLite{db: db, locs: make(map[string]*time.Location)}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ForUser returns the calendar owned by user.
func (s *SQLite) ForUser(_ context.Context, user int64) (calendar.Backend, error) {
	return &Calendar{store: s, owner: user}, nil
}

// Calendar is one user's calendar stored in SQLite. Instance ids of
// recurring events resolve to their series row.
type Calendar struct {
	store *SQLite
	owner int64
}

const eventColumns = `id, summary, description, location, start_unix, end_unix, tz,
	all_day, status, recurrence, color_id, html_link, meet_link, reminders`

// List returns events overlapping [from, to) ordered by start time.
func (c *Calendar) List(ctx context.Context, from, to time.Time, limit int) ([]calendar.Event, error) {
	return c.query(ctx, from, to, limit, "", nil)
}

// Search returns events in [from, to) whose summary, description or
// location contains query, ignoring case.
func (c *Calendar) Search(ctx context.Context, query string, from, to time.Time, limit int) ([]calendar.Event, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.List(ctx, from, to, limit)
	}
	return c.query(ctx, from, to, limit,
		` AND lower(summary || ' ' || description || ' ' || location) LIKE ? ESCAPE '\'`,
		[]any{"%" + escapeLike(q) + "%"})
}

func (c *Calendar) query(ctx context.Context, from, to time.Time, limit int, filter string, args []any) ([]calendar.Event, error) {
	// Recurring rows are always loaded; Expand decides whether they overlap.
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE owner = ? AND (recurrence != '' OR (start_unix < ? AND end_unix > ?))` + filter + `
		ORDER BY start_unix, id`

	params := append([]any{c.owner, to.Unix(), from.Unix()}, args...)
	rows, err := c.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []calendar.Event
	for rows.Next() {
		ev, err := c.store.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		occ, err := calendar.Expand(*ev, from, to, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, occ...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	calendar.SortByStart(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns an event by id.
func (c *Calendar) Get(ctx context.Context, id string) (*calendar.Event, error) {
	row := c.store.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner = ? AND id = ?`,
		c.owner, calendar.BaseID(id))
	ev, err := c.store.scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, calendar.ErrNotFound
	}
	return ev, err
}

// Create stores a new event under a fresh id.
func (c *Calendar) Create(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	stored := ev.Clone()
	stored.ID = uuid.NewString()
	calendar.Finalize(stored)

	reminders, err := json.Marshal(stored.Reminders)
	if err != nil {
		return nil, fmt.Errorf("encoding reminders: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO events (
			id, owner, summary, description, location, start_unix, end_unix, tz,
			all_day, status, recurrence, color_id, html_link, meet_link, reminders
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, c.owner, stored.Summary, stored.Description, stored.Location,
		stored.Start.Unix(), stored.End.Unix(), stored.Start.Location().String(),
		stored.AllDay, stored.Status, strings.Join(stored.Recurrence, "\n"),
		stored.ColorID, stored.HTMLLink, stored.MeetLink, string(reminders),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}

	return stored, nil
}

// Update replaces a stored event.
func (c *Calendar) Update(ctx context.Context, id string, ev *calendar.Event) (*calendar.Event, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	stored := ev.Clone()
	stored.ID = calendar.BaseID(id)
	calendar.Finalize(stored)

	reminders, err := json.Marshal(stored.Reminders)
	if err != nil {
		return nil, fmt.Errorf("encoding reminders: %w", err)
	}

	result, err := c.store.db.ExecContext(ctx, `
		UPDATE events SET
			summary = ?, description = ?, location = ?, start_unix = ?, end_unix = ?, tz = ?,
			all_day = ?, status = ?, recurrence = ?, color_id = ?, html_link = ?, meet_link = ?, reminders = ?
		WHERE owner = ? AND id = ?`,
		stored.Summary, stored.Description, stored.Location,
		stored.Start.Unix(), stored.End.Unix(), stored.Start.Location().String(),
		stored.AllDay, stored.Status, strings.Join(stored.Recurrence, "\n"),
		stored.ColorID, stored.HTMLLink, stored.MeetLink, string(reminders),
		c.owner, stored.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, calendar.ErrNotFound
	}
	return stored, nil
}

// Delete removes an event.
func (c *Calendar) Delete(ctx context.Context, id string) error {
	result, err := c.store.db.ExecContext(ctx,
		`DELETE FROM events WHERE owner = ? AND id = ?`, c.owner, calendar.BaseID(id))
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return calendar.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLite) scanEvent(row scanner) (*calendar.Event, error) {
	var (
		ev                 calendar.Event
		startUnix, endUnix int64
		tz                 string
		recurrence         string
		reminders          string
	)

	err := row.Scan(
		&ev.ID,
		&ev.Summary,
		&ev.Description,
		&ev.Location,
		&startUnix,
		&endUnix,
		&tz,
		&ev.AllDay,
		&ev.Status,
		&recurrence,
		&ev.ColorID,
		&ev.HTMLLink,
		&ev.MeetLink,
		&reminders,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning event: %w", err)
	}

	loc := s.location(tz)
	ev.Start = time.Unix(startUnix, 0).In(loc)
	ev.End = time.Unix(endUnix, 0).In(loc)

	if recurrence != "" {
		ev.Recurrence = strings.Split(recurrence, "\n")
	}
	if err := json.Unmarshal([]byte(reminders), &ev.Reminders); err != nil {
		return nil, fmt.Errorf("decoding reminders of %s: %w", ev.ID, err)
	}

	return &ev, nil
}

// location resolves a stored zone name, falling back to UTC.
func (s *SQLite) location(name string) *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loc, ok := s.locs[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	s.locs[name] = loc
	return loc
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
