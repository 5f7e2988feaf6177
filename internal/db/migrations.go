package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			owner       INTEGER NOT NULL,
			summary     TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location    TEXT NOT NULL DEFAULT '',
			start_unix  INTEGER NOT NULL,
			end_unix    INTEGER NOT NULL,
			tz          TEXT NOT NULL DEFAULT 'UTC',
			all_day     INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'confirmed',
			recurrence  TEXT NOT NULL DEFAULT '',
			color_id    TEXT NOT NULL DEFAULT '',
			html_link   TEXT NOT NULL DEFAULT '',
			meet_link   TEXT NOT NULL DEFAULT '',
			reminders   TEXT NOT NULL DEFAULT '{}',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_events_owner_start ON events(owner, start_unix);

		CREATE TABLE IF NOT EXISTS series_plans (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			owner          INTEGER NOT NULL,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			deadline_unix  INTEGER NOT NULL,
			total_minutes  INTEGER NOT NULL,
			block_minutes  INTEGER NOT NULL,
			allow_weekends INTEGER NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'planned' CHECK(status IN ('planned', 'committed', 'partial')),
			created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS series_blocks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id    INTEGER NOT NULL REFERENCES series_plans(id) ON DELETE CASCADE,
			idx        INTEGER NOT NULL,
			label      TEXT NOT NULL,
			start_unix INTEGER NOT NULL,
			end_unix   INTEGER NOT NULL,
			event_id   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_series_blocks_plan ON series_blocks(plan_id);

		CREATE TABLE IF NOT EXISTS habits (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			owner             INTEGER NOT NULL,
			name              TEXT NOT NULL,
			duration_minutes  INTEGER NOT NULL,
			time_window       TEXT NOT NULL DEFAULT '',
			sessions_per_week INTEGER NOT NULL CHECK(sessions_per_week BETWEEN 1 AND 7),
			fixed_time        TEXT NOT NULL DEFAULT '',
			start_unix        INTEGER NOT NULL,
			created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_habits_owner ON habits(owner);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return nil
}
