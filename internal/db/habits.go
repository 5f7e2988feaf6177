package db

import (
	"context"
	"fmt"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/habit"
)

// CreateHabit records a habit for user.
func (s *SQLite) CreateHabit(ctx context.Context, user int64, h habit.Habit) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (owner, name, duration_minutes, time_window, sessions_per_week, fixed_time, start_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user, h.Name, h.DurationMinutes, h.Window, h.SessionsPerWeek, h.FixedTime, h.StartDate.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting habit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// ListHabits returns the habits of user in creation order.
func (s *SQLite) ListHabits(ctx context.Context, user int64, loc *time.Location) ([]habit.Habit, error) {
	if loc == nil {
		loc = time.UTC
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, duration_minutes, time_window, sessions_per_week, fixed_time, start_unix
		FROM habits
		WHERE owner = ?
		ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("querying habits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var habits []habit.Habit
	for rows.Next() {
		var (
			h     habit.Habit
			start int64
		)
		if err := rows.Scan(&h.ID, &h.Name, &h.DurationMinutes, &h.Window, &h.SessionsPerWeek, &h.FixedTime, &start); err != nil {
			return nil, fmt.Errorf("scanning habit: %w", err)
		}
		h.StartDate = time.Unix(start, 0).In(loc)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating habits: %w", err)
	}
	return habits, nil
}
