package db

import (
	"context"
	"fmt"
	"time"

	"github.com/LenaPetrachkova/Google-Calendar-Assistant/internal/series"
)

// PlanRecord is a stored series plan.
type PlanRecord struct {
	ID            int64
	Title         string
	Deadline      time.Time
	TotalMinutes  int
	BlockMinutes  int
	AllowWeekends bool
	Status        string
	Blocks        []BlockRecord
}

// BlockRecord is one block of a stored plan with its calendar event id.
type BlockRecord struct {
	Index   int
	Label   string
	Start   time.Time
	End     time.Time
	EventID string
}

// CreatePlan records a new plan with status planned.
func (s *SQLite) CreatePlan(ctx context.Context, user int64, req series.Request) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO series_plans (
			owner, title, description, deadline_unix, total_minutes, block_minutes, allow_weekends, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user, req.Title, req.Description, req.Deadline.Unix(),
		req.TotalMinutes, req.BlockMinutes, req.AllowWeekends, series.StatusPlanned,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}
	return id, nil
}

// AddBlock records a created block of a plan.
func (s *SQLite) AddBlock(ctx context.Context, planID int64, block series.Block, eventID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series_blocks (plan_id, idx, label, start_unix, end_unix, event_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		planID, block.Index, block.Label, block.Start.Unix(), block.End.Unix(), eventID,
	)
	if err != nil {
		return fmt.Errorf("inserting block %d of plan %d: %w", block.Index, planID, err)
	}
	return nil
}

// SetPlanStatus changes the status of a plan.
func (s *SQLite) SetPlanStatus(ctx context.Context, planID int64, status string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE series_plans SET status = ? WHERE id = ?`, status, planID)
	if err != nil {
		return fmt.Errorf("setting plan status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("plan %d not found", planID)
	}
	return nil
}

// ListPlans returns the plans of user, newest first, with their blocks.
func (s *SQLite) ListPlans(ctx context.Context, user int64, loc *time.Location) ([]PlanRecord, error) {
	if loc == nil {
		loc = time.UTC
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, deadline_unix, total_minutes, block_minutes, allow_weekends, status
		FROM series_plans
		WHERE owner = ?
		ORDER BY id DESC`, user)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}

	var plans []PlanRecord
	for rows.Next() {
		var (
			p        PlanRecord
			deadline int64
		)
		if err := rows.Scan(&p.ID, &p.Title, &deadline, &p.TotalMinutes, &p.BlockMinutes, &p.AllowWeekends, &p.Status); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		p.Deadline = time.Unix(deadline, 0).In(loc)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	_ = rows.Close()

	// Blocks are read after the plan cursor is closed; the pool has one connection.
	for i := range plans {
		blocks, err := s.planBlocks(ctx, plans[i].ID, loc)
		if err != nil {
			return nil, err
		}
		plans[i].Blocks = blocks
	}
	return plans, nil
}

func (s *SQLite) planBlocks(ctx context.Context, planID int64, loc *time.Location) ([]BlockRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, label, start_unix, end_unix, event_id
		FROM series_blocks
		WHERE plan_id = ?
		ORDER BY idx`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []BlockRecord
	for rows.Next() {
		var (
			b          BlockRecord
			start, end int64
		)
		if err := rows.Scan(&b.Index, &b.Label, &start, &end, &b.EventID); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		b.Start = time.Unix(start, 0).In(loc)
		b.End = time.Unix(end, 0).In(loc)
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blocks: %w", err)
	}
	return blocks, nil
}
