package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const ruleColumns = `id, tutor_id, weekday, start_time, end_time, slot_minutes, meeting_link, active, created_at, updated_at`

// AvailabilityRuleRepository stores availability_rules
type AvailabilityRuleRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewAvailabilityRuleRepository(pool *pgxpool.Pool, logger *zap.Logger) *AvailabilityRuleRepository {
	return &AvailabilityRuleRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

func toPgTime(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) model.TimeOfDay {
	return model.TimeOfDay(t.Microseconds / 1_000_000)
}

func scanRule(row interface{ Scan(dest ...any) error }) (*model.AvailabilityRule, error) {
	var (
		rule       model.AvailabilityRule
		start, end pgtype.Time
	)
	err := row.Scan(
		&rule.ID,
		&rule.TutorID,
		&rule.Weekday,
		&start,
		&end,
		&rule.SlotMinutes,
		&rule.MeetingLink,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.StartTime = fromPgTime(start)
	rule.EndTime = fromPgTime(end)
	return &rule, nil
}

func (r *AvailabilityRuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (tutor_id, weekday, start_time, end_time, slot_minutes, meeting_link, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		rule.TutorID,
		rule.Weekday,
		toPgTime(rule.StartTime),
		toPgTime(rule.EndTime),
		rule.SlotMinutes,
		rule.MeetingLink,
		rule.Active,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)

	return base.MapError("create availability rule", err)
}

func (r *AvailabilityRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE id = $1`

	rule, err := scanRule(r.QueryRow(ctx, query, id))
	if err != nil {
		return nil, base.MapError("get availability rule", err)
	}
	return rule, nil
}

func (r *AvailabilityRuleRepository) Update(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		UPDATE availability_rules
		SET weekday = $2, start_time = $3, end_time = $4, slot_minutes = $5, meeting_link = $6, active = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		rule.ID,
		rule.Weekday,
		toPgTime(rule.StartTime),
		toPgTime(rule.EndTime),
		rule.SlotMinutes,
		rule.MeetingLink,
		rule.Active,
	).Scan(&rule.UpdatedAt)

	return base.MapError("update availability rule", err)
}

// Deactivate soft-deletes the rule
func (r *AvailabilityRuleRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE availability_rules SET active = false, updated_at = now() WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return base.MapError("deactivate availability rule", err)
	}
	if affected == 0 {
		return fmt.Errorf("deactivate availability rule: %w", model.ErrNotFound)
	}

	r.logger.Debug("Availability rule deactivated", zap.String("rule_id", id.String()))
	return nil
}

func (r *AvailabilityRuleRepository) ListActive(ctx context.Context) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE active = true
		ORDER BY weekday, start_time
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, base.MapError("list active availability rules", err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, base.MapError("scan availability rule", err)
		}
		rules = append(rules, rule)
	}

	return rules, base.MapError("list active availability rules", rows.Err())
}
