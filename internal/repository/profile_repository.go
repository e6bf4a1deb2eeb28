package repository

import (
	"context"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, name, timezone, whatsapp, role, telegram_id, created_at, updated_at`

type ProfileRepository struct {
	*base.Repository
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{Repository: base.NewRepository(pool)}
}

func scanProfile(row interface{ Scan(dest ...any) error }) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Timezone,
		&p.WhatsApp,
		&p.Role,
		&p.TelegramID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (name, timezone, whatsapp, role, telegram_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if profile.Timezone == "" {
		profile.Timezone = "UTC"
	}

	err := r.QueryRow(
		ctx, query,
		profile.Name,
		profile.Timezone,
		profile.WhatsApp,
		profile.Role,
		profile.TelegramID,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	return base.MapError("create profile", err)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(r.QueryRow(ctx, query, id))
	if err != nil {
		return nil, base.MapError("get profile by id", err)
	}
	return p, nil
}

func (r *ProfileRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE telegram_id = $1`

	p, err := scanProfile(r.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, base.MapError("get profile by telegram id", err)
	}
	return p, nil
}

// FindTutor returns the earliest tutor profile
func (r *ProfileRepository) FindTutor(ctx context.Context) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = 'tutor' ORDER BY created_at LIMIT 1`

	p, err := scanProfile(r.QueryRow(ctx, query))
	if err != nil {
		return nil, base.MapError("find tutor", err)
	}
	return p, nil
}

func (r *ProfileRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1::uuid[])`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, base.MapError("list profiles", err)
	}
	defer rows.Close()

	var profiles []*model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, base.MapError("scan profile", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, base.MapError("list profiles", rows.Err())
}
