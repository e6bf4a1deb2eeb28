package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
)

type Profile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Timezone   string    `json:"timezone"`
	WhatsApp   *string   `json:"whatsapp"`
	Role       Role      `json:"role"`
	TelegramID *int64    `json:"telegram_id"` // nil for profiles created outside the bot
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsTutor reports whether the profile belongs to the tutor
func (p *Profile) IsTutor() bool {
	return p.Role == RoleTutor
}
