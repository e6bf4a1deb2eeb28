package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegisterTelegramUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewUserService(store.Profiles, zap.NewNop())

	first, err := svc.RegisterTelegramUser(ctx, 42, "Ada", "Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", first.Name)
	assert.Equal(t, model.RoleStudent, first.Role)

	again, err := svc.RegisterTelegramUser(ctx, 42, "Someone", "Else")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	anon, err := svc.RegisterTelegramUser(ctx, 7, "", "")
	require.NoError(t, err)
	assert.Equal(t, "telegram:7", anon.Name)
}

func TestEnsureTutor(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewUserService(store.Profiles, zap.NewNop())

	_, err := svc.Tutor(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)

	tutor, err := svc.EnsureTutor(ctx, 1, "Tutor")
	require.NoError(t, err)
	assert.True(t, tutor.IsTutor())

	same, err := svc.EnsureTutor(ctx, 1, "Tutor")
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, same.ID)

	found, err := svc.Tutor(ctx)
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, found.ID)

	_, err = svc.EnsureTutor(ctx, 2, "Second tutor")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.RegisterTelegramUser(ctx, 3, "Stu", "")
	require.NoError(t, err)
	_, err = svc.EnsureTutor(ctx, 3, "Stu")
	assert.ErrorIs(t, err, model.ErrValidation)
}
