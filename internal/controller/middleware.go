package controller

import (
	"context"
	"errors"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireProfile returns the sender's profile or replies with an error
func (h *Handlers) requireProfile(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Profile, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	profile, err := h.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, model.ErrNotFound) {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "You are not registered yet. Use /start first.")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to get profile", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, err)
		return nil, false
	}

	return profile, true
}

func (h *Handlers) requireStudent(ctx context.Context, b *bot.Bot, update *models.Update) (model.Student, bool) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return model.Student{}, false
	}
	if profile.IsTutor() {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "This command is for students.")
		return model.Student{}, false
	}
	return model.Student{ID: profile.ID}, true
}

func (h *Handlers) requireTutor(ctx context.Context, b *bot.Bot, update *models.Update) (model.Tutor, bool) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return model.Tutor{}, false
	}
	if !profile.IsTutor() {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "This command is only available to the tutor.")
		return model.Tutor{}, false
	}
	return model.Tutor{ID: profile.ID}, true
}

func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	h.sendMessage(ctx, b, chatID, errorMessage(err))
}

func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
