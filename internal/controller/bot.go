package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, handlers *Handlers, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterHandlers wires every command and sets the bot menu
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	h := c.handlers

	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/slots", bot.MatchTypePrefix, h.HandleSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypePrefix, h.HandleWeek)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypePrefix, h.HandleBook)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, h.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, h.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reschedule", bot.MatchTypePrefix, h.HandleReschedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/quota", bot.MatchTypeExact, h.HandleQuota)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/msg", bot.MatchTypePrefix, h.HandleMessage)

	// tutor
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/complete", bot.MatchTypePrefix, h.HandleComplete)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/noshow", bot.MatchTypePrefix, h.HandleNoShow)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/inbox", bot.MatchTypeExact, h.HandleInbox)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reply", bot.MatchTypePrefix, h.HandleReply)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/notes", bot.MatchTypePrefix, h.HandleNotes)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/addrule", bot.MatchTypePrefix, h.HandleAddRule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/rules", bot.MatchTypeExact, h.HandleRules)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delrule", bot.MatchTypePrefix, h.HandleDeleteRule)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Register and show help"},
		{Command: "slots", Description: "Free slots for a day: /slots 2026-10-19"},
		{Command: "week", Description: "The week as a picture"},
		{Command: "book", Description: "Book a slot: /book 2026-10-19 09:00"},
		{Command: "mybookings", Description: "Your sessions"},
		{Command: "cancel", Description: "Cancel a session: /cancel <id>"},
		{Command: "reschedule", Description: "Move a session: /reschedule <id> 2026-10-20 10:00"},
		{Command: "quota", Description: "Completed sessions and sessions left"},
		{Command: "msg", Description: "Message the tutor"},
		{Command: "inbox", Description: "Conversations (tutor)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start blocks until ctx is canceled
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
	return nil
}
