package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/render"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const helpText = `Commands:
/slots [YYYY-MM-DD] - free slots for a day
/week [YYYY-MM-DD] - the week as a picture
/book YYYY-MM-DD HH:MM - book a slot
/mybookings - your sessions
/cancel <id> - cancel a session
/reschedule <id> YYYY-MM-DD HH:MM - move a session
/quota - completed sessions and sessions left
/msg <text> - message the tutor`

const tutorHelpText = `

Tutor commands:
/complete <id> - mark a session completed
/noshow <id> - mark a session as no-show
/inbox - conversations with students
/reply <student-id> <text> - answer a student
/addrule <weekday 0-6> HH:MM HH:MM <minutes> [link] - add weekly availability (0 = Sunday)
/rules - active availability rules
/delrule <id> - retire a rule
/notes <id> - write notes for a session (send the text next, /notes <id> - to clear)`

// Handlers serves bot commands on top of the booking services
type Handlers struct {
	users        *service.UserService
	availability *service.AvailabilityService
	bookings     *service.BookingService
	quota        *service.QuotaTracker
	messages     *service.MessageService
	inbox        *service.InboxView
	pending      *pendingNotes
	loc          *time.Location
	logger       *zap.Logger
	now          func() time.Time
}

// NewHandlers creates the command handlers. inbox may be nil when no tutor
// profile exists yet.
func NewHandlers(
	users *service.UserService,
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	quota *service.QuotaTracker,
	messages *service.MessageService,
	inbox *service.InboxView,
	loc *time.Location,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		users:        users,
		availability: availability,
		bookings:     bookings,
		quota:        quota,
		messages:     messages,
		inbox:        inbox,
		pending:      newPendingNotes(),
		loc:          loc,
		logger:       logger,
		now:          time.Now,
	}
}

// HandleStart registers the sender and prints help
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	from := update.Message.From
	profile, err := h.users.RegisterTelegramUser(ctx, from.ID, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, err)
		return
	}

	text := fmt.Sprintf("Hello, %s!\n\n%s", profile.Name, helpFor(profile))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text)
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpFor(profile))
}

func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireProfile(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	date, err := parseDate(commandArgs(update.Message.Text), h.loc, h.now())
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	slots, err := h.availability.SlotsForDate(ctx, date)
	if err != nil {
		h.logger.Error("Failed to load slots", zap.Time("date", date), zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatSlots(date, slots, h.loc))
}

// HandleWeek sends the week's free slots and the sender's sessions as an image
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	date, err := parseDate(commandArgs(update.Message.Text), h.loc, h.now())
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	week, err := h.availability.SlotsForWeek(ctx, date)
	if err != nil {
		h.logger.Error("Failed to load week slots", zap.Time("date", date), zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}
	own, err := h.ownBookings(ctx, profile)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	weekStart := week[0].Date
	img, err := render.Week(weekStart, weekBlocks(week, own), h.now(), h.loc)
	if err != nil {
		h.logger.Error("Failed to render week", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(img)},
		Caption: "Week of " + weekStart.In(h.loc).Format(dateLayout),
	})
	if err != nil {
		h.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	start, err := parseDateTime(commandArgs(update.Message.Text), h.loc)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	slot, err := h.availability.SlotAt(ctx, start)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	booking, err := h.bookings.ForStudent(student).Create(ctx, slot.TutorID, slot.Start, slot.End, slot.MeetingLink)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Booked!\n\n"+formatBooking(booking, h.loc))
}

func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	profile, ok := h.requireProfile(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	list, err := h.ownBookings(ctx, profile)
	if err != nil {
		h.logger.Error("Failed to list bookings", zap.String("profile_id", profile.ID.String()), zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatBookings(list, h.loc))
}

func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	booking, err := h.bookings.ForStudent(student).Cancel(ctx, id)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Canceled.\n\n"+formatBooking(booking, h.loc))
}

func (h *Handlers) HandleReschedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	id, err := parseID(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	start, err := parseDateTime(args[1:], h.loc)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	slot, err := h.availability.SlotAt(ctx, start)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	booking, err := h.bookings.ForStudent(student).Reschedule(ctx, id, slot.Start, slot.End, slot.MeetingLink)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Rescheduled.\n\n"+formatBooking(booking, h.loc))
}

func (h *Handlers) HandleQuota(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	completed, err := h.quota.CompletedCount(ctx, student.ID)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	remaining, err := h.quota.Remaining(ctx, student.ID)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("Completed sessions: %d\nSessions left: %d", completed, remaining))
}

func (h *Handlers) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	student, ok := h.requireStudent(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	body := strings.Join(commandArgs(update.Message.Text), " ")
	if _, err := h.messages.Send(ctx, student, body, uuid.Nil); err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Message sent.")
}

func (h *Handlers) HandleComplete(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.finishBooking(ctx, b, update, model.BookingStatusCompleted)
}

func (h *Handlers) HandleNoShow(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.finishBooking(ctx, b, update, model.BookingStatusNoShow)
}

func (h *Handlers) HandleInbox(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireTutor(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if h.inbox == nil {
		h.sendMessage(ctx, b, chatID, "Inbox is not available yet, restart the bot after the tutor profile is created.")
		return
	}

	conversations, err := h.inbox.Conversations(ctx)
	if err != nil {
		h.logger.Error("Failed to load inbox", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatConversations(conversations, h.loc))
}

func (h *Handlers) HandleReply(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	studentID, err := parseID(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	if _, err := h.messages.Send(ctx, tutor, strings.Join(args[1:], " "), studentID); err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	if _, err := h.messages.MarkConversationRead(ctx, tutor, studentID); err != nil {
		h.logger.Warn("Failed to mark conversation read",
			zap.String("student_id", studentID.String()),
			zap.Error(err),
		)
	}

	h.sendMessage(ctx, b, chatID, "Reply sent.")
}

func (h *Handlers) HandleAddRule(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	in, err := parseRuleInput(commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	rule, err := h.availability.CreateRule(ctx, tutor, in)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Rule added.\n\n"+formatRule(rule))
}

func (h *Handlers) HandleRules(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireTutor(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	rules, err := h.availability.ActiveRules(ctx)
	if err != nil {
		h.logger.Error("Failed to list rules", zap.Error(err))
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatRules(rules))
}

func (h *Handlers) HandleDeleteRule(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}
	if err := h.availability.DeactivateRule(ctx, tutor, id); err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Rule retired. Existing sessions are kept.")
}

// HandleNotes starts a notes dialog for a session. "/notes <id> -" clears them.
func (h *Handlers) HandleNotes(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	id, err := parseID(args)
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	if len(args) > 1 && args[1] == "-" {
		booking, err := h.bookings.ForTutor(tutor).SetNotes(ctx, id, nil)
		if err != nil {
			h.sendError(ctx, b, chatID, err)
			return
		}
		h.sendMessage(ctx, b, chatID, "Notes cleared.\n\n"+formatBooking(booking, h.loc))
		return
	}

	h.pending.Set(update.Message.From.ID, id)
	h.sendMessage(ctx, b, chatID, "Send the notes text for this session.")
}

// HandleText handles plain messages, completing a pending notes dialog
func (h *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		h.pending.Clear(update.Message.From.ID)
		return
	}

	bookingID, ok := h.pending.Take(update.Message.From.ID)
	if !ok {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Unknown command. Use /help.")
		return
	}
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}

	booking, err := h.bookings.ForTutor(tutor).SetNotes(ctx, bookingID, &text)
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, err)
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, "Notes saved.\n\n"+formatBooking(booking, h.loc))
}

func (h *Handlers) finishBooking(ctx context.Context, b *bot.Bot, update *models.Update, to model.BookingStatus) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	tb := h.bookings.ForTutor(tutor)
	var booking *model.Booking
	if to == model.BookingStatusCompleted {
		booking, err = tb.MarkCompleted(ctx, id)
	} else {
		booking, err = tb.MarkNoShow(ctx, id)
	}
	if err != nil {
		h.sendError(ctx, b, chatID, err)
		return
	}

	h.sendMessage(ctx, b, chatID, "Updated.\n\n"+formatBooking(booking, h.loc))
}

func (h *Handlers) ownBookings(ctx context.Context, profile *model.Profile) ([]*model.Booking, error) {
	switch actor := model.ActorFor(profile).(type) {
	case model.Tutor:
		return h.bookings.ForTutor(actor).List(ctx)
	case model.Student:
		return h.bookings.ForStudent(actor).List(ctx)
	default:
		return nil, model.ErrForbidden
	}
}

func helpFor(profile *model.Profile) string {
	if profile.IsTutor() {
		return helpText + tutorHelpText
	}
	return helpText
}
