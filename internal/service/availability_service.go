package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleInput is the tutor's form for a new availability rule.
type RuleInput struct {
	Weekday     int     `validate:"min=0,max=6"`
	StartTime   string  `validate:"required"`
	EndTime     string  `validate:"required"`
	SlotMinutes int     `validate:"gt=0,lte=1440"`
	MeetingLink *string `validate:"omitempty,url"`
}

// DaySlots groups the slots of one calendar day.
type DaySlots struct {
	Date  time.Time
	Slots []model.Slot
}

// AvailabilityService manages the tutor's rules and turns them into slots.
type AvailabilityService struct {
	rules     repository.AvailabilityRuleStore
	bookings  repository.BookingStore
	generator *SlotGenerator
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewAvailabilityService(
	rules repository.AvailabilityRuleStore,
	bookings repository.BookingStore,
	generator *SlotGenerator,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		rules:     rules,
		bookings:  bookings,
		generator: generator,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return model.NewValidationError(strings.ToLower(fe.Field()), "failed "+fe.Tag())
	}
	return model.NewValidationError("input", err.Error())
}

// CreateRule adds an active rule owned by tutor.
func (s *AvailabilityService) CreateRule(ctx context.Context, tutor model.Tutor, in RuleInput) (*model.AvailabilityRule, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	start, err := model.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return nil, model.NewValidationError("start_time", err.Error())
	}
	end, err := model.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return nil, model.NewValidationError("end_time", err.Error())
	}

	rule := &model.AvailabilityRule{
		TutorID:     tutor.ID,
		Weekday:     in.Weekday,
		StartTime:   start,
		EndTime:     end,
		SlotMinutes: in.SlotMinutes,
		MeetingLink: in.MeetingLink,
		Active:      true,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("Availability rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.Int("weekday", rule.Weekday),
		zap.Stringer("start_time", rule.StartTime),
		zap.Stringer("end_time", rule.EndTime),
		zap.Int("slot_minutes", rule.SlotMinutes),
	)

	return rule, nil
}

// UpdateRule applies patch to a rule the tutor owns.
func (s *AvailabilityService) UpdateRule(ctx context.Context, tutor model.Tutor, ruleID uuid.UUID, patch model.RulePatch) (*model.AvailabilityRule, error) {
	existing, err := s.ownedRule(ctx, tutor, ruleID)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*existing)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("Availability rule updated", zap.String("rule_id", ruleID.String()))
	return &updated, nil
}

// DeactivateRule retires a rule. Existing bookings are untouched.
func (s *AvailabilityService) DeactivateRule(ctx context.Context, tutor model.Tutor, ruleID uuid.UUID) error {
	if _, err := s.ownedRule(ctx, tutor, ruleID); err != nil {
		return err
	}
	if err := s.rules.Deactivate(ctx, ruleID); err != nil {
		return err
	}

	s.logger.Info("Availability rule deactivated", zap.String("rule_id", ruleID.String()))
	return nil
}

func (s *AvailabilityService) ActiveRules(ctx context.Context) ([]*model.AvailabilityRule, error) {
	return s.rules.ListActive(ctx)
}

func (s *AvailabilityService) ownedRule(ctx context.Context, tutor model.Tutor, ruleID uuid.UUID) (*model.AvailabilityRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.TutorID != tutor.ID {
		return nil, model.ErrForbidden
	}
	return rule, nil
}

// Slots returns the lazy slot sequence for date, built from a fresh read of
// the active rules and the day's booked bookings.
func (s *AvailabilityService) Slots(ctx context.Context, date time.Time) (iter.Seq[model.Slot], error) {
	day := s.generator.Day(date)
	rules, booked, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(day, rules, booked, s.now()), nil
}

// SlotAt returns the free slot starting at start. A start that no active rule
// produces is a validation error, one that is produced but already booked is
// ErrSlotConflict.
func (s *AvailabilityService) SlotAt(ctx context.Context, start time.Time) (*model.Slot, error) {
	day := s.generator.Day(start)
	rules, booked, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for slot := range s.generator.Generate(day, rules, booked, now) {
		if slot.Start.Equal(start) {
			return &slot, nil
		}
	}
	for slot := range s.generator.Generate(day, rules, nil, now) {
		if slot.Start.Equal(start) {
			return nil, model.ErrSlotConflict
		}
	}
	return nil, model.NewValidationError("start_ts", "is not an offered slot")
}

func (s *AvailabilityService) load(ctx context.Context, day time.Time) ([]*model.AvailabilityRule, []*model.Booking, error) {
	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load availability rules: %w", err)
	}

	next := day.AddDate(0, 0, 1)
	status := model.BookingStatusBooked
	booked, err := s.bookings.Find(ctx, model.BookingFilter{Status: &status, From: &day, To: &next})
	if err != nil {
		return nil, nil, fmt.Errorf("load booked bookings: %w", err)
	}
	return rules, booked, nil
}

// SlotsForDate is Slots collected into a slice.
func (s *AvailabilityService) SlotsForDate(ctx context.Context, date time.Time) ([]model.Slot, error) {
	seq, err := s.Slots(ctx, date)
	if err != nil {
		return nil, err
	}
	return slices.Collect(seq), nil
}

// SlotsForWeek returns seven days of slots for the Sunday-start week containing date.
func (s *AvailabilityService) SlotsForWeek(ctx context.Context, date time.Time) ([]DaySlots, error) {
	day := s.generator.Day(date)
	weekStart := day.AddDate(0, 0, -int(day.Weekday()))

	week := make([]DaySlots, 0, 7)
	for i := range 7 {
		d := weekStart.AddDate(0, 0, i)
		slots, err := s.SlotsForDate(ctx, d)
		if err != nil {
			return nil, err
		}
		week = append(week, DaySlots{Date: d, Slots: slots})
	}
	return week, nil
}
