package controller

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/render"
	"github.com/Freeeeeet/tutor_booking/internal/service"
	"github.com/google/uuid"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	clockLayout    = "15:04"
)

var errUsage = errors.New("usage")

// commandArgs drops the command itself
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

func parseDate(args []string, loc *time.Location, now time.Time) (time.Time, error) {
	if len(args) == 0 {
		return now.In(loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, args[0], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must look like %s", errUsage, dateLayout)
	}
	return d, nil
}

func parseDateTime(args []string, loc *time.Location) (time.Time, error) {
	if len(args) < 2 {
		return time.Time{}, fmt.Errorf("%w: expected date and time", errUsage)
	}
	t, err := time.ParseInLocation(dateTimeLayout, args[0]+" "+args[1], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must look like %s", errUsage, dateTimeLayout)
	}
	return t, nil
}

func parseID(args []string) (uuid.UUID, error) {
	if len(args) == 0 {
		return uuid.Nil, fmt.Errorf("%w: id is required", errUsage)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid id", errUsage, args[0])
	}
	return id, nil
}

// parseRuleInput reads "<weekday> HH:MM HH:MM <minutes> [link]"
func parseRuleInput(args []string) (service.RuleInput, error) {
	if len(args) < 4 {
		return service.RuleInput{}, fmt.Errorf("%w: /addrule <weekday 0-6> HH:MM HH:MM <minutes> [link]", errUsage)
	}
	weekday, err := strconv.Atoi(args[0])
	if err != nil {
		return service.RuleInput{}, fmt.Errorf("%w: weekday must be a number 0-6", errUsage)
	}
	minutes, err := strconv.Atoi(args[3])
	if err != nil {
		return service.RuleInput{}, fmt.Errorf("%w: slot length must be a number of minutes", errUsage)
	}

	in := service.RuleInput{
		Weekday:     weekday,
		StartTime:   args[1],
		EndTime:     args[2],
		SlotMinutes: minutes,
	}
	if len(args) > 4 {
		in.MeetingLink = &args[4]
	}
	return in, nil
}

// errorMessage returns the text shown to the user for err
func errorMessage(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return "Invalid command: " + strings.TrimPrefix(err.Error(), errUsage.Error()+": ")
	case errors.Is(err, model.ErrSlotConflict):
		return "That slot is no longer available."
	case errors.Is(err, model.ErrQuotaExceeded):
		return fmt.Sprintf("Session limit reached (%d completed sessions).", model.MaxCompletedSessions)
	case errors.Is(err, model.ErrInvalidTransition):
		return "This session can no longer be changed."
	case errors.Is(err, model.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, model.ErrNotFound):
		return "Not found."
	case errors.Is(err, model.ErrValidation):
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return fmt.Sprintf("Invalid request: %s %s", verr.Field, verr.Reason)
		}
		return "Invalid request."
	default:
		return "Something went wrong, please try again later."
	}
}

func formatSlots(date time.Time, slots []model.Slot, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Free slots on %s:\n", date.In(loc).Format("Monday, 02 Jan 2006"))
	if len(slots) == 0 {
		sb.WriteString("No available time slots for this day.")
		return sb.String()
	}
	for _, s := range slots {
		fmt.Fprintf(&sb, "• %s – %s\n", s.Start.In(loc).Format(clockLayout), s.End.In(loc).Format(clockLayout))
	}
	fmt.Fprintf(&sb, "\nBook with /book %s HH:MM", date.In(loc).Format(dateLayout))
	return sb.String()
}

func formatBooking(b *model.Booking, loc *time.Location) string {
	line := fmt.Sprintf("%s %s–%s [%s]\nid: %s",
		b.StartTS.In(loc).Format(dateLayout),
		b.StartTS.In(loc).Format(clockLayout),
		b.EndTS.In(loc).Format(clockLayout),
		b.Status,
		b.ID,
	)
	if b.MeetingLink != nil && *b.MeetingLink != "" {
		line += "\nlink: " + *b.MeetingLink
	}
	if b.Notes != nil && *b.Notes != "" {
		line += "\nnotes: " + *b.Notes
	}
	return line
}

func formatBookings(bookings []*model.Booking, loc *time.Location) string {
	if len(bookings) == 0 {
		return "No sessions yet."
	}
	parts := make([]string, len(bookings))
	for i, b := range bookings {
		parts[i] = formatBooking(b, loc)
	}
	return strings.Join(parts, "\n\n")
}

func formatConversations(conversations []model.Conversation, loc *time.Location) string {
	if len(conversations) == 0 {
		return "Inbox is empty."
	}
	var sb strings.Builder
	for _, c := range conversations {
		fmt.Fprintf(&sb, "%s (%d unread) · %s\n%s\nreply: /reply %s <text>\n\n",
			c.StudentName,
			c.UnreadCount,
			c.LastMessageAt.In(loc).Format(dateTimeLayout),
			c.LastMessage,
			c.StudentID,
		)
	}
	return strings.TrimSpace(sb.String())
}

// weekBlocks merges free slots with the viewer's own bookings
func weekBlocks(week []service.DaySlots, own []*model.Booking) []render.Block {
	var blocks []render.Block
	for _, day := range week {
		for _, s := range day.Slots {
			blocks = append(blocks, render.Block{Start: s.Start, End: s.End, Kind: render.BlockFree})
		}
	}
	for _, b := range own {
		kind := render.BlockMissed
		switch b.Status {
		case model.BookingStatusBooked:
			kind = render.BlockBooked
		case model.BookingStatusCompleted:
			kind = render.BlockCompleted
		}
		blocks = append(blocks, render.Block{Start: b.StartTS, End: b.EndTS, Kind: kind, Label: string(b.Status)})
	}
	return blocks
}

func formatRule(r *model.AvailabilityRule) string {
	line := fmt.Sprintf("%s %s–%s, %d min\nid: %s",
		time.Weekday(r.Weekday),
		r.StartTime.String()[:5],
		r.EndTime.String()[:5],
		r.SlotMinutes,
		r.ID,
	)
	if r.MeetingLink != nil {
		line += "\nlink: " + *r.MeetingLink
	}
	return line
}

func formatRules(rules []*model.AvailabilityRule) string {
	if len(rules) == 0 {
		return "No active rules. Add one with /addrule."
	}
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = formatRule(r)
	}
	return strings.Join(parts, "\n\n")
}
