package service

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_booking/internal/feed"
	"github.com/Freeeeeet/tutor_booking/internal/model"
	"github.com/Freeeeeet/tutor_booking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageService handles the tutor/student threads.
type MessageService struct {
	messages  repository.MessageStore
	profiles  repository.ProfileStore
	publisher feed.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewMessageService(
	messages repository.MessageStore,
	profiles repository.ProfileStore,
	publisher feed.Publisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Send posts body into a thread. Students always write to the tutor;
// the tutor must name the student.
func (s *MessageService) Send(ctx context.Context, actor model.Actor, body string, recipientID uuid.UUID) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, model.NewValidationError("body", "is required")
	}

	msg := &model.Message{SenderID: actor.ActorID(), Body: body}

	switch a := actor.(type) {
	case model.Student:
		tutor, err := s.profiles.FindTutor(ctx)
		if err != nil {
			return nil, err
		}
		msg.TutorID, msg.StudentID = tutor.ID, a.ID
	case model.Tutor:
		if recipientID == uuid.Nil {
			return nil, model.NewValidationError("recipient_id", "is required")
		}
		msg.TutorID, msg.StudentID = a.ID, recipientID
	default:
		return nil, model.ErrForbidden
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.notify(ctx, msg.TutorID, msg.StudentID)

	s.logger.Info("Message sent",
		zap.String("message_id", msg.ID.String()),
		zap.String("sender_id", msg.SenderID.String()),
		zap.String("student_id", msg.StudentID.String()),
	)

	return msg, nil
}

// Thread returns a student's thread, oldest first. Students only see their own.
func (s *MessageService) Thread(ctx context.Context, actor model.Actor, studentID uuid.UUID) ([]*model.Message, error) {
	if actor.ActorRole() == model.RoleStudent && actor.ActorID() != studentID {
		return nil, model.ErrForbidden
	}
	return s.messages.ListThread(ctx, studentID)
}

// MarkRead marks one message addressed to actor as read.
func (s *MessageService) MarkRead(ctx context.Context, actor model.Actor, messageID uuid.UUID) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	id := actor.ActorID()
	if id == msg.SenderID || (id != msg.TutorID && id != msg.StudentID) {
		return nil, model.ErrForbidden
	}

	updated, err := s.messages.MarkRead(ctx, messageID, s.now())
	if err != nil {
		return nil, err
	}
	s.notify(ctx, updated.TutorID, updated.StudentID)
	return updated, nil
}

// MarkConversationRead marks everything the other party sent to actor as read.
func (s *MessageService) MarkConversationRead(ctx context.Context, actor model.Actor, otherID uuid.UUID) (int64, error) {
	var tutorID, studentID uuid.UUID
	switch a := actor.(type) {
	case model.Tutor:
		tutorID, studentID = a.ID, otherID
	case model.Student:
		tutorID, studentID = otherID, a.ID
	default:
		return 0, model.ErrForbidden
	}

	n, err := s.messages.MarkThreadRead(ctx, tutorID, studentID, actor.ActorID(), s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notify(ctx, tutorID, studentID)
	}
	return n, nil
}

func (s *MessageService) notify(ctx context.Context, tutorID, studentID uuid.UUID) {
	err := s.publisher.Publish(ctx, feed.Change{
		Table:     feed.TableMessages,
		TutorID:   tutorID,
		StudentID: studentID,
	})
	if err != nil {
		s.logger.Warn("Failed to publish message change", zap.Error(err))
	}
}
