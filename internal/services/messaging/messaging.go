// Package messaging is the inbox: conversations between clients and
// freelancers, optionally bound to a project.
package messaging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/metrics"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/realtime"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
)

const MaxBodyLen = 5000

type Service struct {
	chats    repository.ChatRepository
	users    repository.UserRepository
	projects repository.ProjectRepository
	notifier *realtime.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	projects repository.ProjectRepository,
	notifier *realtime.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *Service {
	return &Service{
		chats:    chats,
		users:    users,
		projects: projects,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) ListConversations(ctx context.Context, user *models.User) ([]models.ConversationSummary, error) {
	out, err := s.chats.ListSummaries(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "list conversations")
	}
	if out == nil {
		out = []models.ConversationSummary{}
	}
	return out, nil
}

func (s *Service) participantChat(ctx context.Context, user *models.User, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "Conversación no encontrada")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load chat %s", chatID)
	}
	if !chat.IsParticipant(user.ID) {
		return nil, apperr.New(apperr.Forbidden, "No participas en esta conversación")
	}
	return chat, nil
}

// GetMessages returns the whole thread oldest first and marks what the
// user received as read.
func (s *Service) GetMessages(ctx context.Context, user *models.User, chatID uuid.UUID) ([]models.Message, error) {
	if _, err := s.participantChat(ctx, user, chatID); err != nil {
		return nil, err
	}
	if _, err := s.chats.MarkRead(ctx, chatID, user.ID, s.now().UTC()); err != nil {
		return nil, apperr.Internalf(err, "mark chat %s read", chatID)
	}
	msgs, err := s.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, apperr.Internalf(err, "list messages of %s", chatID)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

type SendInput struct {
	Body       string
	ReceiverID *uuid.UUID
	ProjectID  *uuid.UUID
}

func (s *Service) SendMessage(ctx context.Context, sender *models.User, chatID uuid.UUID, in SendInput) (*models.Message, error) {
	body := strings.TrimSpace(in.Body)
	errs := apperr.FieldErrors{}
	if body == "" {
		errs.Add("message", "El mensaje no puede estar vacío")
	} else if len(body) > MaxBodyLen {
		errs.Add("message", "El mensaje es demasiado largo")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	chat, err := s.participantChat(ctx, sender, chatID)
	if err != nil {
		return nil, err
	}

	receiver := chat.Counterpart(sender.ID)
	if in.ReceiverID != nil && *in.ReceiverID != receiver {
		errs.Add("receiver_id", "El destinatario no participa en esta conversación")
	}
	if in.ProjectID != nil && (chat.ProjectID == nil || *chat.ProjectID != *in.ProjectID) {
		errs.Add("project_id", "El proyecto no corresponde a esta conversación")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ChatID:     chat.ID,
		SenderID:   sender.ID,
		ReceiverID: receiver,
		ProjectID:  chat.ProjectID,
		Body:       body,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, apperr.Internalf(err, "create message in %s", chat.ID)
	}
	msg.Sender = sender
	s.metrics.MessageSent()
	s.notifier.MessageCreated(ctx, chat, msg)
	return msg, nil
}

type StartInput struct {
	ReceiverID uuid.UUID
	ProjectID  *uuid.UUID
	Message    string
}

type StartResult struct {
	ChatID uuid.UUID `json:"chat_id"`
	IsNew  bool      `json:"is_new"`
}

// StartConversation returns the chat for the pair (or for the project) and
// creates it on first use. Repeated calls return the same chat.
func (s *Service) StartConversation(ctx context.Context, requester *models.User, in StartInput) (*StartResult, error) {
	if in.ReceiverID == requester.ID {
		errs := apperr.FieldErrors{}
		errs.Add("receiver_id", "No puedes iniciar una conversación contigo mismo")
		return nil, apperr.Invalid(errs)
	}
	receiver, err := s.users.FindByID(ctx, in.ReceiverID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !receiver.IsActive) {
		return nil, apperr.New(apperr.NotFound, "Usuario no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load receiver %s", in.ReceiverID)
	}

	var (
		chat    *models.Chat
		created bool
	)
	if in.ProjectID != nil {
		p, err := s.projects.FindByID(ctx, *in.ProjectID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.NotFound, "Proyecto no encontrado")
		}
		if err != nil {
			return nil, apperr.Internalf(err, "load project %s", *in.ProjectID)
		}
		if !p.IsParticipant(requester.ID) || !p.IsParticipant(receiver.ID) {
			return nil, apperr.New(apperr.Forbidden, "No participas en este proyecto")
		}
		chat, created, err = s.chats.FindOrCreateForProject(ctx, p)
		if err != nil {
			return nil, apperr.Internalf(err, "project chat %s", p.ID)
		}
	} else {
		clientID, freelancerID := directSlots(requester, receiver)
		chat, created, err = s.chats.FindOrCreateDirect(ctx, clientID, freelancerID)
		if err != nil {
			return nil, apperr.Internalf(err, "direct chat")
		}
	}

	if body := strings.TrimSpace(in.Message); created && body != "" {
		msg := &models.Message{
			ChatID:     chat.ID,
			SenderID:   requester.ID,
			ReceiverID: receiver.ID,
			ProjectID:  chat.ProjectID,
			Body:       body,
		}
		if err := s.chats.CreateMessage(ctx, msg); err != nil {
			return nil, apperr.Internalf(err, "initial message in %s", chat.ID)
		}
		msg.Sender = requester
		s.metrics.MessageSent()
		s.notifier.MessageCreated(ctx, chat, msg)
	}

	if created {
		s.log.Info("conversation started", zap.Stringer("chat_id", chat.ID), zap.Stringer("by", requester.ID))
	}
	return &StartResult{ChatID: chat.ID, IsNew: created}, nil
}

// directSlots orders a standalone pair independently of who asked. Roles
// decide when exactly one side is a freelancer; otherwise the lower id takes
// the client slot.
func directSlots(a, b *models.User) (clientID, freelancerID uuid.UUID) {
	aFree, bFree := a.Role == models.RoleFreelancer, b.Role == models.RoleFreelancer
	switch {
	case aFree && !bFree:
		return b.ID, a.ID
	case bFree && !aFree:
		return a.ID, b.ID
	}
	if bytes.Compare(a.ID[:], b.ID[:]) <= 0 {
		return a.ID, b.ID
	}
	return b.ID, a.ID
}

// MarkRead marks every message the user received in the chat as read.
func (s *Service) MarkRead(ctx context.Context, user *models.User, chatID uuid.UUID) (int64, error) {
	if _, err := s.participantChat(ctx, user, chatID); err != nil {
		return 0, err
	}
	n, err := s.chats.MarkRead(ctx, chatID, user.ID, s.now().UTC())
	if err != nil {
		return 0, apperr.Internalf(err, "mark chat %s read", chatID)
	}
	return n, nil
}

func (s *Service) UnreadTotal(ctx context.Context, user *models.User) (int64, error) {
	n, err := s.chats.CountUnread(ctx, user.ID)
	if err != nil {
		return 0, apperr.Internalf(err, "count unread")
	}
	return n, nil
}
