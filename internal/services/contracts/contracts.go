// Package contracts turns a hire into a project and drives its lifecycle.
package contracts

import (
	"context"
	"errors"
	"fmt"
	"math"
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

type Service struct {
	services repository.ServiceRepository
	projects repository.ProjectRepository
	chats    repository.ChatRepository
	notifier *realtime.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	services repository.ServiceRepository,
	projects repository.ProjectRepository,
	chats repository.ChatRepository,
	notifier *realtime.Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *Service {
	return &Service{
		services: services,
		projects: projects,
		chats:    chats,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

type Input struct {
	ServiceID     uuid.UUID
	FreelancerID  *uuid.UUID
	Requirements  string
	PaymentMethod string
	// Amount is what the client saw; the stored amount is always the list price.
	Amount *float64
}

// Detail is a project with the rows created alongside it.
type Detail struct {
	*models.Project
	Payment *models.Payment `json:"payment,omitempty"`
	ChatID  *uuid.UUID      `json:"chat_id,omitempty"`
}

// FormatAmount prints whole amounts without decimals and others with two.
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// SeedMessage is the first message of every contract chat.
func SeedMessage(title, requirements string, amount float64, days int) string {
	return fmt.Sprintf("¡Hola! Acabo de contratar tu servicio \"%s\".\n\nRequisitos: %s\nPresupuesto: $%s\nTiempo de entrega: %d días",
		title, requirements, FormatAmount(amount), days)
}

// Create hires a service: project, payment, chat and seed message are
// written in one transaction.
func (s *Service) Create(ctx context.Context, client *models.User, in Input) (*Detail, error) {
	svc, err := s.services.FindByID(ctx, in.ServiceID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !svc.IsActive) {
		return nil, apperr.New(apperr.NotFound, "Servicio no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load service %s", in.ServiceID)
	}

	errs := apperr.FieldErrors{}
	if svc.FreelancerID == client.ID {
		errs.Add("service_id", "No puedes contratar tu propio servicio")
	}
	if in.FreelancerID != nil && *in.FreelancerID != svc.FreelancerID {
		errs.Add("freelancer_id", "El freelancer no corresponde al servicio")
	}
	requirements := strings.TrimSpace(in.Requirements)
	if requirements == "" {
		errs.Add("requirements", "Los requisitos son obligatorios")
	}
	method := models.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if method == "" {
		method = models.PaymentCard
	}
	if !method.Valid() {
		errs.Add("payment_method", "Método de pago inválido")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	price := svc.BasePrice
	if in.Amount != nil && *in.Amount != price {
		s.log.Warn("client amount differs from list price",
			zap.Stringer("service_id", svc.ID),
			zap.Float64("client_amount", *in.Amount),
			zap.Float64("price", price))
	}

	now := s.now().UTC()
	paidAt := now
	c := &repository.Contract{
		Project: &models.Project{
			ServiceID:    svc.ID,
			ClientID:     client.ID,
			FreelancerID: svc.FreelancerID,
			Title:        svc.Title,
			Requirements: requirements,
			Amount:       price,
			Status:       models.ProjectPending,
			StartDate:    now,
			Deadline:     now.AddDate(0, 0, svc.DeliveryTime),
		},
		Payment: &models.Payment{
			ClientID:      client.ID,
			FreelancerID:  svc.FreelancerID,
			Amount:        price,
			PaymentMethod: method,
			Status:        models.PaymentCompleted,
			PaidAt:        &paidAt,
		},
		Seed: &models.Message{
			SenderID:   client.ID,
			ReceiverID: svc.FreelancerID,
			Body:       SeedMessage(svc.Title, requirements, price, svc.DeliveryTime),
		},
	}
	if err := s.projects.CreateContract(ctx, c); err != nil {
		return nil, apperr.Internalf(err, "create contract for service %s", svc.ID)
	}
	s.metrics.ContractCreated()
	s.log.Info("contract created",
		zap.Stringer("project_id", c.Project.ID),
		zap.Stringer("client_id", client.ID),
		zap.Stringer("freelancer_id", svc.FreelancerID))

	c.Seed.Sender = client
	s.notifier.MessageCreated(ctx, c.Chat, c.Seed)

	project, err := s.projects.FindByID(ctx, c.Project.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "reload project %s", c.Project.ID)
	}
	chatID := c.Chat.ID
	return &Detail{Project: project, Payment: c.Payment, ChatID: &chatID}, nil
}

type ListQuery struct {
	Status string
	Role   string
}

func (s *Service) List(ctx context.Context, user *models.User, q ListQuery) ([]models.Project, error) {
	f := repository.ProjectFilter{
		Status: models.ProjectStatus(strings.TrimSpace(q.Status)),
		As:     models.Role(strings.TrimSpace(q.Role)),
	}
	errs := apperr.FieldErrors{}
	if f.Status != "" && !f.Status.Valid() {
		errs.Add("status", "Estado inválido")
	}
	if f.As != "" && f.As != models.RoleClient && f.As != models.RoleFreelancer {
		errs.Add("role", "El rol debe ser client o freelancer")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	out, err := s.projects.ListForUser(ctx, user.ID, f)
	if err != nil {
		return nil, apperr.Internalf(err, "list projects")
	}
	if out == nil {
		out = []models.Project{}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, user *models.User, id uuid.UUID) (*models.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "Proyecto no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load project %s", id)
	}
	if !p.IsParticipant(user.ID) {
		return nil, apperr.New(apperr.Forbidden, "No participas en este proyecto")
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, user *models.User, id uuid.UUID) (*Detail, error) {
	p, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Project: p}

	pay, err := s.projects.FindPayment(ctx, id)
	switch {
	case err == nil:
		d.Payment = pay
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internalf(err, "load payment of %s", id)
	}

	chat, err := s.chats.FindByProject(ctx, id)
	switch {
	case err == nil:
		d.ChatID = &chat.ID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internalf(err, "load chat of %s", id)
	}
	return d, nil
}

type DashboardStats struct {
	PendingProjects   int64   `json:"pending_projects"`
	ActiveProjects    int64   `json:"active_projects"`
	CompletedProjects int64   `json:"completed_projects"`
	UnreadMessages    int64   `json:"unread_messages"`
	Earned            float64 `json:"earned,omitempty"`
	Spent             float64 `json:"spent,omitempty"`
}

func (s *Service) Dashboard(ctx context.Context, user *models.User) (*DashboardStats, error) {
	st := &DashboardStats{}
	counts := []struct {
		status models.ProjectStatus
		dst    *int64
	}{
		{models.ProjectPending, &st.PendingProjects},
		{models.ProjectActive, &st.ActiveProjects},
		{models.ProjectCompleted, &st.CompletedProjects},
	}
	for _, c := range counts {
		n, err := s.projects.CountByStatus(ctx, user.ID, c.status)
		if err != nil {
			return nil, apperr.Internalf(err, "count %s projects", c.status)
		}
		*c.dst = n
	}

	unread, err := s.chats.CountUnread(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internalf(err, "count unread")
	}
	st.UnreadMessages = unread

	if user.Role == models.RoleFreelancer {
		st.Earned, err = s.projects.SumPayments(ctx, user.ID, models.RoleFreelancer)
	} else {
		st.Spent, err = s.projects.SumPayments(ctx, user.ID, models.RoleClient)
	}
	if err != nil {
		return nil, apperr.Internalf(err, "sum payments")
	}
	return st, nil
}
