package contracts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
)

type actor int

const (
	eitherSide actor = iota
	clientSide
	freelancerSide
)

// transitions lists every allowed move and who may make it.
var transitions = map[models.ProjectStatus]map[models.ProjectStatus]actor{
	models.ProjectPending: {
		models.ProjectActive:    freelancerSide,
		models.ProjectCancelled: eitherSide,
	},
	models.ProjectActive: {
		models.ProjectReview:    freelancerSide,
		models.ProjectCancelled: eitherSide,
	},
	models.ProjectReview: {
		models.ProjectCompleted: clientSide,
		models.ProjectActive:    clientSide,
	},
}

var statusLabels = map[models.ProjectStatus]string{
	models.ProjectPending:   "pendiente",
	models.ProjectActive:    "en progreso",
	models.ProjectReview:    "en revisión",
	models.ProjectCompleted: "completado",
	models.ProjectCancelled: "cancelado",
}

// CanTransition reports whether from -> to exists and whether the caller's
// side (client when asClient) may make it.
func CanTransition(from, to models.ProjectStatus, asClient bool) (allowed, permitted bool) {
	who, ok := transitions[from][to]
	if !ok {
		return false, false
	}
	switch who {
	case clientSide:
		return true, asClient
	case freelancerSide:
		return true, !asClient
	}
	return true, true
}

// ChangeStatus moves a project along its lifecycle. The write only succeeds
// if the status is still the one read, so concurrent moves cannot both win.
func (s *Service) ChangeStatus(ctx context.Context, user *models.User, id uuid.UUID, to string) (*models.Project, error) {
	target := models.ProjectStatus(strings.ToLower(strings.TrimSpace(to)))
	if !target.Valid() {
		errs := apperr.FieldErrors{}
		errs.Add("status", "Estado inválido")
		return nil, apperr.Invalid(errs)
	}

	p, err := s.load(ctx, user, id)
	if err != nil {
		return nil, err
	}

	allowed, permitted := CanTransition(p.Status, target, user.ID == p.ClientID)
	if !allowed {
		return nil, apperr.New(apperr.Conflict,
			fmt.Sprintf("No se puede pasar de %s a %s", statusLabels[p.Status], statusLabels[target]))
	}
	if !permitted {
		return nil, apperr.New(apperr.Forbidden, "No puedes realizar este cambio de estado")
	}

	err = s.projects.UpdateStatus(ctx, id, p.Status, target)
	if errors.Is(err, repository.ErrStaleStatus) {
		return nil, apperr.New(apperr.Conflict, "El estado del proyecto cambió, recarga e intenta de nuevo")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "update status of %s", id)
	}
	s.log.Info("project status changed",
		zap.Stringer("project_id", id),
		zap.String("from", string(p.Status)),
		zap.String("to", string(target)),
		zap.Stringer("by", user.ID))

	s.postStatusMessage(ctx, user, p, target)

	updated, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Internalf(err, "reload project %s", id)
	}
	return updated, nil
}

// postStatusMessage records the change in the project chat. The status is
// already committed, so failures are only logged.
func (s *Service) postStatusMessage(ctx context.Context, user *models.User, p *models.Project, to models.ProjectStatus) {
	chat, _, err := s.chats.FindOrCreateForProject(ctx, p)
	if err != nil {
		s.log.Warn("status message chat", zap.Error(err), zap.Stringer("project_id", p.ID))
		return
	}
	pid := p.ID
	msg := &models.Message{
		ChatID:     chat.ID,
		SenderID:   user.ID,
		ReceiverID: chat.Counterpart(user.ID),
		ProjectID:  &pid,
		Body:       fmt.Sprintf("Estado del proyecto actualizado: %s", statusLabels[to]),
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		s.log.Warn("status message", zap.Error(err), zap.Stringer("project_id", p.ID))
		return
	}
	msg.Sender = user
	s.notifier.MessageCreated(ctx, chat, msg)
}
