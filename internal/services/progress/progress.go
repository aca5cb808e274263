// Package progress keeps the freelancer's append-only log of project updates.
package progress

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

const (
	MaxFiles    = 10
	MaxFileSize = 10 * 1024 * 1024

	fileFolder = "project-updates"
)

type Service struct {
	projects repository.ProjectRepository
	updates  repository.ProjectUpdateRepository
	store    storage.Store
	log      *zap.Logger
}

func NewService(projects repository.ProjectRepository, updates repository.ProjectUpdateRepository, store storage.Store, log *zap.Logger) *Service {
	return &Service{projects: projects, updates: updates, store: store, log: log}
}

type Input struct {
	ProjectID   uuid.UUID
	Title       string
	Description string
}

func (s *Service) project(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "Proyecto no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load project %s", id)
	}
	return p, nil
}

// AddUpdate validates every file before any is written. Stored files are
// removed again if the row cannot be inserted.
func (s *Service) AddUpdate(ctx context.Context, caller *models.User, in Input, files []storage.File) (*models.ProjectUpdate, error) {
	p, err := s.project(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.FreelancerID != caller.ID {
		return nil, apperr.New(apperr.Forbidden, "Solo el freelancer del proyecto puede publicar avances")
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	errs := apperr.FieldErrors{}
	if title == "" {
		errs.Add("title", "El título es obligatorio")
	}
	if description == "" {
		errs.Add("description", "La descripción es obligatoria")
	}
	if len(files) > MaxFiles {
		errs.Add("files", "Máximo 10 archivos por avance")
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Size > MaxFileSize {
			return nil, apperr.New(apperr.TooLarge, "Cada archivo puede pesar como máximo 10MB")
		}
	}

	paths, err := storage.SaveAll(ctx, s.store, fileFolder, files)
	if err != nil {
		return nil, apperr.Internalf(err, "store update files")
	}

	u := &models.ProjectUpdate{
		ProjectID:    p.ID,
		FreelancerID: caller.ID,
		Title:        title,
		Description:  description,
		Files:        paths,
	}
	if err := s.updates.Create(ctx, u); err != nil {
		storage.Cleanup(ctx, s.store, paths)
		return nil, apperr.Internalf(err, "create update for %s", p.ID)
	}
	s.log.Info("project update posted", zap.Stringer("project_id", p.ID), zap.Int("files", len(paths)))
	return u, nil
}

// ListUpdates returns the log newest first. Only participants may read it.
func (s *Service) ListUpdates(ctx context.Context, caller *models.User, projectID uuid.UUID) ([]models.ProjectUpdate, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !p.IsParticipant(caller.ID) {
		return nil, apperr.New(apperr.Forbidden, "No participas en este proyecto")
	}
	out, err := s.updates.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperr.Internalf(err, "list updates of %s", projectID)
	}
	if out == nil {
		out = []models.ProjectUpdate{}
	}
	return out, nil
}
