// Package catalog manages the services freelancers publish.
package catalog

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

const (
	MinPrice            = 5.0
	MaxImages           = 5
	MaxImageSize        = 5 << 20
	DefaultDeliveryDays = 7

	imageFolder  = "services"
	defaultLimit = 12
	maxLimit     = 50
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type Service struct {
	services repository.ServiceRepository
	store    storage.Store
	log      *zap.Logger
}

func NewService(services repository.ServiceRepository, store storage.Store, log *zap.Logger) *Service {
	return &Service{services: services, store: store, log: log}
}

// Input is the raw form of a service as submitted.
type Input struct {
	Title        string
	Description  string
	Category     string
	Subcategory  string
	PriceType    string
	Price        string
	DeliveryTime string
	Requirements string
	Tags         string
}

func (in Input) apply(s *models.Service) error {
	errs := apperr.FieldErrors{}

	s.Title = strings.TrimSpace(in.Title)
	s.Description = strings.TrimSpace(in.Description)
	s.Category = strings.TrimSpace(in.Category)
	s.Subcategory = strings.TrimSpace(in.Subcategory)
	s.Requirements = strings.TrimSpace(in.Requirements)

	if s.Title == "" {
		errs.Add("title", "El título es obligatorio")
	} else if len(s.Title) > 200 {
		errs.Add("title", "El título no puede superar 200 caracteres")
	}
	if s.Description == "" {
		errs.Add("description", "La descripción es obligatoria")
	}
	if s.Category == "" {
		errs.Add("category", "La categoría es obligatoria")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64)
	switch {
	case err != nil || math.IsNaN(price) || math.IsInf(price, 0):
		errs.Add("price", "El precio debe ser un número")
	case price < MinPrice:
		errs.Add("price", "El precio mínimo es 5")
	default:
		s.BasePrice = math.Round(price*100) / 100
	}

	s.PriceType = models.PriceType(strings.ToLower(strings.TrimSpace(in.PriceType)))
	if s.PriceType == "" {
		s.PriceType = models.PriceFixed
	}
	if s.PriceType != models.PriceFixed && s.PriceType != models.PriceHourly {
		errs.Add("price_type", "El tipo de precio debe ser fixed o hourly")
	}

	s.DeliveryTime = DefaultDeliveryDays
	if raw := strings.TrimSpace(in.DeliveryTime); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			errs.Add("delivery_time", "El tiempo de entrega debe ser de al menos 1 día")
		} else {
			s.DeliveryTime = days
		}
	}

	s.Tags = splitTags(in.Tags)
	return apperr.Invalid(errs)
}

func splitTags(raw string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

func checkImages(files []storage.File) error {
	if len(files) > MaxImages {
		errs := apperr.FieldErrors{}
		errs.Add("images", "Máximo 5 imágenes")
		return apperr.Invalid(errs)
	}
	for _, f := range files {
		if !imageExts[storage.Ext(f.Name)] {
			errs := apperr.FieldErrors{}
			errs.Add("images", "Formato de imagen no permitido (jpg, jpeg, png, webp)")
			return apperr.Invalid(errs)
		}
		if f.Size > MaxImageSize {
			return apperr.New(apperr.TooLarge, "Cada imagen puede pesar como máximo 5MB")
		}
	}
	return nil
}

func requireFreelancer(u *models.User) error {
	if u.Role != models.RoleFreelancer {
		return apperr.New(apperr.Forbidden, "Solo los freelancers pueden publicar servicios")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, caller *models.User, in Input, images []storage.File) (*models.Service, error) {
	if err := requireFreelancer(caller); err != nil {
		return nil, err
	}

	svc := &models.Service{FreelancerID: caller.ID, IsActive: true}
	if err := in.apply(svc); err != nil {
		return nil, err
	}
	if err := checkImages(images); err != nil {
		return nil, err
	}

	paths, err := storage.SaveAll(ctx, s.store, imageFolder, images)
	if err != nil {
		return nil, apperr.Internalf(err, "store service images")
	}
	svc.Images = paths

	if err := s.services.Create(ctx, svc); err != nil {
		storage.Cleanup(ctx, s.store, paths)
		return nil, apperr.Internalf(err, "create service")
	}
	s.log.Info("service created", zap.Stringer("service_id", svc.ID), zap.Stringer("freelancer_id", caller.ID))
	return s.Get(ctx, svc.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "Servicio no encontrado")
	}
	if err != nil {
		return nil, apperr.Internalf(err, "load service %s", id)
	}
	return svc, nil
}

func (s *Service) owned(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.FreelancerID != caller.ID {
		return nil, apperr.New(apperr.Forbidden, "No eres el dueño de este servicio")
	}
	return svc, nil
}

// Update replaces the editable fields. When images is non-empty it replaces
// the gallery and the previous files are removed afterwards.
func (s *Service) Update(ctx context.Context, caller *models.User, id uuid.UUID, in Input, images []storage.File) (*models.Service, error) {
	svc, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(svc); err != nil {
		return nil, err
	}
	if err := checkImages(images); err != nil {
		return nil, err
	}

	var old, fresh []string
	if len(images) > 0 {
		fresh, err = storage.SaveAll(ctx, s.store, imageFolder, images)
		if err != nil {
			return nil, apperr.Internalf(err, "store service images")
		}
		old = svc.Images
		svc.Images = fresh
	}

	svc.Freelancer = nil
	if err := s.services.Update(ctx, svc); err != nil {
		storage.Cleanup(ctx, s.store, fresh)
		return nil, apperr.Internalf(err, "update service %s", id)
	}
	storage.Cleanup(ctx, s.store, old)
	return s.Get(ctx, id)
}

// SoftDelete hides the service from the catalog. Existing projects keep it.
func (s *Service) SoftDelete(ctx context.Context, caller *models.User, id uuid.UUID) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.services.SetActive(ctx, id, false); err != nil {
		return apperr.Internalf(err, "deactivate service %s", id)
	}
	return nil
}

type ListQuery struct {
	FreelancerID *uuid.UUID
	Category     string
	Query        string
	Page         int
	Limit        int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type Page struct {
	Services   []models.Service `json:"services"`
	Pagination Pagination       `json:"pagination"`
}

func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	items, total, err := s.services.List(ctx, repository.ServiceFilter{
		FreelancerID: q.FreelancerID,
		Category:     strings.TrimSpace(q.Category),
		Query:        strings.TrimSpace(q.Query),
		Limit:        limit,
		Offset:       (page - 1) * limit,
	})
	if err != nil {
		return nil, apperr.Internalf(err, "list services")
	}
	if items == nil {
		items = []models.Service{}
	}
	return &Page{
		Services: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

// Mine lists every service of the caller, inactive ones included.
func (s *Service) Mine(ctx context.Context, caller *models.User) ([]models.Service, error) {
	items, _, err := s.services.List(ctx, repository.ServiceFilter{FreelancerID: &caller.ID, IncludeInactive: true})
	if err != nil {
		return nil, apperr.Internalf(err, "list own services")
	}
	if items == nil {
		items = []models.Service{}
	}
	return items, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.services.Categories(ctx)
	if err != nil {
		return nil, apperr.Internalf(err, "list categories")
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}
