package account

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

const maxListItems = 20

// ProfileInput carries only the fields the caller sent; nil means untouched.
type ProfileInput struct {
	Name  *string
	Phone *string

	Bio             *string
	HourlyRate      *string
	Skills          *string
	Languages       *string
	ExperienceLevel *string
	PortfolioURL    *string
	LinkedInURL     *string
	GitHubURL       *string
	WebsiteURL      *string
	Availability    *string
	University      *string
	Career          *string
}

func (in ProfileInput) touchesProfile() bool {
	for _, p := range []*string{
		in.Bio, in.HourlyRate, in.Skills, in.Languages, in.ExperienceLevel,
		in.PortfolioURL, in.LinkedInURL, in.GitHubURL, in.WebsiteURL,
		in.Availability, in.University, in.Career,
	} {
		if p != nil {
			return true
		}
	}
	return false
}

// UpdateProfile applies in to the caller's own account.
func (s *Service) UpdateProfile(ctx context.Context, caller *models.User, targetID uuid.UUID, in ProfileInput, avatar *storage.File) (*models.User, error) {
	if caller.ID != targetID {
		return nil, apperr.New(apperr.Forbidden, "No puedes editar el perfil de otro usuario")
	}

	u, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	errs := apperr.FieldErrors{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			errs.Add("name", "El nombre es obligatorio")
		}
		u.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && len(phone) < 7 {
			errs.Add("phone", "Teléfono inválido")
		}
		u.Phone = phone
	}

	var profile *models.FreelancerProfile
	if in.touchesProfile() {
		profile = &models.FreelancerProfile{UserID: u.ID}
		if u.FreelancerProfile != nil {
			cp := *u.FreelancerProfile
			profile = &cp
		}
		applyProfile(profile, in, errs)
	}

	if avatar != nil {
		if err := checkAvatar(*avatar); err != nil {
			return nil, err
		}
	}
	if err := apperr.Invalid(errs); err != nil {
		return nil, err
	}

	oldAvatar := u.AvatarURL
	var newAvatar string
	if avatar != nil {
		paths, err := storage.SaveAll(ctx, s.store, avatarFolder, []storage.File{*avatar})
		if err != nil {
			return nil, apperr.Internalf(err, "store avatar")
		}
		newAvatar = paths[0]
		u.AvatarURL = newAvatar
	}

	if err := s.users.UpdateWithProfile(ctx, u, profile); err != nil {
		if newAvatar != "" {
			storage.Cleanup(ctx, s.store, []string{newAvatar})
		}
		return nil, apperr.Internalf(err, "update user %s", u.ID)
	}
	if newAvatar != "" && oldAvatar != "" {
		if err := s.store.Delete(ctx, oldAvatar); err != nil {
			s.log.Warn("delete old avatar", zap.Error(err), zap.String("path", oldAvatar))
		}
	}

	return s.Get(ctx, u.ID)
}

func applyProfile(p *models.FreelancerProfile, in ProfileInput, errs apperr.FieldErrors) {
	if in.Bio != nil {
		p.Bio = strings.TrimSpace(*in.Bio)
		if len(p.Bio) > 2000 {
			errs.Add("bio", "La biografía no puede superar 2000 caracteres")
		}
	}
	if in.HourlyRate != nil {
		raw := strings.TrimSpace(*in.HourlyRate)
		if raw == "" {
			p.HourlyRate = 0
		} else if rate, err := strconv.ParseFloat(raw, 64); err != nil || rate < 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			errs.Add("hourly_rate", "Tarifa por hora inválida")
		} else {
			p.HourlyRate = rate
		}
	}
	if in.Skills != nil {
		list, ok := parseList(*in.Skills)
		if !ok {
			errs.Add("skills", "Lista de habilidades inválida")
		}
		p.Skills = list
	}
	if in.Languages != nil {
		list, ok := parseList(*in.Languages)
		if !ok {
			errs.Add("languages", "Lista de idiomas inválida")
		}
		p.Languages = list
	}
	if in.ExperienceLevel != nil {
		lvl := models.ExperienceLevel(strings.ToLower(strings.TrimSpace(*in.ExperienceLevel)))
		if lvl != "" && !lvl.Valid() {
			errs.Add("experience_level", "Nivel de experiencia inválido")
		}
		p.ExperienceLevel = lvl
	}

	links := []struct {
		field string
		in    *string
		dst   *string
	}{
		{"portfolio_url", in.PortfolioURL, &p.PortfolioURL},
		{"linkedin_url", in.LinkedInURL, &p.LinkedInURL},
		{"github_url", in.GitHubURL, &p.GitHubURL},
		{"website_url", in.WebsiteURL, &p.WebsiteURL},
	}
	for _, l := range links {
		if l.in == nil {
			continue
		}
		v := strings.TrimSpace(*l.in)
		if v != "" && !validURL(v) {
			errs.Add(l.field, "URL inválida")
		}
		*l.dst = v
	}

	if in.Availability != nil {
		p.Availability = strings.TrimSpace(*in.Availability)
	}
	if in.University != nil {
		p.University = strings.TrimSpace(*in.University)
	}
	if in.Career != nil {
		p.Career = strings.TrimSpace(*in.Career)
	}
}

func validURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseList accepts a JSON array or a comma separated list.
func parseList(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, true
	}

	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, false
		}
	} else {
		items = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out, len(out) <= maxListItems
}
