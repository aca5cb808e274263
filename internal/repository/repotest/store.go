// Package repotest provides an in-memory implementation of every repository
// interface for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users    map[uuid.UUID]models.User
	profiles map[uuid.UUID]models.FreelancerProfile // keyed by user id
	services map[uuid.UUID]models.Service
	projects map[uuid.UUID]models.Project
	payments map[uuid.UUID]models.Payment // keyed by project id
	chats    map[uuid.UUID]models.Chat
	messages []models.Message
	updates  []models.ProjectUpdate
	resets   []models.PasswordResetCode

	errs map[string]error
	last time.Time
}

func New() *Store {
	return &Store{
		users:    map[uuid.UUID]models.User{},
		profiles: map[uuid.UUID]models.FreelancerProfile{},
		services: map[uuid.UUID]models.Service{},
		projects: map[uuid.UUID]models.Project{},
		payments: map[uuid.UUID]models.Payment{},
		chats:    map[uuid.UUID]models.Chat{},
		errs:     map[string]error{},
	}
}

// FailNext makes the next call of op return err. Op names are
// "<Repo>.<Method>", e.g. "Chats.CreateMessage".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[op] = err
}

func (s *Store) takeErr(op string) error {
	err := s.errs[op]
	delete(s.errs, op)
	return err
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func (s *Store) Users() repository.UserRepository                  { return userRepo{s} }
func (s *Store) Services() repository.ServiceRepository            { return serviceRepo{s} }
func (s *Store) Projects() repository.ProjectRepository            { return projectRepo{s} }
func (s *Store) Chats() repository.ChatRepository                  { return chatRepo{s} }
func (s *Store) Updates() repository.ProjectUpdateRepository       { return updateRepo{s} }
func (s *Store) PasswordResets() repository.PasswordResetRepository { return resetRepo{s} }

// Seeding and inspection helpers.

func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.tick()
	}
	u.Email = strings.ToLower(u.Email)
	s.users[u.ID] = u
	return u
}

func (s *Store) AddService(v models.Service) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.tick()
	}
	s.services[v.ID] = v
	return v
}

func (s *Store) AddProject(p models.Project) models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.tick()
	}
	if p.Status == "" {
		p.Status = models.ProjectPending
	}
	s.projects[p.ID] = p
	return p
}

func (s *Store) AllChats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		out = append(out, c)
	}
	return out
}

func (s *Store) AllMessages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Store) AllProjects() []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out
}

func (s *Store) AllPayments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

func (s *Store) AllResetCodes() []models.PasswordResetCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PasswordResetCode(nil), s.resets...)
}

func (s *Store) User(id uuid.UUID) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Users.Create"); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.Email == strings.ToLower(u.Email) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	cp.FreelancerProfile = nil
	s.users[u.ID] = cp
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Users.FindByID"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p, ok := s.profiles[id]; ok {
		u.FreelancerProfile = &p
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Phone, cur.AvatarURL, cur.Role, cur.IsActive = u.Name, u.Phone, u.AvatarURL, u.Role, u.IsActive
	cur.UpdatedAt = s.tick()
	s.users[u.ID] = cur
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	s.users[id] = u
	return nil
}

// UpdateWithProfile fails on "Users.UpsertProfile" after the user columns
// were computed, leaving both records untouched.
func (r userRepo) UpdateWithProfile(_ context.Context, u *models.User, p *models.FreelancerProfile) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Phone, cur.AvatarURL, cur.Role, cur.IsActive = u.Name, u.Phone, u.AvatarURL, u.Role, u.IsActive
	cur.UpdatedAt = s.tick()

	if p != nil {
		if err := s.takeErr("Users.UpsertProfile"); err != nil {
			return err
		}
		if prev, ok := s.profiles[p.UserID]; ok {
			p.ID = prev.ID
			p.CreatedAt = prev.CreatedAt
		} else if p.ID == uuid.Nil {
			p.ID = uuid.New()
			p.CreatedAt = s.tick()
		}
		p.UpdatedAt = s.tick()
		s.profiles[p.UserID] = *p
	}
	s.users[u.ID] = cur
	return nil
}

// services

type serviceRepo struct{ s *Store }

func (r serviceRepo) withOwner(v models.Service) models.Service {
	if u, ok := r.s.users[v.FreelancerID]; ok {
		v.Freelancer = &u
	}
	return v
}

func (r serviceRepo) Create(_ context.Context, v *models.Service) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Services.Create"); err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = s.tick()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	cp.Freelancer = nil
	s.services[v.ID] = cp
	return nil
}

func (r serviceRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Service, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v = r.withOwner(v)
	return &v, nil
}

func (r serviceRepo) Update(_ context.Context, v *models.Service) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Services.Update"); err != nil {
		return err
	}
	cur, ok := s.services[v.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *v
	cp.Freelancer = nil
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = s.tick()
	s.services[v.ID] = cp
	return nil
}

func (r serviceRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.services[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.IsActive = active
	s.services[id] = v
	return nil
}

func (r serviceRepo) List(_ context.Context, f repository.ServiceFilter) ([]models.Service, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Service
	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, v := range s.services {
		if !f.IncludeInactive && !v.IsActive {
			continue
		}
		if f.FreelancerID != nil && v.FreelancerID != *f.FreelancerID {
			continue
		}
		if f.Category != "" && !strings.EqualFold(v.Category, f.Category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(v.Title), q) && !strings.Contains(strings.ToLower(v.Description), q) {
			continue
		}
		out = append(out, r.withOwner(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if f.Limit > 0 {
		start := min(f.Offset, len(out))
		end := min(start+f.Limit, len(out))
		out = out[start:end]
	}
	return out, total, nil
}

func (r serviceRepo) Categories(_ context.Context) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, v := range s.services {
		if v.IsActive && !seen[v.Category] {
			seen[v.Category] = true
			out = append(out, v.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

// projects

type projectRepo struct{ s *Store }

func (r projectRepo) joined(p models.Project) models.Project {
	s := r.s
	if v, ok := s.services[p.ServiceID]; ok {
		p.Service = &v
	}
	if u, ok := s.users[p.ClientID]; ok {
		p.Client = &u
	}
	if u, ok := s.users[p.FreelancerID]; ok {
		p.Freelancer = &u
	}
	return p
}

// CreateContract stages every row and commits only when all steps succeed.
func (r projectRepo) CreateContract(_ context.Context, c *repository.Contract) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Projects.CreateContract"); err != nil {
		return err
	}

	project := *c.Project
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	project.CreatedAt = s.tick()
	project.UpdatedAt = project.CreatedAt

	payment := *c.Payment
	payment.ID = uuid.New()
	payment.ProjectID = project.ID
	payment.CreatedAt = project.CreatedAt

	var chat models.Chat
	created := true
	for _, existing := range s.chats {
		if existing.ProjectID != nil && *existing.ProjectID == project.ID {
			chat, created = existing, false
		}
	}
	if created {
		pid := project.ID
		chat = models.Chat{ID: uuid.New(), ProjectID: &pid, ClientID: project.ClientID, FreelancerID: project.FreelancerID, CreatedAt: s.tick()}
	}

	if err := s.takeErr("Projects.CreateContract.message"); err != nil {
		return err
	}
	seed := *c.Seed
	seed.ID = uuid.New()
	seed.ChatID = chat.ID
	pid := project.ID
	seed.ProjectID = &pid
	seed.CreatedAt = s.tick()
	at := seed.CreatedAt
	chat.LastMessageAt = &at

	s.projects[project.ID] = project
	s.payments[project.ID] = payment
	s.chats[chat.ID] = chat
	s.messages = append(s.messages, seed)

	*c.Project = project
	*c.Payment = payment
	*c.Seed = seed
	c.Chat = &chat
	return nil
}

func (r projectRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = r.joined(p)
	return &p, nil
}

func (r projectRepo) ListForUser(_ context.Context, userID uuid.UUID, f repository.ProjectFilter) ([]models.Project, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Project
	for _, p := range s.projects {
		switch f.As {
		case models.RoleClient:
			if p.ClientID != userID {
				continue
			}
		case models.RoleFreelancer:
			if p.FreelancerID != userID {
				continue
			}
		default:
			if !p.IsParticipant(userID) {
				continue
			}
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, r.joined(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r projectRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.ProjectStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok || p.Status != from {
		return repository.ErrStaleStatus
	}
	p.Status = to
	p.UpdatedAt = s.tick()
	s.projects[id] = p
	return nil
}

func (r projectRepo) FindPayment(_ context.Context, projectID uuid.UUID) (*models.Payment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r projectRepo) CountByStatus(_ context.Context, userID uuid.UUID, status models.ProjectStatus) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.projects {
		if p.IsParticipant(userID) && p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r projectRepo) SumPayments(_ context.Context, userID uuid.UUID, as models.Role) (float64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, p := range s.payments {
		owner := p.ClientID
		if as == models.RoleFreelancer {
			owner = p.FreelancerID
		}
		if owner == userID && p.Status == models.PaymentCompleted {
			total += p.Amount
		}
	}
	return total, nil
}

// chats

type chatRepo struct{ s *Store }

func (r chatRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Chat, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r chatRepo) FindByProject(_ context.Context, projectID uuid.UUID) (*models.Chat, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ProjectID != nil && *c.ProjectID == projectID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r chatRepo) FindOrCreateForProject(_ context.Context, p *models.Project) (*models.Chat, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Chats.FindOrCreateForProject"); err != nil {
		return nil, false, err
	}
	for _, c := range s.chats {
		if c.ProjectID != nil && *c.ProjectID == p.ID {
			return &c, false, nil
		}
	}
	pid := p.ID
	c := models.Chat{ID: uuid.New(), ProjectID: &pid, ClientID: p.ClientID, FreelancerID: p.FreelancerID, CreatedAt: s.tick()}
	s.chats[c.ID] = c
	return &c, true, nil
}

func (r chatRepo) FindOrCreateDirect(_ context.Context, clientID, freelancerID uuid.UUID) (*models.Chat, bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chats {
		if c.ProjectID == nil && c.ClientID == clientID && c.FreelancerID == freelancerID {
			return &c, false, nil
		}
	}
	c := models.Chat{ID: uuid.New(), ClientID: clientID, FreelancerID: freelancerID, CreatedAt: s.tick()}
	s.chats[c.ID] = c
	return &c, true, nil
}

func (r chatRepo) ListSummaries(_ context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ConversationSummary
	for _, c := range s.chats {
		if !c.IsParticipant(userID) {
			continue
		}
		sum := models.ConversationSummary{ChatID: c.ID, ProjectID: c.ProjectID, CreatedAt: c.CreatedAt}
		if c.ProjectID != nil {
			if p, ok := s.projects[*c.ProjectID]; ok {
				sum.ProjectTitle = p.Title
			}
		}
		if u, ok := s.users[c.Counterpart(userID)]; ok {
			sum.Counterpart = u.Summary()
		}
		for _, m := range s.messages {
			if m.ChatID != c.ID {
				continue
			}
			if sum.LastMessageAt == nil || !m.CreatedAt.Before(*sum.LastMessageAt) {
				at := m.CreatedAt
				sum.LastMessage, sum.LastMessageAt = m.Body, &at
			}
			if m.ReceiverID == userID && !m.IsRead {
				sum.UnreadCount++
			}
		}
		out = append(out, sum)
	}
	activity := func(c models.ConversationSummary) time.Time {
		if c.LastMessageAt != nil {
			return *c.LastMessageAt
		}
		return c.CreatedAt
	}
	sort.Slice(out, func(i, j int) bool { return activity(out[i]).After(activity(out[j])) })
	return out, nil
}

func (r chatRepo) ListMessages(_ context.Context, chatID uuid.UUID) ([]models.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Chats.ListMessages"); err != nil {
		return nil, err
	}
	var out []models.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			if u, ok := s.users[m.SenderID]; ok {
				m.Sender = &u
			}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r chatRepo) MarkRead(_ context.Context, chatID, readerID uuid.UUID, at time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.ChatID == chatID && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (r chatRepo) CreateMessage(_ context.Context, m *models.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Chats.CreateMessage"); err != nil {
		return err
	}
	c, ok := s.chats[m.ChatID]
	if !ok {
		return repository.ErrNotFound
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.tick()
	}
	cp := *m
	cp.Sender = nil
	s.messages = append(s.messages, cp)
	at := m.CreatedAt
	c.LastMessageAt = &at
	s.chats[c.ID] = c
	return nil
}

func (r chatRepo) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// project updates

type updateRepo struct{ s *Store }

func (r updateRepo) Create(_ context.Context, u *models.ProjectUpdate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("Updates.Create"); err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.tick()
	cp := *u
	cp.Files = append([]string(nil), u.Files...)
	s.updates = append(s.updates, cp)
	return nil
}

func (r updateRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.ProjectUpdate, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProjectUpdate
	for i := len(s.updates) - 1; i >= 0; i-- {
		if s.updates[i].ProjectID == projectID {
			out = append(out, s.updates[i])
		}
	}
	return out, nil
}

// password resets

type resetRepo struct{ s *Store }

func (r resetRepo) Issue(_ context.Context, c *models.PasswordResetCode) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("PasswordResets.Issue"); err != nil {
		return err
	}
	kept := s.resets[:0]
	for _, existing := range s.resets {
		if existing.UserID != c.UserID {
			kept = append(kept, existing)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.tick()
	s.resets = append(kept, *c)
	return nil
}

func (r resetRepo) FindActive(_ context.Context, userID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.resets) - 1; i >= 0; i-- {
		c := s.resets[i]
		if c.UserID == userID && c.Code == code && c.Usable(now) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r resetRepo) Consume(_ context.Context, userID uuid.UUID, code string, now time.Time, passwordHash string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeErr("PasswordResets.Consume"); err != nil {
		return err
	}
	burned := false
	for i := range s.resets {
		c := s.resets[i]
		if c.UserID == userID && c.Code == code && c.Usable(now) {
			burned = true
			break
		}
	}
	if !burned {
		return repository.ErrNotFound
	}
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	s.users[userID] = u
	for i := range s.resets {
		if s.resets[i].UserID == userID {
			s.resets[i].Used = true
		}
	}
	return nil
}

func (r resetRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.resets[:0]
	var n int64
	for _, c := range s.resets {
		if c.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.resets = kept
	return n, nil
}
