package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
)

// UserRepository is an in-memory user directory keyed by ID.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]models.User{}}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return &domain.ConflictError{Message: fmt.Sprintf("user %s already exists", user.ID), ResourceType: "user", ResourceID: user.ID}
	}
	if existing, ok := r.findByEmail(user.Email); ok {
		return emailTaken(user.Email, existing.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findByEmail(email)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int { return strings.Compare(a.Email, b.Email) })
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	if existing, ok := r.findByEmail(user.Email); ok && existing.ID != user.ID {
		return emailTaken(user.Email, existing.ID)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) findByEmail(email string) (models.User, bool) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}

func emailTaken(email, id string) error {
	return &domain.ConflictError{Message: fmt.Sprintf("email %s is already registered", email), ResourceType: "user", ResourceID: id}
}

// TeamRepository is an in-memory team store.
type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]*models.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{teams: map[string]*models.Team{}}
}

var _ repositories.TeamRepository = (*TeamRepository)(nil)

func (r *TeamRepository) Create(_ context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.teams {
		if strings.EqualFold(t.Name, team.Name) || t.FolderPath == team.FolderPath {
			return &domain.ConflictError{Message: fmt.Sprintf("team %q already exists", team.Name), ResourceType: "team", ResourceID: t.ID}
		}
	}
	r.teams[team.ID] = cloneTeam(team)
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, id string) (*models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return cloneTeam(t), nil
}

func (r *TeamRepository) List(_ context.Context) ([]models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(*models.Team) bool { return true }), nil
}

func (r *TeamRepository) ListForUser(_ context.Context, userID string) ([]models.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(t *models.Team) bool { return t.HasMember(userID) }), nil
}

func (r *TeamRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.teams[id]; !ok {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	delete(r.teams, id)
	return nil
}

func (r *TeamRepository) UpdateFolderPath(_ context.Context, id, folderPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[id]
	if !ok {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	t.FolderPath = folderPath
	return nil
}

func (r *TeamRepository) AddMember(_ context.Context, teamID string, m models.TeamMembership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, domain.ErrNotFound)
	}
	if t.HasMember(m.UserID) {
		return &domain.ConflictError{Message: fmt.Sprintf("user %s is already a member of team %s", m.UserID, t.Name), ResourceType: "membership", ResourceID: m.UserID}
	}
	t.Members = append(t.Members, m)
	return nil
}

func (r *TeamRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return fmt.Errorf("team %s: %w", teamID, domain.ErrNotFound)
	}
	i := slices.IndexFunc(t.Members, func(m models.TeamMembership) bool { return m.UserID == userID })
	if i < 0 {
		return fmt.Errorf("membership of %s in team %s: %w", userID, teamID, domain.ErrNotFound)
	}
	t.Members = slices.Delete(t.Members, i, i+1)
	return nil
}

func (r *TeamRepository) RemoveUserFromAll(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.teams {
		t.Members = slices.DeleteFunc(t.Members, func(m models.TeamMembership) bool { return m.UserID == userID })
	}
	return nil
}

func (r *TeamRepository) sorted(keep func(*models.Team) bool) []models.Team {
	out := make([]models.Team, 0, len(r.teams))
	for _, t := range r.teams {
		if keep(t) {
			out = append(out, *cloneTeam(t))
		}
	}
	slices.SortFunc(out, func(a, b models.Team) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func cloneTeam(t *models.Team) *models.Team {
	c := *t
	c.Members = slices.Clone(t.Members)
	return &c
}

// ActivityRepository is an in-memory append-only log.
type ActivityRepository struct {
	mu      sync.RWMutex
	entries []models.ActivityLogEntry
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Append(_ context.Context, entries ...models.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *ActivityRepository) List(_ context.Context, limit, offset int) ([]models.ActivityLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ActivityLogEntry, 0, min(limit, len(r.entries)))
	for i := len(r.entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
