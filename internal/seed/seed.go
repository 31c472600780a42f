// Package seed bootstraps users and teams from a YAML manifest.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
)

// SystemPrincipal acts for seed operations. It is an admin that does not
// exist in the user directory.
var SystemPrincipal = &models.Principal{UserID: "system", Email: "system", Role: models.RoleAdmin}

// Manifest is the YAML document accepted by Apply.
//
//	users:
//	  - email: alice@example.com
//	    password: change-me-now
//	    role: admin
//	teams:
//	  - name: Engineering
//	    members: [alice@example.com]
type Manifest struct {
	Users []UserSpec `yaml:"users"`
	Teams []TeamSpec `yaml:"teams"`
}

type UserSpec struct {
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type TeamSpec struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// Report counts what Apply created. Existing users, teams and memberships
// are left alone and counted as skipped.
type Report struct {
	UsersCreated   int `yaml:"users_created"`
	TeamsCreated   int `yaml:"teams_created"`
	MembersAdded   int `yaml:"members_added"`
	AlreadyPresent int `yaml:"already_present"`
}

// LoadManifest decodes a manifest, rejecting unknown keys.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Seeder applies manifests through the regular services, so validation,
// team folders and activity logging behave as they do over HTTP.
type Seeder struct {
	users    services.UserService
	teams    services.TeamService
	userRepo repositories.UserRepository
	teamRepo repositories.TeamRepository
	logger   *slog.Logger
}

func NewSeeder(
	users services.UserService,
	teams services.TeamService,
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{users: users, teams: teams, userRepo: userRepo, teamRepo: teamRepo, logger: logger}
}

// CreateAdmin adds an admin account.
func (s *Seeder) CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	return s.users.Create(ctx, SystemPrincipal, &services.CreateUserRequest{
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
}

// Apply creates the manifest's users, then its teams and memberships. It is
// safe to run repeatedly.
func (s *Seeder) Apply(ctx context.Context, m *Manifest) (*Report, error) {
	report := &Report{}

	for _, u := range m.Users {
		_, err := s.users.Create(ctx, SystemPrincipal, &services.CreateUserRequest{Email: u.Email, Password: u.Password, Role: u.Role})
		switch {
		case err == nil:
			report.UsersCreated++
			s.logger.Info("seeded user", "email", u.Email, "role", u.Role)
		case errors.Is(err, domain.ErrConflict):
			report.AlreadyPresent++
		default:
			return report, fmt.Errorf("user %s: %w", u.Email, err)
		}
	}

	existing, err := s.teamRepo.List(ctx)
	if err != nil {
		return report, err
	}
	byName := make(map[string]*models.Team, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	for _, t := range m.Teams {
		team, ok := byName[t.Name]
		if ok {
			report.AlreadyPresent++
		} else {
			team, err = s.teams.Create(ctx, SystemPrincipal, &services.CreateTeamRequest{Name: t.Name})
			if err != nil {
				return report, fmt.Errorf("team %s: %w", t.Name, err)
			}
			report.TeamsCreated++
			s.logger.Info("seeded team", "name", team.Name, "path", team.FolderPath)
		}

		for _, email := range t.Members {
			user, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return report, fmt.Errorf("member %s of team %s: %w", email, t.Name, err)
			}
			_, err = s.teams.AddMember(ctx, SystemPrincipal, team.ID, user.ID)
			switch {
			case err == nil:
				report.MembersAdded++
			case errors.Is(err, domain.ErrConflict):
				report.AlreadyPresent++
			default:
				return report, fmt.Errorf("member %s of team %s: %w", email, t.Name, err)
			}
		}
	}
	return report, nil
}
