package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
)

// TeamService implements services.TeamService. Team folders are created and
// removed through the tree service so they are locked and logged like any
// other folder.
type TeamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	activity repositories.ActivityRepository
	tree     docsysSvc.TreeService
	root     string
	logger   *slog.Logger
}

// NewTeamService creates a new team service. Team folders live directly
// under root.
func NewTeamService(
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	activity repositories.ActivityRepository,
	tree docsysSvc.TreeService,
	root string,
	logger *slog.Logger,
) services.TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		activity: activity,
		tree:     tree,
		root:     root,
		logger:   logger,
	}
}

// Create makes the team folder first so a taken folder name fails before
// the team record exists. If the record cannot be stored the new folder is
// removed again.
func (s *TeamService) Create(ctx context.Context, p *models.Principal, req *services.CreateTeamRequest) (*models.Team, error) {
	if err := requireAdmin(p, "create teams"); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxTeamNameLength),
			validation.By(func(interface{}) error { return pathutil.ValidateName(req.Name) }),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	folder, err := s.tree.CreateFolder(ctx, p, &docsysSvc.CreateFolderRequest{
		ParentPath: s.root,
		Name:       req.Name,
		Remark:     fmt.Sprintf("Team folder of %s", req.Name),
	})
	if err != nil {
		return nil, fmt.Errorf("create team folder: %w", err)
	}

	team := &models.Team{
		ID:         uuid.NewString(),
		Name:       req.Name,
		FolderPath: folder.Path,
		CreatedAt:  time.Now(),
		Members:    []models.TeamMembership{},
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if _, rbErr := s.tree.Delete(ctx, p, &docsysSvc.DeleteRequest{Path: folder.Path, Force: true}); rbErr != nil {
			s.logger.Error("failed to remove folder of unsaved team", "path", folder.Path, "error", rbErr)
		}
		return nil, err
	}

	s.record(ctx, p, models.ActionCreateTeam, team, folder.ID)
	s.logger.Info("team created", "team_id", team.ID, "path", team.FolderPath, "user_id", p.UserID)
	return team, nil
}

func (s *TeamService) List(ctx context.Context, p *models.Principal) ([]models.Team, error) {
	if err := requireAdmin(p, "list teams"); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.fillMemberEmails(ctx, teams)
	return teams, nil
}

func (s *TeamService) ListForUser(ctx context.Context, p *models.Principal) ([]models.Team, error) {
	teams, err := s.teamRepo.ListForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	s.fillMemberEmails(ctx, teams)
	return teams, nil
}

// Delete removes the team folder with everything in it, then the team.
func (s *TeamService) Delete(ctx context.Context, p *models.Principal, id string) error {
	if err := requireAdmin(p, "delete teams"); err != nil {
		return err
	}
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.tree.Delete(ctx, p, &docsysSvc.DeleteRequest{Path: team.FolderPath, Force: true})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete team folder: %w", err)
	}
	// tree.Delete drops the team record along with its folder
	if err := s.teamRepo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	s.record(ctx, p, models.ActionDeleteTeam, team, "")
	s.logger.Info("team deleted", "team_id", id, "path", team.FolderPath, "user_id", p.UserID)
	return nil
}

func (s *TeamService) AddMember(ctx context.Context, p *models.Principal, teamID, userID string) (*models.Team, error) {
	if err := requireAdmin(p, "manage team members"); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	err := s.teamRepo.AddMember(ctx, teamID, models.TeamMembership{
		UserID:    userID,
		GrantedBy: p.UserID,
		GrantedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	teams := []models.Team{*team}
	s.fillMemberEmails(ctx, teams)

	s.logger.Info("team member added", "team_id", teamID, "member_id", userID, "user_id", p.UserID)
	return &teams[0], nil
}

func (s *TeamService) RemoveMember(ctx context.Context, p *models.Principal, teamID, userID string) error {
	if err := requireAdmin(p, "manage team members"); err != nil {
		return err
	}
	if err := s.teamRepo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}
	s.logger.Info("team member removed", "team_id", teamID, "member_id", userID, "user_id", p.UserID)
	return nil
}

func (s *TeamService) fillMemberEmails(ctx context.Context, teams []models.Team) {
	emails := map[string]string{}
	for i := range teams {
		for j := range teams[i].Members {
			m := &teams[i].Members[j]
			email, ok := emails[m.UserID]
			if !ok {
				if u, err := s.userRepo.GetByID(ctx, m.UserID); err == nil {
					email = u.Email
				}
				emails[m.UserID] = email
			}
			m.UserEmail = email
		}
	}
}

func (s *TeamService) record(ctx context.Context, p *models.Principal, action string, team *models.Team, nodeID string) {
	entry := models.ActivityLogEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		UserID:     p.UserID,
		UserEmail:  p.Email,
		Action:     action,
		TargetPath: team.FolderPath,
		NodeID:     nodeID,
		Details:    team.Name,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activity log", "action", action, "error", err)
	}
}
