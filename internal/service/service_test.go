package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/content"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/memory"
	serviceauth "github.com/YugenJarwal13/InternalDMS/internal/service/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/service/docsystem"
)

type fixture struct {
	users    *memory.UserRepository
	teams    *memory.TeamRepository
	activity *memory.ActivityRepository
	store    *memory.TreeStore
	tokens   *auth.HMACTokens

	tree        docsysSvc.TreeService
	userSvc     services.UserService
	teamSvc     services.TeamService
	activitySvc services.ActivityService

	admin  *models.Principal
	member *models.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewHMACTokens(strings.Repeat("k", 32), "internaldms", time.Hour, logger)
	require.NoError(t, err)

	f := &fixture{
		users:    memory.NewUserRepository(),
		teams:    memory.NewTeamRepository(),
		activity: memory.NewActivityRepository(),
		store:    memory.NewTreeStore(),
		tokens:   tokens,
	}
	authorizer := serviceauth.NewTeamAuthorizer(f.teams)
	normalizer := pathutil.MustNormalizer("/")
	f.tree = docsystem.NewTreeService(f.store, content.NewMemoryStore(), f.activity, f.users, f.teams, authorizer,
		docsystem.NewSubtreeLocker(), normalizer, logger)
	f.userSvc = NewUserService(f.users, f.teams, tokens, logger)
	f.teamSvc = NewTeamService(f.teams, f.users, f.activity, f.tree, normalizer.Root(), logger)
	f.activitySvc = NewActivityService(f.activity, f.store, logger)

	f.admin = f.addUser(t, "u-admin", "admin@example.com", "admin-password", models.RoleAdmin)
	f.member = f.addUser(t, "u-member", "member@example.com", "member-password", models.RoleUser)
	return f
}

func (f *fixture) addUser(t *testing.T, id, email, password string, role models.Role) *models.Principal {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), &models.User{
		ID: id, Email: email, Role: role, PasswordHash: string(hash), CreatedAt: time.Now(),
	}))
	return &models.Principal{UserID: id, Email: email, Role: role}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.userSvc.Login(ctx, &services.LoginRequest{Email: " member@example.com ", Password: "member-password"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u-member", resp.User.ID)

	claims, err := f.tokens.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-member", claims.GetUserID())

	p, err := f.userSvc.ResolvePrincipal(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, f.member, p)

	_, err = f.userSvc.Login(ctx, &services.LoginRequest{Email: "member@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.userSvc.Login(ctx, &services.LoginRequest{Email: "nobody@example.com", Password: "member-password"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	t.Run("disabled without issuer", func(t *testing.T) {
		svc := NewUserService(f.users, f.teams, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		_, err := svc.Login(ctx, &services.LoginRequest{Email: "member@example.com", Password: "member-password"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("deleted user token", func(t *testing.T) {
		claims.Subject = "u-gone"
		_, err := f.userSvc.ResolvePrincipal(ctx, claims)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userSvc.List(ctx, f.member)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.userSvc.Create(ctx, f.member, &services.CreateUserRequest{Email: "x@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	created, err := f.userSvc.Create(ctx, f.admin, &services.CreateUserRequest{Email: "new@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.NotEqual(t, "password1", created.PasswordHash)

	_, err = f.userSvc.Create(ctx, f.admin, &services.CreateUserRequest{Email: "NEW@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	invalid := []services.CreateUserRequest{
		{Email: "not-an-email", Password: "password1"},
		{Email: "short@example.com", Password: "short"},
		{Email: "role@example.com", Password: "password1", Role: "superuser"},
	}
	for _, req := range invalid {
		_, err := f.userSvc.Create(ctx, f.admin, &req)
		assert.ErrorIs(t, err, domain.ErrValidation, req.Email)
	}

	all, err := f.userSvc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	t.Run("update", func(t *testing.T) {
		admin := models.RoleAdmin
		email := "renamed@example.com"
		password := "new-password"
		updated, err := f.userSvc.Update(ctx, f.admin, created.ID, &services.UpdateUserRequest{Email: &email, Role: &admin, Password: &password})
		require.NoError(t, err)
		assert.Equal(t, email, updated.Email)
		assert.Equal(t, models.RoleAdmin, updated.Role)

		_, err = f.userSvc.Login(ctx, &services.LoginRequest{Email: email, Password: password})
		assert.NoError(t, err)

		user := models.RoleUser
		_, err = f.userSvc.Update(ctx, f.admin, f.admin.UserID, &services.UpdateUserRequest{Role: &user})
		assert.ErrorIs(t, err, domain.ErrValidation)

		empty := ""
		_, err = f.userSvc.Update(ctx, f.admin, created.ID, &services.UpdateUserRequest{Email: &empty})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = f.userSvc.Update(ctx, f.admin, "missing", &services.UpdateUserRequest{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete removes memberships", func(t *testing.T) {
		team, err := f.teamSvc.Create(ctx, f.admin, &services.CreateTeamRequest{Name: "Ops"})
		require.NoError(t, err)
		_, err = f.teamSvc.AddMember(ctx, f.admin, team.ID, f.member.UserID)
		require.NoError(t, err)

		assert.ErrorIs(t, f.userSvc.Delete(ctx, f.admin, f.admin.UserID), domain.ErrValidation)
		require.NoError(t, f.userSvc.Delete(ctx, f.admin, f.member.UserID))

		teams, err := f.teams.ListForUser(ctx, f.member.UserID)
		require.NoError(t, err)
		assert.Empty(t, teams)
		assert.ErrorIs(t, f.userSvc.Delete(ctx, f.admin, f.member.UserID), domain.ErrNotFound)
	})
}

func TestTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.teamSvc.Create(ctx, f.member, &services.CreateTeamRequest{Name: "Sales"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	team, err := f.teamSvc.Create(ctx, f.admin, &services.CreateTeamRequest{Name: " Sales "})
	require.NoError(t, err)
	assert.Equal(t, "Sales", team.Name)
	assert.Equal(t, "/Sales", team.FolderPath)

	folder, err := f.store.Get(ctx, "/Sales")
	require.NoError(t, err)
	assert.True(t, folder.IsFolder)

	_, err = f.teamSvc.Create(ctx, f.admin, &services.CreateTeamRequest{Name: "Sales"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	for _, name := range []string{"", "a/b", ".."} {
		_, err = f.teamSvc.Create(ctx, f.admin, &services.CreateTeamRequest{Name: name})
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}

	t.Run("membership grants access", func(t *testing.T) {
		_, err := f.tree.CreateFolder(ctx, f.member, &docsysSvc.CreateFolderRequest{ParentPath: "/Sales", Name: "Leads"})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		got, err := f.teamSvc.AddMember(ctx, f.admin, team.ID, f.member.UserID)
		require.NoError(t, err)
		require.Len(t, got.Members, 1)
		assert.Equal(t, "member@example.com", got.Members[0].UserEmail)
		assert.Equal(t, f.admin.UserID, got.Members[0].GrantedBy)

		_, err = f.teamSvc.AddMember(ctx, f.admin, team.ID, f.member.UserID)
		assert.ErrorIs(t, err, domain.ErrConflict)
		_, err = f.teamSvc.AddMember(ctx, f.admin, team.ID, "u-ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.tree.CreateFolder(ctx, f.member, &docsysSvc.CreateFolderRequest{ParentPath: "/Sales", Name: "Leads"})
		require.NoError(t, err)

		mine, err := f.teamSvc.ListForUser(ctx, f.member)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, team.ID, mine[0].ID)

		require.NoError(t, f.teamSvc.RemoveMember(ctx, f.admin, team.ID, f.member.UserID))
		assert.ErrorIs(t, f.teamSvc.RemoveMember(ctx, f.admin, team.ID, f.member.UserID), domain.ErrNotFound)
	})

	t.Run("list is admin only", func(t *testing.T) {
		_, err := f.teamSvc.List(ctx, f.member)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		teams, err := f.teamSvc.List(ctx, f.admin)
		require.NoError(t, err)
		assert.Len(t, teams, 1)
	})

	t.Run("rename keeps team folder", func(t *testing.T) {
		_, err := f.tree.Rename(ctx, f.admin, &docsysSvc.RenameRequest{Path: "/Sales", NewName: "SalesEU"})
		require.NoError(t, err)

		got, err := f.teams.GetByID(ctx, team.ID)
		require.NoError(t, err)
		assert.Equal(t, "/SalesEU", got.FolderPath)

		_, err = f.teamSvc.AddMember(ctx, f.admin, team.ID, f.member.UserID)
		require.NoError(t, err)
		_, err = f.tree.CreateFolder(ctx, f.member, &docsysSvc.CreateFolderRequest{ParentPath: "/SalesEU", Name: "Q3"})
		require.NoError(t, err)
		_, err = f.tree.CreateFolder(ctx, f.member, &docsysSvc.CreateFolderRequest{ParentPath: "/SalesEU/Leads", Name: "Q4"})
		require.NoError(t, err)
	})

	t.Run("delete removes folder subtree", func(t *testing.T) {
		require.NoError(t, f.teamSvc.Delete(ctx, f.admin, team.ID))
		for _, path := range []string{"/SalesEU", "/SalesEU/Leads", "/SalesEU/Leads/Q4", "/Sales"} {
			_, err := f.store.Get(ctx, path)
			assert.ErrorIs(t, err, domain.ErrNotFound, path)
		}
		assert.ErrorIs(t, f.teamSvc.Delete(ctx, f.admin, team.ID), domain.ErrNotFound)
	})
}

func TestActivityLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tree.CreateFolder(ctx, f.admin, &docsysSvc.CreateFolderRequest{ParentPath: "/", Name: "Archive"})
	require.NoError(t, err)
	_, err = f.tree.CreateFolder(ctx, f.admin, &docsysSvc.CreateFolderRequest{ParentPath: "/", Name: "Scratch"})
	require.NoError(t, err)
	_, err = f.tree.Rename(ctx, f.admin, &docsysSvc.RenameRequest{Path: "/Archive", NewName: "Old"})
	require.NoError(t, err)
	_, err = f.tree.Delete(ctx, f.admin, &docsysSvc.DeleteRequest{Path: "/Scratch"})
	require.NoError(t, err)

	_, err = f.activitySvc.List(ctx, f.member, 0, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	entries, err := f.activitySvc.List(ctx, f.admin, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// newest first
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Equal(t, models.StatusDeleted, entries[0].Status)
	assert.Empty(t, entries[0].CurrentLocation)

	assert.Equal(t, models.ActionRename, entries[1].Action)
	assert.Equal(t, models.StatusPresent, entries[1].Status)
	assert.Equal(t, "/Old", entries[1].CurrentLocation)

	assert.Equal(t, models.ActionCreateFolder, entries[3].Action)
	assert.Equal(t, "/Archive", entries[3].TargetPath)
	assert.Equal(t, "/Old", entries[3].CurrentLocation, "create entry follows the renamed folder")

	page, err := f.activitySvc.List(ctx, f.admin, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, models.ActionRename, page[0].Action)

	_, err = f.activitySvc.List(ctx, f.admin, MaxActivityLimit+1, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.activitySvc.List(ctx, f.admin, 10, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
