package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Directory bundles the user, team and activity repositories of one backend.
type Directory struct {
	Users    repositories.UserRepository
	Teams    repositories.TeamRepository
	Activity repositories.ActivityRepository
}

// DirectoryFactory returns empty repositories.
type DirectoryFactory func(t *testing.T) Directory

// RunDirectorySuite runs the user/team/activity contract against a backend.
func RunDirectorySuite(t *testing.T, newDir DirectoryFactory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newDir(t).Users) })
	t.Run("Teams", func(t *testing.T) { testTeams(t, newDir(t).Teams) })
	t.Run("Activity", func(t *testing.T) { testActivity(t, newDir(t).Activity) })
}

// NewUser builds a user with a unique ID.
func NewUser(email string, role models.Role) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Role:         role,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func testUsers(t *testing.T, users repositories.UserRepository) {
	ctx := context.Background()
	alice := NewUser("alice@example.com", models.RoleAdmin)
	bob := NewUser("bob@example.com", models.RoleUser)
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	err := users.Create(ctx, NewUser("ALICE@example.com", models.RoleUser))
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := users.GetByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, "hash", got.PasswordHash)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice@example.com", list[0].Email)

	bob.Role = models.RoleAdmin
	require.NoError(t, users.Update(ctx, bob))
	got, err = users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	bob.Email = "alice@example.com"
	assert.ErrorIs(t, users.Update(ctx, bob), domain.ErrConflict)

	require.NoError(t, users.Delete(ctx, bob.ID))
	_, err = users.GetByID(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, bob.ID), domain.ErrNotFound)
}

func testTeams(t *testing.T, teams repositories.TeamRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := &models.Team{ID: uuid.NewString(), Name: "teamA", FolderPath: "/teamA", CreatedAt: now}
	b := &models.Team{ID: uuid.NewString(), Name: "teamB", FolderPath: "/teamB", CreatedAt: now}
	require.NoError(t, teams.Create(ctx, a))
	require.NoError(t, teams.Create(ctx, b))

	dup := &models.Team{ID: uuid.NewString(), Name: "teamA", FolderPath: "/other", CreatedAt: now}
	assert.ErrorIs(t, teams.Create(ctx, dup), domain.ErrConflict)
	dupPath := &models.Team{ID: uuid.NewString(), Name: "other", FolderPath: "/teamB", CreatedAt: now}
	assert.ErrorIs(t, teams.Create(ctx, dupPath), domain.ErrConflict)

	user1, user2 := uuid.NewString(), uuid.NewString()
	m := models.TeamMembership{UserID: user1, GrantedBy: "admin", GrantedAt: now}
	require.NoError(t, teams.AddMember(ctx, a.ID, m))
	assert.ErrorIs(t, teams.AddMember(ctx, a.ID, m), domain.ErrConflict)
	require.NoError(t, teams.AddMember(ctx, b.ID, models.TeamMembership{UserID: user1, GrantedBy: "admin", GrantedAt: now}))
	require.NoError(t, teams.AddMember(ctx, b.ID, models.TeamMembership{UserID: user2, GrantedBy: "admin", GrantedAt: now}))

	got, err := teams.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, user1, got.Members[0].UserID)
	assert.Equal(t, "admin", got.Members[0].GrantedBy)

	forUser, err := teams.ListForUser(ctx, user1)
	require.NoError(t, err)
	assert.Len(t, forUser, 2)

	require.NoError(t, teams.RemoveMember(ctx, b.ID, user2))
	assert.ErrorIs(t, teams.RemoveMember(ctx, b.ID, user2), domain.ErrNotFound)

	require.NoError(t, teams.UpdateFolderPath(ctx, b.ID, "/archive/teamB"))
	got, err = teams.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/archive/teamB", got.FolderPath)
	assert.ErrorIs(t, teams.UpdateFolderPath(ctx, uuid.NewString(), "/x"), domain.ErrNotFound)

	require.NoError(t, teams.RemoveUserFromAll(ctx, user1))
	forUser, err = teams.ListForUser(ctx, user1)
	require.NoError(t, err)
	assert.Empty(t, forUser)

	require.NoError(t, teams.Delete(ctx, a.ID))
	_, err = teams.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := teams.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "teamB", list[0].Name)
}

func testActivity(t *testing.T, activity repositories.ActivityRepository) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	var entries []models.ActivityLogEntry
	for i := range 5 {
		entries = append(entries, models.ActivityLogEntry{
			ID:         uuid.NewString(),
			Timestamp:  base.Add(time.Duration(i) * time.Second),
			UserID:     "u1",
			UserEmail:  "u1@example.com",
			Action:     models.ActionCreateFolder,
			TargetPath: fmt.Sprintf("/f%d", i),
			NodeID:     uuid.NewString(),
			Details:    "created",
		})
	}
	require.NoError(t, activity.Append(ctx, entries[:2]...))
	require.NoError(t, activity.Append(ctx, entries[2:]...))

	page, err := activity.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "/f4", page[0].TargetPath)
	assert.Equal(t, "/f3", page[1].TargetPath)

	page, err = activity.List(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "/f1", page[0].TargetPath)
	assert.Equal(t, "/f0", page[1].TargetPath)
	assert.Equal(t, "u1@example.com", page[0].UserEmail)
}
