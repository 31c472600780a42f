package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{pool: config.Pool, tables: config.Tables}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user; the lower(email) index rejects duplicates
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Users)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query, user.ID, user.Email, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Message: fmt.Sprintf("email %s is already registered", user.Email), ResourceType: "user", ResourceID: user.ID}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, email, role, password_hash, created_at FROM %s WHERE id = $1`, r.tables.Users)

	u, err := scanUser(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT id, email, role, password_hash, created_at FROM %s WHERE lower(email) = lower($1)`, r.tables.Users)

	u, err := scanUser(GetExecutor(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// List returns all users ordered by email
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT id, email, role, password_hash, created_at FROM %s ORDER BY email COLLATE "C"`, r.tables.Users)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update overwrites email, role and password hash
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		UPDATE %s SET email = $1, role = $2, password_hash = $3
		WHERE id = $4
	`, r.tables.Users)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, user.Email, user.Role, user.PasswordHash, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Message: fmt.Sprintf("email %s is already registered", user.Email), ResourceType: "user", ResourceID: user.ID}
		}
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a user
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Users)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// PostgresTeamRepository implements the TeamRepository interface
type PostgresTeamRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(config *RepositoryConfig) repositories.TeamRepository {
	return &PostgresTeamRepository{pool: config.Pool, tables: config.Tables, logger: config.Logger}
}

// Create inserts a team; name and folder_path are unique
func (r *PostgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, folder_path, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Teams)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query, team.ID, team.Name, team.FolderPath, team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Message: fmt.Sprintf("team %q already exists", team.Name), ResourceType: "team", ResourceID: team.ID}
		}
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team with its members
func (r *PostgresTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := fmt.Sprintf(`SELECT id, name, folder_path, created_at FROM %s WHERE id = $1`, r.tables.Teams)

	var t models.Team
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.FolderPath, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	teams := []models.Team{t}
	if err := r.attachMembers(ctx, teams); err != nil {
		return nil, err
	}
	return &teams[0], nil
}

// List returns all teams ordered by name
func (r *PostgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := fmt.Sprintf(`SELECT id, name, folder_path, created_at FROM %s ORDER BY name COLLATE "C"`, r.tables.Teams)
	return r.query(ctx, query)
}

// ListForUser returns the teams userID belongs to
func (r *PostgresTeamRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	query := fmt.Sprintf(`
		SELECT t.id, t.name, t.folder_path, t.created_at
		FROM %s t
		JOIN %s m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.name COLLATE "C"
	`, r.tables.Teams, r.tables.TeamMembers)
	return r.query(ctx, query, userID)
}

func (r *PostgresTeamRepository) query(ctx context.Context, query string, args ...any) ([]models.Team, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.FolderPath, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}

	if err := r.attachMembers(ctx, teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// attachMembers loads memberships for all teams in one query
func (r *PostgresTeamRepository) attachMembers(ctx context.Context, teams []models.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]string, len(teams))
	index := make(map[string]int, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
		index[teams[i].ID] = i
		teams[i].Members = []models.TeamMembership{}
	}

	query := fmt.Sprintf(`
		SELECT team_id, user_id, granted_by, granted_at
		FROM %s
		WHERE team_id = ANY($1)
		ORDER BY granted_at, user_id
	`, r.tables.TeamMembers)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID string
		var m models.TeamMembership
		if err := rows.Scan(&teamID, &m.UserID, &m.GrantedBy, &m.GrantedAt); err != nil {
			return fmt.Errorf("scan member: %w", err)
		}
		i := index[teamID]
		teams[i].Members = append(teams[i].Members, m)
	}
	return rows.Err()
}

// Delete removes a team; memberships cascade
func (r *PostgresTeamRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Teams)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateFolderPath repoints a team after its folder moved
func (r *PostgresTeamRepository) UpdateFolderPath(ctx context.Context, id, folderPath string) error {
	query := fmt.Sprintf(`UPDATE %s SET folder_path = $2 WHERE id = $1`, r.tables.Teams)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, folderPath)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Message: fmt.Sprintf("a team already owns %s", folderPath), ResourceType: "team", ResourceID: id}
		}
		return fmt.Errorf("update team folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddMember grants a user access to a team's folder
func (r *PostgresTeamRepository) AddMember(ctx context.Context, teamID string, m models.TeamMembership) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (team_id, user_id, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
	`, r.tables.TeamMembers)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query, teamID, m.UserID, m.GrantedBy, m.GrantedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Message: fmt.Sprintf("user %s is already a member of team %s", m.UserID, teamID), ResourceType: "membership", ResourceID: m.UserID}
		case isForeignKeyViolation(err):
			return fmt.Errorf("team %s: %w", teamID, domain.ErrNotFound)
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember revokes one membership
func (r *PostgresTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE team_id = $1 AND user_id = $2`, r.tables.TeamMembers)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership of %s in team %s: %w", userID, teamID, domain.ErrNotFound)
	}
	return nil
}

// RemoveUserFromAll drops every membership of a user
func (r *PostgresTeamRepository) RemoveUserFromAll(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, r.tables.TeamMembers)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("remove user memberships: %w", err)
	}
	r.logger.Debug("removed user from teams", "user_id", userID, "memberships", result.RowsAffected())
	return nil
}

// PostgresActivityRepository implements the ActivityRepository interface
type PostgresActivityRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewActivityRepository creates a new activity log repository
func NewActivityRepository(config *RepositoryConfig) repositories.ActivityRepository {
	return &PostgresActivityRepository{pool: config.Pool, tables: config.Tables}
}

// Append inserts entries in order with a single batch round trip
func (r *PostgresActivityRepository) Append(ctx context.Context, entries ...models.ActivityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, timestamp, user_id, user_email, action, target_path, node_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Activity)

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.ID, e.Timestamp, e.UserID, e.UserEmail, e.Action, e.TargetPath, e.NodeID, e.Details)
	}

	var results pgx.BatchResults
	if tx := repositories.TxFromContext(ctx); tx != nil {
		results = tx.SendBatch(ctx, batch)
	} else {
		results = r.pool.SendBatch(ctx, batch)
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// List returns entries newest first
func (r *PostgresActivityRepository) List(ctx context.Context, limit, offset int) ([]models.ActivityLogEntry, error) {
	query := fmt.Sprintf(`
		SELECT id, timestamp, user_id, user_email, action, target_path, node_id, details
		FROM %s
		ORDER BY seq DESC
		LIMIT $1 OFFSET $2
	`, r.tables.Activity)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityLogEntry{}
	for rows.Next() {
		var e models.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.UserEmail, &e.Action, &e.TargetPath, &e.NodeID, &e.Details); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
