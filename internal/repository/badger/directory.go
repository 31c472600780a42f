package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
)

// userRecord keeps the password hash, which models.User hides from JSON.
type userRecord struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	PasswordHash string      `json:"password_hash"`
	CreatedAt    time.Time   `json:"created_at"`
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func scanJSON[T any](txn *badger.Txn, prefix string, visit func(*T) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
			return err
		}
		if err := visit(&v); err != nil {
			return err
		}
	}
	return nil
}

// UserRepository stores users under "u:" with an email index under "ue:".
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		taken, err := exists(txn, keyUser(user.ID))
		if err != nil {
			return err
		}
		if taken {
			return &domain.ConflictError{Message: fmt.Sprintf("user %s already exists", user.ID), ResourceType: "user", ResourceID: user.ID}
		}
		if err := checkEmailFree(txn, user.Email, user.ID); err != nil {
			return err
		}
		return putUser(txn, user)
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u *models.User
	err := r.db.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, id)
		return err
	})
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u *models.User
	err := r.db.db.View(func(txn *badger.Txn) error {
		id, err := emailOwner(txn, email)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
		}
		u, err = getUser(txn, id)
		return err
	})
	return u, err
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users := []models.User{}
	err := r.db.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixUser, func(rec *userRecord) error {
			users = append(users, recordToUser(rec))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b models.User) int { return strings.Compare(a.Email, b.Email) })
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		existing, err := getUser(txn, user.ID)
		if err != nil {
			return err
		}
		if err := checkEmailFree(txn, user.Email, user.ID); err != nil {
			return err
		}
		if !strings.EqualFold(existing.Email, user.Email) {
			if err := txn.Delete(keyEmail(existing.Email)); err != nil {
				return err
			}
		}
		return putUser(txn, user)
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		existing, err := getUser(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyEmail(existing.Email)); err != nil {
			return err
		}
		return txn.Delete(keyUser(id))
	})
}

func putUser(txn *badger.Txn, u *models.User) error {
	rec := userRecord{ID: u.ID, Email: u.Email, Role: u.Role, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
	if err := setJSON(txn, keyUser(u.ID), rec); err != nil {
		return err
	}
	return txn.Set(keyEmail(u.Email), []byte(u.ID))
}

func getUser(txn *badger.Txn, id string) (*models.User, error) {
	var rec userRecord
	err := getJSON(txn, keyUser(id), &rec)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u := recordToUser(&rec)
	return &u, nil
}

func recordToUser(rec *userRecord) models.User {
	return models.User{ID: rec.ID, Email: rec.Email, Role: rec.Role, PasswordHash: rec.PasswordHash, CreatedAt: rec.CreatedAt}
}

// emailOwner returns the ID registered for email, or "" when it is free.
func emailOwner(txn *badger.Txn, email string) (string, error) {
	item, err := txn.Get(keyEmail(email))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	id, err := item.ValueCopy(nil)
	return string(id), err
}

func checkEmailFree(txn *badger.Txn, email, userID string) error {
	owner, err := emailOwner(txn, email)
	if err != nil {
		return err
	}
	if owner != "" && owner != userID {
		return &domain.ConflictError{Message: fmt.Sprintf("email %s is already registered", email), ResourceType: "user", ResourceID: owner}
	}
	return nil
}

// TeamRepository stores each team, members included, as one JSON document.
type TeamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) *TeamRepository {
	return &TeamRepository{db: db}
}

var _ repositories.TeamRepository = (*TeamRepository)(nil)

func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		err := scanJSON(txn, prefixTeam, func(t *models.Team) error {
			if strings.EqualFold(t.Name, team.Name) || t.FolderPath == team.FolderPath {
				return &domain.ConflictError{Message: fmt.Sprintf("team %q already exists", team.Name), ResourceType: "team", ResourceID: t.ID}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if team.Members == nil {
			team.Members = []models.TeamMembership{}
		}
		return setJSON(txn, keyTeam(team.ID), team)
	})
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var t *models.Team
	err := r.db.db.View(func(txn *badger.Txn) error {
		var err error
		t, err = getTeam(txn, id)
		return err
	})
	return t, err
}

func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	return r.list(ctx, func(*models.Team) bool { return true })
}

func (r *TeamRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	return r.list(ctx, func(t *models.Team) bool { return t.HasMember(userID) })
}

func (r *TeamRepository) list(ctx context.Context, keep func(*models.Team) bool) ([]models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	teams := []models.Team{}
	err := r.db.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, prefixTeam, func(t *models.Team) error {
			if keep(t) {
				teams = append(teams, *t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(teams, func(a, b models.Team) int { return strings.Compare(a.Name, b.Name) })
	return teams, nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		if _, err := getTeam(txn, id); err != nil {
			return err
		}
		return txn.Delete(keyTeam(id))
	})
}

func (r *TeamRepository) UpdateFolderPath(ctx context.Context, id, folderPath string) error {
	return r.modify(ctx, id, func(t *models.Team) error {
		t.FolderPath = folderPath
		return nil
	})
}

func (r *TeamRepository) AddMember(ctx context.Context, teamID string, m models.TeamMembership) error {
	return r.modify(ctx, teamID, func(t *models.Team) error {
		if t.HasMember(m.UserID) {
			return &domain.ConflictError{Message: fmt.Sprintf("user %s is already a member of team %s", m.UserID, t.Name), ResourceType: "membership", ResourceID: m.UserID}
		}
		t.Members = append(t.Members, m)
		return nil
	})
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	return r.modify(ctx, teamID, func(t *models.Team) error {
		i := slices.IndexFunc(t.Members, func(m models.TeamMembership) bool { return m.UserID == userID })
		if i < 0 {
			return fmt.Errorf("membership of %s in team %s: %w", userID, teamID, domain.ErrNotFound)
		}
		t.Members = slices.Delete(t.Members, i, i+1)
		return nil
	})
}

func (r *TeamRepository) RemoveUserFromAll(ctx context.Context, userID string) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		var changed []*models.Team
		err := scanJSON(txn, prefixTeam, func(t *models.Team) error {
			if t.HasMember(userID) {
				t.Members = slices.DeleteFunc(t.Members, func(m models.TeamMembership) bool { return m.UserID == userID })
				changed = append(changed, t)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, t := range changed {
			if err := setJSON(txn, keyTeam(t.ID), t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TeamRepository) modify(ctx context.Context, teamID string, fn func(*models.Team) error) error {
	return r.db.update(ctx, func(txn *badger.Txn) error {
		t, err := getTeam(txn, teamID)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		return setJSON(txn, keyTeam(teamID), t)
	})
}

func getTeam(txn *badger.Txn, id string) (*models.Team, error) {
	var t models.Team
	err := getJSON(txn, keyTeam(id), &t)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("team %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ActivityRepository appends entries under monotonically increasing
// sequence keys and reads them back newest first.
type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Append(ctx context.Context, entries ...models.ActivityLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	keys := make([][]byte, len(entries))
	for i := range entries {
		seq, err := r.db.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate activity sequence: %w", err)
		}
		keys[i] = keyActivity(seq)
	}
	return r.db.update(ctx, func(txn *badger.Txn) error {
		for i := range entries {
			if err := setJSON(txn, keys[i], entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ActivityRepository) List(ctx context.Context, limit, offset int) ([]models.ActivityLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []models.ActivityLogEntry{}
	err := r.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixActivity)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(append([]byte(prefixActivity), 0xff)); it.Valid() && len(out) < limit; it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			var e models.ActivityLogEntry
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &e) }); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
