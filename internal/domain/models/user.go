package models

import "time"

// User is an account in the user directory.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Team grants its members access to the subtree rooted at FolderPath.
type Team struct {
	ID         string           `json:"id" db:"id"`
	Name       string           `json:"name" db:"name"`
	FolderPath string           `json:"folder_path" db:"folder_path"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	Members    []TeamMembership `json:"members"`
}

// HasMember reports whether userID belongs to the team.
func (t *Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// TeamMembership grants a user access to a team's subtree.
type TeamMembership struct {
	UserID    string    `json:"user_id" db:"user_id"`
	UserEmail string    `json:"user_email,omitempty"`
	GrantedBy string    `json:"granted_by" db:"granted_by"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}

// Activity log actions
const (
	ActionCreateFolder = "create_folder"
	ActionUpload       = "upload"
	ActionOverwrite    = "overwrite"
	ActionRename       = "rename"
	ActionMove         = "move"
	ActionDelete       = "delete"
	ActionCreateTeam   = "create_team"
	ActionDeleteTeam   = "delete_team"
)

// Derived activity log statuses
const (
	StatusPresent = "Present"
	StatusDeleted = "Deleted"
)

// ActivityLogEntry is an append-only audit record written by every
// state-changing operation.
type ActivityLogEntry struct {
	ID         string    `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	UserID     string    `json:"user_id" db:"user_id"`
	UserEmail  string    `json:"user" db:"user_email"`
	Action     string    `json:"action" db:"action"`
	TargetPath string    `json:"target_path" db:"target_path"`
	NodeID     string    `json:"node_id,omitempty" db:"node_id"`
	Details    string    `json:"details" db:"details"`

	// Derived at read time from the tree store.
	Status          string `json:"status"`
	CurrentLocation string `json:"current_location"`
}
