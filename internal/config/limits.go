package config

const (
	// MaxNameLength is the maximum length for a single path segment
	// (folder or file name). Matches the usual filesystem limit and
	// fits in PostgreSQL VARCHAR(255).
	MaxNameLength = 255

	// MaxPathLength is the maximum length for a full canonical path.
	MaxPathLength = 4096

	// MaxRemarkLength is the maximum length for a node remark.
	MaxRemarkLength = 1000

	// MaxTeamNameLength is the maximum length for team names.
	// A team name becomes its home folder name, so it follows MaxNameLength.
	MaxTeamNameLength = MaxNameLength

	// MaxUploadFiles caps the number of files accepted by one upload request.
	MaxUploadFiles = 1000

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
)
