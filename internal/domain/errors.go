package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Coder is implemented by errors that carry a machine-readable code for API clients.
type Coder interface {
	Code() string
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidPath     = errors.New("invalid path")
	ErrInvalidMove     = errors.New("invalid move")
	ErrNotAFolder      = errors.New("not a folder")
	ErrNoFilesUploaded = errors.New("no files uploaded")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a node or other resource was not found
	NotFoundError struct {
		Message string
		Path    string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// InvalidPathError indicates a malformed or out-of-root path
	InvalidPathError struct {
		Path   string
		Reason string
	}

	// NotAFolderError is returned when a container operation targets a file
	NotAFolderError struct {
		Path string
	}

	// InvalidMoveError is returned for moves that would create a cycle
	// or that target the root.
	InvalidMoveError struct {
		Source      string
		Destination string
		Reason      string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}
func (e *NotAFolderError) Error() string { return fmt.Sprintf("%s is not a folder", e.Path) }
func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("cannot move %s to %s: %s", e.Source, e.Destination, e.Reason)
}

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *InvalidPathError) StatusCode() int  { return http.StatusBadRequest }
func (e *NotAFolderError) StatusCode() int   { return http.StatusBadRequest }
func (e *InvalidMoveError) StatusCode() int  { return http.StatusBadRequest }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *InvalidPathError) Is(target error) bool  { return target == ErrInvalidPath }
func (e *NotAFolderError) Is(target error) bool   { return target == ErrNotAFolder }
func (e *InvalidMoveError) Is(target error) bool  { return target == ErrInvalidMove }

func (e *NotFoundError) Code() string     { return "not_found" }
func (e *ValidationError) Code() string   { return "validation_error" }
func (e *UnauthorizedError) Code() string { return "unauthorized" }
func (e *InvalidPathError) Code() string  { return "invalid_path" }
func (e *NotAFolderError) Code() string   { return "not_a_folder" }
func (e *InvalidMoveError) Code() string  { return "invalid_move" }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (folder, file, team, user)
	ResourceID   string // ID or path of the existing/conflicting resource
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Code() string         { return "conflict" }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DuplicatePathError is the store-level conflict: a node already exists at Path.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string        { return fmt.Sprintf("%s already exists", e.Path) }
func (e *DuplicatePathError) StatusCode() int      { return http.StatusConflict }
func (e *DuplicatePathError) Code() string         { return "conflict" }
func (e *DuplicatePathError) Is(target error) bool { return target == ErrConflict }

// NoSuchParentError is returned when inserting a node whose parent is missing.
type NoSuchParentError struct {
	Path       string
	ParentPath string
}

func (e *NoSuchParentError) Error() string {
	return fmt.Sprintf("parent folder %s of %s does not exist", e.ParentPath, e.Path)
}
func (e *NoSuchParentError) StatusCode() int      { return http.StatusNotFound }
func (e *NoSuchParentError) Code() string         { return "not_found" }
func (e *NoSuchParentError) Is(target error) bool { return target == ErrNotFound }

// PermissionDeniedError is the Deny outcome of the authorization gate.
type PermissionDeniedError struct {
	Action string
	Path   string
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s: %s", e.Action, e.Path, e.Reason)
}
func (e *PermissionDeniedError) StatusCode() int      { return http.StatusForbidden }
func (e *PermissionDeniedError) Code() string         { return "permission_denied" }
func (e *PermissionDeniedError) Is(target error) bool { return target == ErrForbidden }

// NoFilesUploadedError reports a folder-structure upload that created nothing.
type NoFilesUploadedError struct {
	ParentPath string
	Skipped    []string
}

func (e *NoFilesUploadedError) Error() string {
	return fmt.Sprintf("no files were uploaded to %s", e.ParentPath)
}
func (e *NoFilesUploadedError) StatusCode() int      { return http.StatusUnprocessableEntity }
func (e *NoFilesUploadedError) Code() string         { return "no_files_uploaded" }
func (e *NoFilesUploadedError) Is(target error) bool { return target == ErrNoFilesUploaded }

// NewNodeNotFound returns the NotFoundError for a missing node.
func NewNodeNotFound(path string) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf("%s not found", path), Path: path}
}

// NewFolderNotEmpty returns the ConflictError for removing a non-empty folder.
func NewFolderNotEmpty(path string) *ConflictError {
	return &ConflictError{
		Message:      fmt.Sprintf("folder %s is not empty", path),
		ResourceType: "folder",
		ResourceID:   path,
	}
}
