package handler

import "net/http"

// PublicRoutes are served without a bearer token.
var PublicRoutes = []string{
	"GET /health",
	"POST /api/users/login",
}

// Handlers groups every HTTP handler of the service.
type Handlers struct {
	Authorize *AuthorizeHandler
	Folders   *FolderHandler
	Files     *FileHandler
	Users     *UserHandler
	Teams     *TeamHandler
	System    *SystemHandler
}

// NewRouter registers every route (Go 1.22+ method patterns).
func NewRouter(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /health", h.System.HealthCheck)
	mux.HandleFunc("GET /api/system/health", h.System.SystemHealth)

	mux.HandleFunc("POST /api/authorize", h.Authorize.Authorize)

	// Folder routes
	mux.HandleFunc("GET /api/folders/list", h.Folders.ListFolder)
	mux.HandleFunc("POST /api/folders/create", h.Folders.CreateFolder)
	mux.HandleFunc("PUT /api/folders/rename", h.Folders.RenameFolder)
	mux.HandleFunc("PUT /api/folders/move", h.Folders.MoveFolder)
	mux.HandleFunc("DELETE /api/folders/delete", h.Folders.DeleteFolder)
	mux.HandleFunc("GET /api/folders/statistics", h.Folders.Statistics)
	mux.HandleFunc("POST /api/folders/upload-folder-structure", h.Folders.UploadFolderStructure)

	// File routes
	mux.HandleFunc("POST /api/files/upload", h.Files.Upload)
	mux.HandleFunc("GET /api/files/download", h.Files.Download)
	mux.HandleFunc("GET /api/files/metadata", h.Files.Metadata)
	mux.HandleFunc("PUT /api/files/rename", h.Files.RenameFile)
	mux.HandleFunc("PUT /api/files/move", h.Files.MoveFile)
	mux.HandleFunc("DELETE /api/files/delete", h.Files.DeleteFile)
	mux.HandleFunc("GET /api/files/search", h.Files.Search)
	mux.HandleFunc("GET /api/files/filter", h.Files.Filter)

	// User routes
	mux.HandleFunc("POST /api/users/login", h.Users.Login)
	mux.HandleFunc("GET /api/users/me", h.Users.Me)
	mux.HandleFunc("GET /api/users/all", h.Users.List)
	mux.HandleFunc("POST /api/users/admin-create", h.Users.Create)
	mux.HandleFunc("PUT /api/users/admin-edit/{id}", h.Users.Update)
	mux.HandleFunc("DELETE /api/users/delete-user/{id}", h.Users.Delete)

	// Team routes
	// Clients send both /api/teams and /api/teams/
	mux.HandleFunc("POST /api/teams", h.Teams.Create)
	mux.HandleFunc("POST /api/teams/{$}", h.Teams.Create)
	mux.HandleFunc("GET /api/teams", h.Teams.List)
	mux.HandleFunc("GET /api/teams/{$}", h.Teams.List)
	mux.HandleFunc("GET /api/teams/for-user", h.Teams.ListForUser)
	mux.HandleFunc("DELETE /api/teams/{id}", h.Teams.Delete)
	mux.HandleFunc("POST /api/teams/{id}/users", h.Teams.AddMember)
	mux.HandleFunc("DELETE /api/teams/{id}/users/{user_id}", h.Teams.RemoveMember)

	mux.HandleFunc("GET /api/logs", h.System.ActivityLog)
	mux.HandleFunc("GET /api/logs/{$}", h.System.ActivityLog)

	return mux
}
