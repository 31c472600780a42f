package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/content"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/middleware"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
	"github.com/YugenJarwal13/InternalDMS/internal/repository/memory"
	"github.com/YugenJarwal13/InternalDMS/internal/service"
	serviceauth "github.com/YugenJarwal13/InternalDMS/internal/service/auth"
	serviceDocsys "github.com/YugenJarwal13/InternalDMS/internal/service/docsystem"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.HMACTokens
	users   *memory.UserRepository

	adminToken  string
	memberToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewHMACTokens(strings.Repeat("h", 32), "internaldms", time.Hour, logger)
	require.NoError(t, err)

	users := memory.NewUserRepository()
	teams := memory.NewTeamRepository()
	activity := memory.NewActivityRepository()
	store := memory.NewTreeStore()
	normalizer := pathutil.MustNormalizer("/")
	authorizer := serviceauth.NewTeamAuthorizer(teams)
	locker := serviceDocsys.NewSubtreeLocker()

	tree := serviceDocsys.NewTreeService(store, content.NewMemoryStore(), activity, users, teams, authorizer, locker, normalizer, logger)
	search := serviceDocsys.NewSearchService(store, users, authorizer, locker, normalizer, logger)
	userSvc := service.NewUserService(users, teams, tokens, logger)
	teamSvc := service.NewTeamService(teams, users, activity, tree, normalizer.Root(), logger)

	router := NewRouter(&Handlers{
		Authorize: NewAuthorizeHandler(tree, logger),
		Folders:   NewFolderHandler(tree, 1<<20, 10<<20, logger),
		Files:     NewFileHandler(tree, search, 1<<20, 10<<20, logger),
		Users:     NewUserHandler(userSvc, logger),
		Teams:     NewTeamHandler(teamSvc, logger),
		System:    NewSystemHandler(service.NewActivityService(activity, store, logger), "memory", "memory", logger),
	})

	s := &testServer{
		handler: middleware.Chain(router,
			middleware.Recovery(logger),
			middleware.Auth(tokens, userSvc, logger, PublicRoutes...),
		),
		tokens: tokens,
		users:  users,
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{ID: "u-admin", Email: "admin@example.com", Role: models.RoleAdmin, PasswordHash: string(hash), CreatedAt: time.Now()}
	member := &models.User{ID: "u-member", Email: "member@example.com", Role: models.RoleUser, PasswordHash: string(hash), CreatedAt: time.Now()}
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, member))

	s.adminToken, _, err = tokens.IssueToken(admin)
	require.NoError(t, err)
	s.memberToken, _, err = tokens.IssueToken(member)
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, token, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, token, target string, fields map[string]string, files map[string]string, relpaths ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, body := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, body)
		require.NoError(t, err)
	}
	for _, rel := range relpaths {
		require.NoError(t, mw.WriteField("relpaths", rel))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func problemCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	return decode[map[string]any](t, rec)["code"].(string)
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "", http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decode[map[string]string](t, rec)["store"])

	rec = s.do(t, "", http.MethodGet, "/api/folders/list", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSystemHealthIsAdminOnly(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/api/system/health", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, s.memberToken, http.MethodGet, "/api/system/health", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, s.adminToken, http.MethodGet, "/api/system/health", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "memory", body["store"])
	server := body["server"].(map[string]any)
	assert.Regexp(t, `^\d+d \d+h \d+m$`, server["uptime"])
	resources := body["resources"].(map[string]any)
	assert.Greater(t, resources["memory_bytes"].(float64), float64(0))
	assert.Greater(t, resources["goroutines"].(float64), float64(0))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m", formatUptime(59*time.Second))
	assert.Equal(t, "1d 2h 3m", formatUptime(26*time.Hour+3*time.Minute+30*time.Second))
}

func TestTrailingSlashRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.adminToken, http.MethodPost, "/api/teams/", map[string]string{"name": "Ops"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, target := range []string{"/api/teams", "/api/teams/", "/api/logs", "/api/logs/"} {
		rec = s.do(t, s.adminToken, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusOK, rec.Code, target)
	}
	rec = s.do(t, s.adminToken, http.MethodGet, "/api/teams/", nil)
	teams := decode[[]models.Team](t, rec)
	require.NotEmpty(t, teams)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodPost, "/api/users/login", map[string]string{"email": "admin@example.com", "password": "admin-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[map[string]any](t, rec)
	assert.Equal(t, "bearer", login["token_type"])

	rec = s.do(t, login["access_token"].(string), http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "admin@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	rec = s.do(t, "", http.MethodPost, "/api/users/login", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", problemCode(t, rec))
}

func TestFolderRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/", "name": "Projects", "remark": "all projects"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/Projects", decode[docsystem.Node](t, rec).Path)

	rec = s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/", "name": "Projects"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", problemCode(t, rec))

	rec = s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/missing", "name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/", "name": "a/b"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, name := range []string{"beta", "Alpha"} {
		rec = s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/Projects", "name": name})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodGet, "/api/folders/list?parent_path=/Projects&limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
		nodes := decode[[]docsystem.Node](t, rec)
		require.Len(t, nodes, 1)
		assert.Equal(t, "Alpha", nodes[0].Name)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/folders/list?parent_path=/Projects&limit=x", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rename and move", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodPut, "/api/folders/rename", map[string]string{"path": "/Projects/beta", "new_name": "Beta"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "/Projects/Beta", decode[docsystem.Node](t, rec).Path)

		rec = s.do(t, s.adminToken, http.MethodPut, "/api/folders/move", map[string]string{"source_path": "/Projects/Beta", "destination_path": "/Projects/Alpha/Beta"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, s.adminToken, http.MethodPut, "/api/folders/move", map[string]string{"source_path": "/Projects", "destination_path": "/Projects/Alpha/Inner"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_move", problemCode(t, rec))
	})

	t.Run("statistics", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodGet, "/api/folders/statistics?root_path=/Projects", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[docsystem.Statistics](t, rec)
		assert.Equal(t, 1, stats.TotalFolders)
	})

	t.Run("delete warns before force", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodDelete, "/api/folders/delete", map[string]any{"path": "/Projects"})
		require.Equal(t, http.StatusOK, rec.Code)
		warning := decode[docsystem.DeleteResult](t, rec)
		assert.False(t, warning.Deleted)
		assert.True(t, warning.CanProceed)
		assert.Equal(t, 2, warning.FolderCount)

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/folders/delete?path=/Projects&force=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, decode[docsystem.DeleteResult](t, rec).DeletedNodes)

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/folders/delete?path=/Projects", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFileRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/", "name": "Docs"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.upload(t, s.adminToken, "/api/files/upload",
		map[string]string{"parent_path": "/Docs", "remark": "first"},
		map[string]string{"notes.txt": "hello world", "..": "x"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	results := decode[[]docsystem.UploadResult](t, rec)
	require.Len(t, results, 2)
	statuses := map[string]docsystem.UploadStatus{}
	for _, r := range results {
		statuses[r.Filename] = r.Status
	}
	assert.Equal(t, docsystem.UploadCreated, statuses["notes.txt"])
	assert.Equal(t, docsystem.UploadFailed, statuses[".."])

	t.Run("download", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodGet, "/api/files/download?path=/Docs/notes.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello world", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
		assert.Equal(t, "11", rec.Header().Get("Content-Length"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename=notes.txt`)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/download?path=/Docs", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("metadata", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodGet, "/api/files/metadata?path=/Docs/notes.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		node := decode[docsystem.Node](t, rec)
		assert.Equal(t, int64(11), node.Size)
		assert.Equal(t, "first", node.Remark)
		assert.Equal(t, "admin@example.com", node.OwnerEmail)
	})

	t.Run("rename keeps extension", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodPut, "/api/files/rename", map[string]string{"path": "/Docs/notes.txt", "new_name": "notes.md"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, s.adminToken, http.MethodPut, "/api/files/rename", map[string]string{"path": "/Docs", "new_name": "Documents"})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "folders are renamed through the folder route")

		rec = s.do(t, s.adminToken, http.MethodPut, "/api/files/rename", map[string]string{"path": "/Docs/notes.txt", "new_name": "todo.txt"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("search and filter", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodGet, "/api/files/search?query=TODO", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		nodes := decode[[]docsystem.Node](t, rec)
		require.Len(t, nodes, 1)
		assert.Equal(t, "/Docs/todo.txt", nodes[0].Path)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/search?query=", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?is_folder=false&min_size=11&max_size=11&owner=admin@example.com", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]docsystem.Node](t, rec), 1)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?created_after=2000-01-01", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]docsystem.Node](t, rec), 2)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?is_folder=false&owner_email=admin@example.com&parent_path=/Docs", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[[]docsystem.Node](t, rec), 1)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/search?query=TODO&parent_path=/Docs", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[[]docsystem.Node](t, rec), 1)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?created_before=2000-01-01T00:00", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Empty(t, decode[[]docsystem.Node](t, rec))

		// a bare date bound includes everything created that day
		today := time.Now().UTC().Format(time.DateOnly)
		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?created_after="+today+"&created_before="+today, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, decode[[]docsystem.Node](t, rec), 2)

		for _, q := range []string{"is_folder=maybe", "min_size=big", "created_before=yesterday"} {
			rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/filter?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		}
	})

	t.Run("move and delete", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodPut, "/api/files/move", map[string]string{"source_path": "/Docs/todo.txt", "destination_path": "/todo.txt"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/files/delete", map[string]string{"path": "/todo.txt"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[docsystem.DeleteResult](t, rec).Deleted)

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/files/delete", map[string]string{"path": "/Docs"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadFolderStructureRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, s.adminToken, "/api/folders/upload-folder-structure",
		map[string]string{"parent_path": "/"},
		map[string]string{"a.txt": "a"},
		"Site/docs/a.txt")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[docsystem.FolderStructureResult](t, rec)
	assert.Equal(t, 1, result.CreatedFiles)
	assert.Equal(t, 2, result.CreatedFolders)

	rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/download?path=/Site/docs/a.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a", rec.Body.String())

	rec = s.upload(t, s.adminToken, "/api/folders/upload-folder-structure",
		map[string]string{"parent_path": "/"},
		map[string]string{"a.txt": "a"},
		"../escape.txt")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_files_uploaded", problemCode(t, rec))
	assert.Equal(t, float64(0), decode[map[string]any](t, rec)["created_files"])

	rec = s.upload(t, s.adminToken, "/api/folders/upload-folder-structure",
		map[string]string{"parent_path": "/"},
		map[string]string{"a.txt": "a"},
		"one.txt", "two.txt")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	t.Run("zip archive", func(t *testing.T) {
		var archive bytes.Buffer
		zw := zip.NewWriter(&archive)
		for name, body := range map[string]string{"Docs/b.txt": "b", "Docs/nested/c.txt": "c", "__MACOSX/Docs/._b.txt": "x"} {
			w, err := zw.Create(name)
			require.NoError(t, err)
			_, err = io.WriteString(w, body)
			require.NoError(t, err)
		}
		require.NoError(t, zw.Close())

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("parent_path", "/Site"))
		part, err := mw.CreateFormFile("archive", "docs.zip")
		require.NoError(t, err)
		_, err = part.Write(archive.Bytes())
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/folders/upload-folder-structure", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+s.adminToken)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		result := decode[docsystem.FolderStructureResult](t, rec)
		assert.Equal(t, 2, result.CreatedFiles)
		assert.Equal(t, 2, result.CreatedFolders)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/download?path=/Site/Docs/nested/c.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "c", rec.Body.String())
	})
}

func TestPermissionRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, s.adminToken, http.MethodPost, "/api/teams", map[string]string{"name": "Engineering"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	team := decode[models.Team](t, rec)
	assert.Equal(t, "/Engineering", team.FolderPath)

	rec = s.do(t, s.memberToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/Engineering", "name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	problem := decode[map[string]any](t, rec)
	assert.Equal(t, "permission_denied", problem["code"])
	assert.NotEmpty(t, problem["detail"])

	rec = s.do(t, s.adminToken, http.MethodPost, "/api/teams/"+team.ID+"/users", map[string]string{"user_id": "u-member"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, s.memberToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/Engineering", "name": "x"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	t.Run("authorize", func(t *testing.T) {
		rec := s.do(t, s.memberToken, http.MethodPost, "/api/authorize", map[string]string{"action": "delete", "path": "/Engineering/x"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{}`, rec.Body.String())

		rec = s.do(t, s.memberToken, http.MethodPost, "/api/authorize", map[string]string{"action": "delete", "path": "/Engineering"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, s.memberToken, http.MethodPost, "/api/authorize", map[string]string{"action": "move", "path": "/Engineering/x", "destination_path": "/x"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, s.memberToken, http.MethodPost, "/api/authorize", map[string]string{"action": "fly", "path": "/"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("member view at root is filtered", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodPost, "/api/folders/create", map[string]string{"parent_path": "/", "name": "Finance"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = s.do(t, s.memberToken, http.MethodGet, "/api/folders/list?parent_path=/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		nodes := decode[[]docsystem.Node](t, rec)
		require.Len(t, nodes, 1)
		assert.Equal(t, "/Engineering", nodes[0].Path)
	})

	t.Run("admin routes", func(t *testing.T) {
		for _, target := range []string{"/api/users/all", "/api/teams", "/api/logs"} {
			rec := s.do(t, s.memberToken, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusForbidden, rec.Code, target)
			rec = s.do(t, s.adminToken, http.MethodGet, target, nil)
			assert.Equal(t, http.StatusOK, rec.Code, target)
		}

		rec := s.do(t, s.memberToken, http.MethodGet, "/api/teams/for-user", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Team](t, rec), 1)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/logs?limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decode[[]models.ActivityLogEntry](t, rec)
		require.Len(t, entries, 1)
		assert.Equal(t, models.StatusPresent, entries[0].Status)
	})

	t.Run("user administration", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodPost, "/api/users/admin-create", map[string]string{"email": "new@example.com", "password": "password1"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		user := decode[models.User](t, rec)

		rec = s.do(t, s.adminToken, http.MethodPut, "/api/users/admin-edit/"+user.ID, map[string]string{"role": "admin"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, models.RoleAdmin, decode[models.User](t, rec).Role)

		rec = s.do(t, s.adminToken, http.MethodPost, "/api/users/admin-create", map[string]any{"email": "x@example.com", "password": "password1", "extra": true})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/users/delete-user/"+user.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("team teardown", func(t *testing.T) {
		rec := s.do(t, s.adminToken, http.MethodDelete, "/api/teams/"+team.ID+"/users/u-member", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, s.adminToken, http.MethodDelete, "/api/teams/"+team.ID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, s.adminToken, http.MethodGet, "/api/files/metadata?path=/Engineering", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
