package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/guidebook/core/internal/adapters/repository"
	"github.com/guidebook/core/internal/adapters/storage"
	"github.com/guidebook/core/internal/application/services"
	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/config"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:      4001,
			BodyLimit: "10M",
		},
		Storage: config.StorageConfig{Driver: config.DriverMemory},
		Uploads: config.UploadsConfig{
			Backend:      config.UploadsDisk,
			MaxBytes:     1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			URLPrefix:    "/uploads",
		},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			TokenIssuer:        "guidebook",
			EditorTokenTTL:     time.Hour,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	disk, err := storage.NewDiskStorage(t.TempDir())
	require.NoError(t, err)

	srv, err := New(cfg, repository.NewMemoryGuideRepository(), disk, logger.NewNop())
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, srv *Server, target, field, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGuideRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodGet, "/api/guides", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"title":"Ana Guide","hero":"Ana","sections":[{"id":"s0","title":"Skills"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entities.Guide](t, rec)
	assert.True(t, strings.HasPrefix(created.ID, "g_"), created.ID)
	assert.Equal(t, []entities.Item{}, created.Sections[0].Items)

	rec = doJSON(t, srv, http.MethodGet, "/api/guides", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sections")
	list := decode[[]entities.GuideSummary](t, rec)
	assert.Equal(t, []entities.GuideSummary{{ID: created.ID, Title: "Ana Guide", Hero: "Ana"}}, list)

	rec = doJSON(t, srv, http.MethodGet, "/api/guides/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[entities.Guide](t, rec))

	rec = doJSON(t, srv, http.MethodPut, "/api/guides/"+created.ID, `{"title":"Renamed","id":"ignored"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[entities.Guide](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Ana", updated.Hero)
	assert.Len(t, updated.Sections, 1)
}

func TestGuideRoutes_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodGet, "/api/guides/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPut, "/api/guides/nope", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"ana"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/guides/ana", `{"sections":[{"id":"a"},{"id":"a"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuideRoutes_AcceptsLongTextFields(t *testing.T) {
	srv := newTestServer(t, testConfig())
	title := strings.Repeat("t", 2000)
	hero := strings.Repeat("h", 2000)

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"long","title":"`+title+`","hero":"`+hero+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/guides/long", "")
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[entities.Guide](t, rec)
	assert.Equal(t, title, g.Title)
	assert.Equal(t, hero, g.Hero)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"a/b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuideRoutes_OpenFlagsRoundTrip(t *testing.T) {
	srv := newTestServer(t, testConfig())

	body := `{"id":"g1","sections":[
		{"id":"s0","open":false,"items":[{"id":"i0","open":false},{"id":"i1","open":true}]},
		{"id":"s1","open":true,"items":[]}
	]}`
	rec := doJSON(t, srv, http.MethodPost, "/api/guides", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/api/guides/g1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Sections []struct {
			Open  *bool `json:"open"`
			Items []struct {
				Open *bool `json:"open"`
			} `json:"items"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Sections, 2)
	require.NotNil(t, raw.Sections[0].Open)
	assert.False(t, *raw.Sections[0].Open)
	require.NotNil(t, raw.Sections[1].Open)
	assert.True(t, *raw.Sections[1].Open)
	require.Len(t, raw.Sections[0].Items, 2)
	require.NotNil(t, raw.Sections[0].Items[0].Open)
	assert.False(t, *raw.Sections[0].Items[0].Open)
	require.NotNil(t, raw.Sections[0].Items[1].Open)
	assert.True(t, *raw.Sections[0].Items[1].Open)
}

func TestMoveSectionRoute(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1","sections":[{"id":"a"},{"id":"b"},{"id":"c"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides/g1/sections/c/move", `{"beforeId":"a"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[entities.Guide](t, rec)
	assert.Equal(t, "c", g.Sections[0].ID)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides/g1/sections/zz/move", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "section not found")
}

func TestUploadRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1","sections":[{"id":"s0"},{"id":"s1"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doUpload(t, srv, "/api/guides/g1/uploads", "file", "shot.png", pngBytes, map[string]string{"sectionId": "s1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[ports.GuideUploadResponse](t, rec)
	assert.Equal(t, "s1", resp.SectionID)
	assert.True(t, strings.HasPrefix(resp.URL, "/uploads/"), resp.URL)

	rec = doJSON(t, srv, http.MethodGet, resp.URL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	rec = doJSON(t, srv, http.MethodGet, "/api/guides/g1", "")
	g := decode[entities.Guide](t, rec)
	require.Len(t, g.Sections[1].Items, 1)
	assert.Equal(t, entities.ItemTypeImage, g.Sections[1].Items[0].Type)
	assert.Equal(t, resp.URL, g.Sections[1].Items[0].Content)

	rec = doUpload(t, srv, "/api/guides/g1/uploads", "file", "shot.png", pngBytes, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s0", decode[ports.GuideUploadResponse](t, rec).SectionID)

	rec = doUpload(t, srv, "/api/upload", "image", "solo.png", pngBytes, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[ports.UploadResponse](t, rec).URL)
}

func TestUploadRoutes_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1","sections":[{"id":"s0"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"bare"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		target string
		field  string
		data   []byte
		want   int
	}{
		{"missing file", "/api/guides/g1/uploads", "", nil, http.StatusBadRequest},
		{"wrong field", "/api/guides/g1/uploads", "image", pngBytes, http.StatusBadRequest},
		{"unknown guide", "/api/guides/nope/uploads", "file", pngBytes, http.StatusNotFound},
		{"no sections", "/api/guides/bare/uploads", "file", pngBytes, http.StatusBadRequest},
		{"not an image", "/api/guides/g1/uploads", "file", []byte("plain text"), http.StatusBadRequest},
		{"too large", "/api/guides/g1/uploads", "file", append(append([]byte{}, pngBytes...), make([]byte, 2048)...), http.StatusRequestEntityTooLarge},
		{"standalone missing", "/api/upload", "", nil, http.StatusBadRequest},
		{"standalone not an image", "/api/upload", "image", []byte("plain text"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doUpload(t, srv, tt.target, tt.field, "x.png", tt.data, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/guides/g1", "")
	g := decode[entities.Guide](t, rec)
	assert.Empty(t, g.Sections[0].Items)
}

func TestEditorAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EditorSecret = "test-secret"
	srv := newTestServer(t, cfg)

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1"}`, "Authorization", "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := services.NewAuthService(cfg.Security).IssueToken("mara", 0)
	require.NoError(t, err)

	rec = doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// reads stay public
	rec = doJSON(t, srv, http.MethodGet, "/api/guides/g1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEditorAuth_LogsRejectedTokens(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EditorSecret = "test-secret"
	core, logs := observer.New(zap.WarnLevel)
	disk, err := storage.NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	srv, err := New(cfg, repository.NewMemoryGuideRepository(), disk, &logger.Logger{SugaredLogger: zap.New(core).Sugar()})
	require.NoError(t, err)

	rec := doJSON(t, srv, http.MethodPost, "/api/guides", `{"id":"g1"}`, "Authorization", "Bearer junk", echo.HeaderXRequestID, "req-42")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	events := logs.FilterMessage("Security event").All()
	require.Len(t, events, 1)
	fields := events[0].ContextMap()
	assert.Equal(t, "invalid_token", fields["security_event"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/api/guides", fields["endpoint"])
	assert.NotEmpty(t, fields["error"])
}

func TestOperationalRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"memory"`)

	doJSON(t, srv, http.MethodGet, "/api/guides", "")
	rec = doJSON(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	rec = doJSON(t, srv, http.MethodGet, "/uploads/missing.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
