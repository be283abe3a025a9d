package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"floorplan/internal/common/middleware"
	"floorplan/internal/floorplan/models"
	"floorplan/internal/tables/repository"
	"floorplan/internal/tables/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "tables.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))

	app := fiber.New()
	app.Use(middleware.OrgContext())
	NewTableHandler(service.NewTableService(repo, 100)).Register(app)
	return app
}

// call выполняет запрос и раскладывает конверт; data декодируется в out, если он задан.
func call(t *testing.T, app *fiber.App, method, path, body string, out any) (int, models.Envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.OrgHeader, "bistro")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode, decodeEnvelope(t, resp, out)
}

func decodeEnvelope(t *testing.T, resp *http.Response, out any) models.Envelope {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return models.Envelope{Success: raw.Success, Message: raw.Message}
}

func TestCRUD(t *testing.T) {
	app := newTestApp(t)

	var created models.Table
	status, env := call(t, app, http.MethodPost, BasePath, `{"shape":"rectangle","x_position":10,"y_position":20}`, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, 120.0, created.Width)
	assert.Equal(t, "1", created.TableNumber)

	var got models.Table
	status, _ = call(t, app, http.MethodGet, BasePath+"/"+created.ID, "", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, got.ID)

	var updated models.Table
	status, _ = call(t, app, http.MethodPatch, BasePath+"/"+created.ID, `{"rotation":-45}`, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 315.0, updated.Rotation)

	var list models.TableList
	status, _ = call(t, app, http.MethodGet, BasePath, "", &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list.Tables, 1)
	assert.Equal(t, 6, list.Stats.TotalCapacity)

	status, env = call(t, app, http.MethodDelete, BasePath+"/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = call(t, app, http.MethodGet, BasePath+"/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestCreateAtIndex(t *testing.T) {
	app := newTestApp(t)

	for _, n := range []string{"1", "2"} {
		status, _ := call(t, app, http.MethodPost, BasePath, `{"table_number":"`+n+`"}`, nil)
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ := call(t, app, http.MethodPost, BasePath+"?index=0", `{"table_number":"0"}`, nil)
	require.Equal(t, http.StatusCreated, status)

	var list models.TableList
	status, _ = call(t, app, http.MethodGet, BasePath, "", &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Tables, 3)
	assert.Equal(t, "0", list.Tables[0].TableNumber)
	assert.Equal(t, "2", list.Tables[2].TableNumber)

	for _, bad := range []string{"-1", "top"} {
		status, env := call(t, app, http.MethodPost, BasePath+"?index="+bad, `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, status, bad)
		assert.False(t, env.Success)
	}
}

func TestRequestContextReachesStorage(t *testing.T) {
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "tables.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.New(db)
	require.NoError(t, repo.Init(context.Background()))

	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		ctx, cancel := context.WithCancel(c.Context())
		cancel()
		c.SetContext(ctx)
		return c.Next()
	})
	NewTableHandler(service.NewTableService(repo, 100)).Register(app)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, BasePath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestValidationErrors(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodPost, BasePath, "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = call(t, app, http.MethodPost, BasePath, `{"shape":`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, BasePath, `{"shape":"triangle"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var created models.Table
	status, _ = call(t, app, http.MethodPost, BasePath, `{}`, &created)
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, app, http.MethodPatch, BasePath+"/"+created.ID, `{"width":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPatch, BasePath+"/missing", `{"width":10}`, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCombineSplit(t *testing.T) {
	app := newTestApp(t)

	var a, b, far models.Table
	call(t, app, http.MethodPost, BasePath, `{"x_position":0,"y_position":0}`, &a)
	call(t, app, http.MethodPost, BasePath, `{"x_position":70,"y_position":0}`, &b)
	call(t, app, http.MethodPost, BasePath, `{"x_position":900,"y_position":0}`, &far)

	status, env := call(t, app, http.MethodPost, BasePath+"/combine", `{"table_ids":["`+a.ID+`"]}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)

	status, _ = call(t, app, http.MethodPost, BasePath+"/combine", `{"table_ids":["`+a.ID+`","`+far.ID+`"]}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var res models.CombineResult
	status, _ = call(t, app, http.MethodPost, BasePath+"/combine", `{"table_ids":["`+a.ID+`","`+b.ID+`"]}`, &res)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, res.GroupID)

	status, _ = call(t, app, http.MethodPost, BasePath+"/split", `{"group_id":"`+res.GroupID+`"}`, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, BasePath+"/split", `{"group_id":"`+res.GroupID+`"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestOrganizationsAreIsolated(t *testing.T) {
	app := newTestApp(t)

	call(t, app, http.MethodPost, BasePath, `{}`, nil)

	req := httptest.NewRequest(http.MethodGet, BasePath, nil)
	req.Header.Set(middleware.OrgHeader, "other")
	resp, err := app.Test(req)
	require.NoError(t, err)

	var list models.TableList
	decodeEnvelope(t, resp, &list)
	assert.Empty(t, list.Tables)
}

func TestImportAndExport(t *testing.T) {
	app := newTestApp(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "plan.svg")
	require.NoError(t, err)
	part.Write([]byte(`<svg><rect id="Table_7" x="0" y="0" width="80" height="40"/></svg>`))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, BasePath+"/import", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res models.ImportResult
	decodeEnvelope(t, resp, &res)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "7", res.Created[0].TableNumber)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, BasePath+"/export.svg?width=300&height=200", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	svg, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(svg), `width="300"`)

	req = httptest.NewRequest(http.MethodPost, BasePath+"/import", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
