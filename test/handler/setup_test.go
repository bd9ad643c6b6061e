package handler_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/tabula-io/tabula/internal/handler"
	"github.com/tabula-io/tabula/internal/middleware"
	"github.com/tabula-io/tabula/internal/model"
	"github.com/tabula-io/tabula/internal/repo"
	"github.com/tabula-io/tabula/internal/service"
	"github.com/tabula-io/tabula/test/testutil"
)

func uniqueName(prefix string) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

// setupRouter wires the full API against the test database with one
// uniquely named logical table, so runs never see each other's rows.
func setupRouter(t *testing.T) (http.Handler, func(), string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	table := uniqueName("people")
	tables := []model.Table{{
		Name: table,
		Columns: []model.Column{
			{Field: "id", Title: "ID", Type: model.ColumnText},
			{Field: "name", Title: "Name", Type: model.ColumnText, Editable: true, Filterable: true, Searchable: true},
			{Field: "email", Title: "Email", Type: model.ColumnText, Editable: true, Searchable: true},
			{Field: "age", Title: "Age", Type: model.ColumnNumber, Editable: true, Filterable: true},
			{Field: "role", Title: "Role", Type: model.ColumnEnum, Filterable: true, Groupable: true, Options: []string{"admin", "viewer"}},
		},
	}}

	savedViewService := service.NewSavedViewService(repo.NewSavedViewRepo(db))
	entityService := service.NewEntityService(repo.NewEntityRepo(db), tables)

	deps := handler.RouterDeps{
		SavedViews: handler.NewSavedViewHandler(savedViewService),
		Entities:   handler.NewEntityHandler(entityService),
		Tables:     handler.NewTableHandler(entityService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, cleanup, table
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), out))
}
