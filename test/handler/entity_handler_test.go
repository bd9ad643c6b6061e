package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/model"
)

func TestEntityEndpoints(t *testing.T) {
	router, cleanup, table := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPost, "/api/v1/entities/"+table, map[string]interface{}{
		"name":  "Amy",
		"email": "amy@corp.io",
		"age":   34,
		"role":  "admin",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var created struct {
		Entity model.Row `json:"entity"`
	}
	decodeBody(t, resp, &created)
	id, _ := created.Entity["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "Amy", created.Entity["name"])
	require.NotNil(t, created.Entity["ctime"])
	require.Equal(t, created.Entity["ctime"], created.Entity["mtime"])

	resp = doJSON(t, router, http.MethodPost, "/api/v1/entities/nope", map[string]interface{}{
		"name": "ghost",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/entities/"+table, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Items []model.Row `json:"items"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Items, 1)
	require.Equal(t, id, list.Items[0]["id"])

	// a single-field patch is the only accepted write shape
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/entities/"+table+"/"+id, map[string]interface{}{
		"name": "Amara",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var patched struct {
		Entity model.Row `json:"entity"`
	}
	decodeBody(t, resp, &patched)
	require.Equal(t, "Amara", patched.Entity["name"])
	require.Equal(t, "amy@corp.io", patched.Entity["email"])

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/entities/"+table+"/"+id, map[string]interface{}{
		"name":  "Amara",
		"email": "amara@corp.io",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	var fail struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decodeBody(t, resp, &fail)
	require.Equal(t, "invalid", fail.Code)
	require.Equal(t, "expected a single field", fail.Error)

	// role is not editable
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/entities/"+table+"/"+id, map[string]interface{}{
		"role": "viewer",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	// number columns coerce string input
	resp = doJSON(t, router, http.MethodPatch, "/api/v1/entities/"+table+"/"+id, map[string]interface{}{
		"age": "51",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	decodeBody(t, resp, &patched)
	require.Equal(t, float64(51), patched.Entity["age"])

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/entities/"+table+"/missing", map[string]interface{}{
		"name": "nobody",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, router, http.MethodDelete, "/api/v1/entities/"+table+"/"+id, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var deleted struct {
		Success bool `json:"success"`
	}
	decodeBody(t, resp, &deleted)
	require.True(t, deleted.Success)

	resp = doJSON(t, router, http.MethodDelete, "/api/v1/entities/"+table+"/"+id, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/entities/"+table, nil)
	decodeBody(t, resp, &list)
	require.Empty(t, list.Items)
}

func TestTableEndpoints(t *testing.T) {
	router, cleanup, table := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodGet, "/api/v1/tables", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list struct {
		Tables []model.Table `json:"tables"`
	}
	decodeBody(t, resp, &list)
	names := make([]string, 0, len(list.Tables))
	for _, tab := range list.Tables {
		names = append(names, tab.Name)
	}
	require.Contains(t, names, table)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/tables/"+table, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var fetched struct {
		Table model.Table `json:"table"`
	}
	decodeBody(t, resp, &fetched)
	require.Equal(t, table, fetched.Table.Name)
	require.Len(t, fetched.Table.Columns, 5)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/tables/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
