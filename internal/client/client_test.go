package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
)

func TestClientFetchRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/entities/people", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []model.Row{
				{"id": "1", "name": "Amy"},
				{"id": "2", "name": "Bob"},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithToken("tkn"))
	rows, err := c.FetchRows(context.Background(), "people")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Amy", rows[0]["name"])
}

func TestClientUpdateField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/v1/entities/people/42", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]interface{}{"name": "Amara"}, body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"entity": model.Row{"id": "42", "name": "Amara", "mtime": 99},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	row, err := c.UpdateField(context.Background(), "people", "42", "name", "Amara")
	require.NoError(t, err)
	require.Equal(t, "Amara", row["name"])
	require.Equal(t, float64(99), row["mtime"])
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "bad request", status: http.StatusBadRequest, want: appErr.ErrInvalid},
		{name: "unauthorized", status: http.StatusUnauthorized, want: appErr.ErrUnauthorized},
		{name: "not found", status: http.StatusNotFound, want: appErr.ErrNotFound},
		{name: "conflict", status: http.StatusConflict, want: appErr.ErrConflict},
		{name: "server error", status: http.StatusInternalServerError, want: appErr.ErrMutationRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "told you so", "code": "x"})
			}))
			defer srv.Close()

			c := New(srv.URL, WithHTTPClient(srv.Client()))
			_, err := c.UpdateField(context.Background(), "people", "42", "name", "x")
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), "told you so")
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL)
	_, err := c.FetchRows(context.Background(), "people")
	require.ErrorIs(t, err, appErr.ErrTransport)
}

func TestClientCreateViewValidatesBeforeNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))

	_, err := c.CreateView(context.Background(), "", "people", model.ViewState{})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = c.CreateView(context.Background(), "mine", "", model.ViewState{})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestClientCreateView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/saved-views", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "mine", body["name"])
		require.Equal(t, "people", body["table_name"])
		require.Equal(t, "table", body["view_type"])
		require.Equal(t, []interface{}{"email"}, body["hidden_columns"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"view": model.SavedView{ID: "v1", Name: "mine", TableName: "people", HiddenColumns: []string{"email"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	view, err := c.CreateView(context.Background(), "mine", "people", model.ViewState{HiddenColumns: []string{"email"}})
	require.NoError(t, err)
	require.Equal(t, "v1", view.ID)
	require.Equal(t, []string{"email"}, view.HiddenColumns)
}

func TestClientUpdateViewSendsOnlyPatchedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/v1/saved-views/v1", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]interface{}{"name": "renamed"}, body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"view": model.SavedView{ID: "v1", Name: "renamed"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	name := "renamed"
	view, err := c.UpdateView(context.Background(), "v1", model.SavedViewPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "renamed", view.Name)
}

func TestClientDeleteViewMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "saved view not found", "code": "not_found"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	err := c.DeleteView(context.Background(), "gone")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestClientListViewsScopedToTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "people", r.URL.Query().Get("table"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"views": []model.SavedView{{ID: "v2"}, {ID: "v1"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	views, err := c.ListViews(context.Background(), "people")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "v2", views[0].ID)
}
