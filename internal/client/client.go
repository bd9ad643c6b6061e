package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tabula-io/tabula/internal/model"
	appErr "github.com/tabula-io/tabula/internal/pkg/errors"
)

// Client talks to the tabula HTTP API. It implements the explorer's
// DatasetSource and RowMutator and exposes the saved-view surface, and
// classifies failures for the caller: transport problems wrap
// ErrTransport, server-side rejections wrap the matching sentinel.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type viewEnvelope struct {
	View *model.SavedView `json:"view"`
}

type viewsEnvelope struct {
	Views []model.SavedView `json:"views"`
}

type itemsEnvelope struct {
	Items []model.Row `json:"items"`
}

type entityEnvelope struct {
	Entity model.Row `json:"entity"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FetchRows pulls the fully materialized dataset for one logical table.
func (c *Client) FetchRows(ctx context.Context, table string) ([]model.Row, error) {
	var out itemsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/entities/"+url.PathEscape(table), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UpdateField submits a single-field patch and returns the authoritative
// row the server now holds.
func (c *Client) UpdateField(ctx context.Context, table, rowID, field string, value interface{}) (model.Row, error) {
	var out entityEnvelope
	path := "/api/v1/entities/" + url.PathEscape(table) + "/" + url.PathEscape(rowID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]interface{}{field: value}, &out); err != nil {
		return nil, err
	}
	return out.Entity, nil
}

func (c *Client) CreateRow(ctx context.Context, table string, row model.Row) (model.Row, error) {
	var out entityEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/entities/"+url.PathEscape(table), row, &out); err != nil {
		return nil, err
	}
	return out.Entity, nil
}

func (c *Client) DeleteRow(ctx context.Context, table, rowID string) error {
	path := "/api/v1/entities/" + url.PathEscape(table) + "/" + url.PathEscape(rowID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListViews(ctx context.Context, table string) ([]model.SavedView, error) {
	path := "/api/v1/saved-views"
	if table != "" {
		path += "?table=" + url.QueryEscape(table)
	}
	var out viewsEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Views, nil
}

type createViewRequest struct {
	Name      string `json:"name"`
	TableName string `json:"table_name"`
	ViewType  string `json:"view_type"`
	model.ViewState
}

// CreateView saves the state under a name. Missing name or table fails
// validation here, before anything touches the network.
func (c *Client) CreateView(ctx context.Context, name, table string, state model.ViewState) (*model.SavedView, error) {
	if name == "" || table == "" {
		return nil, appErr.ErrInvalid
	}
	var out viewEnvelope
	body := createViewRequest{Name: name, TableName: table, ViewType: model.ViewTypeTable, ViewState: state}
	if err := c.do(ctx, http.MethodPost, "/api/v1/saved-views", body, &out); err != nil {
		return nil, err
	}
	return out.View, nil
}

func (c *Client) GetView(ctx context.Context, viewID string) (*model.SavedView, error) {
	var out viewEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/v1/saved-views/"+url.PathEscape(viewID), nil, &out); err != nil {
		return nil, err
	}
	return out.View, nil
}

// UpdateView sends only the fields the patch carries; the server merges
// them into the stored view and stamps a fresh mtime.
func (c *Client) UpdateView(ctx context.Context, viewID string, patch model.SavedViewPatch) (*model.SavedView, error) {
	body := map[string]interface{}{}
	if patch.Name != nil {
		body["name"] = *patch.Name
	}
	if patch.ViewType != nil {
		body["view_type"] = *patch.ViewType
	}
	if patch.Filters != nil {
		body["filters"] = *patch.Filters
	}
	if patch.FilterMode != nil {
		body["filter_mode"] = *patch.FilterMode
	}
	if patch.GroupBy != nil {
		body["group_by"] = *patch.GroupBy
	}
	if patch.SearchTerm != nil {
		body["search_term"] = *patch.SearchTerm
	}
	if patch.HiddenColumns != nil {
		body["hidden_columns"] = *patch.HiddenColumns
	}
	if patch.ColumnOrder != nil {
		body["column_order"] = *patch.ColumnOrder
	}
	if patch.ColumnWidths != nil {
		body["column_widths"] = *patch.ColumnWidths
	}
	if patch.SortConfig != nil {
		body["sort_config"] = *patch.SortConfig
	}
	var out viewEnvelope
	if err := c.do(ctx, http.MethodPatch, "/api/v1/saved-views/"+url.PathEscape(viewID), body, &out); err != nil {
		return nil, err
	}
	return out.View, nil
}

// DeleteView removes a saved view. A missing id comes back as
// ErrNotFound, which callers may treat as already done.
func (c *Client) DeleteView(ctx context.Context, viewID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/saved-views/"+url.PathEscape(viewID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", appErr.ErrTransport, err)
	}
	return nil
}

// decodeError maps a non-2xx reply onto the error taxonomy, carrying the
// server's message along.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var payload errorEnvelope
	_ = json.Unmarshal(raw, &payload)
	message := strings.TrimSpace(payload.Error)
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", appErr.ErrInvalid, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", appErr.ErrUnauthorized, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", appErr.ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", appErr.ErrConflict, message)
	default:
		return fmt.Errorf("%w: %s", appErr.ErrMutationRejected, message)
	}
}
