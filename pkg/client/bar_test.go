package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	rawPath     string
	contentType string
	auth        string
	body        string
}

func newRecordingServer(t *testing.T) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorded{
			method:      r.Method,
			path:        r.URL.Path,
			rawPath:     r.URL.EscapedPath(),
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestBarClient_Routes(t *testing.T) {
	srv, rec := newRecordingServer(t)
	c := NewBarClient(srv.URL).WithToken("tok")
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() (*Response, error)
		method   string
		path     string
		wantBody bool
	}{
		{"list", func() (*Response, error) { return c.List(ctx) }, http.MethodGet, "/bars", false},
		{"create", func() (*Response, error) { return c.Create(ctx, map[string]any{"yelpId": "y1"}) }, http.MethodPost, "/bars", true},
		{"get", func() (*Response, error) { return c.Get(ctx, "abc") }, http.MethodGet, "/bars/abc", false},
		{"replace", func() (*Response, error) { return c.Replace(ctx, "abc", map[string]any{}) }, http.MethodPut, "/bars/abc", true},
		{"patch", func() (*Response, error) {
			return c.Patch(ctx, "abc", []map[string]any{{"op": "replace", "path": "/yelpId", "value": "y2"}})
		}, http.MethodPatch, "/bars/abc", true},
		{"delete", func() (*Response, error) { return c.Delete(ctx, "abc") }, http.MethodDelete, "/bars/abc", false},
		{"toggle", func() (*Response, error) { return c.ToggleVisitor(ctx, "y1", "u1") }, http.MethodPut, "/bars/y1/visit/u1", false},
		{"search", func() (*Response, error) { return c.Search(ctx, "Austin") }, http.MethodGet, "/bars/search/Austin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
			assert.Equal(t, "Bearer tok", rec.auth)
			if tt.wantBody {
				assert.Equal(t, "application/json", rec.contentType)
				assert.True(t, json.Valid([]byte(rec.body)))
			} else {
				assert.Empty(t, rec.contentType)
				assert.Empty(t, rec.body)
			}
		})
	}
}

func TestBarClient_EscapesPathSegments(t *testing.T) {
	srv, rec := newRecordingServer(t)
	c := NewBarClient(srv.URL)

	_, err := c.Search(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, "/bars/search/New%20York", rec.rawPath)
	assert.Equal(t, "/bars/search/New York", rec.path)
}

func TestBarClient_WaitForHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.NoError(t, NewBarClient(srv.URL).WaitForHealthy(context.Background()))
}

func TestGetErrorMessage(t *testing.T) {
	resp := &Response{Body: []byte(`{"error":"Bar not found","code":"NOT_FOUND"}`)}
	assert.Contains(t, GetErrorMessage(resp), "Bar not found")
}
