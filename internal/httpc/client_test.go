package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got := map[string]string{}
		for field := range r.MultipartForm.File {
			f, _, err := r.FormFile(field)
			require.NoError(t, err)
			b, _ := io.ReadAll(f)
			got[field] = string(b)
		}
		json.NewEncoder(w).Encode(got)
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(a, []byte("first"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("second"), 0o644))

	var out map[string]string
	err := UploadFiles(context.Background(), nil, srv.URL, map[string]string{"frame1": a, "frame2": b}, &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"frame1": "first", "frame2": "second"}, out)
}

func TestUploadFiles_MissingFile(t *testing.T) {
	err := UploadFiles(context.Background(), nil, "http://127.0.0.1:1", map[string]string{"frame1": "/does/not/exist.png"}, nil)
	assert.ErrorContains(t, err, "frame1")
}

func TestGetJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"odometry: frame sizes differ"}`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(DefaultTimeout), srv.URL, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "odometry: frame sizes differ", apiErr.Message)
}
