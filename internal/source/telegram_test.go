package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/photo-ingest/internal/ingest"
)

// fakeTelegram serves both the getFile endpoint and the file download path
// the way the Bot API lays them out.
func fakeTelegram(t *testing.T, filePath string, fileBytes []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/bottoken123/getFile", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file_id") == "" {
			http.Error(w, "missing file_id", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"file_path": filePath},
		})
	})
	mux.HandleFunc("/file/bottoken123/"+filePath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(fileBytes)
	})
	return httptest.NewServer(mux)
}

func TestFetchResolvesAndDownloads(t *testing.T) {
	srv := fakeTelegram(t, "photos/file_1.jpg", []byte("jpeg-bytes"))
	defer srv.Close()

	f := NewTelegram(srv.URL, "token123", srv.Client())
	fetched, err := f.Fetch(context.Background(), "AgAC-file-id")

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), fetched.Bytes)
	assert.Equal(t, "image/jpeg", fetched.ContentType)
}

func TestFetchDirectURLSkipsResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	// API URL deliberately unreachable: a direct URL must never touch it.
	f := NewTelegram("http://127.0.0.1:0", "token123", srv.Client())
	fetched, err := f.Fetch(context.Background(), srv.URL+"/direct.png")

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), fetched.Bytes)
	assert.Equal(t, "image/png", fetched.ContentType)
}

func TestFetchResolutionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "Bad Request: file not found",
		})
	}))
	defer srv.Close()

	f := NewTelegram(srv.URL, "token123", srv.Client())
	_, err := f.Fetch(context.Background(), "missing-file")

	var itemErr *ingest.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, ingest.KindResolution, itemErr.Kind)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFetchResolutionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewTelegram(srv.URL, "token123", srv.Client())
	_, err := f.Fetch(context.Background(), "some-file")

	var itemErr *ingest.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, ingest.KindResolution, itemErr.Kind)
}

func TestFetchInvalidLocation(t *testing.T) {
	f := NewTelegram("http://api", "token123", http.DefaultClient)

	// Prefix matches a direct URL but there is no host to connect to.
	_, err := f.Fetch(context.Background(), "http://")

	var itemErr *ingest.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, ingest.KindInvalidLocation, itemErr.Kind)
}

func TestFetchTransferHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bottoken123/getFile", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"file_path": "photos/gone.jpg"},
		})
	})
	mux.HandleFunc("/file/bottoken123/photos/gone.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewTelegram(srv.URL, "token123", srv.Client())
	_, err := f.Fetch(context.Background(), "some-file")

	var itemErr *ingest.ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, ingest.KindTransfer, itemErr.Kind)
	assert.Contains(t, err.Error(), "410")
}

func TestFetchTimeoutCoversBothStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewTelegram(srv.URL, "token123", srv.Client())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, "slow-file")
	require.Error(t, err)
	assert.Equal(t, ingest.KindTimeout, ingest.Classify(err))
}
