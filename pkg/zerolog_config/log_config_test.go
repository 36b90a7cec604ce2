package zerolog_config

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestElasticsearchWriter(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	w := NewElasticsearchWriter(srv.URL, "logs")
	n, err := w.Write([]byte(`{"message":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, 19, n)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/logs/_doc", path)
	assert.JSONEq(t, `{"message":"hello"}`, string(body))
}

func TestElasticsearchWriterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewElasticsearchWriter(srv.URL, "logs").Write([]byte(`{}`))
	assert.Error(t, err)
}

func TestConsoleOnlyLogger(t *testing.T) {
	var buf bytes.Buffer
	SetAppPrefix("clinic-test")
	startupLoggerWithEnv(&buf, "", "logs", zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Info().Msg("ready")
	log.Debug().Msg("hidden")
	assert.Contains(t, buf.String(), "ready")
	assert.Contains(t, buf.String(), "clinic-test")
	assert.NotContains(t, buf.String(), "hidden")
}
