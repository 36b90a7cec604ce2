package zerolog_config

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var appPrefix string
var setAppPrefixOnce *sync.Once = &sync.Once{}
var startupLoggerOnce *sync.Once = &sync.Once{}

// ElasticsearchWriter sends ECS log documents to an Elasticsearch index
type ElasticsearchWriter struct {
	client *resty.Client
	url    string
}

// NewElasticsearchWriter creates a writer posting to {baseURL}/{index}/_doc.
func NewElasticsearchWriter(baseURL, index string) *ElasticsearchWriter {
	return &ElasticsearchWriter{
		client: resty.New().SetTimeout(5 * time.Second),
		url:    baseURL + "/" + index + "/_doc",
	}
}

func (ew *ElasticsearchWriter) Write(p []byte) (n int, err error) {
	// zerolog reuses p after Write returns.
	body := make([]byte, len(p))
	copy(body, p)

	resp, err := ew.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(ew.url)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode())
	}

	return len(p), nil
}

func startupLoggerWithEnv(out io.Writer, elasticsearchURL string, index string, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{Out: out}

	if elasticsearchURL == "" {
		log.Logger = zerolog.New(consoleWriter).With().Str("app", appPrefix).
			Timestamp().Logger()
		return
	}

	// ECS format for Elasticsearch, pretty output on the console
	ecsLogger := ecszerolog.New(NewElasticsearchWriter(elasticsearchURL, index))
	multi := zerolog.MultiLevelWriter(
		ecsLogger,
		consoleWriter,
	)

	log.Logger = zerolog.New(multi).With().Str("app", appPrefix).
		Timestamp().Logger()
}

// SetAppPrefix sets the app prefix
func SetAppPrefix(subAddress string) {
	setAppPrefixOnce.Do(func() {
		appPrefix = subAddress
	})
}

// ParseLevel maps a level name to a zerolog level, info when unknown.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// StartupWithEnv sets up the global logger once. Logs go to the console and,
// when elasticsearchURL is set, to the given index as ECS documents.
// Run SetAppPrefix before StartupWithEnv.
func StartupWithEnv(elasticsearchURL string, index string, levelName string) error {
	if index == "" {
		return fmt.Errorf("index is required")
	}
	startupLoggerOnce.Do(func() {
		startupLoggerWithEnv(os.Stdout, elasticsearchURL, index, ParseLevel(levelName))
	})
	return nil
}
