// Package server exposes the board and feature-generation operations over
// HTTP as huma operations on a chi router.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"miro-gateway/internal/metrics"
	"miro-gateway/internal/upstream"
)

// BoardGateway reads items from a board.
type BoardGateway interface {
	FetchFrames(ctx context.Context, boardID string) (json.RawMessage, error)
	FetchCards(ctx context.Context, boardID, frameID string) (json.RawMessage, error)
	FetchFrame(ctx context.Context, boardID, frameID string) (json.RawMessage, error)
	FetchItem(ctx context.Context, boardID, itemID string) json.RawMessage
}

// FeatureGenerator turns an epic description into a completion choice.
type FeatureGenerator interface {
	GenerateFeatures(ctx context.Context, epicDescription string, topN int) (json.RawMessage, error)
}

// Config for the HTTP API handler.
type Config struct {
	Board    BoardGateway
	Features FeatureGenerator
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	Title    string
	Version  string
	Greeting string
}

const unexpectedError = "unexpected error occurred"

// installErrorEnvelope swaps huma's process-wide error constructors once.
var installErrorEnvelope sync.Once

// detailError is the `{"detail": ...}` envelope written for every failure.
type detailError struct {
	status int
	Detail string `json:"detail"`
}

func (e *detailError) GetStatus() int { return e.status }
func (e *detailError) Error() string  { return e.Detail }

// ContentType keeps errors as plain JSON instead of problem+json.
func (e *detailError) ContentType(string) string { return "application/json" }

func newDetailError(status int, msg string, errs ...error) huma.StatusError {
	if status >= http.StatusInternalServerError {
		return &detailError{status: status, Detail: msg}
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) > 0 {
		msg = msg + ": " + strings.Join(details, "; ")
	}
	return &detailError{status: status, Detail: msg}
}

// New returns an HTTP handler exposing the gateway API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Board == nil {
		return nil, errors.New("server: board gateway is nil")
	}
	if cfg.Features == nil {
		return nil, errors.New("server: feature generator is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = "Miro Gateway"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	installErrorEnvelope.Do(func() {
		huma.NewError = newDetailError
		huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
			return newDetailError(status, msg, errs...)
		}
	})

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(correlationID)
	router.Use(allowAllOrigins)
	router.Use(accessLog(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.InstrumentHandler)
		router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	hcfg := huma.DefaultConfig(cfg.Title, cfg.Version)
	hcfg.CreateHooks = nil
	api := humachi.New(router, hcfg)

	registerRoot(api, cfg.Greeting)
	registerHealth(api)
	registerBoard(api, cfg.Board, cfg.Logger)
	registerFeatures(api, cfg.Features, cfg.Logger)

	return router, nil
}

// boardError maps a gateway failure onto the response the client sees.
func boardError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	if ue, ok := upstream.AsError(err); ok {
		logger.ErrorContext(ctx, "upstream request failed",
			"operation", op,
			"status", ue.StatusCode,
			"correlation_id", CorrelationID(ctx),
			"err", err,
		)
		return &detailError{status: ue.StatusCode, Detail: ue.Message}
	}
	logger.ErrorContext(ctx, "board request failed",
		"operation", op,
		"correlation_id", CorrelationID(ctx),
		"err", err,
	)
	return &detailError{status: http.StatusInternalServerError, Detail: unexpectedError}
}
