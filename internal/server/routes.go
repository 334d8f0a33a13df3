package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type greetingOutput struct {
	Body struct {
		Msg string `json:"msg" example:"Hello"`
	}
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

// rawOutput passes an upstream JSON document through as the response body.
type rawOutput struct {
	Body any
}

type boardInput struct {
	BoardID string `query:"board_id" required:"true" doc:"Board identifier"`
}

type frameInput struct {
	BoardID string `query:"board_id" required:"true" doc:"Board identifier"`
	FrameID string `query:"frame_id" required:"true" doc:"Frame identifier"`
}

type itemInput struct {
	BoardID string `query:"board_id" required:"true" doc:"Board identifier"`
	ItemID  string `query:"item_id" required:"true" doc:"Item identifier"`
}

type featuresInput struct {
	EpicDescription string `query:"epic_description" required:"true" doc:"Epic text the features are derived from"`
	TopN            int    `query:"top_n" default:"5" doc:"Number of features to generate"`
}

type featuresOutput struct {
	Body struct {
		GeneratedFeatures any    `json:"generated_features,omitempty"`
		Error             string `json:"error,omitempty"`
	}
}

func registerRoot(api huma.API, greeting string) {
	huma.Register(api, huma.Operation{
		OperationID: "root",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service greeting",
		Tags:        []string{"meta"},
	}, func(ctx context.Context, _ *struct{}) (*greetingOutput, error) {
		out := &greetingOutput{}
		out.Body.Msg = greeting
		return out, nil
	})
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness probe",
		Tags:        []string{"meta"},
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

func registerBoard(api huma.API, board BoardGateway, logger *slog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "miro-frames",
		Method:      http.MethodGet,
		Path:        "/miro-frames",
		Summary:     "List the frames of a board",
		Tags:        []string{"miro"},
	}, func(ctx context.Context, in *boardInput) (*rawOutput, error) {
		raw, err := board.FetchFrames(context.WithoutCancel(ctx), in.BoardID)
		if err != nil {
			return nil, boardError(ctx, logger, "miro-frames", err)
		}
		return &rawOutput{Body: raw}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "miro-cards",
		Method:      http.MethodGet,
		Path:        "/miro-cards",
		Summary:     "List the cards inside a frame",
		Tags:        []string{"miro"},
	}, func(ctx context.Context, in *frameInput) (*rawOutput, error) {
		raw, err := board.FetchCards(context.WithoutCancel(ctx), in.BoardID, in.FrameID)
		if err != nil {
			return nil, boardError(ctx, logger, "miro-cards", err)
		}
		return &rawOutput{Body: raw}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "miro-frame",
		Method:      http.MethodGet,
		Path:        "/miro-frame",
		Summary:     "Get a single frame",
		Tags:        []string{"miro"},
	}, func(ctx context.Context, in *frameInput) (*rawOutput, error) {
		raw, err := board.FetchFrame(context.WithoutCancel(ctx), in.BoardID, in.FrameID)
		if err != nil {
			return nil, boardError(ctx, logger, "miro-frame", err)
		}
		return &rawOutput{Body: raw}, nil
	})

	// Item lookups never fail; a miss is rendered as null.
	huma.Register(api, huma.Operation{
		OperationID: "miro-item",
		Method:      http.MethodGet,
		Path:        "/miro-item",
		Summary:     "Get a single item, or null",
		Tags:        []string{"miro"},
	}, func(ctx context.Context, in *itemInput) (*rawOutput, error) {
		raw := board.FetchItem(context.WithoutCancel(ctx), in.BoardID, in.ItemID)
		if raw == nil {
			raw = json.RawMessage("null")
		}
		return &rawOutput{Body: raw}, nil
	})
}

func registerFeatures(api huma.API, features FeatureGenerator, logger *slog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-features",
		Method:      http.MethodGet,
		Path:        "/generate-features",
		Summary:     "Generate features for an epic",
		Description: "Failures are reported in the error field of a 200 response.",
		Tags:        []string{"features"},
	}, func(ctx context.Context, in *featuresInput) (*featuresOutput, error) {
		out := &featuresOutput{}
		choice, err := features.GenerateFeatures(context.WithoutCancel(ctx), in.EpicDescription, in.TopN)
		if err != nil {
			logger.WarnContext(ctx, "feature generation failed",
				"correlation_id", CorrelationID(ctx),
				"err", err,
			)
			out.Body.Error = err.Error()
			return out, nil
		}
		out.Body.GeneratedFeatures = choice
		return out, nil
	})
}
