package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"miro-gateway/internal/integrations/miro"
	"miro-gateway/internal/integrations/openai"
	"miro-gateway/internal/integrations/paramstore"
	"miro-gateway/internal/logging"
	"miro-gateway/internal/metrics"
	"miro-gateway/internal/server"
	"miro-gateway/internal/settings"
	"miro-gateway/internal/usecase"
)

// app is everything a command needs, built once from settings.
type app struct {
	settings settings.Settings
	logger   *slog.Logger
	metrics  *metrics.Metrics
	board    *miro.Client
	features *usecase.FeatureService
	api      http.Handler
}

func mustBind(key string, flag *pflag.Flag) {
	if err := cfg.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}

// buildApp loads settings, resolves tokens from SSM when a prefix is set and
// wires the gateways into the HTTP API. Logs go to logOut.
func buildApp(ctx context.Context, v *viper.Viper, logOut io.Writer) (*app, error) {
	s, err := settings.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Setup(s.Environment, s.LogConfigPath, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	if s.ParamPrefix != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, fmt.Errorf("create SSM client: %w", err)
		}
		if s, err = s.ResolveTokens(ctx, ps); err != nil {
			return nil, err
		}
	}
	if s.MiroToken == "" {
		logger.Warn("miro token is not configured")
	}
	if s.OpenAIToken == "" {
		logger.Warn("openai token is not configured")
	}

	m := metrics.New()

	board, err := miro.NewClient(s.MiroToken,
		miro.WithBaseURL(s.MiroBaseURL),
		miro.WithHTTPClient(m.HTTPClient(metrics.ServiceMiro, &http.Client{Timeout: s.UpstreamTimeout})),
		miro.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	llm := openai.NewClient(s.OpenAIToken,
		openai.WithBaseURL(s.OpenAIBaseURL),
		openai.WithHTTPClient(m.HTTPClient(metrics.ServiceOpenAI, &http.Client{Timeout: s.UpstreamTimeout})),
	)
	features, err := usecase.NewFeatureService(llm, s.OpenAIModel, usecase.WithHTMLStripping(s.StripHTML))
	if err != nil {
		return nil, err
	}

	api, err := server.New(server.Config{
		Board:    board,
		Features: features,
		Logger:   logger,
		Metrics:  m,
		Title:    s.ProjectName,
		Version:  s.ProjectVersion,
		Greeting: settings.Greeting,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		settings: s,
		logger:   logger,
		metrics:  m,
		board:    board,
		features: features,
		api:      api,
	}, nil
}
