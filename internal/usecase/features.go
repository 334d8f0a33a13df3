package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"miro-gateway/internal/domain"
)

const (
	DefaultTopN = 5
	MaxTopN     = 10
)

type LLMClient interface {
	CreateChatCompletion(ctx context.Context, in domain.CompletionRequest) (json.RawMessage, error)
}

// FeatureService turns an epic description into generated feature records.
type FeatureService struct {
	llm       LLMClient
	model     string
	stripHTML bool
}

type FeatureOption func(*FeatureService)

// WithHTMLStripping removes markup from epic descriptions before they are
// quoted into the prompt.
func WithHTMLStripping(enabled bool) FeatureOption {
	return func(s *FeatureService) {
		s.stripHTML = enabled
	}
}

func NewFeatureService(llm LLMClient, model string, opts ...FeatureOption) (*FeatureService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	s := &FeatureService{llm: llm, model: model}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateFeatures asks the completion service for topN features and returns
// its first choice untouched. topN <= 0 means DefaultTopN. Upstream errors are
// returned as-is so callers see the upstream message.
func (s *FeatureService) GenerateFeatures(ctx context.Context, epicDescription string, topN int) (json.RawMessage, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > MaxTopN {
		return nil, newError(ErrorInvalidInput, "top_n_out_of_range", nil)
	}
	if s.stripHTML {
		epicDescription = StripHTML(epicDescription)
	}
	if strings.TrimSpace(epicDescription) == "" {
		return nil, newError(ErrorInvalidInput, "empty_epic_description", nil)
	}

	return s.llm.CreateChatCompletion(ctx, buildCompletionRequest(s.model, epicDescription, topN))
}
