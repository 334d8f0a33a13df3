// Package settings resolves the process configuration once at startup: display
// constants, upstream endpoints and the two bearer tokens.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProjectName    = "IBC Miro 🔥"
	ProjectVersion = "1.0.0"
	Greeting       = "Hello, This is IBC MIRO REST API Test Service 🚀"
)

// Settings is read-only after Load.
type Settings struct {
	ProjectName    string
	ProjectVersion string
	Environment    string

	ListenAddr      string
	UpstreamTimeout time.Duration

	MiroBaseURL string
	MiroToken   string

	OpenAIBaseURL string
	OpenAIToken   string
	OpenAIModel   string

	StripHTML     bool
	LogConfigPath string
	ParamPrefix   string
}

// Keys understood by Load. Flags bound into the same viper instance under
// these keys override the environment.
const (
	KeyEnvironment     = "environment"
	KeyListenAddr      = "listen_addr"
	KeyUpstreamTimeout = "upstream_timeout"
	KeyMiroBaseURL     = "miro_base_url"
	KeyMiroToken       = "miro_token"
	KeyOpenAIBaseURL   = "openai_base_url"
	KeyOpenAIToken     = "openai_token"
	KeyOpenAIModel     = "openai_model"
	KeyStripHTML       = "strip_html"
	KeyLogConfig       = "log_config"
	KeyParamPrefix     = "param_prefix"
)

var envBindings = map[string][]string{
	KeyEnvironment:     {"ENVIRONMENT", "APP_ENV"},
	KeyListenAddr:      {"LISTEN_ADDR"},
	KeyUpstreamTimeout: {"UPSTREAM_TIMEOUT"},
	KeyMiroBaseURL:     {"MIRO_API_BASE_URL"},
	KeyMiroToken:       {"MIRO_ACCESS_TOKEN"},
	KeyOpenAIBaseURL:   {"OPENAI_API_BASE_URL"},
	KeyOpenAIToken:     {"OPENAI_API_KEY", "OpenAI_Key"},
	KeyOpenAIModel:     {"OPENAI_MODEL"},
	KeyStripHTML:       {"STRIP_HTML"},
	KeyLogConfig:       {"LOG_CONFIG"},
	KeyParamPrefix:     {"PARAM_PREFIX"},
}

// Bind registers defaults and environment names on v.
func Bind(v *viper.Viper) error {
	v.SetDefault(KeyEnvironment, "development")
	v.SetDefault(KeyListenAddr, "127.0.0.1:8000")
	v.SetDefault(KeyUpstreamTimeout, 30*time.Second)
	v.SetDefault(KeyMiroBaseURL, "https://api.miro.com/v2")
	v.SetDefault(KeyOpenAIBaseURL, "https://api.openai.com/v1")
	v.SetDefault(KeyOpenAIModel, "gpt-4")
	v.SetDefault(KeyStripHTML, false)

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("settings: bind env %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the settings from v. Tokens are not required.
func Load(v *viper.Viper) (Settings, error) {
	if err := Bind(v); err != nil {
		return Settings{}, err
	}
	s := Settings{
		ProjectName:     ProjectName,
		ProjectVersion:  ProjectVersion,
		Environment:     strings.ToLower(strings.TrimSpace(v.GetString(KeyEnvironment))),
		ListenAddr:      strings.TrimSpace(v.GetString(KeyListenAddr)),
		UpstreamTimeout: v.GetDuration(KeyUpstreamTimeout),
		MiroBaseURL:     strings.TrimSpace(v.GetString(KeyMiroBaseURL)),
		MiroToken:       strings.TrimSpace(v.GetString(KeyMiroToken)),
		OpenAIBaseURL:   strings.TrimSpace(v.GetString(KeyOpenAIBaseURL)),
		OpenAIToken:     strings.TrimSpace(v.GetString(KeyOpenAIToken)),
		OpenAIModel:     strings.TrimSpace(v.GetString(KeyOpenAIModel)),
		StripHTML:       v.GetBool(KeyStripHTML),
		LogConfigPath:   strings.TrimSpace(v.GetString(KeyLogConfig)),
		ParamPrefix:     strings.TrimRight(strings.TrimSpace(v.GetString(KeyParamPrefix)), "/"),
	}
	if s.UpstreamTimeout <= 0 {
		return Settings{}, fmt.Errorf("settings: %s must be positive, got %q", KeyUpstreamTimeout, v.GetString(KeyUpstreamTimeout))
	}
	if s.OpenAIModel == "" {
		return Settings{}, errors.New("settings: openai model must not be empty")
	}
	return s, nil
}

// Getter is the parameter-store lookup used for secrets.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// tokenPayload is the expected JSON shape stored in SSM for an API token.
type tokenPayload struct {
	Token string `json:"token"`
}

func (s Settings) miroTokenParameter() string   { return s.ParamPrefix + "/miro-token" }
func (s Settings) openAITokenParameter() string { return s.ParamPrefix + "/open-ai-token" }

// ResolveTokens fills tokens that the environment left empty from the
// parameter store under ParamPrefix. Without a prefix it is a no-op.
func (s Settings) ResolveTokens(ctx context.Context, getter Getter) (Settings, error) {
	if s.ParamPrefix == "" {
		return s, nil
	}
	if getter == nil {
		return Settings{}, errors.New("settings: paramstore getter is nil")
	}
	if s.MiroToken == "" {
		tok, err := fetchToken(ctx, getter, s.miroTokenParameter())
		if err != nil {
			return Settings{}, fmt.Errorf("settings: miro token: %w", err)
		}
		s.MiroToken = tok
	}
	if s.OpenAIToken == "" {
		tok, err := fetchToken(ctx, getter, s.openAITokenParameter())
		if err != nil {
			return Settings{}, fmt.Errorf("settings: openai token: %w", err)
		}
		s.OpenAIToken = tok
	}
	return s, nil
}

func fetchToken(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("unmarshal paramstore token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("API token is empty")
	}
	return tp.Token, nil
}
