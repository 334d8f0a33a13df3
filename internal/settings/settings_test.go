package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	s, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "IBC Miro 🔥", s.ProjectName)
	require.Equal(t, "1.0.0", s.ProjectVersion)
	require.Equal(t, "development", s.Environment)
	require.Equal(t, "127.0.0.1:8000", s.ListenAddr)
	require.Equal(t, 30*time.Second, s.UpstreamTimeout)
	require.Equal(t, "https://api.miro.com/v2", s.MiroBaseURL)
	require.Equal(t, "https://api.openai.com/v1", s.OpenAIBaseURL)
	require.Equal(t, "gpt-4", s.OpenAIModel)
	require.False(t, s.StripHTML)
	require.Empty(t, s.ParamPrefix)
}

func TestLoad_MissingTokensAreNotAnError(t *testing.T) {
	clearEnv(t)
	s, err := Load(viper.New())
	require.NoError(t, err)
	require.Empty(t, s.MiroToken)
	require.Empty(t, s.OpenAIToken)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("MIRO_ACCESS_TOKEN", "miro-secret")
	t.Setenv("OPENAI_API_KEY", "sk-secret")
	t.Setenv("ENVIRONMENT", " Production ")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("MIRO_API_BASE_URL", "http://miro.local/v2")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("STRIP_HTML", "true")
	t.Setenv("PARAM_PREFIX", "/miro-gateway/")

	s, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "miro-secret", s.MiroToken)
	require.Equal(t, "sk-secret", s.OpenAIToken)
	require.Equal(t, "production", s.Environment)
	require.Equal(t, 5*time.Second, s.UpstreamTimeout)
	require.Equal(t, "http://miro.local/v2", s.MiroBaseURL)
	require.Equal(t, "gpt-4o", s.OpenAIModel)
	require.True(t, s.StripHTML)
	require.Equal(t, "/miro-gateway", s.ParamPrefix)
}

func TestLoad_LegacyOpenAIKeyName(t *testing.T) {
	clearEnv(t)
	t.Setenv("OpenAI_Key", "sk-legacy")
	s, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "sk-legacy", s.OpenAIToken)
}

func TestLoad_AppEnvAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "staging")
	s, err := Load(viper.New())
	require.NoError(t, err)
	require.Equal(t, "staging", s.Environment)
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "0.0.0.0:9000")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("listen", "", "")
	require.NoError(t, fs.Parse([]string{"--listen", "127.0.0.1:7000"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag(KeyListenAddr, fs.Lookup("listen")))
	s, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7000", s.ListenAddr)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	_, err := Load(viper.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream_timeout")
}

// ---------------------------------------------------------------------------
// ResolveTokens
// ---------------------------------------------------------------------------

type fakeGetter struct {
	vals  map[string]string
	err   error
	calls []string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", f.err
	}
	return f.vals[name], nil
}

func TestResolveTokens_NoPrefixIsNoop(t *testing.T) {
	in := Settings{MiroToken: ""}
	out, err := in.ResolveTokens(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestResolveTokens_FillsMissingOnly(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{
		"/gw/miro-token":    `{"token":"miro-from-ssm"}`,
		"/gw/open-ai-token": `{"token":"sk-from-ssm"}`,
	}}
	in := Settings{ParamPrefix: "/gw", OpenAIToken: "sk-from-env"}
	out, err := in.ResolveTokens(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, "miro-from-ssm", out.MiroToken)
	require.Equal(t, "sk-from-env", out.OpenAIToken)
	require.Equal(t, []string{"/gw/miro-token"}, g.calls)
}

func TestResolveTokens_Errors(t *testing.T) {
	cases := []struct {
		name   string
		getter Getter
		want   string
	}{
		{name: "nil getter", getter: nil, want: "nil"},
		{name: "getter error", getter: &fakeGetter{err: errors.New("ssm unavailable")}, want: "ssm unavailable"},
		{name: "malformed json", getter: &fakeGetter{vals: map[string]string{"/gw/miro-token": `{"broken`}}, want: "unmarshal"},
		{name: "missing token field", getter: &fakeGetter{vals: map[string]string{"/gw/miro-token": `{"other":"value"}`}}, want: "API token is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Settings{ParamPrefix: "/gw"}.ResolveTokens(context.Background(), tc.getter)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
