// Package paramstore reads the gateway's API tokens from AWS SSM Parameter
// Store. Settings looks up `<prefix>/miro-token` and `<prefix>/open-ai-token`
// through it when the environment leaves a token unset.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the part of *ssm.Client the token lookup needs.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Client resolves SecureString token parameters. It satisfies settings.Getter.
type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter returns the decrypted value stored under name. Token
// parameters hold a JSON document; decoding it is left to the caller.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: parameter name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: read token parameter %q: %w", name, err)
	}
	value := aws.ToString(outValue(out))
	if value == "" {
		return "", fmt.Errorf("paramstore: token parameter %q has no value", name)
	}
	return value, nil
}

func outValue(out *ssm.GetParameterOutput) *string {
	if out == nil || out.Parameter == nil {
		return nil
	}
	return out.Parameter.Value
}
