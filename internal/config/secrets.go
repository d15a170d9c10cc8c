package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/linearclockworks/shopify-serial--webhook/internal/security"
)

type ParamStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// secret resolves KEY, then KEY_ENC (sealed with TOKEN_ENC_KEY_B64), then
// KEY_SSM_PARAM (a SecureString name). Returns "" when none is set.
func secret(ctx context.Context, params ParamStore, key string) (string, error) {
	if v := env(key); v != "" {
		return v, nil
	}

	if sealed := env(key + "_ENC"); sealed != "" {
		s, err := security.NewSealer(env("TOKEN_ENC_KEY_B64"))
		if err != nil {
			return "", fmt.Errorf("%s_ENC: %w", key, err)
		}
		v, err := s.Open(sealed)
		if err != nil {
			return "", fmt.Errorf("%s_ENC: %w", key, err)
		}
		return v, nil
	}

	if name := env(key + "_SSM_PARAM"); name != "" {
		if params == nil {
			return "", fmt.Errorf("%s_SSM_PARAM set but no parameter store client", key)
		}
		out, err := params.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", fmt.Errorf("ssm get %s: %w", name, err)
		}
		if out.Parameter == nil {
			return "", fmt.Errorf("ssm get %s: empty parameter", name)
		}
		return aws.ToString(out.Parameter.Value), nil
	}
	return "", nil
}
