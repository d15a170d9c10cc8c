package shopify

import (
	"context"
	"fmt"
	"strings"
)

type GraphQLError struct {
	Message    string `json:"message"`
	Path       []any  `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

type GraphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// UserError is a mutation-level validation error.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// MutationError carries the userErrors of a rejected mutation, or the
// top-level errors of a failed query.
type MutationError struct {
	Op       string
	Messages []string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("shopify %s: %s", e.Op, strings.Join(e.Messages, "; "))
}

// PostGraphQL runs one Admin GraphQL operation. Transport failures and
// non-2xx answers come back as *RemoteCallError, top-level GraphQL errors as
// *MutationError.
func PostGraphQL[T any](ctx context.Context, c *Client, op, query string, variables any) (*GraphQLResponse[T], error) {
	body := map[string]any{
		"query":     query,
		"variables": variables,
	}

	var out GraphQLResponse[T]
	if err := c.do(ctx, "POST", "graphql.json", body, &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			if e.Extensions.Code != "" {
				msgs = append(msgs, e.Message+" ("+e.Extensions.Code+")")
			} else {
				msgs = append(msgs, e.Message)
			}
		}
		return nil, &MutationError{Op: op, Messages: msgs}
	}
	return &out, nil
}

func userErrorsErr(op string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			msgs = append(msgs, strings.Join(e.Field, ".")+": "+e.Message)
		} else {
			msgs = append(msgs, e.Message)
		}
	}
	return &MutationError{Op: op, Messages: msgs}
}
