package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GraphQLRequest is the POST body of a GraphQL query.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse is the standard GraphQL envelope. Data is left raw so each
// caller decodes its own shape.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLError is one entry of the envelope's errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLErrors is returned when the envelope carries errors, even if data
// is also present.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

// GraphQL posts req to path and returns the envelope's data. The returned
// data is nil when the upstream sent "data": null or omitted it.
func (c *Client) GraphQL(ctx context.Context, path string, req GraphQLRequest) (json.RawMessage, error) {
	body, err := c.PostJSON(ctx, path, req)
	if err != nil {
		return nil, err
	}

	var resp GraphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal graphql envelope: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, GraphQLErrors(resp.Errors)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, nil
	}
	return resp.Data, nil
}
