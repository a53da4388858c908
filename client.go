// Copyright 2026 The hass-octopus-energy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package octopus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Executor is the transport collaborator: it takes GraphQL query text, a
// variables mapping and request headers, and returns the parsed "data"
// payload or an error. Session, AccountDirectory, BillingReport and
// ConsumptionAggregator are all written against this interface.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]interface{}, headers map[string]string) (json.RawMessage, error)
}

// GraphQLRequest is the JSON body posted to the endpoint
type GraphQLRequest struct {
	OperationName string                 `json:"operationName,omitempty"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQLClient is the HTTP implementation of Executor against the
// Octopus Energy Spain endpoint.
type GraphQLClient struct {
	Endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *Logger
	debug    bool
}

// NewGraphQLClient creates a transport client for the production endpoint.
// Pass a nil logger to silence it.
func NewGraphQLClient(logger *Logger, debug bool) *GraphQLClient {
	if logger == nil {
		logger = NopLogger()
	}
	return &GraphQLClient{
		Endpoint: GraphQLEndpoint,
		logger:   logger.WithComponent("graphql_client"),
		debug:    debug,
		client: &http.Client{
			Timeout: HTTPClientTimeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "octopus-graphql",
			MaxRequests: BreakerHalfOpenRequests,
			Interval:    BreakerInterval,
			Timeout:     BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 5 && failureRatio >= 0.6
			},
		}),
	}
}

// Execute posts one GraphQL request and returns the "data" payload.
// A non-2xx status or network failure yields a TransportError, a populated
// "errors" array yields a GraphQLError, and an absent or null "data" key
// yields a DataError. Retry and backoff policy is intentionally not
// implemented here.
func (c *GraphQLClient) Execute(ctx context.Context, query string, variables map[string]interface{}, headers map[string]string) (json.RawMessage, error) {
	requestBody := GraphQLRequest{
		Query:     query,
		Variables: variables,
	}

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, NewTransportError(0, c.Endpoint, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, NewTransportError(0, c.Endpoint, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent())
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	c.debugLogRequest(req.Header, bodyBytes)

	startTime := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, NewTransportError(0, c.Endpoint, "request failed", err)
		}
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewTransportError(resp.StatusCode, c.Endpoint, "failed to read response body", err)
		}

		c.debugLogResponse(resp, respBytes, time.Since(startTime).Seconds())

		if resp.StatusCode != http.StatusOK {
			return nil, NewTransportError(resp.StatusCode, c.Endpoint, "request failed", nil)
		}
		return respBytes, nil
	})
	if err != nil {
		if _, ok := err.(*TransportError); ok {
			return nil, err
		}
		// Breaker open or half-open limit exceeded
		return nil, NewTransportError(0, c.Endpoint, "circuit breaker rejected request", err)
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(result.([]byte), &parsed); err != nil {
		return nil, NewTransportError(http.StatusOK, c.Endpoint, "failed to decode response", err)
	}

	if len(parsed.Errors) > 0 {
		messages := make([]string, len(parsed.Errors))
		for i, gqlErr := range parsed.Errors {
			messages[i] = gqlErr.Message
		}
		return nil, &GraphQLError{Messages: messages}
	}

	if len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return nil, &DataError{Path: "data", Message: "missing or null"}
	}

	return parsed.Data, nil
}

// debugLogRequest logs detailed request information in debug mode
func (c *GraphQLClient) debugLogRequest(headers http.Header, bodyBytes []byte) {
	if !c.debug {
		return
	}

	// Mask sensitive headers
	maskedHeaders := make(map[string]string)
	for key, values := range headers {
		if len(values) > 0 {
			if key == "Authorization" {
				maskedHeaders[key] = maskToken(values[0])
			} else {
				maskedHeaders[key] = values[0]
			}
		}
	}

	c.logger.Debug("→ GraphQL Request",
		"url", c.Endpoint,
		"headers", maskedHeaders,
	)

	if len(bodyBytes) > 0 {
		c.logger.Debug("  Request Body", "body", truncateBody(string(bodyBytes)))
	}
}

// debugLogResponse logs detailed response information in debug mode
func (c *GraphQLClient) debugLogResponse(resp *http.Response, bodyBytes []byte, duration float64) {
	if !c.debug {
		return
	}

	c.logger.Debug("← GraphQL Response",
		"status", resp.StatusCode,
		"duration_ms", duration*1000,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if len(bodyBytes) > 0 {
		c.logger.Debug("  Response Body", "body", truncateBody(string(bodyBytes)))
	}
}

// maskToken shows only the first and last few characters of an auth token
func maskToken(val string) string {
	if len(val) > 12 {
		return val[:6] + "..." + val[len(val)-4:]
	}
	return "***"
}

func truncateBody(body string) string {
	if len(body) > 500 {
		return body[:500] + "... (truncated)"
	}
	return body
}

// unmarshalData decodes a "data" payload into a typed response structure,
// converting decode failures into a single well-defined DataError.
func unmarshalData(data json.RawMessage, path string, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DataError{Path: path, Message: fmt.Sprintf("unexpected shape: %v", err), Err: err}
	}
	return nil
}
