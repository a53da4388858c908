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
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExecutor is a canned-response Executor for testing the components
// without a network.
type stubExecutor struct {
	data  json.RawMessage
	err   error
	fn    func(query string, variables map[string]interface{}, headers map[string]string) (json.RawMessage, error)
	calls int

	lastQuery     string
	lastVariables map[string]interface{}
	lastHeaders   map[string]string
}

func (s *stubExecutor) Execute(_ context.Context, query string, variables map[string]interface{}, headers map[string]string) (json.RawMessage, error) {
	s.calls++
	s.lastQuery = query
	s.lastVariables = variables
	s.lastHeaders = headers
	if s.fn != nil {
		return s.fn(query, variables, headers)
	}
	return s.data, s.err
}

func TestLoginSuccess(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": {"token": "kraken-token-123"}}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)

	require.True(t, session.Login(context.Background()))
	assert.True(t, session.Authenticated())
	assert.Equal(t, "kraken-token-123", session.Token())

	// Credentials travel in the mutation input, with no auth header
	input := executor.lastVariables["input"].(map[string]interface{})
	assert.Equal(t, "user@example.com", input["email"])
	assert.Equal(t, "secret", input["password"])
	assert.Empty(t, executor.lastHeaders)
}

func TestLoginTransportFailure(t *testing.T) {
	executor := &stubExecutor{
		err: NewTransportError(500, GraphQLEndpoint, "request failed", nil),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)

	assert.False(t, session.Login(context.Background()))
	assert.False(t, session.Authenticated())
	assert.Empty(t, session.Token())
}

func TestLoginProviderError(t *testing.T) {
	executor := &stubExecutor{
		err: &GraphQLError{Messages: []string{"Invalid email or password."}},
	}
	session := NewSession(executor, "user@example.com", "wrong", nil)

	assert.False(t, session.Login(context.Background()))
	assert.Empty(t, session.Token())
}

func TestLoginEmptyToken(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": {"token": ""}}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)

	assert.False(t, session.Login(context.Background()))
	assert.False(t, session.Authenticated())
}

func TestLoginMalformedResponse(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": "not-an-object"}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)

	assert.False(t, session.Login(context.Background()))
}

func TestLoginAgainOverwritesToken(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": {"token": "first"}}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)

	require.True(t, session.Login(context.Background()))
	require.Equal(t, "first", session.Token())

	executor.data = json.RawMessage(`{"obtainKrakenToken": {"token": "second"}}`)
	require.True(t, session.Login(context.Background()))
	assert.Equal(t, "second", session.Token())
	assert.Equal(t, 2, executor.calls)
}

func TestFailedReloginKeepsNothing(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": {"token": "first"}}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)
	require.True(t, session.Login(context.Background()))

	// A failed re-login leaves the previous token in place; nothing in
	// the session is cleared on failure.
	executor.err = NewTransportError(0, GraphQLEndpoint, "request failed", nil)
	executor.data = nil
	assert.False(t, session.Login(context.Background()))
	assert.Equal(t, "first", session.Token())
}

func TestAuthHeaders(t *testing.T) {
	executor := &stubExecutor{
		data: json.RawMessage(`{"obtainKrakenToken": {"token": "tok"}}`),
	}
	session := NewSession(executor, "user@example.com", "secret", nil)
	require.True(t, session.Login(context.Background()))

	headers := session.authHeaders()
	// Bare token, no Bearer prefix - the provider requires this exact shape
	assert.Equal(t, map[string]string{"authorization": "tok"}, headers)
}
