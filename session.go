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
)

const obtainTokenMutation = `mutation obtainKrakenToken($input: ObtainJSONWebTokenInput!) {
	obtainKrakenToken(input: $input) {
		token
	}
}`

// Session owns the authentication token for one set of credentials.
// The token is unset until Login succeeds and is then read-only; there is
// no refresh logic. Sessions are plain values passed to the other
// components, so multiple accounts can be used side by side without
// interference. Login must not run concurrently with token reads.
type Session struct {
	email    string
	password string
	token    string
	executor Executor
	logger   *Logger
}

// NewSession creates an unauthenticated session. Pass a nil logger to
// silence it.
func NewSession(executor Executor, email, password string, logger *Logger) *Session {
	if logger == nil {
		logger = NopLogger()
	}
	return &Session{
		email:    email,
		password: password,
		executor: executor,
		logger:   logger.WithComponent("session"),
	}
}

// Login exchanges the credentials for a token. It returns false on any
// transport or provider failure and leaves the token unset; it never
// returns an error. Calling it again re-authenticates and overwrites the
// token.
func (s *Session) Login(ctx context.Context) bool {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"email":    s.email,
			"password": s.password,
		},
	}

	data, err := s.executor.Execute(ctx, obtainTokenMutation, variables, nil)
	if err != nil {
		s.logger.Warn("Login failed", "error", err.Error())
		return false
	}

	var result struct {
		ObtainKrakenToken struct {
			Token string `json:"token"`
		} `json:"obtainKrakenToken"`
	}
	if err := unmarshalData(data, "obtainKrakenToken", &result); err != nil {
		s.logger.Warn("Login response malformed", "error", err.Error())
		return false
	}

	if result.ObtainKrakenToken.Token == "" {
		s.logger.Warn("Login returned empty token")
		return false
	}

	s.token = result.ObtainKrakenToken.Token
	s.logger.Debug("Login succeeded")
	return true
}

// Authenticated reports whether Login has succeeded
func (s *Session) Authenticated() bool {
	return s.token != ""
}

// Token returns the raw token, or the empty string before Login
func (s *Session) Token() string {
	return s.token
}

// authHeaders returns the authorization header carried on every call after
// login. The provider expects the bare token, no Bearer prefix.
func (s *Session) authHeaders() map[string]string {
	return map[string]string{
		"authorization": s.token,
	}
}

// execute runs an authenticated query through the session's transport
func (s *Session) execute(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	return s.executor.Execute(ctx, query, variables, s.authHeaders())
}
