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
	"fmt"
	"strings"
)

// TransportError represents a network or HTTP-level failure talking to the
// GraphQL endpoint. Failed credential exchange is never surfaced as an
// error; Login reports it as false.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error // Underlying error if any
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error (%d) at %s: %s (caused by: %v)", e.StatusCode, e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("transport error (%d) at %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(statusCode int, endpoint, message string, err error) *TransportError {
	return &TransportError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Err:        err,
	}
}

// GraphQLError represents errors reported inside a 200 response body.
// The provider signals failure with an "errors" array next to "data".
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("graphql errors: %s", strings.Join(e.Messages, ", "))
}

// StructuralError represents required account data missing from an
// otherwise well-formed response. Fatal for billing: an account without an
// electricity ledger is unusable.
type StructuralError struct {
	Account string
	Missing string // e.g. "electricity ledger"
}

func (e *StructuralError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("account %s: %s not found", e.Account, e.Missing)
	}
	return fmt.Sprintf("%s not found", e.Missing)
}

// DataError represents a malformed or missing field on the happy path.
type DataError struct {
	Path    string // JSON path of the offending field
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error at %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("data error at %s: %s", e.Path, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
