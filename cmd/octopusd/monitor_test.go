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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	octopus "github.com/palbella/hass-octopus-energy"
)

// krakenStub answers each GraphQL operation with a canned response,
// keyed on the operation's distinguishing field name.
type krakenStub struct {
	loginData       json.RawMessage
	accountsData    json.RawMessage
	billingData     json.RawMessage
	consumptionData json.RawMessage
	failBilling     bool
}

func (s *krakenStub) Execute(ctx context.Context, query string, variables map[string]interface{}, headers map[string]string) (json.RawMessage, error) {
	switch {
	case strings.Contains(query, "obtainKrakenToken"):
		return s.loginData, nil
	case strings.Contains(query, "viewer"):
		return s.accountsData, nil
	case strings.Contains(query, "accountBillingInfo"):
		if s.failBilling {
			return nil, errors.New("billing unavailable")
		}
		return s.billingData, nil
	case strings.Contains(query, "measurements"):
		return s.consumptionData, nil
	}
	return nil, errors.New("unexpected query")
}

func defaultStub() *krakenStub {
	return &krakenStub{
		loginData:    json.RawMessage(`{"obtainKrakenToken": {"token": "tok"}}`),
		accountsData: json.RawMessage(`{"viewer": {"accounts": [{"number": "ES-A-001"}]}}`),
		billingData: json.RawMessage(`{"accountBillingInfo": {"ledgers": [
			{"ledgerType": "SPAIN_ELECTRICITY_LEDGER", "balance": 1250, "statementsWithDetails": {"edges": []}}
		]}}`),
		consumptionData: json.RawMessage(`{"account": {"properties": [
			{"electricitySupplyPoints": [{"cups": "ES0021000000000001JN", "measurements": {"edges": [
				{"node": {"value": "1000", "unit": "Wh", "readAt": "2024-03-01T00:00:00Z"}},
				{"node": {"value": "3000", "unit": "Wh", "readAt": "2024-03-01T12:00:00Z"}}
			]}}]}
		]}}`),
	}
}

func newTestPoller(t *testing.T, config *Config, stub *krakenStub) (*Poller, *AppState) {
	t.Helper()
	isolatedHome(t)

	state := &AppState{Accounts: make(map[string]*AccountSnapshot)}
	return NewPoller(config, stub, state, NewMetrics(), octopus.NopLogger()), state
}

func TestPollOnceDiscoversAccounts(t *testing.T) {
	config := &Config{
		Email:        "user@example.com",
		Password:     "hunter2",
		PollInterval: 30,
		Window:       WindowDay,
	}
	poller, state := newTestPoller(t, config, defaultStub())

	poller.PollOnce()

	snapshot, ok := state.Accounts["ES-A-001"]
	if !ok {
		t.Fatal("expected snapshot for discovered account ES-A-001")
	}
	if snapshot.Report == nil {
		t.Fatal("expected billing report in snapshot")
	}
	if snapshot.Report.ElectricityCredit != 12.50 {
		t.Errorf("expected electricity credit 12.50, got %f", snapshot.Report.ElectricityCredit)
	}
	if snapshot.Consumption == nil {
		t.Fatal("expected consumption in snapshot")
	}
	if snapshot.Consumption.TotalKWh != 2.0 {
		t.Errorf("expected 2.0 kWh, got %f", snapshot.Consumption.TotalKWh)
	}
	if state.LastPoll.IsZero() {
		t.Error("expected last poll timestamp to be set")
	}
}

func TestPollOnceUsesConfiguredAccounts(t *testing.T) {
	stub := defaultStub()
	// Discovery must not run when accounts are configured
	stub.accountsData = nil

	config := &Config{
		Email:        "user@example.com",
		Password:     "hunter2",
		Accounts:     []string{"ES-A-042"},
		PollInterval: 30,
		Window:       WindowDay,
	}
	poller, state := newTestPoller(t, config, stub)

	poller.PollOnce()

	if _, ok := state.Accounts["ES-A-042"]; !ok {
		t.Fatal("expected snapshot for configured account ES-A-042")
	}
}

func TestPollOnceBillingFailureKeepsConsumption(t *testing.T) {
	stub := defaultStub()
	stub.failBilling = true

	config := &Config{
		Email:        "user@example.com",
		Password:     "hunter2",
		Accounts:     []string{"ES-A-001"},
		PollInterval: 30,
		Window:       WindowDay,
	}
	poller, state := newTestPoller(t, config, stub)

	poller.PollOnce()

	snapshot, ok := state.Accounts["ES-A-001"]
	if !ok {
		t.Fatal("expected snapshot even when billing fails")
	}
	if snapshot.Report != nil {
		t.Error("expected no report when billing fails")
	}
	if snapshot.Consumption == nil || snapshot.Consumption.TotalKWh != 2.0 {
		t.Errorf("expected consumption to survive the billing failure, got %+v", snapshot.Consumption)
	}
}

func TestPollOnceLoginFailureSkipsCycle(t *testing.T) {
	stub := defaultStub()
	stub.loginData = json.RawMessage(`{"obtainKrakenToken": {"token": ""}}`)

	config := &Config{
		Email:        "user@example.com",
		Password:     "wrong",
		Accounts:     []string{"ES-A-001"},
		PollInterval: 30,
		Window:       WindowDay,
	}
	poller, state := newTestPoller(t, config, stub)

	poller.PollOnce()

	if len(state.Accounts) != 0 {
		t.Error("expected no snapshots when login fails")
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

	testCases := []struct {
		name     string
		window   string
		expected time.Time
	}{
		{
			name:     "Day window starts at midnight",
			window:   WindowDay,
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Month window starts on the first",
			window:   WindowMonth,
			expected: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			poller := &Poller{window: tc.window}
			got := poller.windowStart(now)
			if !got.Equal(tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestPollerStartStop(t *testing.T) {
	config := &Config{
		Email:        "user@example.com",
		Password:     "hunter2",
		Accounts:     []string{"ES-A-001"},
		PollInterval: 60,
		Window:       WindowDay,
	}
	poller, _ := newTestPoller(t, config, defaultStub())

	done := make(chan struct{})
	go func() {
		poller.Start()
		close(done)
	}()

	poller.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poll loop did not stop")
	}
}
