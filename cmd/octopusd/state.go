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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	octopus "github.com/palbella/hass-octopus-energy"
)

// AccountSnapshot is the last successful poll result for one account
type AccountSnapshot struct {
	Report      *octopus.AccountReport     `json:"report,omitempty"`
	Consumption *octopus.ConsumptionResult `json:"consumption,omitempty"`
	WindowStart time.Time                  `json:"window_start"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// AppState is persisted between runs so /status has data before the first
// poll completes. The core library itself never persists anything; this is
// daemon-side convenience only.
type AppState struct {
	mu sync.RWMutex

	Accounts    map[string]*AccountSnapshot `json:"accounts"`
	LastPoll    time.Time                   `json:"last_poll"`
	LastUpdated time.Time                   `json:"last_updated"`
}

func getStateFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "octopusd")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "state.json"), nil
}

func LoadState() (*AppState, error) {
	statePath, err := getStateFilePath()
	if err != nil {
		return nil, err
	}

	// If file doesn't exist, return empty state
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return &AppState{
			Accounts:    make(map[string]*AccountSnapshot),
			LastUpdated: time.Now(),
		}, nil
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Accounts == nil {
		state.Accounts = make(map[string]*AccountSnapshot)
	}

	return &state, nil
}

func (s *AppState) Save() error {
	statePath, err := getStateFilePath()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.LastUpdated = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(statePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// SetSnapshot records a poll result for an account
func (s *AppState) SetSnapshot(account string, snapshot *AccountSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounts[account] = snapshot
	s.LastPoll = snapshot.UpdatedAt
}

// SnapshotView returns a copy of the current snapshots for serving
func (s *AppState) SnapshotView() map[string]AccountSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := make(map[string]AccountSnapshot, len(s.Accounts))
	for account, snapshot := range s.Accounts {
		view[account] = *snapshot
	}
	return view
}
