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
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Consumption window modes: how far back each poll aggregates
const (
	WindowDay   = "day"
	WindowMonth = "month"
)

type Config struct {
	Email         string   `yaml:"email"`
	Password      string   `yaml:"password"`
	Accounts      []string `yaml:"accounts"`
	PollInterval  int      `yaml:"poll_interval_minutes"`
	Window        string   `yaml:"consumption_window"`
	ListenPort    int      `yaml:"listen_port"`
	Debug         bool     `yaml:"debug"`
	JSONLogs      bool     `yaml:"json_logs"`
	DisableServer bool     `yaml:"disable_server"`
}

func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		PollInterval: 30,
		Window:       WindowDay,
		ListenPort:   8080,
	}

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30
	}
	if c.Window == "" {
		c.Window = WindowDay
	}
	if c.ListenPort <= 0 {
		c.ListenPort = 8080
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.Email == "" {
		errors = append(errors, "email is required")
	} else if !strings.Contains(c.Email, "@") {
		errors = append(errors, fmt.Sprintf("email does not look like an address: %s", c.Email))
	}

	if c.Password == "" {
		errors = append(errors, "password is required")
	}

	if c.Window != WindowDay && c.Window != WindowMonth {
		errors = append(errors, fmt.Sprintf("consumption window must be %q or %q, got: %q", WindowDay, WindowMonth, c.Window))
	}

	if c.PollInterval < 1 {
		errors = append(errors, fmt.Sprintf("poll interval must be at least 1 minute, got: %d", c.PollInterval))
	}
	if c.PollInterval > 1440 {
		errors = append(errors, fmt.Sprintf("poll interval seems too long (%d minutes = %.1f hours)", c.PollInterval, float64(c.PollInterval)/60.0))
	}

	if c.ListenPort < 1 || c.ListenPort > 65535 {
		errors = append(errors, fmt.Sprintf("listen port must be between 1-65535, got: %d", c.ListenPort))
	}

	for _, account := range c.Accounts {
		if account == "" {
			errors = append(errors, "accounts list contains an empty account number")
			break
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
