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

// octopusd polls the Octopus Energy Spain API and publishes billing and
// consumption figures for home-automation consumers, over Prometheus
// metrics and a JSON status endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	octopus "github.com/palbella/hass-octopus-energy"
)

func main() {
	var email, password, configPath, window string
	var debug, jsonLogs, once, showVersion bool
	var pollInterval, listenPort int

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&email, "email", os.Getenv("OCTOPUS_EMAIL"), "Octopus Energy account email")
	flag.StringVar(&password, "password", os.Getenv("OCTOPUS_PASSWORD"), "Octopus Energy account password")
	flag.IntVar(&pollInterval, "interval", 0, "Poll interval in minutes (default: 30)")
	flag.StringVar(&window, "window", "", "Consumption window: day or month (default: day)")
	flag.IntVar(&listenPort, "port", 0, "Metrics/status listen port (default: 8080)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&jsonLogs, "json", false, "Log in JSON format")
	flag.BoolVar(&once, "once", false, "Run a single poll cycle and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("octopusd %s\n", octopus.Version())
		fmt.Printf("User-Agent: %s\n", octopus.UserAgent())
		os.Exit(0)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		os.Exit(1)
	}
	config.ApplyDefaults()

	// Command line arguments and environment variables override the config file
	if email != "" {
		config.Email = email
	}
	if password != "" {
		config.Password = password
	}
	if pollInterval > 0 {
		config.PollInterval = pollInterval
	}
	if window != "" {
		config.Window = window
	}
	if listenPort > 0 {
		config.ListenPort = listenPort
	}
	if debug {
		config.Debug = true
	}
	if jsonLogs {
		config.JSONLogs = true
	}

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Fprintf(os.Stderr, "Usage: %s -email=<email> -password=<password>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Or set environment variables: OCTOPUS_EMAIL and OCTOPUS_PASSWORD\n")
		fmt.Fprintf(os.Stderr, "Or use a configuration file with -config=<path>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var logger *octopus.Logger
	if config.JSONLogs {
		logger = octopus.NewJSONLogger(config.Debug)
	} else {
		logger = octopus.NewLogger(config.Debug)
	}

	logger.Info("Starting octopusd",
		"version", octopus.Version(),
		"interval_minutes", config.PollInterval,
		"window", config.Window,
	)

	state, err := LoadState()
	if err != nil {
		logger.Warn("Failed to load state, starting fresh", "error", err.Error())
		state = &AppState{Accounts: make(map[string]*AccountSnapshot)}
	}

	metrics := NewMetrics()
	client := octopus.NewGraphQLClient(logger, config.Debug)
	poller := NewPoller(config, client, state, metrics, logger)

	if once {
		poller.PollOnce()
		return
	}

	if !config.DisableServer {
		web := NewWebServer(config.ListenPort, state, metrics, logger)
		go func() {
			if err := web.Start(); err != nil {
				logger.Error("Web server error", "error", err.Error())
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := web.Shutdown(ctx); err != nil {
				logger.Warn("Web server shutdown error", "error", err.Error())
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		poller.Stop()
	}()

	poller.Start()
}
