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
	"time"

	octopus "github.com/palbella/hass-octopus-energy"
)

// Poller drives the periodic fetch cycle: login, enumerate accounts, pull
// the billing report and consumption for each, publish to metrics and the
// state snapshot. One account failing never stops the others.
type Poller struct {
	session  *octopus.Session
	accounts []string // explicit list from config; empty means discover
	window   string
	interval time.Duration
	state    *AppState
	metrics  *Metrics
	logger   *octopus.Logger
	stopCh   chan struct{}
}

func NewPoller(config *Config, executor octopus.Executor, state *AppState, metrics *Metrics, logger *octopus.Logger) *Poller {
	return &Poller{
		session:  octopus.NewSession(executor, config.Email, config.Password, logger),
		accounts: config.Accounts,
		window:   config.Window,
		interval: time.Duration(config.PollInterval) * time.Minute,
		state:    state,
		metrics:  metrics,
		logger:   logger.WithComponent("poller"),
		stopCh:   make(chan struct{}),
	}
}

// Start runs the poll loop until Stop is called. The first poll happens
// immediately.
func (p *Poller) Start() {
	p.logger.Info("Starting poll loop", "interval", p.interval.String(), "window", p.window)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce()

	for {
		select {
		case <-ticker.C:
			p.PollOnce()
		case <-p.stopCh:
			p.logger.Info("Stopping poll loop")
			return
		}
	}
}

func (p *Poller) Stop() {
	close(p.stopCh)
}

// PollOnce runs a single poll cycle
func (p *Poller) PollOnce() {
	ctx := context.Background()
	start := time.Now()

	// Re-login every cycle; tokens have no refresh path, so a fresh one
	// per cycle keeps long-running daemons off expired credentials.
	if !p.session.Login(ctx) {
		p.logger.Error("Login failed, skipping poll cycle")
		p.metrics.ObservePollError("", "login")
		return
	}

	accounts := p.accounts
	if len(accounts) == 0 {
		discovered, err := octopus.Accounts(ctx, p.session)
		if err != nil {
			p.logger.Error("Account discovery failed, skipping poll cycle", "error", err.Error())
			p.metrics.ObservePollError("", "accounts")
			return
		}
		accounts = discovered
	}

	windowStart := p.windowStart(time.Now())

	for _, account := range accounts {
		p.pollAccount(ctx, account, windowStart)
	}

	p.metrics.ObservePollComplete()
	if err := p.state.Save(); err != nil {
		p.logger.Warn("Failed to save state", "error", err.Error())
	}

	p.logger.Info("Poll cycle complete",
		"accounts", len(accounts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (p *Poller) pollAccount(ctx context.Context, account string, windowStart time.Time) {
	logger := p.logger.WithAccount(account)
	snapshot := &AccountSnapshot{
		WindowStart: windowStart,
		UpdatedAt:   time.Now(),
	}

	report, err := octopus.Report(ctx, p.session, account)
	if err != nil {
		// Billing failures propagate from the library and are surfaced
		// here instead of being papered over with defaults.
		logger.Error("Billing report failed", "error", err.Error())
		p.metrics.ObservePollError(account, "billing")
	} else {
		snapshot.Report = report
		p.metrics.ObserveReport(account, report)
		logger.Debug("Billing report fetched",
			"electricity_credit", report.ElectricityCredit,
			"solar_wallet", report.SolarWallet,
			"has_invoice", report.LastInvoice != nil,
		)
	}

	// Consumption never fails; degradation is carried in the result
	consumption := octopus.Consumption(ctx, p.session, account, windowStart)
	snapshot.Consumption = &consumption
	p.metrics.ObserveConsumption(account, consumption)
	if consumption.Degraded {
		p.metrics.ObservePollError(account, "consumption_degraded")
	}
	logger.Info("Consumption updated",
		"total_kwh", consumption.TotalKWh,
		"degraded", consumption.Degraded,
		"window_start", windowStart.Format(time.RFC3339),
	)

	p.state.SetSnapshot(account, snapshot)
}

// windowStart returns the inclusive start of the consumption window for
// the configured mode; the end is always now.
func (p *Poller) windowStart(now time.Time) time.Time {
	switch p.window {
	case WindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}
