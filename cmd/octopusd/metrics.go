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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	octopus "github.com/palbella/hass-octopus-energy"
)

// Metrics exposes poll results in Prometheus format
type Metrics struct {
	registry *prometheus.Registry

	solarWalletBalance  *prometheus.GaugeVec
	electricityCredit   *prometheus.GaugeVec
	lastInvoiceAmount   *prometheus.GaugeVec
	consumptionKWh      *prometheus.GaugeVec
	consumptionDegraded *prometheus.GaugeVec
	clampedSupplyPoints *prometheus.GaugeVec
	pollErrors          *prometheus.CounterVec
	lastPollTimestamp   prometheus.Gauge
}

// NewMetrics creates and registers all collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		solarWalletBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_solar_wallet_balance_euros",
			Help: "Solar wallet ledger balance in euros",
		}, []string{"account"}),
		electricityCredit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_electricity_credit_euros",
			Help: "Electricity ledger balance in euros",
		}, []string{"account"}),
		lastInvoiceAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_last_invoice_amount",
			Help: "Amount of the most recent invoice on the electricity ledger",
		}, []string{"account"}),
		consumptionKWh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_consumption_kwh",
			Help: "Electricity consumption over the configured window in kWh",
		}, []string{"account"}),
		consumptionDegraded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_consumption_degraded",
			Help: "Whether the last consumption figure was computed from partial data (1=yes, 0=no)",
		}, []string{"account"}),
		clampedSupplyPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "octopusd_consumption_clamped_supply_points",
			Help: "Supply points whose negative consumption delta was clamped to zero in the last poll",
		}, []string{"account"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "octopusd_poll_errors_total",
			Help: "Poll failures by account and stage",
		}, []string{"account", "stage"}),
		lastPollTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "octopusd_last_poll_timestamp_seconds",
			Help: "Unix timestamp of the last completed poll cycle",
		}),
	}

	m.registry.MustRegister(
		m.solarWalletBalance,
		m.electricityCredit,
		m.lastInvoiceAmount,
		m.consumptionKWh,
		m.consumptionDegraded,
		m.clampedSupplyPoints,
		m.pollErrors,
		m.lastPollTimestamp,
	)

	return m
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReport publishes a billing report for an account
func (m *Metrics) ObserveReport(account string, report *octopus.AccountReport) {
	m.solarWalletBalance.WithLabelValues(account).Set(report.SolarWallet)
	m.electricityCredit.WithLabelValues(account).Set(report.ElectricityCredit)
	if report.LastInvoice != nil {
		m.lastInvoiceAmount.WithLabelValues(account).Set(report.LastInvoice.Amount)
	}
}

// ObserveConsumption publishes a consumption result for an account
func (m *Metrics) ObserveConsumption(account string, result octopus.ConsumptionResult) {
	m.consumptionKWh.WithLabelValues(account).Set(result.TotalKWh)
	degraded := 0.0
	if result.Degraded {
		degraded = 1.0
	}
	m.consumptionDegraded.WithLabelValues(account).Set(degraded)
	m.clampedSupplyPoints.WithLabelValues(account).Set(float64(result.ClampedPoints))
}

// ObservePollError counts a poll failure
func (m *Metrics) ObservePollError(account, stage string) {
	m.pollErrors.WithLabelValues(account, stage).Inc()
}

// ObservePollComplete marks the end of a poll cycle
func (m *Metrics) ObservePollComplete() {
	m.lastPollTimestamp.SetToCurrentTime()
}
