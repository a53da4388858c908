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

import "time"

// GraphQLEndpoint is the Octopus Energy Spain (Kraken) GraphQL API endpoint.
// Every query and mutation in this package goes through it.
const GraphQLEndpoint = "https://api.oees-kraken.energy/v1/graphql/"

// Ledger type tags - part of the wire contract with the provider
const (
	// ElectricityLedger - the electricity charges ledger, required on every usable account
	ElectricityLedger = "SPAIN_ELECTRICITY_LEDGER"

	// SolarWalletLedger - the solar credit ledger, optional per account
	SolarWalletLedger = "SOLAR_WALLET_LEDGER"
)

// Invoice date corrections - the provider reports consumption periods as
// half-open, timezone-shifted intervals. These offsets are applied before
// truncating to a calendar date and must stay fixed for compatibility.
const (
	// InvoiceStartOffset - shift the consumption period start forward
	InvoiceStartOffset = 2 * time.Hour

	// InvoiceEndOffset - shift the consumption period end backward
	InvoiceEndOffset = -1 * time.Second
)

// Measurement settings
const (
	// MeasurementPageSize - maximum measurement records requested per supply point.
	// The provider must return the full window within one page; larger
	// windows under-count.
	MeasurementPageSize = 1000

	// WattHoursPerKilowattHour - divisor for normalising Wh readings to kWh
	WattHoursPerKilowattHour = 1000.0
)

// HTTP client settings
const (
	// HTTPClientTimeout - Maximum time for HTTP requests
	HTTPClientTimeout = 30 * time.Second
)

// Circuit breaker settings for the GraphQL transport
const (
	// BreakerInterval - closed state: reset failure counters this often
	BreakerInterval = 30 * time.Second

	// BreakerTimeout - open state: allow a probe request after this long
	BreakerTimeout = 10 * time.Second

	// BreakerHalfOpenRequests - half-open state: requests allowed through
	BreakerHalfOpenRequests = 3
)

// MinorUnitsPerEuro converts provider balances (cents) to a decimal amount.
const MinorUnitsPerEuro = 100.0
