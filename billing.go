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
	"time"
)

const billingInfoQuery = `query ($account: String!) {
	accountBillingInfo(accountNumber: $account) {
		ledgers {
			ledgerType
			statementsWithDetails(first: 1) {
				edges {
					node {
						amount
						consumptionStartDate
						consumptionEndDate
						issuedDate
					}
				}
			}
			balance
		}
	}
}`

// Invoice is the most recent invoice on the electricity ledger. All three
// dates are calendar dates (midnight, provider timezone preserved).
type Invoice struct {
	Amount float64   `json:"amount"`
	Issued time.Time `json:"issued"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// AccountReport is the normalized monetary summary for one account.
// LastInvoice is nil when the electricity ledger has no invoice history.
type AccountReport struct {
	SolarWallet       float64  `json:"solar_wallet"`
	ElectricityCredit float64  `json:"electricity_credit"`
	LastInvoice       *Invoice `json:"last_invoice,omitempty"`
}

type billingLedger struct {
	LedgerType            string  `json:"ledgerType"`
	Balance               float64 `json:"balance"`
	StatementsWithDetails struct {
		Edges []struct {
			Node struct {
				Amount               float64 `json:"amount"`
				ConsumptionStartDate string  `json:"consumptionStartDate"`
				ConsumptionEndDate   string  `json:"consumptionEndDate"`
				IssuedDate           string  `json:"issuedDate"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"statementsWithDetails"`
}

// Report fetches ledger balances and the most recent invoice for one
// account. A missing electricity ledger is a StructuralError: the account
// is unusable without it. A missing solar wallet ledger is normal and
// reports a zero balance. Transport and shape failures propagate; a wrong
// financial figure is worse than a missing one.
func Report(ctx context.Context, session *Session, account string) (*AccountReport, error) {
	data, err := session.execute(ctx, billingInfoQuery, map[string]interface{}{
		"account": account,
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		AccountBillingInfo struct {
			Ledgers []billingLedger `json:"ledgers"`
		} `json:"accountBillingInfo"`
	}
	if err := unmarshalData(data, "accountBillingInfo.ledgers", &result); err != nil {
		return nil, err
	}

	var electricity *billingLedger
	var solarWallet *billingLedger
	for i := range result.AccountBillingInfo.Ledgers {
		ledger := &result.AccountBillingInfo.Ledgers[i]
		switch ledger.LedgerType {
		case ElectricityLedger:
			if electricity == nil {
				electricity = ledger
			}
		case SolarWalletLedger:
			if solarWallet == nil {
				solarWallet = ledger
			}
		}
	}

	if electricity == nil {
		return nil, &StructuralError{Account: account, Missing: "electricity ledger"}
	}

	report := &AccountReport{
		ElectricityCredit: electricity.Balance / MinorUnitsPerEuro,
	}
	if solarWallet != nil {
		report.SolarWallet = solarWallet.Balance / MinorUnitsPerEuro
	}

	edges := electricity.StatementsWithDetails.Edges
	if len(edges) == 0 {
		return report, nil
	}

	node := edges[0].Node

	issued, err := parseProviderTime(node.IssuedDate)
	if err != nil {
		return nil, &DataError{Path: "statementsWithDetails.issuedDate", Message: "unparseable date", Err: err}
	}
	start, err := parseProviderTime(node.ConsumptionStartDate)
	if err != nil {
		return nil, &DataError{Path: "statementsWithDetails.consumptionStartDate", Message: "unparseable date", Err: err}
	}
	end, err := parseProviderTime(node.ConsumptionEndDate)
	if err != nil {
		return nil, &DataError{Path: "statementsWithDetails.consumptionEndDate", Message: "unparseable date", Err: err}
	}

	report.LastInvoice = &Invoice{
		Amount: node.Amount,
		Issued: toDate(issued),
		Start:  toDate(start.Add(InvoiceStartOffset)),
		End:    toDate(end.Add(InvoiceEndOffset)),
	}

	return report, nil
}

// parseProviderTime accepts the timestamp shapes the provider has been
// seen to emit: RFC3339, a naive datetime, or a bare date.
func parseProviderTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// toDate truncates a timestamp to its calendar date
func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
