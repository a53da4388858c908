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

import "context"

const accountNumbersQuery = `query getAccountNames {
	viewer {
		accounts {
			... on Account {
				number
			}
		}
	}
}`

// Accounts lists the billing account numbers visible to the authenticated
// session. Failures propagate: calling this before Login is a caller bug,
// and a provider outage should not be masked.
func Accounts(ctx context.Context, session *Session) ([]string, error) {
	data, err := session.execute(ctx, accountNumbersQuery, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Viewer struct {
			Accounts []struct {
				Number string `json:"number"`
			} `json:"accounts"`
		} `json:"viewer"`
	}
	if err := unmarshalData(data, "viewer.accounts", &result); err != nil {
		return nil, err
	}

	numbers := make([]string, 0, len(result.Viewer.Accounts))
	for _, account := range result.Viewer.Accounts {
		if account.Number == "" {
			return nil, &DataError{Path: "viewer.accounts.number", Message: "empty account number"}
		}
		numbers = append(numbers, account.Number)
	}

	return numbers, nil
}
