// Copyright 2025 Casalio
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


package core

import "fmt"

// ValidateListing validates a Listing according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Status, when set, must be a known value
//
// NOT validated:
//   - Name/Description/DriverTitle (listings with no text are handled by
//     classification, not rejected here)
//   - Index (defaults to the repository's configured index)
func ValidateListing(listing *Listing) error {
	if listing == nil {
		return fmt.Errorf("%w: listing is nil", ErrInvalidListing)
	}

	if listing.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidListing, ErrEmptyId)
	}

	if listing.Status != "" && !listing.Status.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidListing, ErrInvalidStatus, listing.Status)
	}

	return nil
}

// ValidateAgent validates an Agent according to domain rules.
//
// Validation rules:
//   - Phone must not be empty (it doubles as the document id)
func ValidateAgent(agent *Agent) error {
	if agent == nil {
		return fmt.Errorf("%w: agent is nil", ErrInvalidAgent)
	}

	if agent.Phone == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAgent, ErrEmptyPhone)
	}

	return nil
}
