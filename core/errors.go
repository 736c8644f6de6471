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

import "errors"

// Domain validation errors
var (
	// ErrInvalidListing indicates a Listing failed validation.
	ErrInvalidListing = errors.New("invalid listing")

	// ErrInvalidAgent indicates an Agent failed validation.
	ErrInvalidAgent = errors.New("invalid agent")

	// ErrEmptyId indicates the Id field is empty.
	ErrEmptyId = errors.New("id cannot be empty")

	// ErrEmptyPhone indicates the agent Phone field is empty.
	ErrEmptyPhone = errors.New("phone cannot be empty")

	// ErrInvalidStatus indicates an unknown EmbeddingStatus value.
	ErrInvalidStatus = errors.New("invalid embedding status")
)
