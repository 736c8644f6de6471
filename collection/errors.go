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


package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested index or document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSnapshotClosed indicates Next was called on a closed cursor.
	ErrSnapshotClosed = errors.New("snapshot closed")
)

// APIError is a non-2xx response from the search engine, with the reason
// extracted from the response body when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search engine returned status %d: %s", e.StatusCode, e.Message)
}

// BulkItemError describes one rejected item inside a bulk write.
type BulkItemError struct {
	Id     string
	Status int
	Reason string
}

// BulkError reports items rejected inside an otherwise accepted bulk write.
// The accepted items were applied; the rejected ones were not.
type BulkError struct {
	Accepted int
	Items    []BulkItemError
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk write rejected %d of %d items", len(e.Items), e.Accepted+len(e.Items))
}
