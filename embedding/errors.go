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


package embedding

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyEmbedding indicates the service returned a zero-length
	// vector for an input. Retrying the same input will not help.
	ErrEmptyEmbedding = errors.New("empty embedding received")

	// ErrResultCountMismatch indicates the service returned a different
	// number of embeddings than inputs, so results cannot be attributed.
	ErrResultCountMismatch = errors.New("embedding count does not match input count")
)

// Error is a non-2xx response from an embedding service.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding service returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure is worth retrying: request
// timeouts, rate limiting, and server-side errors are; other client
// errors are not.
func (e *Error) Temporary() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}
