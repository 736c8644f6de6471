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


// Package embedding abstracts the vector embedding services behind the
// re-embedding pipeline.
//
// The pipeline depends only on the Embedder interface; the concrete
// providers live in sub-packages:
//
//   - embedding/ollama: local Ollama-compatible service (the default)
//   - embedding/gemini: Google Gemini batch embedding
//   - embedding/mock: deterministic test double
//
// # Batch semantics
//
// EmbedTexts sends the whole batch in one service call. Per-text failures
// that leave the rest of the batch usable are reported inside the returned
// Results; failures of the call itself come back as the error.
//
// # Error classification
//
// Callers decide between retrying and giving up using the types here: an
// *Error with Temporary() true (timeouts, throttling, server errors) is
// worth retrying, other *Error values are not, and the sentinel errors
// ErrEmptyEmbedding and ErrResultCountMismatch mark responses that will
// not improve on retry. Errors outside this package's types, such as
// transport failures, carry no verdict and are treated as retryable.
package embedding
