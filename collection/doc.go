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


// Package collection defines the storage abstraction over the listing
// collection.
//
// The interfaces here decouple the maintenance jobs from the search engine
// that actually holds the documents. The production implementation lives in
// collection/opensearch; tests supply in-memory fakes.
//
// # Snapshots
//
// ScanCandidates returns a Cursor backed by a server-side snapshot: the set
// of listings it yields is fixed when the cursor is opened, so writes made
// while sweeping neither hide nor repeat listings within the same sweep.
// Cursors must be closed on every exit path, including cancellation.
//
// # Bulk writes
//
// UpdateEmbeddings, UpdatePhones and BulkImport apply many documents in one
// request. A request-level failure is returned as an ordinary error; when
// the request is accepted but individual items are rejected, the error is a
// *BulkError carrying the rejected items, and the accepted items have been
// applied.
//
// # Context support
//
// All methods accept context.Context for cancellation and timeouts.
package collection
