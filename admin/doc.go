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


// Package admin holds the one-shot maintenance jobs that run alongside the
// re-embedding pipeline: phone number normalization across the listing
// indexes, agent imports from cluster export files, and listing index
// template installation.
//
// Each job is a single pass with its own progress reporting; unlike the
// re-embedding pipeline none of them keeps resumable state, because a
// re-run from scratch is cheap and idempotent.
package admin
