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


// Package report summarizes embedding coverage across the listing
// collection.
//
// Every number in a Summary comes from live counts against the index, so
// the report stays correct even when the re-embedding progress file is
// stale, deleted, or belongs to an interrupted run. The progress file is
// attached for reference only.
package report
