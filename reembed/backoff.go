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


package reembed

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultRetryDelay is the base delay before the first retry.
	DefaultRetryDelay = 5 * time.Second

	// DefaultMaxRetryDelay caps the exponential growth.
	DefaultMaxRetryDelay = 60 * time.Second
)

// Backoff computes retry delays: base * 2^(attempt-1), capped at max, with
// multiplicative jitter so synchronized clients spread out. It only
// computes delays; callers decide how to wait.
type Backoff struct {
	base time.Duration
	max  time.Duration
}

// NewBackoff creates a backoff schedule. Non-positive base or max fall
// back to the defaults; a max below base is raised to base.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = DefaultRetryDelay
	}
	if max <= 0 {
		max = DefaultMaxRetryDelay
	}
	if max < base {
		max = base
	}
	return &Backoff{base: base, max: max}
}

// Delay returns the wait before retry number attempt (1-based). The
// returned value is drawn uniformly from [d/2, d) where d is the capped
// exponential delay.
func (b *Backoff) Delay(attempt int) (time.Duration, error) {
	if attempt <= 0 {
		return 0, ErrInvalidAttempt
	}

	delay := b.base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.max {
			delay = b.max
			break
		}
	}

	jitter := 0.5 + rand.Float64()/2
	return time.Duration(float64(delay) * jitter), nil
}
