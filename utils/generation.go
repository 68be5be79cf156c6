// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"context"
	"sync"
)

// RequestTracker tracks one class of competing requests.
//
// Each request gets a generation number from a monotonic counter, starting a request
// cancels the one in flight. A result must only be applied if its generation is still current.
type RequestTracker struct {
	lock       sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// Begin starts a new request, superseding and cancelling the previous one
func (t *RequestTracker) Begin(parent context.Context) (context.Context, uint64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	t.generation++
	return ctx, t.generation
}

// Invalidate supersedes and cancels any request in flight without starting a new one
func (t *RequestTracker) Invalidate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.generation++
}

func (t *RequestTracker) IsCurrent(generation uint64) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return generation == t.generation
}

func (t *RequestTracker) Generation() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.generation
}

// Finish releases the cancellation handle of a completed request, it is a no-op when the
// request was superseded in the meantime.
func (t *RequestTracker) Finish(generation uint64) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if generation != t.generation || t.cancel == nil {
		return
	}
	t.cancel()
	t.cancel = nil
}

// InFlight reports whether a request is pending
func (t *RequestTracker) InFlight() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.cancel != nil
}
