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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservableNotifies(t *testing.T) {
	observable := NewObservable()

	observer := observable.Subscribe()
	defer observable.Unsubscribe(observer)

	go observable.Emit()

	select {
	case <-observer.Receive():
		return
	case <-time.After(time.Second):
		t.Error("Timeout")
	}
}

func TestObservableCoalescesPendingNotifications(t *testing.T) {
	observable := NewObservable()

	observer := observable.Subscribe()
	defer observable.Unsubscribe(observer)

	for i := 0; i < 5; i++ {
		observable.Emit()
	}

	<-observer.Receive()
	select {
	case <-observer.Receive():
		t.Error("notifications should have been coalesced")
	default:
	}
}

func TestObservableUnsubscribe(t *testing.T) {
	observable := NewObservable()

	observer := observable.Subscribe()
	observable.Unsubscribe(observer)
	observable.Emit()

	select {
	case <-observer.Receive():
		t.Error("unsubscribed observer was notified")
	default:
	}
	assert.Empty(t, observable.observers)
}
