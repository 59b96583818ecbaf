package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyed_AllowWithinBurst(t *testing.T) {
	k := New(1.0, 3)

	for i := 0; i < 3; i++ {
		if !k.Allow("a") {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}
	if k.Allow("a") {
		t.Error("request beyond burst should be denied")
	}
}

func TestKeyed_KeysAreIndependent(t *testing.T) {
	k := New(1.0, 1)

	if !k.Allow("a") {
		t.Error("first request for key a should be allowed")
	}
	if !k.Allow("b") {
		t.Error("first request for key b should be allowed despite key a being drained")
	}
}

func TestKeyed_WaitRespectsContext(t *testing.T) {
	k := New(0.1, 1)
	k.Allow("a") // drain the bucket

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := k.Wait(ctx, "a"); err == nil {
		t.Error("Wait should fail when the context expires before a token is available")
	}
}

func TestKeyed_WaitImmediate(t *testing.T) {
	k := New(10.0, 2)

	if err := k.Wait(context.Background(), "a"); err != nil {
		t.Errorf("Wait within burst should not fail: %v", err)
	}
}
