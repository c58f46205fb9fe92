package client

import (
	"testing"
	"time"
)

func TestComputeBackoffExp(t *testing.T) {
	pol := RetryPolicy{Type: BackoffExp, Base: 100 * time.Millisecond, Cap: time.Second, Factor: 2.0}
	if d := computeBackoff(pol, 1); d != 100*time.Millisecond {
		t.Fatalf("attempt 1: %v", d)
	}
	if d := computeBackoff(pol, 2); d != 200*time.Millisecond {
		t.Fatalf("attempt 2: %v", d)
	}
	if d := computeBackoff(pol, 10); d != time.Second {
		t.Fatalf("cap: %v", d)
	}
}

func TestComputeBackoffExpJitterBounded(t *testing.T) {
	pol := RetryPolicy{Type: BackoffExpJitter, Base: 100 * time.Millisecond, Cap: time.Second, Factor: 2.0}
	for i := 0; i < 50; i++ {
		if d := computeBackoff(pol, 5); d < 0 || d > time.Second {
			t.Fatalf("jitter out of bounds: %v", d)
		}
	}
}

func TestComputeBackoffFixedAndNone(t *testing.T) {
	if d := computeBackoff(RetryPolicy{Type: BackoffFixed, Base: 50 * time.Millisecond}, 7); d != 50*time.Millisecond {
		t.Fatalf("fixed: %v", d)
	}
	if d := computeBackoff(RetryPolicy{Type: BackoffFixed, Base: time.Second, Cap: 100 * time.Millisecond}, 1); d != 100*time.Millisecond {
		t.Fatalf("fixed cap: %v", d)
	}
	if d := computeBackoff(RetryPolicy{Type: BackoffNone}, 3); d != 0 {
		t.Fatalf("none: %v", d)
	}
}

func TestComputeBackoffDefaultsBaseAndFactor(t *testing.T) {
	if d := computeBackoff(RetryPolicy{Type: BackoffExp}, 1); d != 200*time.Millisecond {
		t.Fatalf("default base: %v", d)
	}
}
