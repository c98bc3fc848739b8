package ragcache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryCacheGetSet(t *testing.T) {
	c := NewInMemory()
	defer c.Close()
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("expected hit with value v, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemory()
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to be a miss")
	}
}

func TestKeyHashDeterministic(t *testing.T) {
	if KeyHash("abc") != KeyHash("abc") {
		t.Fatal("expected KeyHash to be deterministic")
	}
	if KeyHash("abc") == KeyHash("abd") {
		t.Fatal("expected different inputs to hash differently")
	}
}

func TestDocKeyAndQAKeyPrefixes(t *testing.T) {
	if got := DocKey("http://example.com/policy.pdf"); got[:4] != "doc:" {
		t.Fatalf("expected doc: prefix, got %q", got)
	}
	if got := QAKey("doc123", "what is the grace period?"); got[:3] != "qa:" {
		t.Fatalf("expected qa: prefix, got %q", got)
	}
}

func TestGetOrComputeCachesResult(t *testing.T) {
	c := NewInMemory()
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	v1, err := GetOrCompute(ctx, c, nil, "key", time.Minute, fn)
	if err != nil || string(v1) != "computed" {
		t.Fatalf("unexpected result: %q, err=%v", v1, err)
	}
	v2, err := GetOrCompute(ctx, c, nil, "key", time.Minute, fn)
	if err != nil || string(v2) != "computed" {
		t.Fatalf("unexpected result: %q, err=%v", v2, err)
	}
	if calls != 1 {
		t.Fatalf("expected fn to be called once (second call served from cache), got %d", calls)
	}
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	c := NewInMemory()
	defer c.Close()
	ctx := context.Background()

	_, err := GetOrCompute(ctx, c, nil, "key", time.Minute, func() ([]byte, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error to propagate from fn")
	}
}
