package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss with nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "layout:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v; want payload, true", data, hit)
	}

	// Unknown key misses without error.
	if _, hit, err := c.Get(ctx, "other"); err != nil || hit {
		t.Errorf("unknown key: hit=%v err=%v", hit, err)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("deleted key should miss")
	}
	// Deleting again is fine.
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	// Non-positive TTL means no expiration.
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry without expiration should hit")
	}

	if err := c.Set(ctx, "expiring", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "expiring"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("trace"))
	h2 := Hash([]byte("trace"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h3 := Hash([]byte("other")); h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tk := k.TraceKey("deadbeef")
	if !strings.HasPrefix(tk, "trace:") {
		t.Errorf("TraceKey = %q, want trace: prefix", tk)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{WidthPx: 1400, BinCount: 512})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{WidthPx: 1400, BinCount: 256})
	if lk1 == lk2 {
		t.Error("different layout opts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{WidthPx: 1400, BinCount: 512}) {
		t.Error("LayoutKey should be deterministic")
	}
	if k.LayoutKey("otherhash", LayoutKeyOpts{WidthPx: 1400, BinCount: 512}) == lk1 {
		t.Error("different trace hashes should produce different keys")
	}

	ak1 := k.ArtifactKey("lh", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("lh", ArtifactKeyOpts{Format: "json"})
	if ak1 == ak2 {
		t.Error("different formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	base := NewDefaultKeyer()
	scoped := NewScopedKeyer(base, "tenant:42:")

	if got := scoped.TraceKey("h"); !strings.HasPrefix(got, "tenant:42:") {
		t.Errorf("scoped key %q missing prefix", got)
	}
	if got := scoped.TraceKey("h"); strings.TrimPrefix(got, "tenant:42:") != base.TraceKey("h") {
		t.Error("scoped key should wrap the inner key unchanged")
	}

	// Nil inner falls back to the default keyer.
	fallback := NewScopedKeyer(nil, "p:")
	if got := fallback.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "p:layout:") {
		t.Errorf("fallback key = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Non-retryable errors return immediately.
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errors.New("fatal")
	})
	if err == nil || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d, want 1 call", err, calls)
	}

	// Retryable errors retry until success.
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retryable: err=%v calls=%d, want nil after 2 calls", err, calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
	if !IsRetryable(Retryable(errors.New("wrapped"))) {
		t.Error("wrapped errors are retryable")
	}
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
