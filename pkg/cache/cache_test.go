package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	want := bytes.Repeat([]byte{0xff}, 4096)
	if err := c.Set(ctx, "label:abc", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "label:abc")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v, err %v", hit, err)
	}
	if !bytes.Equal(got, want) {
		t.Error("round trip changed data")
	}

	if err := c.Delete(ctx, "label:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "label:abc"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "label:abc"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheCompresses(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	data := bytes.Repeat([]byte{0xff}, 64*1024)
	if err := c.Set(ctx, "k", data, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(c.path("k"))
	if err != nil {
		t.Fatalf("stat entry: %v", err)
	}
	if info.Size() >= int64(len(data))/4 {
		t.Errorf("entry is %d bytes, expected compression of %d bytes", info.Size(), len(data))
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not zstd"), 0644); err != nil {
		t.Fatal(err)
	}
	_, hit, err := c.Get(ctx, "k")
	if err != nil || hit {
		t.Errorf("corrupt entry: hit %v, err %v; want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	for i := 0; i < 5; i++ {
		if err := c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestFileCacheConcurrent(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			_ = c.Set(ctx, key, []byte(key), 0)
			if data, hit, err := c.Get(ctx, key); err != nil || (hit && string(data) != key) {
				t.Errorf("Get(%s) = %q, %v, %v", key, data, hit, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestHashStrings(t *testing.T) {
	if HashStrings([]string{"ab", "c"}) == HashStrings([]string{"a", "bc"}) {
		t.Error("element boundaries should change the hash")
	}
	if HashStrings([]string{"a", "b"}) == HashStrings([]string{"b", "a"}) {
		t.Error("order should change the hash")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := LabelKeyOpts{Name: "M3 Bolt", Level: "low", SymbolDim: 300, Width: 300, Height: 375, FontHash: "f"}

	lk := k.LabelKey("http://x/item/1", base)
	if !strings.HasPrefix(lk, "label:") {
		t.Errorf("LabelKey = %q, want label: prefix", lk)
	}
	if lk != k.LabelKey("http://x/item/1", base) {
		t.Error("LabelKey should be deterministic")
	}

	variants := []struct {
		name string
		opts LabelKeyOpts
	}{
		{"name", LabelKeyOpts{Name: "M4 Bolt", Level: "low", SymbolDim: 300, Width: 300, Height: 375, FontHash: "f"}},
		{"level", LabelKeyOpts{Name: "M3 Bolt", Level: "high", SymbolDim: 300, Width: 300, Height: 375, FontHash: "f"}},
		{"height", LabelKeyOpts{Name: "M3 Bolt", Level: "low", SymbolDim: 300, Width: 300, Height: 400, FontHash: "f"}},
		{"font", LabelKeyOpts{Name: "M3 Bolt", Level: "low", SymbolDim: 300, Width: 300, Height: 375, FontHash: "g"}},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			if k.LabelKey("http://x/item/1", v.opts) == lk {
				t.Errorf("changing %s should change the key", v.name)
			}
		})
	}
	if k.LabelKey("http://x/item/2", base) == lk {
		t.Error("changing payload should change the key")
	}

	sk1 := k.SheetKey("h", SheetKeyOpts{Columns: 8, DPI: 300})
	sk2 := k.SheetKey("h", SheetKeyOpts{Columns: 7, DPI: 300})
	if sk1 == sk2 || !strings.HasPrefix(sk1, "sheet:") {
		t.Errorf("SheetKey: %q vs %q", sk1, sk2)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "v1.0.0:")

	opts := LabelKeyOpts{Name: "n"}
	if got, want := scoped.LabelKey("p", opts), "v1.0.0:"+inner.LabelKey("p", opts); got != want {
		t.Errorf("LabelKey = %q, want %q", got, want)
	}
	if got := scoped.SheetKey("h", SheetKeyOpts{}); !strings.HasPrefix(got, "v1.0.0:sheet:") {
		t.Errorf("SheetKey = %q", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.LabelKey("p", opts); got != "p:"+inner.LabelKey("p", opts) {
		t.Errorf("nil inner LabelKey = %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrBackend)
	if !IsRetryable(err) {
		t.Error("IsRetryable should be true for wrapped error")
	}
	if !errors.Is(err, ErrBackend) {
		t.Error("wrapped error should unwrap to ErrBackend")
	}
	if err.Error() != ErrBackend.Error() {
		t.Errorf("message changed: %s", err)
	}
	if IsRetryable(ErrBackend) {
		t.Error("unwrapped error should not be retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond
	ctx := context.Background()
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"permanent", 5, permanent, 1, permanent},
		{"recovers", 1, Retryable(ErrBackend), 2, nil},
		{"exhausted", 5, Retryable(ErrBackend), 3, ErrBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}
	if err := classify(netErr); !IsRetryable(err) || !errors.Is(err, ErrBackend) {
		t.Errorf("network error: %v", err)
	}
	if err := classify(errors.New("WRONGTYPE")); IsRetryable(err) || !errors.Is(err, ErrBackend) {
		t.Errorf("protocol error: %v", err)
	}
}

// TestRedisCache runs against a live server when LABELSHEET_TEST_REDIS is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("LABELSHEET_TEST_REDIS")
	if addr == "" {
		t.Skip("LABELSHEET_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "labelsheet-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("missing key: hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "labelsheet-test:")
	defer c.Close()

	ctx := context.Background()
	if _, hit, err := c.Get(ctx, "k"); !errors.Is(err, ErrBackend) || hit {
		t.Errorf("Get: hit %v, err %v; want ErrBackend miss", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, ErrBackend) {
		t.Errorf("Set: err %v, want ErrBackend", err)
	}
}
