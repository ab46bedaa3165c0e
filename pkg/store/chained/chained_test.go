package chained

import (
	"context"
	"testing"
	"time"

	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store"
	"github.com/mbbsolutions/com.shovibam-sub001/pkg/store/mock"
)

func TestNew(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("expected error for empty chain")
	}

	c, err := New(mock.NewMockStore("L1"), mock.NewMockStore("L2"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestChained_L1Hit(t *testing.T) {
	l1 := mock.NewMockStore("L1")
	l2 := mock.NewMockStore("L2")
	l2.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		t.Error("L2 must not be consulted on an L1 hit")
		return nil, store.ErrKeyNotFound
	}

	c, _ := New(l1, l2)
	ctx := context.Background()

	l1.Set(ctx, "k", []byte("from-l1"), 0)

	value, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "from-l1" {
		t.Errorf("Get = %q", value)
	}
}

func TestChained_L2HitWarmsL1(t *testing.T) {
	l1 := mock.NewMockStore("L1")
	l2 := mock.NewMockStore("L2")

	c, _ := New(l1, l2)
	ctx := context.Background()

	l2.Set(ctx, "k", []byte("durable"), 0)

	value, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "durable" {
		t.Errorf("Get = %q", value)
	}

	// Warm-up must have copied the value into L1.
	warmed, err := l1.Get(ctx, "k")
	if err != nil {
		t.Fatalf("L1 not warmed: %v", err)
	}
	if string(warmed) != "durable" {
		t.Errorf("warmed value = %q", warmed)
	}

	// Once warmed, L2 is out of the read path.
	l2.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		t.Error("L2 consulted after warm-up")
		return nil, store.ErrKeyNotFound
	}
	if _, err := c.Get(ctx, "k"); err != nil {
		t.Fatalf("warmed read failed: %v", err)
	}
}

func TestChained_LayerFailureFallsThrough(t *testing.T) {
	l1 := mock.NewMockStore("L1")
	l1.GetFunc = func(ctx context.Context, key string) ([]byte, error) {
		return nil, store.ErrUnavailable
	}
	l2 := mock.NewMockStore("L2")

	c, _ := New(l1, l2)
	ctx := context.Background()

	l2.Set(ctx, "k", []byte("still-there"), 0)

	value, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get should fall through a failing layer: %v", err)
	}
	if string(value) != "still-there" {
		t.Errorf("Get = %q", value)
	}
}

func TestChained_AllMiss(t *testing.T) {
	c, _ := New(mock.NewMockStore("L1"), mock.NewMockStore("L2"))

	_, err := c.Get(context.Background(), "absent")
	if !store.IsNotFound(err) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestChained_SetWritesAllLayers(t *testing.T) {
	l1 := mock.NewMockStore("L1")
	l2 := mock.NewMockStore("L2")

	c, _ := New(l1, l2)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if l1.SetCalls() != 1 || l2.SetCalls() != 1 {
		t.Errorf("Set calls = (%d, %d), want (1, 1)", l1.SetCalls(), l2.SetCalls())
	}
}

func TestChained_SetReportsFirstErrorButContinues(t *testing.T) {
	l1 := mock.NewMockStore("L1")
	l1.SetFunc = func(ctx context.Context, key string, value []byte, ttl time.Duration) error {
		return store.ErrUnavailable
	}
	l2 := mock.NewMockStore("L2")

	c, _ := New(l1, l2)

	err := c.Set(context.Background(), "k", []byte("v"), 0)
	if err == nil {
		t.Fatal("expected error from failing layer")
	}
	if l2.SetCalls() != 1 {
		t.Error("later layers must still be attempted")
	}
}
