package draft

import (
	"context"
	"testing"
	"time"

	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
	"github.com/brightwash/orderdesk-backend/pkg/redis"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return value, nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) DraftKey(draftID string) string {
	return "od:draft:" + draftID
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	store, err := NewRedisStore(kv, 12*time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	d := &Draft{ID: "d-1", CustomerID: "C1", Items: []Line{pricedLine("l-1", "10")}}
	if err := store.Save(context.Background(), d); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.ttls["od:draft:d-1"] != 12*time.Hour {
		t.Fatalf("expected 12h ttl, got %s", kv.ttls["od:draft:d-1"])
	}

	loaded, err := store.Get(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.CustomerID != "C1" || len(loaded.Items) != 1 {
		t.Fatalf("unexpected draft: %+v", loaded)
	}
	if !loaded.Items[0].QuotedSubtotal.Equal(*d.Items[0].QuotedSubtotal) {
		t.Fatal("quoted subtotal did not survive the round trip")
	}

	if err := store.Delete(context.Background(), "d-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = store.Get(context.Background(), "d-1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	d := &Draft{ID: "d-1", CustomerID: "C1"}
	if err := store.Save(context.Background(), d); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Get(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	loaded.CustomerID = "mutated"

	again, err := store.Get(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.CustomerID != "C1" {
		t.Fatal("store must return independent copies")
	}
}
