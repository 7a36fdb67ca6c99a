package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brightwash/orderdesk-backend/pkg/logger"
	"github.com/brightwash/orderdesk-backend/pkg/redis"
)

type fakeIdempotencyStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.data[key]; exists {
		return false, nil
	}
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "od:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func newSubmitRouter(store *fakeIdempotencyStore, handler http.HandlerFunc) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := chi.NewRouter()
	router.Use(Idempotency(store, logg))
	router.Post("/api/v1/drafts/{draftId}/submit", handler)
	return router
}

func submitRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/d-1/submit", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyRequiresKey(t *testing.T) {
	t.Parallel()

	router := newSubmitRouter(newFakeIdempotencyStore(), func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without an idempotency key")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, submitRequest("", "{}"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	calls := 0
	store := newFakeIdempotencyStore()
	router := newSubmitRouter(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order":{"id":"o-1"}}}`))
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, submitRequest("key-1", "{}"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, submitRequest("key-1", "{}"))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %s vs %s", second.Body.String(), first.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler must run once, ran %d times", calls)
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentPayload(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	router := newSubmitRouter(store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, submitRequest("key-1", `{"a":1}`))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, submitRequest("key-1", `{"a":2}`))

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on payload mismatch, got %d", second.Code)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	store := newFakeIdempotencyStore()
	router := newSubmitRouter(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, submitRequest("key-1", "{}"))
	if first.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, submitRequest("key-1", "{}"))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected retry to reach the handler, got %d", second.Code)
	}
	if calls != 2 {
		t.Fatalf("expected two handler runs, got %d", calls)
	}
}

func TestIdempotencyUsesCriticalTTLForSubmit(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	router := newSubmitRouter(store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, submitRequest("key-1", "{}"))

	for key, ttl := range store.ttls {
		if ttl != criticalIdempotencyTTL {
			t.Fatalf("expected critical TTL for %s, got %v", key, ttl)
		}
	}
	if len(store.ttls) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.ttls))
	}
}

func TestIdempotencyIgnoresUnmatchedRoutes(t *testing.T) {
	t.Parallel()

	store := newFakeIdempotencyStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	router := chi.NewRouter()
	router.Use(Idempotency(store, logg))
	router.Get("/api/v1/drafts/{draftId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/drafts/d-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.data) != 0 {
		t.Fatal("reads must not create idempotency records")
	}
}
