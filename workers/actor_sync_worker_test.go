package workers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"
)

func TestActorSyncWorker_SyncOnce(t *testing.T) {
	updated := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var sinceParams []string
	var tokens []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/public/profiles" {
			http.NotFound(w, r)
			return
		}
		sinceParams = append(sinceParams, r.URL.Query().Get("since"))
		tokens = append(tokens, r.Header.Get("X-Service-Token"))
		_ = json.NewEncoder(w).Encode(GetProfileChangesResponse{Users: []RemoteProfile{
			{ExternalID: "u1", FullName: "Warung Bu Sri", Phone: "0812", Role: "Provider", UpdatedAt: updated},
			{ExternalID: "u2", Username: "budi", Role: "volunteer", UpdatedAt: updated.Add(-time.Hour)},
			{ExternalID: "u3", Role: "superuser", UpdatedAt: updated},
		}})
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	w := NewActorSyncWorker(st, srv.URL, "/api/v1/public/profiles", "svc-token", time.Minute)

	res, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Received != 3 || res.Upserted != 2 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}

	a, err := st.GetActor(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "Warung Bu Sri" || a.Role != models.RoleProvider || a.Phone != "0812" {
		t.Fatalf("actor = %+v", a)
	}
	b, _ := st.GetActor(context.Background(), "u2")
	if b.Name != "budi" {
		t.Fatalf("fallback name = %q", b.Name)
	}

	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sinceParams[0] != "0001-01-01T00:00:00Z" || sinceParams[1] != updated.Format(time.RFC3339) {
		t.Fatalf("since = %v", sinceParams)
	}
	if tokens[0] != "svc-token" {
		t.Fatalf("token = %q", tokens[0])
	}
}

func TestActorSyncWorker_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	w := NewActorSyncWorker(store.NewMemoryStore(), srv.URL, "/p", "t", 0)
	if _, err := w.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type flakyStore struct {
	*store.MemoryStore
	failFor map[string]int
}

func (f *flakyStore) UpsertActor(ctx context.Context, a *models.Actor) error {
	if f.failFor[a.ExternalUserID] > 0 {
		f.failFor[a.ExternalUserID]--
		return errors.New("connection reset")
	}
	return f.MemoryStore.UpsertActor(ctx, a)
}

func TestActorSyncWorker_RetriesFailedProfiles(t *testing.T) {
	updated := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var sinceParams []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sinceParams = append(sinceParams, r.URL.Query().Get("since"))
		_ = json.NewEncoder(w).Encode(GetProfileChangesResponse{Users: []RemoteProfile{
			{ExternalID: "u1", FullName: "Warung Bu Sri", Role: "provider", UpdatedAt: updated},
			{ExternalID: "u2", FullName: "Budi", Role: "volunteer", UpdatedAt: updated.Add(-time.Hour)},
		}})
	}))
	defer srv.Close()

	st := &flakyStore{MemoryStore: store.NewMemoryStore(), failFor: map[string]int{"u2": 1}}
	w := NewActorSyncWorker(st, srv.URL, "/p", "t", time.Minute)
	ctx := context.Background()

	res, err := w.SyncOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upserted != 1 || res.Errors != 1 {
		t.Fatalf("first batch = %+v", res)
	}

	if _, err := w.SyncOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetActor(ctx, "u2"); err != nil {
		t.Fatalf("failed profile was not retried: %v", err)
	}

	if _, err := w.SyncOnce(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"0001-01-01T00:00:00Z",
		updated.Add(-time.Hour - time.Second).Format(time.RFC3339),
		updated.Format(time.RFC3339),
	}
	for i := range want {
		if sinceParams[i] != want[i] {
			t.Fatalf("since = %v, want %v", sinceParams, want)
		}
	}
}
