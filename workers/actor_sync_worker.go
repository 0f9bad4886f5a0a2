// workers/actor_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/models"
	"github.com/BreadOcT/FAR-NEW-BACKEND-sub000/store"

	"github.com/google/logger"
)

// RemoteProfile matches one entry of the profile service response.
type RemoteProfile struct {
	ExternalID    string    `json:"external_id"`
	Username      string    `json:"username"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	AccountStatus string    `json:"account_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the profile service response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// SyncResult summarizes one batch.
type SyncResult struct {
	Received int
	Upserted int
	Skipped  int
	Errors   int
}

// ActorSyncWorker mirrors names, phones and roles from the profile service
// into the local actor table so contact links and accrual rules can use them.
type ActorSyncWorker struct {
	store        store.Store
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client

	mu       sync.Mutex
	lastSeen time.Time
}

func NewActorSyncWorker(st store.Store, baseURL, endpointPath, serviceToken string, interval time.Duration) *ActorSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ActorSyncWorker{
		store:        st,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ActorSyncWorker) Start(ctx context.Context) {
	logger.Info("🔁 Starting Actor Sync Worker (profile service → actors)…")
	go w.run(ctx)
}

func (w *ActorSyncWorker) run(ctx context.Context) {
	// Initial sync from the beginning of time
	if _, err := w.SyncOnce(ctx); err != nil {
		logger.Warningf("[SYNC] ⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				logger.Errorf("[SYNC] ❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			logger.Info("⏹️ Actor Sync Worker stopped")
			return
		}
	}
}

// SyncOnce fetches changes since the newest profile seen so far and upserts them.
func (w *ActorSyncWorker) SyncOnce(ctx context.Context) (SyncResult, error) {
	w.mu.Lock()
	since := w.lastSeen
	w.mu.Unlock()

	profiles, err := w.fetch(ctx, since)
	if err != nil {
		return SyncResult{}, err
	}

	res := SyncResult{Received: len(profiles)}
	latest := since
	var retryFrom *time.Time
	for _, p := range profiles {
		role := models.Role(strings.ToLower(strings.TrimSpace(p.Role)))
		if p.ExternalID == "" || !role.Valid() {
			res.Skipped++
			logger.Warningf("[SYNC] ⚠️ Skipping profile external_id=%q role=%q", p.ExternalID, p.Role)
			if p.UpdatedAt.After(latest) {
				latest = p.UpdatedAt
			}
			continue
		}

		name := strings.TrimSpace(p.FullName)
		if name == "" {
			name = p.Username
		}
		actor := &models.Actor{
			ExternalUserID: p.ExternalID,
			Name:           name,
			Phone:          strings.TrimSpace(p.Phone),
			Role:           role,
			Tier:           models.DefaultTiers[0].Name,
		}
		if err := w.store.UpsertActor(ctx, actor); err != nil {
			res.Errors++
			logger.Warningf("[SYNC] ⚠️ Failed to upsert actor external_id=%q: %v", p.ExternalID, err)
			if retryFrom == nil || p.UpdatedAt.Before(*retryFrom) {
				failedAt := p.UpdatedAt
				retryFrom = &failedAt
			}
			continue
		}
		res.Upserted++
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}

	// Stay below the oldest failed profile so the next batch fetches it again.
	if retryFrom != nil {
		if floor := retryFrom.Add(-time.Nanosecond); floor.Before(latest) {
			latest = floor
		}
	}

	w.mu.Lock()
	if latest.After(w.lastSeen) {
		w.lastSeen = latest
	}
	w.mu.Unlock()

	if res.Received > 0 {
		logger.Infof("[SYNC] ✅ Synced %d profiles (%d upserted, %d skipped, %d errors)",
			res.Received, res.Upserted, res.Skipped, res.Errors)
	}
	return res, nil
}

func (w *ActorSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetProfileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode profile service response: %w", err)
	}
	return response.Users, nil
}
