package testutil

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"consentmgr/internal/consent/models"
	id "consentmgr/pkg/domain"
)

// Route names accepted by FakeBackend.Fail and FakeBackend.Calls.
const (
	RoutePurposes = "purposes"
	RoutePurpose  = "purpose"
	RouteConsents = "consents"
	RouteUpsert   = "upsert"
	RouteBulk     = "bulk"
	RouteStats    = "stats"
	RouteHistory  = "history"
	RouteCheck    = "check"
	RouteHealth   = "health"
)

// FakeBackend is an in-memory consent backend served over httptest. It keeps
// one record per (visitor, purpose), counts calls per route and can be told
// to fail a route with a given status.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	purposes []models.Purpose
	records  map[string]map[id.PurposeID]models.ConsentRecord
	history  map[string]map[string][]models.HistoryEntry
	failures map[string]int
	calls    map[string]int
	nextID   int
}

// NewFakeBackend starts a backend serving the given catalog. The server is
// closed when the test ends.
func NewFakeBackend(t *testing.T, purposes ...models.Purpose) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		purposes: purposes,
		records:  make(map[string]map[id.PurposeID]models.ConsentRecord),
		history:  make(map[string]map[string][]models.HistoryEntry),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/api/health", fb.route(RouteHealth, fb.handleHealth))
	r.Get("/api/purposes", fb.route(RoutePurposes, fb.handlePurposes))
	r.Get("/api/purposes/{id}", fb.route(RoutePurpose, fb.handlePurpose))
	r.Get("/api/consent", fb.route(RouteConsents, fb.handleConsents))
	r.Post("/api/consent", fb.route(RouteUpsert, fb.handleUpsert))
	r.Post("/api/consent/bulk", fb.route(RouteBulk, fb.handleBulk))
	r.Get("/api/consent/stats", fb.route(RouteStats, fb.handleStats))
	r.Get("/api/consent/user/{userID}/history", fb.route(RouteHistory, fb.handleHistory))
	r.Post("/api/consent/check", fb.route(RouteCheck, fb.handleCheck))

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL is the backend root.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Fail makes route answer with status until Recover is called.
func (fb *FakeBackend) Fail(route string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[route] = status
}

// Recover clears an injected failure.
func (fb *FakeBackend) Recover(route string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	delete(fb.failures, route)
}

// Calls reports how many requests route has served, failures included.
func (fb *FakeBackend) Calls(route string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[route]
}

// Seed stores a decision as if the visitor had made it earlier.
func (fb *FakeBackend) Seed(userID string, purposeID id.PurposeID, allowed bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.store(userID, purposeID, allowed)
}

// Consents returns the stored decisions for a visitor.
func (fb *FakeBackend) Consents(userID string) models.ConsentMap {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make(models.ConsentMap)
	for pid, rec := range fb.records[userID] {
		out[pid] = rec.Status
	}
	return out
}

func (fb *FakeBackend) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.calls[name]++
		status, failing := fb.failures[name]
		fb.mu.Unlock()
		if failing {
			writeFake(w, status, map[string]string{"error": "injected failure"})
			return
		}
		next(w, r)
	}
}

func (fb *FakeBackend) purposeName(pid id.PurposeID) string {
	for _, p := range fb.purposes {
		if p.ID == pid {
			return p.Name
		}
	}
	return ""
}

// store must be called with mu held.
func (fb *FakeBackend) store(userID string, pid id.PurposeID, allowed bool) models.ConsentRecord {
	now := time.Now().UTC().Format("2006-01-02T15:04:05.000000")
	byPurpose, ok := fb.records[userID]
	if !ok {
		byPurpose = make(map[id.PurposeID]models.ConsentRecord)
		fb.records[userID] = byPurpose
	}
	rec, exists := byPurpose[pid]
	if !exists {
		fb.nextID++
		rec = models.ConsentRecord{ID: fb.nextID, UserID: userID, PurposeID: pid, CreatedAt: now}
	}
	rec.PurposeName = fb.purposeName(pid)
	rec.Status = allowed
	rec.IPAddress = "127.0.0.1"
	rec.UpdatedAt = now
	byPurpose[pid] = rec

	if fb.history[userID] == nil {
		fb.history[userID] = make(map[string][]models.HistoryEntry)
	}
	entry := models.HistoryEntry{Status: allowed, IPAddress: rec.IPAddress, UpdatedAt: now}
	fb.history[userID][rec.PurposeName] = append([]models.HistoryEntry{entry}, fb.history[userID][rec.PurposeName]...)
	return rec
}

func (fb *FakeBackend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeFake(w, http.StatusOK, models.Health{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339)})
}

func (fb *FakeBackend) handlePurposes(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := append([]models.Purpose{}, fb.purposes...)
	writeFake(w, http.StatusOK, out)
}

func (fb *FakeBackend) handlePurpose(w http.ResponseWriter, r *http.Request) {
	pid, err := id.ParsePurposeID(chi.URLParam(r, "id"))
	if err != nil {
		writeFake(w, http.StatusBadRequest, map[string]string{"error": "invalid purpose id"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, p := range fb.purposes {
		if p.ID == pid {
			writeFake(w, http.StatusOK, p)
			return
		}
	}
	writeFake(w, http.StatusNotFound, map[string]string{"error": "Purpose not found"})
}

func (fb *FakeBackend) handleConsents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeFake(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]models.ConsentRecord, 0, len(fb.records[userID]))
	for _, rec := range fb.records[userID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurposeID < out[j].PurposeID })
	writeFake(w, http.StatusOK, out)
}

func (fb *FakeBackend) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.PurposeID == 0 {
		writeFake(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	writeFake(w, http.StatusCreated, fb.store(req.UserID, req.PurposeID, req.Status))
}

func (fb *FakeBackend) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeFake(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	resp := models.BulkConsentResponse{Message: "Consents updated successfully"}
	for _, d := range req.Consents {
		resp.Consents = append(resp.Consents, fb.store(req.UserID, d.PurposeID, d.Status))
	}
	writeFake(w, http.StatusCreated, resp)
}

func (fb *FakeBackend) handleStats(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var stats models.Stats
	perPurpose := make(map[id.PurposeID]*models.PurposeStat)
	for _, p := range fb.purposes {
		perPurpose[p.ID] = &models.PurposeStat{PurposeName: p.Name}
	}
	for _, byPurpose := range fb.records {
		for pid, rec := range byPurpose {
			stats.TotalConsents++
			ps := perPurpose[pid]
			if ps != nil {
				ps.Total++
			}
			if rec.Status {
				stats.ActiveConsents++
				if ps != nil {
					ps.Active++
				}
			}
		}
	}
	stats.InactiveConsents = stats.TotalConsents - stats.ActiveConsents
	stats.ConsentRate = rate(stats.ActiveConsents, stats.TotalConsents)
	stats.ByPurpose = []models.PurposeStat{}
	for _, p := range fb.purposes {
		ps := perPurpose[p.ID]
		ps.Rate = rate(ps.Active, ps.Total)
		stats.ByPurpose = append(stats.ByPurpose, *ps)
	}
	writeFake(w, http.StatusOK, stats)
}

func (fb *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	fb.mu.Lock()
	defer fb.mu.Unlock()
	h := models.History{UserID: userID, ConsentHistory: map[string][]models.HistoryEntry{}}
	for name, entries := range fb.history[userID] {
		h.ConsentHistory[name] = append([]models.HistoryEntry{}, entries...)
	}
	writeFake(w, http.StatusOK, h)
}

func (fb *FakeBackend) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req models.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.PurposeIDs) == 0 {
		writeFake(w, http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	resp := models.CheckResponse{UserID: req.UserID, ConsentStatus: map[string]models.CheckResult{}}
	for _, pid := range req.PurposeIDs {
		name := fb.purposeName(pid)
		if name == "" {
			name = strconv.Itoa(int(pid))
		}
		rec, ok := fb.records[req.UserID][pid]
		if !ok {
			resp.ConsentStatus[name] = models.CheckResult{}
			continue
		}
		status := rec.Status
		updated := rec.UpdatedAt
		resp.ConsentStatus[name] = models.CheckResult{HasConsent: status, Status: &status, LastUpdated: &updated}
	}
	writeFake(w, http.StatusOK, resp)
}

func rate(active, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(active)/float64(total)*10000) / 100
}

func writeFake(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
