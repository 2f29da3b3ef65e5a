package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/vk/tenantgridgo/internal/tenant"
)

// BundleReply scripts the fake tenant's answer to one bundle submission.
// A zero Status means 200 OK; a non-nil Failure is returned as a 422 with
// the matching classified envelope.
type BundleReply struct {
	Status  int
	Failure tenant.Failure
}

// Accept is a BundleReply that applies the bundle.
func Accept() BundleReply { return BundleReply{} }

// Reject is a BundleReply carrying a classified 422 rejection.
func Reject(f tenant.Failure) BundleReply {
	return BundleReply{Status: http.StatusUnprocessableEntity, Failure: f}
}

// RecordedBundle is one bundle submission as the fake tenant received it.
type RecordedBundle struct {
	Bundle       tenant.Bundle
	ValidateOnly bool
	RunID        string
}

// FakeTenant is an in-process tenant API for integration tests. Inventory
// fields seed the read endpoints; Script answers bundle submissions in
// order, with every submission past the end of the script accepted.
type FakeTenant struct {
	// Objects seeds GET /api/v1/objects, keyed by family.
	Objects map[string][]tenant.RemoteObject
	// Documents seeds POST /api/v1/objects/import, keyed by family then key.
	Documents map[string]map[string]json.RawMessage
	// Settings seeds GET /api/v1/settings/{type}.
	Settings map[string]json.RawMessage
	// Features seeds GET /api/v1/features.
	Features map[string]bool
	// Script answers bundle submissions in order.
	Script []BundleReply

	mu        sync.Mutex
	submitted []RecordedBundle
	server    *httptest.Server
}

// Start brings the fake tenant up and returns its base URL. The server is
// shut down via Close.
func (f *FakeTenant) Start() string {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/objects", f.handleListObjects)
	mux.HandleFunc("POST /api/v1/objects/import", f.handleImportObjects)
	mux.HandleFunc("GET /api/v1/settings/{type}", f.handleImportSettings)
	mux.HandleFunc("GET /api/v1/features", f.handleListFeatures)
	mux.HandleFunc("POST /api/v1/bundles", f.handleSubmitBundle)

	f.server = httptest.NewServer(f.requireAuth(mux))
	return f.server.URL
}

// Close shuts the fake tenant down.
func (f *FakeTenant) Close() {
	if f.server != nil {
		f.server.Close()
	}
}

// Submitted returns the bundle submissions received so far, in order.
func (f *FakeTenant) Submitted() []RecordedBundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedBundle, len(f.submitted))
	copy(out, f.submitted)
	return out
}

// requireAuth rejects requests missing the bearer token or account header,
// mirroring the real tenant's behavior so credential wiring is exercised.
func (f *FakeTenant) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") ||
			r.Header.Get("X-Tenant-Account") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeTenant) handleListObjects(w http.ResponseWriter, r *http.Request) {
	family := r.URL.Query().Get("family")
	objects := f.Objects[family]
	if objects == nil {
		objects = []tenant.RemoteObject{}
	}
	writeJSON(w, objects)
}

func (f *FakeTenant) handleImportObjects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Family string   `json:"family"`
		Keys   []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs := make([]json.RawMessage, 0, len(req.Keys))
	for _, key := range req.Keys {
		doc, ok := f.Documents[req.Family][key]
		if !ok {
			http.Error(w, "unknown object key "+key, http.StatusNotFound)
			return
		}
		docs = append(docs, doc)
	}
	writeJSON(w, struct {
		Documents []json.RawMessage `json:"documents"`
	}{Documents: docs})
}

func (f *FakeTenant) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	doc, ok := f.Settings[r.PathValue("type")]
	if !ok {
		http.Error(w, "unknown configuration type", http.StatusNotFound)
		return
	}
	writeJSON(w, doc)
}

func (f *FakeTenant) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	features := f.Features
	if features == nil {
		features = map[string]bool{}
	}
	writeJSON(w, features)
}

func (f *FakeTenant) handleSubmitBundle(w http.ResponseWriter, r *http.Request) {
	var bundle tenant.Bundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	index := len(f.submitted)
	f.submitted = append(f.submitted, RecordedBundle{
		Bundle:       bundle,
		ValidateOnly: r.URL.Query().Get("validate_only") == "true",
		RunID:        r.Header.Get("X-Run-Id"),
	})
	reply := BundleReply{}
	if index < len(f.Script) {
		reply = f.Script[index]
	}
	f.mu.Unlock()

	switch {
	case reply.Failure != nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		body, _ := json.Marshal(reply.Failure)
		// Splice the kind discriminator into the failure's own fields.
		var fields map[string]any
		_ = json.Unmarshal(body, &fields)
		fields["kind"] = reply.Failure.FailureKind()
		_ = json.NewEncoder(w).Encode(fields)
	case reply.Status != 0:
		http.Error(w, "scripted failure", reply.Status)
	default:
		writeJSON(w, map[string]string{"status": "applied"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
