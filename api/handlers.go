package api

import (
	"encoding/json"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/ZhaoShanGeng/antigravity2api/lib/ident"
	"github.com/ZhaoShanGeng/antigravity2api/lib/models"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
)

// --------------------------------------------------------------------------
// Token Views
// --------------------------------------------------------------------------

// tokenView renders a record for the API: the raw token is replaced by its
// derived id, session state stays in-process.
func tokenView(salt string, r store.Record) map[string]any {
	view := make(map[string]any, len(r)+1)
	for k, v := range r {
		if k == store.KeyField || k == store.SessionField {
			continue
		}
		view[k] = v
	}
	view["id"] = ident.AccountID(salt, r.Key())
	return view
}

// findByID returns the record whose derived id matches, or nil.
func findByID(salt, id string, records []store.Record) store.Record {
	for _, r := range records {
		if key := r.Key(); key != "" && ident.AccountID(salt, key) == id {
			return r
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

// handleListTokens returns all records with derived ids.
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	salt, err := s.store.GetSalt()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	records, err := s.store.ReadAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]map[string]any, len(records))
	for i, rec := range records {
		views[i] = tokenView(salt, rec)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tokens": views})
}

// handleGetToken returns a single record by derived id.
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	salt, err := s.store.GetSalt()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	records, err := s.store.ReadAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	rec := findByID(salt, r.PathValue("id"), records)
	if rec == nil {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenView(salt, rec))
}

// handleReplaceTokens replaces the full record sequence. This is the only
// route that can introduce new tokens or shrink the set.
func (s *Server) handleReplaceTokens(w http.ResponseWriter, r *http.Request) {
	records, ok := s.decodeRecords(w, r)
	if !ok {
		return
	}
	if err := s.store.WriteAll(records); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": len(records)})
}

// handleMergeTokens merges the submitted records into the persisted set.
// Records without a persisted counterpart are ignored, not inserted.
func (s *Server) handleMergeTokens(w http.ResponseWriter, r *http.Request) {
	records, ok := s.decodeRecords(w, r)
	if !ok {
		return
	}
	if err := s.store.Merge(records, nil); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": len(records)})
}

// handleDisableToken flags a record as disabled. Records are never deleted,
// so disabling is the terminal state of a token.
func (s *Server) handleDisableToken(w http.ResponseWriter, r *http.Request) {
	salt, err := s.store.GetSalt()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	records, err := s.store.ReadAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	rec := findByID(salt, r.PathValue("id"), records)
	if rec == nil {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}

	update := store.Record{
		store.KeyField: rec.Key(),
		"disabled":     true,
	}
	if err := s.store.Merge(nil, update); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "disabled": true})
}

// handleClassifyModel maps a model name to its quota group.
func (s *Server) handleClassifyModel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"model": name,
		"group": models.Classify(name),
	})
}

// handleHealthz reports liveness and the current record count.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ReadAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tokens": len(records),
	})
}

// handleMetrics exposes all registered metrics in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics.WritePrometheus(w, true)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// decodeRecords parses a JSON record sequence from the request body. On
// failure a 400 has already been written and ok is false.
func (s *Server) decodeRecords(w http.ResponseWriter, r *http.Request) (records []store.Record, ok bool) {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid request body: expected a JSON array of records", http.StatusBadRequest)
		return nil, false
	}
	return records, true
}

// writeJSON renders v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// writeError logs an error and renders it as a JSON response.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	logger.Errorf("request failed: %v", err)
	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}
