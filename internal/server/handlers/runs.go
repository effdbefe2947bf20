package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/taxongrid/arraygen/pkg/jobregistry"
)

// VersionInfo is the body returned by the version endpoint.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// VersionHandler serves static build information.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(info)
	}
}

// RunsResponse is the body returned by the run listing endpoint.
type RunsResponse struct {
	Runs []jobregistry.RunRecord `json:"runs"`
}

// ListRunsHandler serves all registered runs, newest first.
func ListRunsHandler(store *jobregistry.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := store.List()
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		if runs == nil {
			runs = []jobregistry.RunRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(RunsResponse{Runs: runs})
	}
}

// GetRunHandler serves a single run record by ID.
func GetRunHandler(store *jobregistry.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		rec, err := store.Get(runID)
		if err != nil {
			if os.IsNotExist(err) {
				respondWithError(w, r, fmt.Errorf("run %s: %w", runID, os.ErrNotExist))
				return
			}
			respondWithError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(rec)
	}
}
