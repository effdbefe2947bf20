package jobregistry

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registry manages run lifecycle on top of a Store.
//
// Legal transitions:
//
//	planned -> generated -> validated | partial
//	any     -> failed
type Registry struct {
	store *Store
}

func NewRegistry(root string) *Registry {
	return &Registry{store: NewStore(root)}
}

func (r *Registry) Store() *Store {
	return r.store
}

// GenerationInfo carries what the generation step produced for a run.
type GenerationInfo struct {
	ArrayManifestPath string
	ScriptPath        string
	MergeScriptPath   string
	TotalItems        int
	SlotCount         int
}

// Create registers a new planned run and returns its record.
func (r *Registry) Create(name, manifestPath, outputDir string) (*RunRecord, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("registry is not initialized")
	}
	manifestPath = strings.TrimSpace(manifestPath)
	if manifestPath == "" {
		return nil, fmt.Errorf("manifest path is required")
	}
	absManifest, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}

	now := time.Now().UTC()
	rec := &RunRecord{
		RunID:        uuid.New().String(),
		Name:         strings.TrimSpace(name),
		State:        RunStatePlanned,
		ManifestPath: absManifest,
		OutputDir:    strings.TrimSpace(outputDir),
		CreatedAt:    now,
	}
	if err := r.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkGenerated transitions a planned run to generated and records the
// files and counts the generation step produced.
func (r *Registry) MarkGenerated(runID string, info GenerationInfo) (*RunRecord, error) {
	rec, err := r.store.Get(runID)
	if err != nil {
		return nil, err
	}
	if rec.State != RunStatePlanned {
		return nil, fmt.Errorf("run %s is %s, expected %s", runID, rec.State, RunStatePlanned)
	}

	now := time.Now().UTC()
	rec.State = RunStateGenerated
	rec.ArrayManifestPath = info.ArrayManifestPath
	rec.ScriptPath = info.ScriptPath
	rec.MergeScriptPath = info.MergeScriptPath
	rec.TotalItems = info.TotalItems
	rec.SlotCount = info.SlotCount
	rec.GeneratedAt = &now

	if err := r.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkValidated transitions a generated run to validated when the run
// produced every expected artifact, or partial when some were missing.
func (r *Registry) MarkValidated(runID string, success bool, artifacts, errCount int) (*RunRecord, error) {
	rec, err := r.store.Get(runID)
	if err != nil {
		return nil, err
	}
	if rec.State != RunStateGenerated {
		return nil, fmt.Errorf("run %s is %s, expected %s", runID, rec.State, RunStateGenerated)
	}

	now := time.Now().UTC()
	if success {
		rec.State = RunStateValidated
	} else {
		rec.State = RunStatePartial
	}
	rec.Artifacts = artifacts
	rec.Errors = errCount
	rec.ValidatedAt = &now

	if err := r.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkFailed moves a run to failed from any state.
func (r *Registry) MarkFailed(runID string) (*RunRecord, error) {
	rec, err := r.store.Get(runID)
	if err != nil {
		return nil, err
	}
	rec.State = RunStateFailed
	if err := r.store.Write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
