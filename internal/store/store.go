// Package store is the local repository for research artifacts and journey
// maps: JSON documents on disk with a memory cache in front. It exposes the
// list/get operations the source-selection step needs and the write-back
// that attaches accepted insights to a journey map.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/insightmap/insightmap/internal/model"
	"github.com/insightmap/insightmap/internal/review"
)

// ErrNotFound is returned when no document exists under the requested id
var ErrNotFound = errors.New("not found")

const (
	artifactPrefix = "artifact:"
	journeyPrefix  = "journey:"
)

// Store persists documents under dir, one JSON file each, with a go-cache
// memory layer for repeated reads within a session
type Store struct {
	dir    string
	memory *gocache.Cache
}

// Open creates the store directory if needed and returns a Store
func Open(dir string, memoryTTL time.Duration) (*Store, error) {
	for _, sub := range []string{"artifacts", "journeys"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	if memoryTTL <= 0 {
		memoryTTL = 15 * time.Minute
	}
	return &Store{
		dir:    dir,
		memory: gocache.New(memoryTTL, 10*time.Minute),
	}, nil
}

// SaveArtifact writes the artifact to disk and refreshes the memory layer
func (s *Store) SaveArtifact(a *model.ResearchArtifact) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := s.write(s.artifactPath(a.ID), a); err != nil {
		return err
	}
	s.memory.SetDefault(artifactPrefix+a.ID, a)
	return nil
}

// GetArtifact loads one artifact, memory layer first
func (s *Store) GetArtifact(id string) (*model.ResearchArtifact, error) {
	if v, ok := s.memory.Get(artifactPrefix + id); ok {
		return v.(*model.ResearchArtifact), nil
	}
	var a model.ResearchArtifact
	if err := s.read(s.artifactPath(id), &a); err != nil {
		return nil, err
	}
	s.memory.SetDefault(artifactPrefix+id, &a)
	return &a, nil
}

// ListArtifacts returns all artifacts, or only those in the given folder,
// ordered by collection date then id
func (s *Store) ListArtifacts(folderID string) ([]*model.ResearchArtifact, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "artifacts"))
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	var out []*model.ResearchArtifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		a, err := s.GetArtifact(id)
		if err != nil {
			continue // Skip unreadable entries rather than failing the listing
		}
		if folderID != "" && a.FolderID != folderID {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].CollectedAt.Before(out[j].CollectedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListFolders returns the distinct folder ids present across artifacts
func (s *Store) ListFolders() ([]string, error) {
	artifacts, err := s.ListArtifacts("")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, a := range artifacts {
		if a.FolderID != "" && !seen[a.FolderID] {
			seen[a.FolderID] = true
			out = append(out, a.FolderID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SaveJourneyMap writes the map to disk and refreshes the memory layer
func (s *Store) SaveJourneyMap(m *model.JourneyMap) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := s.write(s.journeyPath(m.ID), m); err != nil {
		return err
	}
	s.memory.SetDefault(journeyPrefix+m.ID, m)
	return nil
}

// GetJourneyMap loads one journey map, memory layer first
func (s *Store) GetJourneyMap(id string) (*model.JourneyMap, error) {
	if v, ok := s.memory.Get(journeyPrefix + id); ok {
		return v.(*model.JourneyMap), nil
	}
	var m model.JourneyMap
	if err := s.read(s.journeyPath(id), &m); err != nil {
		return nil, err
	}
	s.memory.SetDefault(journeyPrefix+id, &m)
	return &m, nil
}

// ListJourneyMaps returns every stored journey map, ordered by id
func (s *Store) ListJourneyMaps() ([]*model.JourneyMap, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "journeys"))
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	var out []*model.JourneyMap
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		m, err := s.GetJourneyMap(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AttachInsights promotes accepted insights into the journey map: each gets
// a permanent id, joins the map's insight collection, and is referenced from
// its chosen cell when one was picked. The updated map is persisted and
// returned.
func (s *Store) AttachInsights(journeyID string, accepted []review.Accepted) (*model.JourneyMap, error) {
	m, err := s.GetJourneyMap(journeyID)
	if err != nil {
		return nil, fmt.Errorf("load journey map: %w", err)
	}

	for _, a := range accepted {
		placed := model.PlacedInsight{
			ID:       uuid.New().String(),
			Title:    a.Insight.Title,
			Summary:  a.Insight.Summary,
			Severity: a.Insight.Severity,
			Evidence: a.Insight.Evidence,
			Method:   a.Insight.GenerationMethod,
			CellID:   a.CellID,
		}
		m.Insights = append(m.Insights, placed)
		if a.CellID != "" {
			if cell := m.Cell(a.CellID); cell != nil {
				cell.Insights = append(cell.Insights, placed.ID)
			}
		}
	}

	if err := s.SaveJourneyMap(m); err != nil {
		return nil, fmt.Errorf("save journey map: %w", err)
	}
	return m, nil
}

func (s *Store) artifactPath(id string) string {
	return filepath.Join(s.dir, "artifacts", id+".json")
}

func (s *Store) journeyPath(id string) string {
	return filepath.Join(s.dir, "journeys", id+".json")
}

func (s *Store) write(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) read(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
