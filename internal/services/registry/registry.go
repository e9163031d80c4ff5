// Package registry keeps the gallery of enrolled face embeddings in memory,
// backed by the face repository for persistence.
package registry

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"camerahub/internal/logger"
	"camerahub/internal/models"
	"camerahub/internal/repository"
)

// Registry caches enrolled embeddings by name and answers nearest-match
// queries against them.
type Registry struct {
	repo   repository.FaceRepository
	logger *logger.Logger

	mu    sync.RWMutex
	cache map[string][]models.Embedding
}

// New creates a Registry and loads the gallery from storage.
func New(repo repository.FaceRepository, log *logger.Logger) (*Registry, error) {
	r := &Registry{
		repo:   repo,
		logger: log,
		cache:  make(map[string][]models.Embedding),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the in-memory gallery from persistent storage.
func (r *Registry) Reload() error {
	faces, err := r.repo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load face gallery: %w", err)
	}

	cache := make(map[string][]models.Embedding)
	for _, face := range faces {
		cache[face.Name] = append(cache[face.Name], face.Embedding)
	}

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()

	r.logger.Info("Face gallery loaded: %d identities, %d embeddings", len(cache), len(faces))
	return nil
}

// Enroll persists an embedding under a name and adds it to the gallery.
func (r *Registry) Enroll(name string, embedding models.Embedding) error {
	if name == "" {
		return fmt.Errorf("enrollment requires a name")
	}
	if len(embedding) != models.EmbeddingSize {
		return fmt.Errorf("unexpected embedding length %d", len(embedding))
	}

	if _, err := r.repo.Insert(name, embedding); err != nil {
		return err
	}

	r.mu.Lock()
	r.cache[name] = append(r.cache[name], embedding)
	r.mu.Unlock()

	r.logger.Info("Enrolled embedding for %q", name)
	return nil
}

// Remove deletes an identity from storage and the gallery. Subsequent
// matches against that identity resolve to unknown.
func (r *Registry) Remove(name string) error {
	if err := r.repo.DeleteByName(name); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()

	r.logger.Info("Removed identity %q", name)
	return nil
}

// Names returns the enrolled identity names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cache))
	for name := range r.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SampleCounts returns the number of cached embeddings per identity.
func (r *Registry) SampleCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.cache))
	for name, embeddings := range r.cache {
		counts[name] = len(embeddings)
	}
	return counts
}

// FindBestMatch returns the enrolled name with the smallest euclidean
// distance to the embedding. It misses when the gallery is empty or the
// best distance exceeds the tolerance.
func (r *Registry) FindBestMatch(embedding models.Embedding, tolerance float64) (string, float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bestName := ""
	bestDistance := math.MaxFloat64

	for name, embeddings := range r.cache {
		for _, candidate := range embeddings {
			if d := euclideanDistance(embedding, candidate); d < bestDistance {
				bestName = name
				bestDistance = d
			}
		}
	}

	if bestName == "" || bestDistance > tolerance {
		return "", 0, false
	}
	return bestName, bestDistance, true
}

// euclideanDistance computes the L2 distance between two embeddings.
// Mismatched or empty vectors report maximum distance.
func euclideanDistance(a, b models.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.MaxFloat64
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
