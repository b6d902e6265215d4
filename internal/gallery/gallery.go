// Package gallery manages the set of enrolled identities and their
// embeddings. The gallery is loaded fresh per matching request rather
// than held as shared mutable state; storage constraints, not process
// mutexes, guarantee identity uniqueness across concurrent writers.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/recognition"
)

// ErrInvalidEmbedding is returned for an embedding that is empty,
// non-finite, or of a different dimensionality than the gallery's
// established dimension.
var ErrInvalidEmbedding = errors.New("invalid embedding")

// ErrMissingFields is returned when identity_id or display_name is
// empty. A validation sentinel so callers can tell a bad request from
// a storage failure.
var ErrMissingFields = errors.New("identity_id and display_name are required")

// RemovalHook is invoked after an identity has been removed so
// dependent components (attendance cascade, image cleanup) can react.
// The cascade is an explicit contract, not a hidden side effect.
type RemovalHook func(ctx context.Context, identityID string) error

// Service provides gallery operations over an identity store.
type Service struct {
	store database.IdentityWriter
	hooks []RemovalHook
}

// New creates a gallery service backed by the given store.
func New(store database.IdentityWriter) *Service {
	return &Service{store: store}
}

// OnRemove registers a hook to run after successful removal. Hooks run
// in registration order.
func (s *Service) OnRemove(hook RemovalHook) {
	s.hooks = append(s.hooks, hook)
}

// Add enrolls a new identity. The first entry establishes the gallery's
// embedding dimensionality; every later entry must match it. Returns
// database.ErrDuplicateIdentity when the ID is taken and
// ErrInvalidEmbedding for an empty, non-finite, or wrong-sized vector.
func (s *Service) Add(ctx context.Context, identityID, displayName string, embedding []float32, imageRef string) (*database.Identity, error) {
	if identityID == "" || displayName == "" {
		return nil, ErrMissingFields
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding is empty", ErrInvalidEmbedding)
	}
	if !recognition.IsFinite(embedding) {
		return nil, fmt.Errorf("%w: embedding contains non-finite values", ErrInvalidEmbedding)
	}

	dim, err := s.store.Dimension(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gallery dimension: %w", err)
	}
	if dim > 0 && len(embedding) != dim {
		return nil, fmt.Errorf("%w: got %d components, gallery uses %d", ErrInvalidEmbedding, len(embedding), dim)
	}

	identity := database.Identity{
		IdentityID:  identityID,
		DisplayName: displayName,
		Embedding:   embedding,
		ImageRef:    imageRef,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Remove deletes an identity and then runs the registered removal
// hooks. Returns database.ErrNotFound when the identity is absent.
func (s *Service) Remove(ctx context.Context, identityID string) error {
	if err := s.store.Delete(ctx, identityID); err != nil {
		return err
	}
	for _, hook := range s.hooks {
		if err := hook(ctx, identityID); err != nil {
			return fmt.Errorf("removal cascade for %s: %w", identityID, err)
		}
	}
	return nil
}

// Get retrieves a single entry. Returns database.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, identityID string) (*database.Identity, error) {
	identity, err := s.store.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, database.ErrNotFound
	}
	return identity, nil
}

// Exists checks whether an identity is enrolled.
func (s *Service) Exists(ctx context.Context, identityID string) (bool, error) {
	return s.store.Exists(ctx, identityID)
}

// List returns all enrolled entries.
func (s *Service) List(ctx context.Context) ([]database.Identity, error) {
	return s.store.List(ctx)
}

// Search returns entries whose display name matches the query under
// case- and diacritic-insensitive comparison.
func (s *Service) Search(ctx context.Context, query string) ([]database.Identity, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeDisplayName(query)
	var matches []database.Identity
	for _, e := range entries {
		if NormalizeDisplayName(e.DisplayName) == normalized {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// Snapshot loads a fresh read-only view of the gallery for a matching
// pass. Each match call gets its own snapshot, so concurrent matching
// and enrollment never interfere.
func (s *Service) Snapshot(ctx context.Context) ([]recognition.Candidate, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery snapshot: %w", err)
	}
	candidates := make([]recognition.Candidate, len(entries))
	for i, e := range entries {
		candidates[i] = recognition.Candidate{
			IdentityID:  e.IdentityID,
			DisplayName: e.DisplayName,
			Embedding:   e.Embedding,
		}
	}
	return candidates, nil
}
