package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/findshroom/findshroom-server/internal/domain"
	domainerrors "github.com/findshroom/findshroom-server/internal/errors"
	"github.com/findshroom/findshroom-server/internal/search"
	"github.com/findshroom/findshroom-server/internal/store"
)

// FullTextIndex is the catalog search index.
type FullTextIndex interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
	Reindex(ctx context.Context, mushrooms []domain.Mushroom) error
}

// CatalogService manages the mushroom catalog. Any signed-in user can add
// entries; changing or removing existing ones is reserved for admins.
type CatalogService struct {
	store  store.Store
	index  FullTextIndex
	logger *slog.Logger
}

// NewCatalogService creates a catalog service. index may be nil, in which
// case full-text search falls back to substring matching.
func NewCatalogService(s store.Store, index FullTextIndex, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: s, index: index, logger: orDiscard(logger)}
}

// SaveMushroomRequest is a catalog entry to insert (ID 0) or update.
type SaveMushroomRequest struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name" validate:"required,max=200"`
	ScientificName  string `json:"scientific_name,omitempty" validate:"max=200"`
	Description     string `json:"description,omitempty" validate:"max=10000"`
	IsEdible        bool   `json:"is_edible"`
	ImageRef        string `json:"image_ref,omitempty"`
	Habitat         string `json:"habitat,omitempty" validate:"max=2000"`
	Season          string `json:"season,omitempty" validate:"max=200"`
	Characteristics string `json:"characteristics,omitempty" validate:"max=5000"`
}

// List returns the whole catalog ordered by name.
func (s *CatalogService) List(ctx context.Context) ([]domain.Mushroom, error) {
	all, err := s.store.ListMushrooms(ctx)
	if err != nil {
		return nil, storeError(err, "list mushrooms")
	}
	return all, nil
}

// Get returns one catalog entry.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Mushroom, error) {
	m, err := s.store.GetMushroom(ctx, id)
	if err != nil {
		return nil, storeError(err, "get mushroom")
	}
	return m, nil
}

// Search returns entries whose name or scientific name contains q, ignoring
// case. An empty query lists everything.
func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Mushroom, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.List(ctx)
	}
	found, err := s.store.SearchMushrooms(ctx, q)
	if err != nil {
		return nil, storeError(err, "search mushrooms")
	}
	return found, nil
}

// FullTextSearch ranks entries with fuzzy and prefix matching over all text
// fields. Without an index it degrades to Search with every hit scored 1.
func (s *CatalogService) FullTextSearch(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	if s.index != nil {
		res, err := s.index.Search(ctx, params)
		if err != nil {
			return nil, domainerrors.Internal("search failed").WithCause(err)
		}
		return res, nil
	}

	start := time.Now()
	found, err := s.Search(ctx, params.Query)
	if err != nil {
		return nil, err
	}
	res := &search.SearchResult{Query: params.Query, Hits: []search.SearchHit{}}
	for _, m := range found {
		if params.EdibleOnly != nil && m.IsEdible != *params.EdibleOnly {
			continue
		}
		res.Total++
		if int(res.Total) <= params.Offset || len(res.Hits) >= params.Limit {
			continue
		}
		res.Hits = append(res.Hits, search.SearchHit{
			MushroomID:     m.ID,
			Score:          1,
			Name:           m.Name,
			ScientificName: m.ScientificName,
			IsEdible:       m.IsEdible,
		})
	}
	res.TookMs = time.Since(start).Milliseconds()
	return res, nil
}

// Save inserts a new entry or updates an existing one.
func (s *CatalogService) Save(ctx context.Context, actor *domain.User, req SaveMushroomRequest) (*domain.Mushroom, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ScientificName = strings.TrimSpace(req.ScientificName)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if err := validatePhotoRef(req.ImageRef); err != nil {
		return nil, err
	}

	m := &domain.Mushroom{
		ID:              req.ID,
		Name:            req.Name,
		ScientificName:  req.ScientificName,
		Description:     req.Description,
		IsEdible:        req.IsEdible,
		ImageRef:        req.ImageRef,
		Habitat:         req.Habitat,
		Season:          req.Season,
		Characteristics: req.Characteristics,
	}
	if !m.IsNew() && !actor.IsAdmin {
		return nil, domainerrors.Forbidden("only admins can edit catalog entries")
	}

	if err := s.store.SaveMushroom(ctx, m); err != nil {
		return nil, storeError(err, "save mushroom")
	}
	s.logger.Info("catalog entry saved", "mushroom_id", m.ID, "user_id", actor.ID)
	return m, nil
}

// Delete removes an entry. Markers pointing at it are unlinked.
func (s *CatalogService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if !actor.IsAdmin {
		return domainerrors.Forbidden("only admins can delete catalog entries")
	}
	if err := s.store.DeleteMushroom(ctx, id); err != nil {
		return storeError(err, "delete mushroom")
	}
	s.logger.Info("catalog entry deleted", "mushroom_id", id, "user_id", actor.ID)
	return nil
}

// Reindex rebuilds the full-text index from the store.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	all, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.index.Reindex(ctx, all); err != nil {
		return 0, domainerrors.Internal("reindex failed").WithCause(err)
	}
	return len(all), nil
}
