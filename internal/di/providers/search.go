package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/findshroom/findshroom-server/internal/config"
	"github.com/findshroom/findshroom-server/internal/logger"
	"github.com/findshroom/findshroom-server/internal/search"
	"github.com/findshroom/findshroom-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when full-text search is disabled.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve catalog index and wires it to the
// store for automatic indexing.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if !cfg.Search.Enabled {
		log.Info("Catalog full-text search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty but the catalog is not. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if indexHandle.SearchIndex == nil {
		return
	}
	if docCount, _ := indexHandle.DocumentCount(); docCount > 0 {
		return
	}

	ctx := context.Background()
	count, err := storeHandle.CountMushrooms(ctx)
	if err != nil || count == 0 {
		return
	}

	log.Info("Search index is empty but the catalog is not, triggering initial reindex",
		"mushroom_count", count,
	)

	go func() {
		n, err := catalog.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		log.Info("Initial search reindex completed", "documents", n)
	}()
}
