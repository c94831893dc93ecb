package session

import (
	"context"

	"github.com/soyeahso/somc/internal/catalog"
	"github.com/soyeahso/somc/internal/hooks"
)

// CatalogLoader is satisfied by *catalog.Loader.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// LoadCatalog runs the one startup load and reports the outcome on hm.
// The returned catalog is never nil; a failed load yields an empty one.
func LoadCatalog(ctx context.Context, l CatalogLoader, hm *hooks.Manager) *catalog.Catalog {
	cat, err := l.Load(ctx)
	if cat == nil {
		cat = catalog.Empty()
	}
	if err != nil {
		hm.Emit(ctx, hooks.EventCatalogFailed, map[string]any{"error": err.Error()})
		return cat
	}
	hm.Emit(ctx, hooks.EventCatalogLoaded, map[string]any{"count": cat.Len()})
	return cat
}
