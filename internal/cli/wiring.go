package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/soyeahso/somc/internal/backend"
	"github.com/soyeahso/somc/internal/catalog"
	"github.com/soyeahso/somc/internal/config"
	"github.com/soyeahso/somc/internal/hooks"
	"github.com/soyeahso/somc/internal/session"
)

// services is the set of collaborators every front end needs.
type services struct {
	catalog    *catalog.Catalog
	catalogErr error
	backend    *backend.Client
	hooks      *hooks.Manager
}

// controller returns a fresh session controller over the services.
func (s *services) controller() *session.Controller {
	return session.New(session.Options{
		Catalog:   s.catalog,
		Submitter: s.backend,
		Hooks:     s.hooks,
		Log:       log,
	})
}

// bootstrap resolves the backend address and loads the catalog once.
// A catalog failure is not fatal; it is reported via catalogErr.
func bootstrap(ctx context.Context) *services {
	hm := hooks.NewManager(log)

	var (
		mu         sync.Mutex
		catalogErr error
	)
	hm.On(hooks.EventCatalogFailed, "cli", func(_ context.Context, p hooks.Payload) error {
		mu.Lock()
		defer mu.Unlock()
		msg, _ := p.Data["error"].(string)
		catalogErr = errors.New(msg)
		return nil
	})

	loader := catalog.NewLoader(cfg.Catalog.URL, &http.Client{Timeout: cfg.Catalog.Timeout()}, log)
	cat := session.LoadCatalog(ctx, loader, hm)

	client := backend.NewClient(backend.Options{
		BaseURL:    resolveBackendURL(ctx, cfg.Backend),
		SubmitPath: cfg.Backend.SubmitPath,
		HealthPath: cfg.Backend.HealthPath,
		Timeout:    cfg.Backend.Timeout(),
	}, log)

	mu.Lock()
	defer mu.Unlock()
	return &services{catalog: cat, catalogErr: catalogErr, backend: client, hooks: hm}
}

// resolveBackendURL picks the backend base address: an explicit URL wins,
// then the config endpoint, then the built-in default.
func resolveBackendURL(ctx context.Context, bc config.BackendConfig) string {
	if bc.URL != "" {
		return backend.TrimAPISuffix(bc.URL)
	}
	if bc.ConfigURL != "" {
		hc := &http.Client{Timeout: bc.Timeout()}
		base, err := backend.ResolveBaseURL(ctx, hc, bc.ConfigURL)
		if err == nil {
			log.Debug().Str("url", base).Msg("backend resolved via config endpoint")
			return base
		}
		log.Warn().Err(err).Str("configUrl", bc.ConfigURL).Msg("could not resolve backend, using default")
	}
	return config.DefaultBackendURL
}
