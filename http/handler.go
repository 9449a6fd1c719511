package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/storygate/storygate"
	"github.com/storygate/storygate/cache"
	"github.com/storygate/storygate/metrics"
	"github.com/storygate/storygate/objectstore"
)

// ReasonSigningDisabled is surfaced when a private path is requested but no
// signing key is configured. The gateway fails closed instead of falling
// back to a guessable default key.
const ReasonSigningDisabled = "Signed links are disabled."

// Config holds gateway behavior knobs.
type Config struct {
	// PublicPrefix is the reserved namespace served without validation and
	// always cached publicly. Defaults to "/shared/".
	PublicPrefix string

	// SharePrivateResponses controls whether validated private responses
	// enter the shared edge cache under their path-derived key. Enabled by
	// default: paths are unguessable, and a later request for the same path
	// still needs a valid token to reach the fetcher. Disable to keep
	// private bytes out of the shared cache at the cost of a store read per
	// client.
	SharePrivateResponses bool

	// MaxCacheableBytes bounds bodies buffered for cache population.
	// Larger objects are streamed to the client and never cached.
	MaxCacheableBytes int64

	// PopulateWorkers bounds concurrent background cache writes.
	PopulateWorkers int
}

// Handler is the gateway's request router: it dispatches CORS preflight,
// the public-path fast path, and the validated private-path flow.
type Handler struct {
	cfg       Config
	store     objectstore.Storage
	cache     cache.Store
	populator *cache.Populator
	validator *storygate.LinkValidator
	log       *slog.Logger
	metrics   metrics.Gateway
}

// NewHandler creates a gateway Handler. A nil store means the deployment is
// misconfigured and every request is answered with 500. A nil validator
// makes the gateway fail closed on all private paths. A nil logger falls
// back to slog.Default and nil gateway metrics to a no-op implementation.
func NewHandler(cfg *Config, store objectstore.Storage, edge cache.Store, validator *storygate.LinkValidator, logger *slog.Logger, m metrics.Gateway) *Handler {
	c := *cfg
	if c.PublicPrefix == "" {
		c.PublicPrefix = "/shared/"
	}
	if c.MaxCacheableBytes <= 0 {
		c.MaxCacheableBytes = cache.DefaultMaxEntryBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.Noop{}
	}

	return &Handler{
		cfg:       c,
		store:     store,
		cache:     edge,
		populator: cache.NewPopulator(edge, logger, c.PopulateWorkers),
		validator: validator,
		log:       logger,
		metrics:   m,
	}
}

// Router returns the gateway's http.Handler. Ops endpoints are mounted
// before the media catch-all; everything else flows through the gateway
// state machine.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))
		r.Get("/healthz", h.handleHealthz)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	})

	r.Handle("/*", http.HandlerFunc(h.ServeGateway))
	r.MethodNotAllowed(h.ServeGateway)

	return r
}

// ServeGateway runs the per-request state machine: preflight, configuration
// check, public fast path, then validation and fetch.
func (h *Handler) ServeGateway(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writePreflight(w)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	if h.store == nil {
		h.log.Error("no object store binding configured")
		writeError(w, http.StatusInternalServerError, "Service temporarily unavailable.")
		return
	}

	if strings.HasPrefix(r.URL.Path, h.cfg.PublicPrefix) {
		h.fetch(w, r, true)
		return
	}

	if h.validator == nil {
		h.metrics.IncValidationFailure(ReasonSigningDisabled)
		writeValidationError(w, ReasonSigningDisabled)
		return
	}

	result := h.validator.Validate(r.URL)
	if !result.Valid {
		h.metrics.IncValidationFailure(result.Reason)
		h.log.Info("rejected signed link", "path", r.URL.Path, "reason", result.Reason)
		writeValidationError(w, result.Reason)
		return
	}

	h.fetch(w, r, h.cfg.SharePrivateResponses)
}

// WaitCacheWrites blocks until in-flight background cache writes finish.
// Called on shutdown so detached population tasks are not abandoned.
func (h *Handler) WaitCacheWrites() {
	h.populator.Wait()
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "no object store binding", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// A miss on the probe key still proves the store is reachable.
	if _, err := h.store.Stat(ctx, ".healthz"); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		h.log.Warn("health probe failed", "err", err)
		http.Error(w, "object store unreachable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
