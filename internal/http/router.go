package http

import (
	"context"
	"net/http"
	"strings"
)

// Pinger reports storage health for the healthz endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires handlers and middleware into the server mux.
type RouterConfig struct {
	Identity  *IdentityHandler
	Admin     *AdminHandler
	Uploads   *UploadHandler
	Schedule  *ScheduleHandler
	Venues    *VenueHandler
	Community *CommunityHandler
	Events    *EventHandler
	Gallery   *GalleryHandler

	// Health is probed by GET /healthz. Optional.
	Health Pinger

	// MetricsHandler serves GET /metrics. Optional.
	MetricsHandler http.Handler

	// RequireIdentity wraps every route that needs a resolved principal.
	RequireIdentity func(http.Handler) http.Handler

	// Middleware wraps the whole mux, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP routing table. Reads are public; all mutating
// routes go through the identity middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.RequireIdentity
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Identity != nil {
		mux.HandleFunc("/identity", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Identity.Create(w, r)
		})
	}

	if cfg.Admin != nil {
		mux.Handle("/admin/pin", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Admin.SubmitPin(w, r)
		})))
		mux.Handle("/admin/session", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Admin.RevokeSession(w, r)
		})))
	}

	if cfg.Uploads != nil {
		mux.Handle("/uploads", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Uploads.CreateGrant(w, r)
		})))
	}

	if cfg.Schedule != nil {
		mux.HandleFunc("/schedule", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.Upcoming(w, r)
		})
		mux.Handle("/jams", splitByMethod(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(cfg.Schedule.ListJams),
			http.MethodPost: protect(http.HandlerFunc(cfg.Schedule.CreateJam)),
		}))
		mux.Handle("/jams/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, action := splitResourcePath(r.URL.Path, "/jams/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch {
			case action == "cancel" && r.Method == http.MethodPost:
				protect(http.HandlerFunc(cfg.Schedule.CancelJam)).ServeHTTP(w, r)
			case action == "reinstate" && r.Method == http.MethodPost:
				protect(http.HandlerFunc(cfg.Schedule.ReinstateJam)).ServeHTTP(w, r)
			case action == "" && r.Method == http.MethodPut:
				protect(http.HandlerFunc(cfg.Schedule.UpdateJam)).ServeHTTP(w, r)
			case action == "" && r.Method == http.MethodDelete:
				protect(http.HandlerFunc(cfg.Schedule.DeleteJam)).ServeHTTP(w, r)
			case action == "":
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			default:
				http.NotFound(w, r)
			}
		}))
		mux.Handle("/config", splitByMethod(map[string]http.Handler{
			http.MethodGet: http.HandlerFunc(cfg.Schedule.GetConfig),
			http.MethodPut: protect(http.HandlerFunc(cfg.Schedule.UpdateConfig)),
		}))
	}

	if cfg.Venues != nil {
		mux.Handle("/venues", splitByMethod(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(cfg.Venues.List),
			http.MethodPost: protect(http.HandlerFunc(cfg.Venues.Create)),
		}))
		mux.Handle("/venues/", resourceRoutes("/venues/", map[string]http.Handler{
			http.MethodPut:    protect(http.HandlerFunc(cfg.Venues.Update)),
			http.MethodDelete: protect(http.HandlerFunc(cfg.Venues.Delete)),
		}))
	}

	if cfg.Community != nil {
		mux.Handle("/community", splitByMethod(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(cfg.Community.List),
			http.MethodPost: protect(http.HandlerFunc(cfg.Community.Create)),
		}))
		mux.Handle("/community/", resourceRoutes("/community/", map[string]http.Handler{
			http.MethodPut:    protect(http.HandlerFunc(cfg.Community.Update)),
			http.MethodDelete: protect(http.HandlerFunc(cfg.Community.Delete)),
		}))
	}

	if cfg.Events != nil {
		mux.Handle("/events", splitByMethod(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(cfg.Events.List),
			http.MethodPost: protect(http.HandlerFunc(cfg.Events.Create)),
		}))
		mux.Handle("/events/", resourceRoutes("/events/", map[string]http.Handler{
			http.MethodPut:    protect(http.HandlerFunc(cfg.Events.Update)),
			http.MethodDelete: protect(http.HandlerFunc(cfg.Events.Delete)),
		}))
	}

	if cfg.Gallery != nil {
		mux.Handle("/gallery", splitByMethod(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(cfg.Gallery.List),
			http.MethodPost: protect(http.HandlerFunc(cfg.Gallery.Create)),
		}))
		mux.Handle("/gallery/", resourceRoutes("/gallery/", map[string]http.Handler{
			http.MethodDelete: protect(http.HandlerFunc(cfg.Gallery.Delete)),
		}))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		if cfg.Health != nil {
			if err := cfg.Health.Ping(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		mux.Handle("/metrics", cfg.MetricsHandler)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func splitByMethod(handlers map[string]http.Handler) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		methodNotAllowed(w, allowed...)
	})
}

func resourceRoutes(prefix string, handlers map[string]http.Handler) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for method := range handlers {
		allowed = append(allowed, method)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, action := splitResourcePath(r.URL.Path, prefix)
		if id == "" || action != "" {
			http.NotFound(w, r)
			return
		}
		handler, ok := handlers[r.Method]
		if !ok {
			methodNotAllowed(w, allowed...)
			return
		}
		handler.ServeHTTP(w, r.WithContext(ContextWithResourceID(r.Context(), id)))
	})
}

func splitResourcePath(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
