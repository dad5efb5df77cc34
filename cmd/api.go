package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
	"github.com/sells-group/leaderboard-cli/internal/metrics"
	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// datasets is what the API reads from; *source.Snapshot in production.
type datasets interface {
	Verified(ctx context.Context) ([]leaderboard.Record, error)
	SelfReported(ctx context.Context) (map[leaderboard.Tab][]sheet.Row, error)
}

type api struct {
	data    datasets
	metrics *metrics.Metrics
}

// buildRouter wires the API routes. metricsHandler may be nil.
func buildRouter(data datasets, m *metrics.Metrics, metricsHandler http.Handler, allowedOrigins []string) http.Handler {
	a := &api{data: data, metrics: m}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(a.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/verified", a.handleVerified)
		r.Get("/verified/options", a.handleOptions)
		r.Get("/self-reported", a.handleTabs)
		r.Get("/self-reported/{tab}", a.handleSelfReported)
	})

	return r
}

// instrument records status and latency per route pattern.
func (a *api) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.Request(route, status, time.Since(start))
		zap.L().Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type verifiedResponse struct {
	Scope   leaderboard.Scope    `json:"scope"`
	SortBy  leaderboard.SortBy   `json:"sortBy"`
	Count   int                  `json:"count"`
	Records []leaderboard.Record `json:"records"`
}

func (a *api) handleVerified(w http.ResponseWriter, r *http.Request) {
	opts, err := viewOptionsFromQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	records, err := a.data.Verified(r.Context())
	if err != nil {
		respondLoadError(w, err)
		return
	}
	view := leaderboard.View(records, opts)
	respondJSON(w, http.StatusOK, verifiedResponse{
		Scope:   opts.Scope,
		SortBy:  opts.SortBy,
		Count:   len(view),
		Records: view,
	})
}

func (a *api) handleOptions(w http.ResponseWriter, r *http.Request) {
	scope, err := leaderboard.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	records, err := a.data.Verified(r.Context())
	if err != nil {
		respondLoadError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newFilterOptions(records, scope))
}

type tabSummary struct {
	Tab   leaderboard.Tab `json:"tab"`
	Sheet string          `json:"sheet"`
	Rows  int             `json:"rows"`
}

func (a *api) handleTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := a.data.SelfReported(r.Context())
	if err != nil {
		respondLoadError(w, err)
		return
	}
	out := make([]tabSummary, 0, len(leaderboard.SelfReportedTabs))
	for _, t := range leaderboard.SelfReportedTabs {
		out = append(out, tabSummary{Tab: t, Sheet: leaderboard.SheetNameByTab[t], Rows: len(tabs[t])})
	}
	respondJSON(w, http.StatusOK, out)
}

type selfReportedResponse struct {
	Tab     leaderboard.Tab                 `json:"tab"`
	Count   int                             `json:"count"`
	Entries []leaderboard.SelfReportedEntry `json:"entries"`
}

func (a *api) handleSelfReported(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "tab")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	tab, err := leaderboard.ParseTab(raw)
	if err != nil || tab == leaderboard.TabVerified {
		respondError(w, http.StatusNotFound, eris.Errorf("unknown self-reported tab %q", raw))
		return
	}

	tabs, err := a.data.SelfReported(r.Context())
	if err != nil {
		respondLoadError(w, err)
		return
	}
	entries := leaderboard.SelfReportedEntries(tabs[tab])
	respondJSON(w, http.StatusOK, selfReportedResponse{Tab: tab, Count: len(entries), Entries: entries})
}

// viewOptionsFromQuery reads the view controls from query parameters. A
// missing approach parameter selects every approach; include_* flags
// default to true.
func viewOptionsFromQuery(q url.Values) (leaderboard.ViewOptions, error) {
	opts := leaderboard.DefaultViewOptions()

	scope, err := leaderboard.ParseScope(q.Get("scope"))
	if err != nil {
		return opts, err
	}
	opts.Scope = scope

	by, err := leaderboard.ParseSortBy(q.Get("sort"))
	if err != nil {
		return opts, err
	}
	opts.SortBy = by

	if approaches, ok := q["approach"]; ok {
		opts.Approaches = append([]string{}, approaches...)
	}
	opts.MaxSteps = q.Get("max_steps")
	opts.Query = q.Get("q")

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"include_a11y", &opts.IncludeA11yTree},
		{"include_tool", &opts.IncludeTool},
		{"include_rollout", &opts.IncludeMultipleRollout},
		{"include_retry", &opts.IncludeRetry},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, eris.Errorf("invalid %s %q", f.name, v)
		}
		*f.dst = b
	}
	return opts, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// respondLoadError reports a dataset that could not be loaded.
func respondLoadError(w http.ResponseWriter, err error) {
	zap.L().Error("dataset load failed", zap.Error(err))
	respondJSON(w, http.StatusBadGateway, map[string]string{"error": "leaderboard data unavailable"})
}
