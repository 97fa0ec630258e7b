package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/explorer-data/internal/model"
	"github.com/rickgao/explorer-data/internal/poller"
	"github.com/rickgao/explorer-data/internal/store"
	"github.com/rickgao/explorer-data/internal/version"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// listHandler serves the latest snapshot of one table.
func listHandler[T any](s *Server, tbl store.Table[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tbl == nil {
			writeJSON(w, http.StatusOK, []T{})
			return
		}

		records, err := tbl.ReadLatest(r.Context(), 0)
		if err != nil {
			s.logger.Error("server: read snapshot failed",
				"source", tbl.Source(),
				"err", err,
				"request_id", middleware.GetReqID(r.Context()),
			)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: store.ErrStore.Error()})
			return
		}
		if records == nil {
			records = []T{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

type sourceStatus struct {
	Source     model.Source      `json:"source"`
	Generation *store.Generation `json:"generation"`
	Poller     *poller.Status    `json:"poller"`
	Error      string            `json:"error,omitempty"`
}

type statusResponse struct {
	Version version.Info   `json:"version"`
	Sources []sourceStatus `json:"sources"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pollers := make(map[model.Source]StatusReporter, len(s.pollers))
	for _, p := range s.pollers {
		pollers[p.Source()] = p
	}

	gens := map[model.Source]func(context.Context) (store.Generation, error){}
	if s.tables.Blocks != nil {
		gens[model.SourceBlocks] = s.tables.Blocks.Generation
	}
	if s.tables.Chart != nil {
		gens[model.SourceChart] = s.tables.Chart.Generation
	}
	if s.tables.Rates != nil {
		gens[model.SourceRates] = s.tables.Rates.Generation
	}

	resp := statusResponse{Version: version.Get()}
	for _, src := range model.Sources {
		st := sourceStatus{Source: src}
		if fn, ok := gens[src]; ok {
			gen, err := fn(r.Context())
			switch {
			case err == nil:
				st.Generation = &gen
			case errors.Is(err, store.ErrNoSnapshot):
			default:
				st.Error = store.ErrStore.Error()
			}
		}
		if p, ok := pollers[src]; ok {
			ps := p.Status()
			st.Poller = &ps
		}
		resp.Sources = append(resp.Sources, st)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.ready(ctx); err != nil {
		s.logger.Warn("server: readiness check failed", "err", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
