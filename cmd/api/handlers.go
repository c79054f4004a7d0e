package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"ambulance-list/internal/export"
	"ambulance-list/internal/middleware"
	"ambulance-list/internal/models"
	"ambulance-list/internal/store"
	"ambulance-list/internal/view"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

const refreshTimeout = 15 * time.Second

// TransportStore persists submitted transports. PostgresStore satisfies it.
type TransportStore interface {
	Save(ctx context.Context, t *models.TransportRecord) error
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops a department's cached transports after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, departmentID string) error
}

// server binds the transport list view to the HTTP surface. With a nil
// store the view is the only copy of submitted transports; otherwise writes
// go to the store and the view reloads from it.
type server struct {
	view   *view.TransportListView
	store  TransportStore
	cache  CacheInvalidator
	logger *zap.Logger
}

type TransportsPageData struct {
	DepartmentID string
	APIBase      string
	State        string
	Count        int
	List         template.HTML
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/transports", middleware.CSRF(http.HandlerFunc(s.handleTransports)))
	mux.HandleFunc("/transports/stream", s.handleStream)
	mux.HandleFunc("/api/transports", s.handleAPITransports)
	mux.HandleFunc("/api/transports/", s.handleTransportByID)
	mux.HandleFunc("/api/transports/export.xlsx", s.handleExport)
	mux.Handle("/api/transports/refresh", middleware.CSRF(http.HandlerFunc(s.handleRefresh)))
	mux.HandleFunc("/health", s.handleHealth)
	return s.logRequests(mux)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/transports", http.StatusSeeOther)
}

func (s *server) handleTransports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// Serve the state as of this request, not a render pass still in flight.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.view.WaitForChanges(ctx); err != nil {
		s.logger.Warn("Rendering page before pending changes settled", zap.Error(err))
	}

	cfg := s.view.Config()
	root := s.view.Root()
	data := TransportsPageData{
		DepartmentID: cfg.DepartmentID,
		APIBase:      cfg.APIBase,
		State:        s.view.State().String(),
		Count:        len(root.Find(view.ListTag).FindAll(view.ListItemTag)),
		List:         template.HTML(root.HTML()),
	}
	render(w, r, data, "ui/templates/transports.html")
}

// handleStream pushes every render pass to the browser as a datastar
// element patch targeting #transport-list.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	updates, unsubscribe := s.view.Subscribe()
	defer unsubscribe()

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(s.view.Root().HTML()); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case root, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.PatchElements(root.HTML()); err != nil {
				s.logger.Debug("Transport stream closed", zap.Error(err))
				return
			}
		}
	}
}

func (s *server) handleAPITransports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.view.Transports())

	case http.MethodPost:
		var transports []models.TransportRecord
		if err := json.NewDecoder(r.Body).Decode(&transports); err != nil {
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
			return
		}
		for i := range transports {
			if transports[i].ID == "" {
				transports[i].ID = uuid.NewString()
			}
		}
		if err := models.ValidateTransports(transports); err != nil {
			http.Error(w, "Invalid transports: "+err.Error(), http.StatusBadRequest)
			return
		}

		if s.store == nil {
			if err := s.view.SetTransports(transports); err != nil {
				writeViewError(w, err, http.StatusBadRequest)
				return
			}
			s.logger.Info("Transports replaced", zap.Int("count", len(transports)))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
		defer cancel()
		for i := range transports {
			if err := s.store.Save(ctx, &transports[i]); err != nil {
				s.logger.Error("Failed to save transport", zap.String("transport_id", transports[i].ID), zap.Error(err))
				http.Error(w, "Failed to save transports", http.StatusInternalServerError)
				return
			}
		}
		s.logger.Info("Transports saved", zap.Int("count", len(transports)))
		if err := s.reload(ctx); err != nil {
			writeViewError(w, err, http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleTransportByID serves DELETE /api/transports/{id}.
func (s *server) handleTransportByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transports/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.store == nil {
		current := s.view.Transports()
		kept := current[:0]
		for _, t := range current {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(current) {
			http.NotFound(w, r)
			return
		}
		if err := s.view.SetTransports(kept); err != nil {
			writeViewError(w, err, http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("Failed to delete transport", zap.String("transport_id", id), zap.Error(err))
		http.Error(w, "Failed to delete transport", http.StatusInternalServerError)
		return
	}
	s.logger.Info("Transport deleted", zap.String("transport_id", id))
	if err := s.reload(ctx); err != nil {
		writeViewError(w, err, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reload drops the cached copy of the view's department and refreshes the
// view from the store.
func (s *server) reload(ctx context.Context) error {
	dept := s.view.Config().DepartmentID
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, dept); err != nil {
			s.logger.Warn("Failed to invalidate transport cache", zap.String("department_id", dept), zap.Error(err))
		}
	}
	return s.view.Refresh(ctx)
}

// writeViewError answers 503 once the view is closed and status otherwise.
func writeViewError(w http.ResponseWriter, err error, status int) {
	if errors.Is(err, view.ErrClosed) {
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := export.TransportsXLSX(s.view.Transports())
	if err != nil {
		s.logger.Error("Failed to export transports", zap.Error(err))
		http.Error(w, "Export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("transports-%s.xlsx", s.view.Config().DepartmentID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	if err := s.view.Refresh(ctx); err != nil {
		http.Error(w, "Transports could not be loaded: "+err.Error(), http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/transports", http.StatusSeeOther)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"view":   s.view.State().String(),
	})
}
