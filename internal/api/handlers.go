package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/apps"
)

// maxBodyBytes bounds request bodies; values documents are small.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createApp(w http.ResponseWriter, r *http.Request) {
	var app apps.ManagedApplication
	if err := decodeBody(r, &app); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.svc.Create(r.Context(), app)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listApps(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListAll(r.Context())
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []apps.ManagedApplication{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getApp(w http.ResponseWriter, r *http.Request) {
	app, err := s.svc.FindByName(r.Context(), mux.Vars(r)["releaseName"])
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) updateApp(w http.ResponseWriter, r *http.Request) {
	var patch apps.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := s.svc.UpdateFields(r.Context(), mux.Vars(r)["releaseName"], patch)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteApp(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["releaseName"]

	purge := false
	if raw := r.URL.Query().Get("purge"); raw != "" {
		var err error
		if purge, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid purge parameter %q", raw))
			return
		}
	}

	if purge {
		err := s.svc.Purge(r.Context(), name)
		if errors.Is(err, apps.ErrInvalidArgument) {
			writeError(w, http.StatusConflict, err)
			return
		}
		if err != nil {
			s.writeServiceError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if _, err := s.svc.MarkDeleted(r.Context(), name); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRelease(w http.ResponseWriter, r *http.Request) {
	if s.driver == nil {
		writeError(w, http.StatusNotImplemented, errors.New("no deployment driver configured"))
		return
	}

	app, err := s.svc.FindByName(r.Context(), mux.Vars(r)["releaseName"])
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}

	ctx := r.Context()
	if s.driverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.driverTimeout)
		defer cancel()
	}
	status, err := s.driver.Status(ctx, app.ReleaseName, app.Namespace)
	if err != nil {
		log.FromContext(r.Context()).Error(err, "Failed to get release status", "release", app.ReleaseName, "namespace", app.Namespace)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if status == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("release %q is not deployed in namespace %q", app.ReleaseName, app.Namespace))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apps.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, apps.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, apps.ErrInvalidArgument), apps.IsConfigurationError(err):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.FromContext(ctx).Error(err, "Request failed")
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func decodeBody(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
