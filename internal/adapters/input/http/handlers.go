package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/domain/service"
	"alexa-smarthome-bridge/internal/observability"
	"alexa-smarthome-bridge/internal/ports"
)

func (s *Server) handleDirective(w http.ResponseWriter, r *http.Request) {
	var req alexa.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid directive: "+err.Error())
		return
	}
	h := req.Directive.Header
	msg, err := s.smartHome.HandleDirective(r.Context(), req)
	observability.DirectiveCounter.WithLabelValues(h.Namespace, h.Name, directiveOutcome(err)).Inc()

	status := http.StatusOK
	if err != nil {
		s.log.Warn("directive failed", "namespace", h.Namespace, "name", h.Name, "error", err)
		if service.ErrorType(err) == alexa.ErrorInternal {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, msg)
}

func directiveOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	return service.ErrorType(err)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	recs, err := s.devices.ListDevices(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []model.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	rec, err := s.devices.GetDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, err := decodeValid(createSchema, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var rec model.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// New devices are not retrievable unless asked for; stored records
	// without the key keep the opposite default.
	if _, ok := doc["retrievable"]; !ok {
		rec.Retrievable = false
	}

	created, err := s.devices.CreateDevice(r.Context(), rec)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"device_id": created.EndpointID, "message": "created"})
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := decodeValid(patchSchema, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch ports.DevicePatch
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.devices.UpdateDevice(r.Context(), id, patch); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated", "id": id})
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.devices.DeleteDevice(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted", "id": id})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	err := s.devices.ReportAll(r.Context())
	observability.ReportCounter.WithLabelValues(observability.Outcome(err)).Inc()
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reported"})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ports.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
