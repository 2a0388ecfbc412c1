// Package gatewaytest serves the persistence service's REST surface over an
// in-memory gateway, so the HTTP client can be exercised end to end without
// the real service.
package gatewaytest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orderdraft/orderdraft/internal/gateway"
)

// Handler returns an http.Handler exposing backend's REST routes.
func Handler(backend *gateway.Memory) http.Handler {
	s := &server{backend: backend}
	r := chi.NewRouter()
	r.Get("/orders/{id}", s.fetchRecord)
	r.Put("/orders/{id}", s.updateScalars)
	r.Put("/orders/{id}/cost-items", s.replaceCostItems)
	r.Put("/orders/{id}/shipments", s.upsertShipments)
	r.Put("/orders/{id}/returns", s.upsertReturns)
	r.Post("/orders/{id}/images", s.uploadImages)
	return r
}

type server struct {
	backend *gateway.Memory
}

func (s *server) fetchRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	raw, err := s.backend.FetchRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, raw)
}

func (s *server) updateScalars(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var patch gateway.ScalarPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	raw, err := s.backend.UpdateScalarFields(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, raw)
}

func (s *server) replaceCostItems(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var body struct {
		Items []gateway.CostItemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	level := gateway.ActorLevelStaff
	if v, err := strconv.Atoi(r.Header.Get("X-Actor-Level")); err == nil {
		level = gateway.ActorLevel(v)
	}
	if err := s.backend.ReplaceCostItems(r.Context(), id, body.Items, level); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, nil)
}

func (s *server) upsertShipments(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var body struct {
		Items []gateway.ShipmentPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ids, err := s.backend.UpsertShipments(r.Context(), id, body.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string][]int64{"ids": ids})
}

func (s *server) upsertReturns(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var body struct {
		Items []gateway.ReturnPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ids, err := s.backend.UpsertReturns(r.Context(), id, body.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, map[string][]int64{"ids": ids})
}

func (s *server) uploadImages(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	kind := gateway.ImageKind(r.FormValue("kind"))
	relatedID, err := strconv.ParseInt(r.FormValue("related_id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid related_id")
		return
	}
	var files []gateway.ImageFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			files = append(files, gateway.ImageFile{Name: header.Filename, MIME: header.Header.Get("Content-Type")})
		}
	}
	if err := s.backend.UploadImages(r.Context(), id, kind, relatedID, files); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, nil)
}

func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid record id")
		return 0, false
	}
	return id, true
}

func writeSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

func writeError(w http.ResponseWriter, err error) {
	var remote *gateway.RemoteError
	if errors.As(err, &remote) {
		writeFailure(w, remote.Status, remote.Message)
		return
	}
	writeFailure(w, http.StatusInternalServerError, err.Error())
}
