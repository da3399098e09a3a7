package person

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/persons-api/internal/model/person"
	"github.com/zhouzirui/persons-api/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler person服务的HTTP处理器
type Handler struct {
	persons person.Store
}

// New 创建person处理器
func New(persons person.Store) *Handler {
	return &Handler{
		persons: persons,
	}
}

// RegisterRoutes 注册person相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persons", h.handleListPersons)
	r.Post("/person", h.handleAddPerson)
	r.Put("/person", h.handleUpdatePersonByBody)
	r.Get("/person/{id}", h.handleGetPerson)
	r.Put("/person/{id}", h.handleUpdatePerson)
	r.Delete("/person/{id}", h.handleDeletePerson)
}

func (h *Handler) handleListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.persons.List(r.Context())
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, persons)
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.persons.Get(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePerson(w, r)
	if !ok {
		return
	}

	stored, err := h.persons.Add(r.Context(), payload)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/person/%d", stored.ID))
	utils.RespondJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	payload, ok := decodePerson(w, r)
	if !ok {
		return
	}
	if payload.ID != 0 && payload.ID != id {
		utils.RespondError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}

	h.update(w, r, id, payload)
}

// handleUpdatePersonByBody serves PUT /person, where the id travels in the body.
func (h *Handler) handleUpdatePersonByBody(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePerson(w, r)
	if !ok {
		return
	}
	if payload.ID == 0 {
		utils.RespondError(w, http.StatusBadRequest, "id is required")
		return
	}

	h.update(w, r, payload.ID, payload)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, id uint32, payload person.Person) {
	updated, err := h.persons.Update(r.Context(), id, payload)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	removed, err := h.persons.Delete(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, removed)
}

// respondStoreError maps store failures onto status codes.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, person.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, person.ErrConflict):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, person.ErrInvalidPerson):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, person.ErrLockPoisoned):
		log.Printf("[persons] store unavailable: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "person store unavailable")
	default:
		log.Printf("[persons] unexpected store error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid person id %q", raw))
		return 0, false
	}
	return uint32(id), true
}

func decodePerson(w http.ResponseWriter, r *http.Request) (person.Person, bool) {
	var payload person.Person

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return person.Person{}, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "request body must contain a single JSON object")
		return person.Person{}, false
	}
	return payload, true
}
