package customer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clientbook/service/internal/middleware"
	"github.com/clientbook/service/internal/response"
	"github.com/clientbook/service/internal/storage"
)

// maxPhotoBytes caps the multipart memory buffer for photo uploads.
const maxPhotoBytes = 10 << 20

// Handler holds HTTP handlers for customer endpoints. All routes require an
// authenticated caller, enforced by middleware.
type Handler struct {
	svc *Service
}

// NewHandler creates a new customer Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	Name    string `json:"name"    example:"Ada"`
	Surname string `json:"surname" example:"Lovelace"`
}

type updateRequest struct {
	Name    *string `json:"name,omitempty"    example:"Ada"`
	Surname *string `json:"surname,omitempty" example:"Lovelace"`
}

func validNameField(v string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed != "" && len(v) >= 2 && len(v) <= 20
}

// actor extracts the authenticated principal's username for audit fields.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return "", false
	}
	return p.Username, true
}

// List godoc
//
//	@Summary		Get all existing customers
//	@Description	Returns every customer with freshly signed photo URLs. Requires an authenticated user.
//	@Tags			customers
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Response}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/v1/customers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, customers)
}

// Create godoc
//
//	@Summary		Create a new customer
//	@Description	Persists a new customer with no photo. Requires an authenticated user.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createRequest	true	"Customer details"
//	@Success		200		{object}	response.Envelope{data=Response}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/customers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !validNameField(req.Name) {
		response.BadRequest(w, "name must be 2-20 characters")
		return
	}
	if !validNameField(req.Surname) {
		response.BadRequest(w, "surname must be 2-20 characters")
		return
	}

	c, err := h.svc.Create(r.Context(), who, req.Name, req.Surname)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// GetByID godoc
//
//	@Summary		Get an existing customer by their ID
//	@Description	Requires an authenticated user.
//	@Tags			customers
//	@Produce		json
//	@Security		BearerAuth
//	@Param			customerID	path		int	true	"Customer ID"
//	@Success		200			{object}	response.Envelope{data=Response}
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/v1/customers/{customerID} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// Patch godoc
//
//	@Summary		Update an existing customer by their ID
//	@Description	Applies only the supplied fields. Requires an authenticated user.
//	@Tags			customers
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			customerID	path		int				true	"Customer ID"
//	@Param			request		body		updateRequest	true	"Fields to update"
//	@Success		200			{object}	response.Envelope{data=Response}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/v1/customers/{customerID} [patch]
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Name != nil && !validNameField(*req.Name) {
		response.BadRequest(w, "name must be 2-20 characters")
		return
	}
	if req.Surname != nil && !validNameField(*req.Surname) {
		response.BadRequest(w, "surname must be 2-20 characters")
		return
	}

	c, err := h.svc.Patch(r.Context(), who, id, UpdateRequest{Name: req.Name, Surname: req.Surname})
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// Delete godoc
//
//	@Summary		Delete an existing customer by their ID
//	@Description	Also removes any attached photo from object storage. Requires an authenticated user.
//	@Tags			customers
//	@Produce		json
//	@Security		BearerAuth
//	@Param			customerID	path		int	true	"Customer ID"
//	@Success		200			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/v1/customers/{customerID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]bool{"deleted": true})
}

// AttachPhoto godoc
//
//	@Summary		Update an existing customer's photo by their ID
//	@Description	Replaces the attached photo; the previous blob is removed from storage. Requires an authenticated user.
//	@Tags			customers
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			customerID	path		int		true	"Customer ID"
//	@Param			photo		formData	file	true	"Photo file"
//	@Success		200			{object}	response.Envelope{data=Response}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/v1/customers/{customerID}/photo [post]
func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		response.BadRequest(w, `multipart file field "photo" is required`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.uploadError(w, fmt.Errorf("%w: read incoming file: %v", storage.ErrUploadFailed, err))
		return
	}

	c, err := h.svc.AttachPhoto(r.Context(), who, id, data, header.Filename)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "customer not found")
		return
	}
	if err != nil {
		h.uploadError(w, err)
		return
	}
	response.OK(w, c)
}

// uploadError distinguishes incoming-file read failures from other storage
// backend errors; both are server-side.
func (h *Handler) uploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrUploadFailed) {
		response.Error(w, http.StatusInternalServerError, "photo upload failed")
		return
	}
	response.InternalError(w)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid customer id")
		return 0, false
	}
	return id, true
}
