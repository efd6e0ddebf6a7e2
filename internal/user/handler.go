package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clientbook/service/internal/response"
)

// Handler holds HTTP handlers for user management endpoints.
// All routes require the ADMIN role, enforced by middleware.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	Username string `json:"username" example:"jsmith"`
	Password string `json:"password" example:"s3cret"`
	Admin    bool   `json:"admin"    example:"false"`
}

type updateRequest struct {
	Username *string `json:"username,omitempty" example:"jsmith"`
	Password *string `json:"password,omitempty" example:"s3cret"`
	Admin    *bool   `json:"admin,omitempty"    example:"true"`
}

func validCredentialField(v string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed != "" && len(v) >= 4 && len(v) <= 20
}

// List godoc
//
//	@Summary		Get all existing users
//	@Description	Returns every user account. Required roles: ADMIN.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Response}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/v1/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]Response, 0, len(users))
	for _, u := range users {
		out = append(out, ToResponse(u))
	}
	response.OK(w, out)
}

// Create godoc
//
//	@Summary		Create a new user
//	@Description	Registers a user account. The username must be unique. Required roles: ADMIN.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createRequest	true	"User details"
//	@Success		200		{object}	response.Envelope{data=Response}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !validCredentialField(req.Username) {
		response.BadRequest(w, "username must be 4-20 characters")
		return
	}
	if !validCredentialField(req.Password) {
		response.BadRequest(w, "password must be 4-20 characters")
		return
	}

	u, err := h.svc.Create(r.Context(), req.Username, req.Password, req.Admin)
	if errors.Is(err, ErrUsernameTaken) {
		response.BadRequest(w, "username already exists")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(u))
}

// GetByID godoc
//
//	@Summary		Get an existing user by their ID
//	@Description	Required roles: ADMIN.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	response.Envelope{data=Response}
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/users/{userID} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	u, err := h.svc.GetByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "user not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(u))
}

// Patch godoc
//
//	@Summary		Update an existing user by their ID
//	@Description	Applies only the supplied fields. A supplied password is re-hashed. Required roles: ADMIN.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userID	path		int				true	"User ID"
//	@Param			request	body		updateRequest	true	"Fields to update"
//	@Success		200		{object}	response.Envelope{data=Response}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/users/{userID} [patch]
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Username != nil && !validCredentialField(*req.Username) {
		response.BadRequest(w, "username must be 4-20 characters")
		return
	}
	if req.Password != nil && !validCredentialField(*req.Password) {
		response.BadRequest(w, "password must be 4-20 characters")
		return
	}

	u, err := h.svc.Patch(r.Context(), id, UpdateRequest{
		Username: req.Username,
		Password: req.Password,
		Admin:    req.Admin,
	})
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "user not found")
		return
	}
	if errors.Is(err, ErrUsernameTaken) {
		response.BadRequest(w, "username already exists")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(u))
}

// Delete godoc
//
//	@Summary		Delete an existing user by their ID
//	@Description	The last remaining administrator cannot be deleted. Required roles: ADMIN.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/users/{userID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(w, "user not found")
		return
	}
	if errors.Is(err, ErrLastAdmin) {
		response.BadRequest(w, "cannot delete the last admin user")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"deleted": true})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return 0, false
	}
	return id, true
}
