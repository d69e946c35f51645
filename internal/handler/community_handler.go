package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/service"

	"github.com/go-chi/chi/v5"
)

// CommunityHandler handles community management endpoints (console side)
type CommunityHandler struct {
	communityService *service.CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(communityService *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{
		communityService: communityService,
	}
}

// CreateCommunityRequest represents community creation request
type CreateCommunityRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// AddDomainRequest represents custom domain registration request
type AddDomainRequest struct {
	Domain string `json:"domain"`
}

// Create creates a new community owned by the caller
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	var req CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	community, err := h.communityService.Create(r.Context(), req.Slug, req.Name, userID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrSlugExists) {
			status = http.StatusConflict
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(community)
}

// List retrieves all communities
func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	communities, err := h.communityService.List(r.Context())
	if err != nil {
		http.Error(w, `{"error":"Failed to retrieve communities"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"communities": communities,
	})
}

// Get retrieves one community by slug
func (h *CommunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	community, err := h.communityService.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrCommunityNotFound) {
			http.Error(w, `{"error":"Community not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"Failed to retrieve community"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(community)
}

// AddDomain registers a custom domain for a community (owner only)
func (h *CommunityHandler) AddDomain(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	slug := chi.URLParam(r, "slug")

	var req AddDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	d, err := h.communityService.AddDomain(r.Context(), slug, req.Domain, userID)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, domain.ErrCommunityNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrDomainExists):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrInvalidCredentials):
			status = http.StatusForbidden
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(d)
}
