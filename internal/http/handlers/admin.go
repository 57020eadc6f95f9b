package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/internal/middleware"
	"github.com/policynav/policynav/internal/service"
)

// AdminHandler exposes the user-management panel operations. Every route is
// wrapped in the admin middleware; handlers assume a verified admin caller.
type AdminHandler struct {
	adminService *service.AdminService
	tokens       *auth.TokenManager
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(adminService *service.AdminService, tokens *auth.TokenManager) *AdminHandler {
	return &AdminHandler{adminService: adminService, tokens: tokens}
}

// Register attaches admin routes to the mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/admin/users", middleware.Admin(h.tokens, h.handleUsers))
	mux.HandleFunc("/api/admin/stats", middleware.Admin(h.tokens, h.handleStats))
	mux.HandleFunc("/api/admin/unlock", middleware.Admin(h.tokens, h.handleUnlock))
	mux.HandleFunc("/api/admin/promote", middleware.Admin(h.tokens, h.handlePromote))
}

// handleUsers serves GET (list) and DELETE (remove by email).
func (h *AdminHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := h.adminService.ListUsers(r.Context())
		if err != nil {
			serviceError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, "users", users)

	case http.MethodDelete:
		email, ok := decodeEmail(w, r)
		if !ok {
			return
		}
		if err := h.adminService.Delete(r.Context(), email); err != nil {
			serviceError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, "user deleted", nil)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "stats", stats)
}

func (h *AdminHandler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.adminService.Unlock(r.Context(), email); err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "account unlocked", nil)
}

func (h *AdminHandler) handlePromote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.adminService.Promote(r.Context(), email); err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "user promoted to admin", nil)
}

func decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return "", false
	}

	return req.Email, true
}
