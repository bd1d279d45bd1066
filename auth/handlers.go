package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"agriconnect/globals"
	"agriconnect/middleware"
	"agriconnect/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	svc          *Service
	sessions     *middleware.Sessions
	secureCookie bool
}

func NewHandler(svc *Service, sessions *middleware.Sessions, secureCookie bool) *Handler {
	return &Handler{svc: svc, sessions: sessions, secureCookie: secureCookie}
}

func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.register(w, r, globals.RoleCustomer)
}

func (h *Handler) RegisterFarmer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.register(w, r, globals.RoleFarmer)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, role string) {
	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	acc, err := h.svc.Register(ctx, role, in)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}

	log.Info().Str("account_id", acc.ID.Hex()).Str("role", role).Msg("account registered")
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Registration successful",
		"user":    acc,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	principal, err := h.svc.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}

	token, claims, err := h.sessions.Issue(principal.ID, principal.Role)
	if err != nil {
		utils.RespondWithServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user":  principal,
		"token": token,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.sessions.Revoke(ctx, middleware.ClaimsFromContext(r.Context())); err != nil {
		log.Error().Err(err).Msg("failed to revoke session")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to invalidate session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logged out successfully"})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"id":   utils.GetUserIDFromRequest(r),
		"role": utils.GetRoleFromRequest(r),
	})
}
