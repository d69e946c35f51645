package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"commung/internal/domain"
	"commung/internal/middleware"
	"commung/internal/observability"
	"commung/internal/service"
)

// SSOHandler implements the cross-domain authentication hand-off
// endpoints: initiation on the console side and token exchange on the
// community side.
type SSOHandler struct {
	ssoService  *service.SSOService
	authService *service.AuthService
}

// NewSSOHandler creates a new SSO handler
func NewSSOHandler(ssoService *service.SSOService, authService *service.AuthService) *SSOHandler {
	return &SSOHandler{
		ssoService:  ssoService,
		authService: authService,
	}
}

// CallbackRequest is the token exchange request. The domain is passed
// explicitly by the frontend running on the target domain; the Host
// header is not trusted for this.
type CallbackRequest struct {
	Token  string `json:"token"`
	Domain string `json:"domain"`
}

// CallbackResponse carries the freshly minted community session token.
type CallbackResponse struct {
	Message      string `json:"message"`
	SessionToken string `json:"session_token"`
}

// Initiate handles GET /auth/sso?return_to=<url>. Unauthenticated
// callers are redirected to the console login with the original URL as
// the next parameter so the flow can resume after login.
func (h *SSOHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")
	if returnTo == "" {
		http.Error(w, `{"error":"return_to parameter required"}`, http.StatusBadRequest)
		return
	}

	session := h.authenticatedSession(r)
	if session == nil {
		original := r.URL.String()
		http.Redirect(w, r, h.ssoService.LoginRedirectURL(original), http.StatusFound)
		return
	}

	redirectURL, err := h.ssoService.Initiate(r.Context(), session.UserID, returnTo)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	observability.ExchangeTokensIssued.Inc()
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback handles POST /auth/callback: it redeems an exchange token
// for a community-scoped session.
func (h *SSOHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Token == "" || req.Domain == "" {
		http.Error(w, `{"error":"token and domain required"}`, http.StatusBadRequest)
		return
	}

	session, err := h.ssoService.Redeem(r.Context(), req.Token, req.Domain)
	if err != nil {
		observability.ExchangeRedemptions.WithLabelValues(redemptionResult(err)).Inc()
		writeAuthError(w, err)
		return
	}

	observability.ExchangeRedemptions.WithLabelValues(observability.RedemptionSuccess).Inc()
	observability.SessionsCreated.WithLabelValues("community").Inc()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CallbackResponse{
		Message:      "session created",
		SessionToken: session.Token,
	})
}

// authenticatedSession returns the caller's session, or nil when the
// request carries no valid credential.
func (h *SSOHandler) authenticatedSession(r *http.Request) *domain.Session {
	token, ok := middleware.ExtractToken(r)
	if !ok {
		return nil
	}
	session, err := h.authService.ValidateSession(r.Context(), token)
	if err != nil {
		return nil
	}
	return session
}

// writeAuthError decodes a tagged auth error into its JSON body and
// HTTP status. Anything outside the closed set surfaces as a 500.
func writeAuthError(w http.ResponseWriter, err error) {
	ae := domain.AsAuthError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status)
	json.NewEncoder(w).Encode(map[string]string{"error": ae.Message})
}

// redemptionResult maps a redemption failure to its metric label.
func redemptionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return observability.RedemptionInvalidToken
	case errors.Is(err, domain.ErrTokenExpired):
		return observability.RedemptionExpired
	case errors.Is(err, domain.ErrTokenAlreadyUsed):
		return observability.RedemptionAlreadyUsed
	case errors.Is(err, domain.ErrDomainMismatch):
		return observability.RedemptionWrongDomain
	default:
		return observability.RedemptionInternalError
	}
}
