package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

const maxBodyBytes = 1 << 20

// Handler exposes signup, login and token introspection over HTTP.
type Handler struct {
	registry *Registry
	issuer   *SessionIssuer
	logger   *zap.SugaredLogger
}

func NewHandler(registry *Registry, issuer *SessionIssuer, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{registry: registry, issuer: issuer, logger: logger}
}

// CredentialsRequest is the body of signup and login. Method defaults to email_password.
type CredentialsRequest struct {
	Method        string `json:"method"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ProviderToken string `json:"providerToken,omitempty"`
}

type UserResponse struct {
	UserID        uuid.UUID  `json:"userId"`
	Username      *string    `json:"username"`
	Email         string     `json:"email"`
	ExternalID    *string    `json:"externalId"`
	EmailVerified bool       `json:"emailVerified"`
	AuthProvider  string     `json:"authProvider"`
	UserState     string     `json:"userState"`
	RequiresMFA   bool       `json:"requiresMfa"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		UserID:        u.ID,
		Username:      u.Username,
		Email:         u.Email,
		ExternalID:    u.ExternalID,
		EmailVerified: u.EmailVerified,
		AuthProvider:  u.AuthProvider.String(),
		UserState:     u.UserState.String(),
		RequiresMFA:   u.RequiresMFA,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	req, strategy, ok := h.decode(w, r)
	if !ok {
		return
	}
	u, err := strategy.Signup(r.Context(), req.credentials())
	if err != nil {
		h.writeError(w, "signup failed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, NewUserResponse(u))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, strategy, ok := h.decode(w, r)
	if !ok {
		return
	}
	u, err := strategy.Authenticate(r.Context(), req.credentials())
	if err != nil {
		h.writeError(w, "login failed", err)
		return
	}
	access, refresh, err := h.issuer.MakeSession(r.Context(), *u, ClientIP(r), ParseDeviceInfo(r.UserAgent()))
	if err != nil {
		h.writeError(w, "session issuance failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"})
}

// Introspect returns the verified claims of the bearer access token.
func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	claims, err := h.issuer.IntrospectAccess(bearerToken(r))
	if err != nil {
		h.writeError(w, "introspection failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, claims)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CredentialsRequest, Strategy, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return req, nil, false
	}
	method, err := ParseMethod(req.Method)
	if err == nil {
		var s Strategy
		if s, err = h.registry.Strategy(method); err == nil {
			return req, s, true
		}
	}
	h.writeError(w, "unsupported method", err)
	return req, nil, false
}

func (r CredentialsRequest) credentials() Credentials {
	return Credentials{Email: r.Email, Password: r.Password, ProviderToken: r.ProviderToken}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("bearer "):])
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	status, public := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw(msg, "err", err)
	} else {
		h.logger.Debugw(msg, "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": public})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
