// Package httpapi serves the session engine over JSON/HTTP.
//
// Routes:
//
//	POST /auth/signup        CreateAccount        201 {access_token, refresh_token}
//	POST /auth/signin        SignIn               200 {access_token, refresh_token}
//	POST /auth/refresh       Refresh              200 {access_token, refresh_token}
//	POST /auth/verify        VerifyToken          200 {valid}
//	POST /auth/signout       SignOut (Bearer)     200 {message: "OK"}
//	GET  /users/me           GetMe (Bearer)       200 user
//	POST /posts/owner-check  OwnerCheck (Bearer)  200 {owner}
//
// Engine errors map to statuses: invalid credentials 403, duplicate email
// 409, engine not ready 503, anything else 500.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
)

// Engine is the subset of *goSession.Engine the handlers call.
type Engine interface {
	CreateAccount(ctx context.Context, req goSession.CreateAccountRequest) (goSession.TokenPair, error)
	SignIn(ctx context.Context, req goSession.SignInRequest) (goSession.TokenPair, error)
	Refresh(ctx context.Context, req goSession.RefreshRequest) (goSession.TokenPair, error)
	SignOut(ctx context.Context, userID string) error
	VerifyToken(ctx context.Context, token string) bool
	Authenticate(ctx context.Context, token string) (string, bool)
	GetMe(ctx context.Context, userID string) (goSession.User, error)
	OwnerCheck(ctx context.Context, resourceID, claimedOwnerID string) bool
}

// Handler wires HTTP endpoints to the engine.
type Handler struct {
	engine Engine
	log    *slog.Logger
}

// NewHandler returns a Handler. A nil logger falls back to slog.Default.
func NewHandler(engine Engine, log *slog.Logger) (*Handler, error) {
	if engine == nil {
		return nil, errors.New("httpapi: nil engine")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{engine: engine, log: log}, nil
}

// Register wires the routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	guard := middleware.Guard(h.engine)

	mux.HandleFunc("POST /auth/signup", h.handleSignUp)
	mux.HandleFunc("POST /auth/signin", h.handleSignIn)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/verify", h.handleVerify)
	mux.Handle("POST /auth/signout", guard(http.HandlerFunc(h.handleSignOut)))
	mux.Handle("GET /users/me", guard(http.HandlerFunc(h.handleMe)))
	mux.Handle("POST /posts/owner-check", guard(http.HandlerFunc(h.handleOwnerCheck)))
}

type verifyRequest struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type ownerCheckRequest struct {
	PostID string `json:"postId"`
}

type ownerCheckResponse struct {
	Owner bool `json:"owner"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req goSession.CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	pair, err := h.engine.CreateAccount(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, r, "auth.signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req goSession.SignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	pair, err := h.engine.SignIn(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, r, "auth.signin", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req goSession.RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "userId and refreshToken are required")
		return
	}

	pair, err := h.engine.Refresh(r.Context(), req)
	if err != nil {
		h.writeEngineError(w, r, "auth.refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: h.engine.VerifyToken(r.Context(), req.Token)})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.engine.SignOut(r.Context(), userID); err != nil {
		h.writeEngineError(w, r, "auth.signout", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "OK"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	user, err := h.engine.GetMe(r.Context(), userID)
	if err != nil {
		h.writeEngineError(w, r, "users.me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleOwnerCheck(w http.ResponseWriter, r *http.Request) {
	var req ownerCheckRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, ownerCheckResponse{Owner: h.engine.OwnerCheck(r.Context(), req.PostID, userID)})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), op+".fail", "err", err)
	}
	writeError(w, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, goSession.ErrInvalidCredentials):
		return http.StatusForbidden, "invalid_credentials"
	case errors.Is(err, goSession.ErrDuplicateCredential):
		return http.StatusConflict, "duplicate_credential"
	case errors.Is(err, goSession.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "not_ready"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
