package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/credential-service/internal/auth/service"
	commonhttp "github.com/AlibekovAA/credential-service/internal/common/http"
	"github.com/AlibekovAA/credential-service/internal/common/jwtverify"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	userdomain "github.com/AlibekovAA/credential-service/internal/user/domain"
)

const (
	messageUserCreated  = "User has been created"
	messageUserLoggedIn = "User has been logged in"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	auth         *service.AuthService
	log          *logger.Logger
	errorHandler *commonhttp.ErrorHandler
}

func NewHandler(auth *service.AuthService, requestTimeout time.Duration, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:         auth,
		log:          log,
		errorHandler: commonhttp.NewErrorHandler(log),
	}

	withTimeout := commonhttp.WithTimeout(requestTimeout)
	requireAuth := jwtverify.Middleware(auth, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.HandleFunc("/register", commonhttp.RequireMethod(http.MethodPost)(withTimeout(h.register)))
	mux.HandleFunc("/login", commonhttp.RequireMethod(http.MethodPost)(withTimeout(h.login)))
	mux.Handle("/me", commonhttp.RequireMethod(http.MethodGet)(requireAuth(withTimeout(h.me)).ServeHTTP))
	mux.HandleFunc("/", h.notFound)
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, "register", err)
		return
	}

	result, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, tokenResponse{Message: messageUserCreated, Token: result.Token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.writeDecodeError(w, r, "login", err)
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{Message: messageUserLoggedIn, Token: result.Token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwtverify.FromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, service.ErrInvalidToken)
		return
	}

	profile, err := h.auth.Me(r.Context(), userdomain.ID(claims.UserID))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, profileResponse{
		ID:        string(profile.ID),
		Email:     profile.Email,
		Username:  profile.Username,
		CreatedAt: profile.CreatedAt,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeNotFound, "not found", nil, commonhttp.TraceIDFromContext(r.Context()))
}

func (h *Handler) writeDecodeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if commonhttp.IsBodyTooLarge(err) {
		h.log.WithFields(r.Context(), logger.Fields{"action": op + "_body_too_large"}).Warnf("%s failed: %v", op, err)
		commonhttp.WriteRequestTooLarge(w, r)
		return
	}
	h.log.WithFields(r.Context(), logger.Fields{"action": op + "_invalid_json"}).Warnf("%s failed: invalid json: %v", op, err)
	commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, commonhttp.TraceIDFromContext(r.Context()))
}
