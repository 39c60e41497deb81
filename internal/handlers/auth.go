package handlers

import (
	"net/http"

	"todo-api/internal/apperrors"
	"todo-api/internal/models"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthRecorder interface {
	RecordAuth(event, outcome string)
}

type AuthHandler struct {
	authService services.AuthService
	tokenTTL    int64
	recorder    AuthRecorder
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *models.User `json:"user"`
}

// NewAuthHandler takes the token lifetime in seconds for expires_in. A nil
// recorder disables auth metrics.
func NewAuthHandler(authService services.AuthService, tokenTTLSeconds int64, recorder AuthRecorder) *AuthHandler {
	return &AuthHandler{authService: authService, tokenTTL: tokenTTLSeconds, recorder: recorder}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := bindJSON(c, &req); err != nil {
		h.record("signup", err)
		respondError(c, err)
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	h.record("signup", err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		Message: "user created successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.record("login", err)
		respondError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	h.record("login", err)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "login successful",
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresIn: h.tokenTTL,
		User:      result.User,
	})
}

func (h *AuthHandler) record(event string, err error) {
	if h.recorder == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}
	h.recorder.RecordAuth(event, outcome)
}
