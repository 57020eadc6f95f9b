package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/internal/ratelimit"
	"github.com/policynav/policynav/internal/service"
	"github.com/policynav/policynav/pkg/validator"
)

// AuthHandler owns the public authentication endpoints: signup, login, and
// the forgotten-password chain (security question → OTP → reset).
type AuthHandler struct {
	authService *service.AuthService
	otpService  *service.OtpService
	tokens      *auth.TokenManager
	limiter     *ratelimit.Limiter
	validator   *validator.Validator
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService, otpService *service.OtpService, tokens *auth.TokenManager, limiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		otpService:  otpService,
		tokens:      tokens,
		limiter:     limiter,
		validator:   validator.New(),
	}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/signup", h.handleSignup)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/forgot", h.handleForgot)
	mux.HandleFunc("/api/forgot/verify", h.handleForgotVerify)
	mux.HandleFunc("/api/otp/verify", h.handleOtpVerify)
	mux.HandleFunc("/api/reset", h.handleReset)
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.limiter.Check("signup"); err != nil {
		serviceError(w, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "account created successfully", resp)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Key on the normalized address so case variants share one bucket.
	if err := h.limiter.Check(fmt.Sprintf("login:%s", h.validator.NormalizeEmail(req.Email))); err != nil {
		serviceError(w, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", resp)
}

func (h *AuthHandler) handleForgot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.limiter.Check(fmt.Sprintf("forgot:%s", h.validator.NormalizeEmail(req.Email))); err != nil {
		serviceError(w, err)
		return
	}

	question, err := h.authService.SecurityQuestion(r.Context(), req.Email)
	if err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "answer your security question", map[string]string{
		"security_question": question,
	})
}

// handleForgotVerify checks the security answer and, when it matches, issues
// an OTP to the account email.
func (h *AuthHandler) handleForgotVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email  string `json:"email"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.authService.CheckSecurityAnswer(r.Context(), req.Email, req.Answer); err != nil {
		serviceError(w, err)
		return
	}

	if err := h.otpService.Initiate(r.Context(), req.Email); err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "OTP sent to your email", nil)
}

// handleOtpVerify consumes a correct code and answers with a purpose-scoped
// reset token; it carries no privileges beyond the reset operation.
func (h *AuthHandler) handleOtpVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.otpService.Verify(r.Context(), req.Email, req.Code); err != nil {
		serviceError(w, err)
		return
	}

	resetToken, err := h.tokens.IssueResetToken(req.Email)
	if err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "OTP verified", map[string]string{
		"reset_token": resetToken,
	})
}

func (h *AuthHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired password reset session")
		return
	}
	// The purpose claim gates this operation; a session token is not enough
	if claims.Purpose != auth.PurposePasswordReset {
		respond.Error(w, http.StatusUnauthorized, "token not valid for this operation")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), claims.Subject, req.NewPassword, req.ConfirmPassword); err != nil {
		serviceError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, "password reset successful, please login", nil)
}
