package auth

import (
	"errors"
	"mime"
	"net/http"

	"github.com/redmonkez12/todos-api/internal/httputil"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/user"
)

// Handler contains HTTP handlers for the /accounts endpoints
type Handler struct {
	service     *Service
	showDetails bool
}

func NewHandler(service *Service, showDetails bool) *Handler {
	return &Handler{
		service:     service,
		showDetails: showDetails,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=17"`
	Password    string `json:"password" validate:"required,min=6,max=255"`
}

// LoginRequest holds the form fields of the token endpoint
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=17"`
	Password    string `json:"password" validate:"required,min=6,max=255"`
}

type UpdateProfileRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=17"`
}

type ConfirmPhoneNumberRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type ChangePasswordRequest struct {
	NewPassword        string `json:"new_password" validate:"required,min=6,max=255"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

type DeactivateRequest struct {
	Password string `json:"password" validate:"required"`
}

// Register handles POST /accounts/
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid registration request", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	newUser, err := h.service.Register(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to register user")
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// Token handles POST /accounts/token/ with a form-encoded body
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	req, err := decodeLoginRequest(r)
	if err != nil {
		logger.Warn("invalid token request", "error", err.Error())
		httputil.RespondDecodeError(w, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, "Invalid phone number or password.", httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, "failed to login", err, h.showDetails)
		return
	}

	httputil.RespondJSON(w, token, http.StatusOK)
}

// GetProfile handles GET /accounts/profile/
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, AnyUser)
	if !ok {
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// UpdateProfile handles PUT /accounts/profile/
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, AnyUser)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), u, req.PhoneNumber)
	if err != nil {
		h.respondServiceError(w, r, err, "failed to update profile")
		return
	}

	httputil.RespondJSON(w, updated, http.StatusOK)
}

// AskPhoneConfirmation handles POST /accounts/phone-number/confirm/ask/
func (h *Handler) AskPhoneConfirmation(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, UnconfirmedUser)
	if !ok {
		return
	}

	if err := h.service.AskPhoneConfirmation(r.Context(), u); err != nil {
		h.respondServiceError(w, r, err, "failed to issue confirmation code")
		return
	}

	httputil.RespondMessage(w, "A confirmation code was sent to your phone.")
}

// ConfirmPhoneNumber handles POST /accounts/phone-number/confirm/
func (h *Handler) ConfirmPhoneNumber(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, UnconfirmedUser)
	if !ok {
		return
	}

	var req ConfirmPhoneNumberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	if err := h.service.ConfirmPhoneNumber(r.Context(), u, req.Code); err != nil {
		h.respondServiceError(w, r, err, "failed to confirm phone number")
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("phone number confirmed", "user_id", u.ID)
	httputil.RespondMessage(w, "Your phone number was successfully confirmed.")
}

// ChangePassword handles POST /accounts/password/change/
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, AnyUser)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), u, req.NewPassword, req.NewPasswordConfirm); err != nil {
		h.respondServiceError(w, r, err, "failed to change password")
		return
	}

	httputil.RespondMessage(w, "Your password has been successfully changed.")
}

// Deactivate handles POST /accounts/deactivate/
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	u, ok := h.identify(w, r, AnyUser)
	if !ok {
		return
	}

	var req DeactivateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondDecodeError(w, err)
		return
	}

	if err := h.service.Deactivate(r.Context(), u, req.Password); err != nil {
		h.respondServiceError(w, r, err, "failed to deactivate account")
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("account deactivated", "user_id", u.ID)
	httputil.RespondMessage(w, "Your account has been successfully deactivated.")
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request, req Requirement) (*user.User, bool) {
	u, err := h.service.Identify(r, req)
	if err != nil {
		RespondIdentityError(w, r, err, h.showDetails)
		return nil, false
	}
	return u, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch {
	case errors.Is(err, user.ErrDuplicatePhoneNumber):
		httputil.RespondError(w, "A user with this phone number already exists.", httputil.CodePhoneNumberExists, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidPhoneNumber):
		httputil.RespondError(w, "Invalid phone number.", httputil.CodeValidationError, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordLength):
		httputil.RespondError(w, "password must be between 6 and 255 characters", httputil.CodeValidationError, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordMismatch):
		httputil.RespondError(w, "Passwords must match.", httputil.CodeValidationError, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidPassword):
		httputil.RespondError(w, "Invalid password.", httputil.CodeInvalidPassword, http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyConfirmed):
		httputil.RespondError(w, "Your phone is already confirmed.", httputil.CodeAlreadyConfirmed, http.StatusForbidden)
	case errors.Is(err, ErrNoChallenge):
		httputil.RespondError(w, "You did not ask for phone number confirmation.", httputil.CodeNoChallenge, http.StatusForbidden)
	case errors.Is(err, ErrCodeMismatch):
		httputil.RespondError(w, "Invalid code.", httputil.CodeInvalidCode, http.StatusBadRequest)
	default:
		logger.Error(message, "error", err.Error())
		httputil.RespondInternalError(w, message, err, h.showDetails)
	}
}

// decodeLoginRequest reads the token request from a form body, or from JSON
// when the client sends application/json.
func decodeLoginRequest(r *http.Request) (*LoginRequest, error) {
	req := &LoginRequest{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := httputil.DecodeJSON(r, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, httputil.ErrInvalidBody
	}
	req.PhoneNumber = r.PostForm.Get("phone_number")
	req.Password = r.PostForm.Get("password")

	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}
