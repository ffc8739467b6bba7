package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/todos-api/internal/httputil"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/user"
)

var (
	ErrMissingAuth       = errors.New("missing authentication")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// Requirement is the confirmation state a handler demands of the caller.
type Requirement int

const (
	AnyUser Requirement = iota
	UnconfirmedUser
	ConfirmedUser
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuth
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

// Identify resolves the caller of r and checks it against req.
func (s *Service) Identify(r *http.Request, req Requirement) (*user.User, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	u, err := s.ResolveIdentity(r.Context(), token, s.now())
	if err != nil {
		return nil, err
	}

	switch req {
	case UnconfirmedUser:
		if u.PhoneNumberIsConfirmed {
			return nil, ErrAlreadyConfirmed
		}
	case ConfirmedUser:
		if !u.PhoneNumberIsConfirmed {
			return nil, ErrNotConfirmed
		}
	}

	return u, nil
}

// RespondIdentityError writes the response for an error returned by Identify.
func RespondIdentityError(w http.ResponseWriter, r *http.Request, err error, showDetails bool) {
	logger := logging.GetLoggerFromContext(r.Context())

	switch {
	case errors.Is(err, ErrMissingAuth):
		w.Header().Set("WWW-Authenticate", "Bearer")
		httputil.RespondError(w, "Not authenticated.", httputil.CodeMissingAuth, http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidAuthHeader):
		w.Header().Set("WWW-Authenticate", "Bearer")
		httputil.RespondError(w, "Invalid authorization header format.", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
	case errors.Is(err, ErrExpiredToken):
		httputil.RespondError(w, "Invalid token.", httputil.CodeTokenExpired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidToken):
		httputil.RespondError(w, "Invalid token.", httputil.CodeInvalidToken, http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyConfirmed):
		httputil.RespondError(w, "Your phone is already confirmed.", httputil.CodeAlreadyConfirmed, http.StatusForbidden)
	case errors.Is(err, ErrNotConfirmed):
		httputil.RespondError(w, "Your phone number is not confirmed.", httputil.CodeNotConfirmed, http.StatusForbidden)
	default:
		logger.Error("failed to resolve identity", "error", err)
		httputil.RespondInternalError(w, "failed to resolve identity", err, showDetails)
	}
}
