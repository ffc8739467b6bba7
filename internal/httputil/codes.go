package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeNotFound           = "NOT_FOUND"

	// auth
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodePhoneNumberExists  = "PHONE_NUMBER_EXISTS"

	// phone confirmation
	CodeAlreadyConfirmed = "PHONE_ALREADY_CONFIRMED"
	CodeNotConfirmed     = "PHONE_NOT_CONFIRMED"
	CodeNoChallenge      = "CONFIRMATION_NOT_REQUESTED"
	CodeInvalidCode      = "INVALID_CONFIRMATION_CODE"

	// todos and images
	CodeTodoNotFound       = "TODO_NOT_FOUND"
	CodePageNotFound       = "PAGE_NOT_FOUND"
	CodeImageNotFound      = "IMAGE_NOT_FOUND"
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeImageTooLarge      = "IMAGE_TOO_LARGE"
)
