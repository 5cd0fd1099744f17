package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
)

const (
	msgBadTokenFormat = "Invalid token format"
	msgNotFound       = "Resource not found"
	msgInternalServer = "Internal Server Error"
	msgUnauthorized   = "Unauthorized"
	msgTokenExpired   = "Token has expired"
	msgForbidden      = "Forbidden"
	msgConflict       = "Resource already exists"
)

// HTTPError is an error with an HTTP status code and a client-facing
// message. The cause is logged but never sent.
type HTTPError struct {
	cause   error
	Code    int
	Message string
	// body key for client errors, "msg" when empty
	key string
}

func (he *HTTPError) Error() string {
	return he.Message
}

func (he *HTTPError) Unwrap() error {
	return he.cause
}

func newHTTPError(code int, message string, cause error) *HTTPError {
	return &HTTPError{cause: cause, Code: code, Message: message}
}

// bodyKey is the JSON field a client error message is sent under.
func (he *HTTPError) bodyKey() string {
	if he.key == "" {
		return "msg"
	}
	return he.key
}

// withMessageKey classifies err like toHTTPError but sends client errors as
// {"message": ...}. Signup clients read that key.
func withMessageKey(err error) error {
	if err == nil {
		return nil
	}
	he := *toHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		return err
	}
	he.key = "message"
	return &he
}

func errBadRequest(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, cause)
}

func errUnauthorized(message string) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, nil)
}

// toHTTPError classifies err. Explicit HTTPErrors pass through; domain
// sentinels get their canonical status; anything else is a 500.
func toHTTPError(err error) *HTTPError {
	var he *HTTPError
	switch {
	case errors.As(err, &he):
		return he
	case errors.Is(err, common.ErrMalformedIdentity):
		return errBadRequest(msgBadTokenFormat, err)
	case errors.Is(err, common.ErrorValidation):
		return errBadRequest(err.Error(), err)
	case errors.Is(err, common.ErrTokenExpired):
		return newHTTPError(http.StatusUnauthorized, msgTokenExpired, err)
	case errors.Is(err, common.ErrorUnauthorized):
		return newHTTPError(http.StatusUnauthorized, msgUnauthorized, err)
	case errors.Is(err, common.ErrorForbidden):
		return newHTTPError(http.StatusForbidden, msgForbidden, err)
	case errors.Is(err, common.ErrorNotFound):
		return newHTTPError(http.StatusNotFound, msgNotFound, err)
	case errors.Is(err, common.ErrorConflict):
		return newHTTPError(http.StatusConflict, msgConflict, err)
	default:
		return newHTTPError(http.StatusInternalServerError, msgInternalServer, err)
	}
}
