package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keuthlie/internal/common"
)

var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-zero error code returned by the server.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("keuthlie error %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

var codeErrors = map[int]error{
	-1:  common.ErrInvalidCredentials,
	-2:  common.ErrPasswordTooShort,
	-3:  common.ErrUsernameTaken,
	-4:  common.ErrEmailInUse,
	-5:  common.ErrMalformedInput,
	-6:  common.ErrServiceNotAllowed,
	-7:  common.ErrInvalidToken,
	-99: common.ErrorInternal,
}

func (e *APIError) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && sentinel == target
}
