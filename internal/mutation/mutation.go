package mutation

import (
	"context"
	"net/http"

	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

// api is the slice of the transport client the mutation modules consume.
type api interface {
	Post(ctx context.Context, path string, body, dest interface{}) error
	Put(ctx context.Context, path string, body, dest interface{}) error
	Patch(ctx context.Context, path string, body, dest interface{}) error
	Delete(ctx context.Context, path string) error
}

const fallbackMessage = "something went wrong, try again"

// mapError rewrites known HTTP statuses into human-readable messages for the
// operation, leaving the typed error's code and status intact. Unauthorized
// responses pass through untouched; the transport layer already flipped the
// shared auth state.
func mapError(err error, messages map[int]string) error {
	if err == nil {
		return nil
	}
	appErr := apperrors.FromError(err)
	if appErr.Status == http.StatusUnauthorized {
		return appErr
	}
	if msg, ok := messages[appErr.Status]; ok {
		return apperrors.Clone(appErr, msg)
	}
	return apperrors.Clone(appErr, fallbackMessage)
}

func validID(id int64) error {
	if id <= 0 {
		return apperrors.ErrInvalidID
	}
	return nil
}
