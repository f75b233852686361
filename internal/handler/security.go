package handler

import (
	"net/http"
	"strings"

	"github.com/ideabank/ideabank-webapi/internal/domain/auth"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", auth.ErrNotAuthorized
	}
	return strings.TrimPrefix(header, prefix), nil
}

// authorize checks that the request carries a valid token issued to presenter.
// Every write operation binds the token owner to the acting party this way, so
// a valid token cannot act on someone else's behalf.
func (h *Handler) authorize(r *http.Request, presenter string) error {
	token, err := bearerToken(r)
	if err != nil {
		return err
	}
	return h.tokens.Verify(auth.AuthorizationToken{Token: token, Presenter: presenter})
}
