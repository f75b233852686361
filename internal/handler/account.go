package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/ideabank/ideabank-webapi/internal/domain/account"
	"github.com/ideabank/ideabank-webapi/internal/domain/auth"
)

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var creds account.CredentialSet
	if err := decodeJSON(r, &creds); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	name, err := h.accounts.Register(r.Context(), creds)
	switch {
	case err == nil:
		respondMsg(w, http.StatusCreated, fmt.Sprintf("account created: %s", name))
	case errors.Is(err, account.ErrInvalidDisplayName), errors.Is(err, account.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrDisplayNameTaken):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) {
	var creds account.CredentialSet
	if err := decodeJSON(r, &creds); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	name, err := h.accounts.Authenticate(r.Context(), creds)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		respondInternal(w, r, err)
		return
	}

	token, err := h.tokens.Issue(name)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, auth.AuthorizationToken{Token: token, Presenter: name})
}

func (h *Handler) fetchProfile(w http.ResponseWriter, r *http.Request) {
	displayName := mux.Vars(r)["display_name"]
	if err := h.authorize(r, displayName); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	profile, err := h.accounts.FetchProfile(r.Context(), displayName)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no account named %s", displayName))
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *Handler) avatarUploadLink(w http.ResponseWriter, r *http.Request) {
	displayName := mux.Vars(r)["display_name"]
	if err := h.authorize(r, displayName); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	url, err := h.accounts.AvatarUploadLink(r.Context(), displayName)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no account named %s", displayName))
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, uploadBody{URL: url})
}
