// Package handler exposes the HTTP surface of the API. Routes decode requests,
// enforce token ownership, delegate to the domain services, and map domain
// errors onto status codes and the JSON error envelope.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ideabank/ideabank-webapi/internal/domain/account"
	"github.com/ideabank/ideabank-webapi/internal/domain/auth"
	"github.com/ideabank/ideabank-webapi/internal/domain/concept"
	"github.com/ideabank/ideabank-webapi/internal/domain/engagement"
)

// Handler routes API requests to the domain services.
type Handler struct {
	accounts   *account.Service
	concepts   *concept.Service
	engagement *engagement.Service
	tokens     *auth.Issuer
}

// New constructs a Handler with the required domain dependencies.
func New(
	accounts *account.Service,
	concepts *concept.Service,
	eng *engagement.Service,
	tokens *auth.Issuer,
) *Handler {
	return &Handler{
		accounts:   accounts,
		concepts:   concepts,
		engagement: eng,
		tokens:     tokens,
	}
}

// Register wires every API route onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/accounts/create", h.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts/authenticate", h.authenticate).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{display_name}/profile", h.fetchProfile).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{display_name}/avatar/upload", h.avatarUploadLink).Methods(http.MethodGet)

	r.HandleFunc("/concepts", h.createConcept).Methods(http.MethodPost)
	r.HandleFunc("/concepts", h.searchConcepts).Methods(http.MethodGet)
	r.HandleFunc("/concepts/{author}/{title}", h.getConcept).Methods(http.MethodGet)
	r.HandleFunc("/concepts/{author}/{title}/lineage", h.getLineage).Methods(http.MethodGet)
	r.HandleFunc("/concepts/{author}/{title}/thumbnail/upload", h.thumbnailUploadLink).Methods(http.MethodGet)
	r.HandleFunc("/concepts/{author}/{title}/comments", h.commentSection).Methods(http.MethodGet)
	r.HandleFunc("/concepts/{author}/{title}/comments", h.postComment).Methods(http.MethodPost)
	r.HandleFunc("/links", h.createLink).Methods(http.MethodPost)

	r.HandleFunc("/follows", h.createFollow).Methods(http.MethodPost)
	r.HandleFunc("/follows", h.checkFollow).Methods(http.MethodGet)
	r.HandleFunc("/follows", h.deleteFollow).Methods(http.MethodDelete)
	r.HandleFunc("/likes", h.createLike).Methods(http.MethodPost)
	r.HandleFunc("/likes", h.checkLike).Methods(http.MethodGet)
	r.HandleFunc("/likes", h.deleteLike).Methods(http.MethodDelete)
}

type errorBody struct {
	ErrMsg string `json:"err_msg"`
}

type infoBody struct {
	Msg string `json:"msg"`
}

type uploadBody struct {
	URL string `json:"url"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{ErrMsg: msg})
}

func respondMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, infoBody{Msg: msg})
}

// respondInternal logs err and answers with an opaque 500.
func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
