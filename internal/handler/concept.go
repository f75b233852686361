package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/ideabank/ideabank-webapi/internal/domain/concept"
)

type createConceptRequest struct {
	Author      string          `json:"author"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Diagram     json.RawMessage `json:"diagram"`
}

func (h *Handler) createConcept(w http.ResponseWriter, r *http.Request) {
	var req createConceptRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.authorize(r, req.Author); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	view, err := h.concepts.Create(r.Context(), concept.Concept{
		Author:      req.Author,
		Title:       req.Title,
		Description: req.Description,
		Diagram:     req.Diagram,
	})
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, view)
	case errors.Is(err, concept.ErrInvalidTitle), errors.Is(err, concept.ErrInvalidDiagram):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, concept.ErrDuplicate):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) getConcept(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	author, title := vars["author"], vars["title"]

	simple, _ := strconv.ParseBool(r.URL.Query().Get("simple"))

	var (
		view any
		err  error
	)
	if simple {
		view, err = h.concepts.GetSimple(r.Context(), author, title)
	} else {
		view, err = h.concepts.GetFull(r.Context(), author, title)
	}
	if err != nil {
		if errors.Is(err, concept.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no concept named %s/%s", author, title))
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) searchConcepts(w http.ResponseWriter, r *http.Request) {
	query, err := parseSearchQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.concepts.Search(r.Context(), *query)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func parseSearchQuery(r *http.Request) (*concept.SearchQuery, error) {
	params := r.URL.Query()
	q := concept.SearchQuery{
		Author: params.Get("author"),
		Title:  params.Get("title"),
		Fuzzy:  concept.FuzzyNone,
	}

	if f := params.Get("fuzzy"); f != "" {
		switch opt := concept.FuzzyOption(f); opt {
		case concept.FuzzyNone, concept.FuzzyAuthor, concept.FuzzyTitle, concept.FuzzyAll:
			q.Fuzzy = opt
		default:
			return nil, errors.Errorf("unknown fuzzy option %q", f)
		}
	}

	for name, dst := range map[string]**time.Time{
		"not_before": &q.NotBefore,
		"not_after":  &q.NotAfter,
	} {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errors.Errorf("invalid %s timestamp %q", name, raw)
		}
		*dst = &t
	}
	return &q, nil
}

func (h *Handler) createLink(w http.ResponseWriter, r *http.Request) {
	var link concept.LinkRecord
	if err := decodeJSON(r, &link); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	// Only the author of the descendant concept may declare its ancestry.
	descAuthor, _, err := concept.SplitIdentifier(link.Descendant)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authorize(r, descAuthor); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	created, err := h.concepts.Link(r.Context(), link)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, created)
	case errors.Is(err, concept.ErrInvalidIdentifier):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, concept.ErrNotFound):
		respondError(w, http.StatusNotFound, "one of the linked concepts does not exist")
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) getLineage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	author, title := vars["author"], vars["title"]

	lineage, err := h.concepts.BuildLineage(r.Context(), author, title)
	if err != nil {
		if errors.Is(err, concept.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no concept named %s/%s", author, title))
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lineage)
}

func (h *Handler) thumbnailUploadLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	author, title := vars["author"], vars["title"]
	if err := h.authorize(r, author); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	url, err := h.concepts.ThumbnailUploadLink(r.Context(), author, title)
	if err != nil {
		if errors.Is(err, concept.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("no concept named %s/%s", author, title))
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, uploadBody{URL: url})
}
