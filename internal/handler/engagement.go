package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ideabank/ideabank-webapi/internal/domain/engagement"
)

func (h *Handler) createFollow(w http.ResponseWriter, r *http.Request) {
	var rec engagement.FollowRecord
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.authorize(r, rec.Follower); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	switch err := h.engagement.Follow(r.Context(), rec); {
	case err == nil:
		respondMsg(w, http.StatusCreated, fmt.Sprintf("%s is now following %s", rec.Follower, rec.Followee))
	case errors.Is(err, engagement.ErrSelfFollow):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) checkFollow(w http.ResponseWriter, r *http.Request) {
	rec, err := followFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch err := h.engagement.IsFollowing(r.Context(), rec); {
	case err == nil:
		respondMsg(w, http.StatusOK, fmt.Sprintf("%s is following %s", rec.Follower, rec.Followee))
	case errors.Is(err, engagement.ErrNoRecord):
		respondError(w, http.StatusNotFound, fmt.Sprintf("%s is not following %s", rec.Follower, rec.Followee))
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) deleteFollow(w http.ResponseWriter, r *http.Request) {
	rec, err := followFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authorize(r, rec.Follower); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.engagement.Unfollow(r.Context(), rec); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondMsg(w, http.StatusOK, fmt.Sprintf("%s unfollowed %s", rec.Follower, rec.Followee))
}

func (h *Handler) createLike(w http.ResponseWriter, r *http.Request) {
	var rec engagement.LikeRecord
	if err := decodeJSON(r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.authorize(r, rec.UserLiking); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.engagement.Like(r.Context(), rec); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondMsg(w, http.StatusCreated, fmt.Sprintf("%s likes %s", rec.UserLiking, rec.ConceptLiked))
}

func (h *Handler) checkLike(w http.ResponseWriter, r *http.Request) {
	rec, err := likeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch err := h.engagement.IsLiking(r.Context(), rec); {
	case err == nil:
		respondMsg(w, http.StatusOK, fmt.Sprintf("%s does like %s", rec.UserLiking, rec.ConceptLiked))
	case errors.Is(err, engagement.ErrNoRecord):
		respondError(w, http.StatusNotFound, fmt.Sprintf("%s does not like %s", rec.UserLiking, rec.ConceptLiked))
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) deleteLike(w http.ResponseWriter, r *http.Request) {
	rec, err := likeFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.authorize(r, rec.UserLiking); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := h.engagement.Unlike(r.Context(), rec); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondMsg(w, http.StatusOK, fmt.Sprintf("%s no longer likes %s", rec.UserLiking, rec.ConceptLiked))
}

type postCommentRequest struct {
	CommentAuthor string     `json:"comment_author"`
	CommentText   string     `json:"comment_text"`
	ResponseTo    *uuid.UUID `json:"response_to,omitempty"`
}

func (h *Handler) postComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	conceptID := vars["author"] + "/" + vars["title"]

	var req postCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := h.authorize(r, req.CommentAuthor); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	view, err := h.engagement.PostComment(r.Context(), conceptID, req.CommentAuthor, req.CommentText, req.ResponseTo)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, view)
	case errors.Is(err, engagement.ErrEmptyComment):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engagement.ErrCommentNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func (h *Handler) commentSection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	conceptID := vars["author"] + "/" + vars["title"]

	threads, err := h.engagement.CommentSection(r.Context(), conceptID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, threads)
}

func followFromQuery(r *http.Request) (engagement.FollowRecord, error) {
	params := r.URL.Query()
	rec := engagement.FollowRecord{
		Follower: params.Get("follower"),
		Followee: params.Get("followee"),
	}
	if rec.Follower == "" || rec.Followee == "" {
		return rec, errors.New("follower and followee are required")
	}
	return rec, nil
}

func likeFromQuery(r *http.Request) (engagement.LikeRecord, error) {
	params := r.URL.Query()
	rec := engagement.LikeRecord{
		UserLiking:   params.Get("user_liking"),
		ConceptLiked: params.Get("concept_liked"),
	}
	if rec.UserLiking == "" || rec.ConceptLiked == "" {
		return rec, errors.New("user_liking and concept_liked are required")
	}
	return rec, nil
}
