package engagement

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrNoRecord is returned when a follow or like record does not exist.
	ErrNoRecord = errors.New("no matching engagement record")
	// ErrSelfFollow is returned when an account tries to follow itself.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrEmptyComment is returned when a comment has no text.
	ErrEmptyComment = errors.New("comment text required")
	// ErrCommentNotFound is returned when replying to a comment that does
	// not exist on the concept.
	ErrCommentNotFound = errors.New("comment not found")
)

// FollowRecord states that follower follows followee.
type FollowRecord struct {
	Follower string `json:"follower"`
	Followee string `json:"followee"`
}

// LikeRecord states that a user likes a concept.
type LikeRecord struct {
	UserLiking   string `json:"user_liking"`
	ConceptLiked string `json:"concept_liked"`
}

// Comment is a stored comment row on a concept. Top-level comments have a nil
// ResponseTo; replies reference their parent comment.
type Comment struct {
	CommentID  uuid.UUID
	ConceptID  string
	Author     string
	Text       string
	ResponseTo *uuid.UUID
	CreatedAt  time.Time
}

// CommentView is a comment with its reply thread, as returned to clients.
type CommentView struct {
	CommentID     uuid.UUID      `json:"comment_id"`
	CommentAuthor string         `json:"comment_author"`
	CommentText   string         `json:"comment_text"`
	Responses     []*CommentView `json:"responses"`
}

// CommentThreads is the full comment section of a concept.
type CommentThreads struct {
	Threads []*CommentView `json:"threads"`
}

// Repository defines persistence operations for engagement records.
type Repository interface {
	CreateFollow(ctx context.Context, rec FollowRecord) error
	CheckFollow(ctx context.Context, rec FollowRecord) error
	DeleteFollow(ctx context.Context, rec FollowRecord) error

	CreateLike(ctx context.Context, rec LikeRecord) error
	CheckLike(ctx context.Context, rec LikeRecord) error
	DeleteLike(ctx context.Context, rec LikeRecord) error

	CreateComment(ctx context.Context, c Comment) error
	// GetCommentConcept returns the concept a comment was posted on, or
	// ErrCommentNotFound when no such comment exists.
	GetCommentConcept(ctx context.Context, id uuid.UUID) (string, error)
	// ListComments returns every comment on the concept ordered by creation
	// time, oldest first.
	ListComments(ctx context.Context, conceptID string) ([]Comment, error)
}
