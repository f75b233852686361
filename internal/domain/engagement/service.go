package engagement

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service holds follow, like, and comment logic.
type Service struct {
	repo  Repository
	newID func() uuid.UUID
}

// NewService creates an engagement Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.New}
}

// Follow records that follower follows followee. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, rec FollowRecord) error {
	if rec.Follower == rec.Followee {
		return ErrSelfFollow
	}
	return s.repo.CreateFollow(ctx, rec)
}

// IsFollowing reports whether the follow record exists; ErrNoRecord when not.
func (s *Service) IsFollowing(ctx context.Context, rec FollowRecord) error {
	return s.repo.CheckFollow(ctx, rec)
}

// Unfollow removes the follow record. Removing an absent record is a no-op.
func (s *Service) Unfollow(ctx context.Context, rec FollowRecord) error {
	return s.repo.DeleteFollow(ctx, rec)
}

// Like records that a user likes a concept. Liking twice is a no-op.
func (s *Service) Like(ctx context.Context, rec LikeRecord) error {
	return s.repo.CreateLike(ctx, rec)
}

// IsLiking reports whether the like record exists; ErrNoRecord when not.
func (s *Service) IsLiking(ctx context.Context, rec LikeRecord) error {
	return s.repo.CheckLike(ctx, rec)
}

// Unlike removes the like record. Removing an absent record is a no-op.
func (s *Service) Unlike(ctx context.Context, rec LikeRecord) error {
	return s.repo.DeleteLike(ctx, rec)
}

// PostComment stores a comment by author on the given concept. A non-nil
// responseTo makes it a reply to an existing comment on the same concept.
func (s *Service) PostComment(
	ctx context.Context,
	conceptID, author, text string,
	responseTo *uuid.UUID,
) (*CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}
	if responseTo != nil {
		parentConcept, err := s.repo.GetCommentConcept(ctx, *responseTo)
		if err != nil {
			return nil, err
		}
		// A reply filed under a different concept would never surface in
		// either concept's comment section.
		if parentConcept != conceptID {
			return nil, ErrCommentNotFound
		}
	}

	c := Comment{
		CommentID:  s.newID(),
		ConceptID:  conceptID,
		Author:     author,
		Text:       text,
		ResponseTo: responseTo,
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	return &CommentView{
		CommentID:     c.CommentID,
		CommentAuthor: c.Author,
		CommentText:   c.Text,
		Responses:     []*CommentView{},
	}, nil
}

// CommentSection returns the threaded comment section of a concept. The whole
// section is fetched in one query and assembled in memory; replies whose
// parent is missing are dropped.
func (s *Service) CommentSection(ctx context.Context, conceptID string) (*CommentThreads, error) {
	comments, err := s.repo.ListComments(ctx, conceptID)
	if err != nil {
		return nil, errors.Wrap(err, "list comments")
	}

	threads := &CommentThreads{Threads: []*CommentView{}}
	byID := make(map[uuid.UUID]*CommentView, len(comments))

	// Comments arrive oldest first, so a reply's parent is always assembled
	// before the reply itself.
	for _, c := range comments {
		view := &CommentView{
			CommentID:     c.CommentID,
			CommentAuthor: c.Author,
			CommentText:   c.Text,
			Responses:     []*CommentView{},
		}
		byID[c.CommentID] = view

		if c.ResponseTo == nil {
			threads.Threads = append(threads.Threads, view)
			continue
		}
		if parent, ok := byID[*c.ResponseTo]; ok {
			parent.Responses = append(parent.Responses, view)
		}
	}
	return threads, nil
}
