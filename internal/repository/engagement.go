package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideabank/ideabank-webapi/internal/domain/engagement"
)

const (
	createFollowSQL = `INSERT INTO follows (follower, followee) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	checkFollowSQL = `SELECT 1 FROM follows WHERE follower = $1 AND followee = $2`

	deleteFollowSQL = `DELETE FROM follows WHERE follower = $1 AND followee = $2`

	createLikeSQL = `INSERT INTO likes (user_liking, concept_liked) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	checkLikeSQL = `SELECT 1 FROM likes WHERE user_liking = $1 AND concept_liked = $2`

	deleteLikeSQL = `DELETE FROM likes WHERE user_liking = $1 AND concept_liked = $2`

	createCommentSQL = `INSERT INTO comments (comment_id, concept_id, comment_by, free_text, response_to)
		VALUES ($1, $2, $3, $4, $5)`

	getCommentConceptSQL = `SELECT concept_id FROM comments WHERE comment_id = $1`

	listCommentsSQL = `SELECT comment_id, concept_id, comment_by, free_text, response_to, created_at
		FROM comments WHERE concept_id = $1 ORDER BY created_at, comment_id`
)

var _ engagement.Repository = (*EngagementRepository)(nil)

// EngagementRepository implements engagement.Repository backed by PostgreSQL.
type EngagementRepository struct {
	pool *pgxpool.Pool
}

// NewEngagementRepository returns an EngagementRepository that uses the given pool.
func NewEngagementRepository(pool *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{pool: pool}
}

// CreateFollow records that follower follows followee. Repeated calls are no-ops.
func (r *EngagementRepository) CreateFollow(ctx context.Context, rec engagement.FollowRecord) error {
	_, err := r.pool.Exec(ctx, createFollowSQL, rec.Follower, rec.Followee)
	if err != nil {
		return fmt.Errorf("creating follow %s -> %s: %w", rec.Follower, rec.Followee, err)
	}
	return nil
}

// CheckFollow reports ErrNoRecord when follower does not follow followee.
func (r *EngagementRepository) CheckFollow(ctx context.Context, rec engagement.FollowRecord) error {
	return r.checkOne(ctx, checkFollowSQL, rec.Follower, rec.Followee)
}

// DeleteFollow removes the follow relation if it exists.
func (r *EngagementRepository) DeleteFollow(ctx context.Context, rec engagement.FollowRecord) error {
	_, err := r.pool.Exec(ctx, deleteFollowSQL, rec.Follower, rec.Followee)
	if err != nil {
		return fmt.Errorf("deleting follow %s -> %s: %w", rec.Follower, rec.Followee, err)
	}
	return nil
}

// CreateLike records that a user likes a concept. Repeated calls are no-ops.
func (r *EngagementRepository) CreateLike(ctx context.Context, rec engagement.LikeRecord) error {
	_, err := r.pool.Exec(ctx, createLikeSQL, rec.UserLiking, rec.ConceptLiked)
	if err != nil {
		return fmt.Errorf("creating like %s -> %s: %w", rec.UserLiking, rec.ConceptLiked, err)
	}
	return nil
}

// CheckLike reports ErrNoRecord when the user does not like the concept.
func (r *EngagementRepository) CheckLike(ctx context.Context, rec engagement.LikeRecord) error {
	return r.checkOne(ctx, checkLikeSQL, rec.UserLiking, rec.ConceptLiked)
}

// DeleteLike removes the like relation if it exists.
func (r *EngagementRepository) DeleteLike(ctx context.Context, rec engagement.LikeRecord) error {
	_, err := r.pool.Exec(ctx, deleteLikeSQL, rec.UserLiking, rec.ConceptLiked)
	if err != nil {
		return fmt.Errorf("deleting like %s -> %s: %w", rec.UserLiking, rec.ConceptLiked, err)
	}
	return nil
}

// CreateComment inserts a comment, optionally as a response to another one.
func (r *EngagementRepository) CreateComment(ctx context.Context, c engagement.Comment) error {
	_, err := r.pool.Exec(ctx, createCommentSQL,
		c.CommentID, c.ConceptID, c.Author, c.Text, c.ResponseTo,
	)
	if err != nil {
		if pgErrCode(err) == foreignKeyViolationCode {
			return engagement.ErrCommentNotFound
		}
		return fmt.Errorf("creating comment on %q: %w", c.ConceptID, err)
	}
	return nil
}

// GetCommentConcept returns the concept identifier a comment belongs to.
func (r *EngagementRepository) GetCommentConcept(ctx context.Context, id uuid.UUID) (string, error) {
	rows, err := r.pool.Query(ctx, getCommentConceptSQL, id)
	if err != nil {
		return "", fmt.Errorf("looking up comment %s: %w", id, err)
	}
	conceptID, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[string])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", engagement.ErrCommentNotFound
		}
		return "", fmt.Errorf("looking up comment %s: %w", id, err)
	}
	return conceptID, nil
}

// ListComments returns all comments on a concept, oldest first.
func (r *EngagementRepository) ListComments(ctx context.Context, conceptID string) ([]engagement.Comment, error) {
	rows, err := r.pool.Query(ctx, listCommentsSQL, conceptID)
	if err != nil {
		return nil, fmt.Errorf("listing comments on %q: %w", conceptID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (engagement.Comment, error) {
		var c engagement.Comment
		err := row.Scan(&c.CommentID, &c.ConceptID, &c.Author, &c.Text, &c.ResponseTo, &c.CreatedAt)
		return c, err
	})
}

func (r *EngagementRepository) checkOne(ctx context.Context, sql string, args ...any) error {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("checking record: %w", err)
	}
	if _, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int]); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return engagement.ErrNoRecord
		}
		return fmt.Errorf("checking record: %w", err)
	}
	return nil
}
