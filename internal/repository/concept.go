package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideabank/ideabank-webapi/internal/domain/concept"
)

const (
	createConceptSQL = `INSERT INTO concepts (author, title, description, diagram)
		VALUES ($1, $2, $3, $4)`

	getConceptSQL = `SELECT author, title, description, diagram, created_at, updated_at
		FROM concepts WHERE author = $1 AND title = $2`

	createLinkSQL = `INSERT INTO concept_links (ancestor, descendant) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	findParentsSQL = `WITH RECURSIVE parents AS (
			SELECT ancestor, descendant, 1 AS depth
			FROM concept_links WHERE descendant = $1
			UNION ALL
			SELECT l.ancestor, l.descendant, p.depth + 1
			FROM concept_links l
			JOIN parents p ON l.descendant = p.ancestor
			WHERE p.depth < $2
		)
		SELECT ancestor, descendant FROM parents ORDER BY depth`

	findChildrenSQL = `WITH RECURSIVE children AS (
			SELECT ancestor, descendant, 1 AS depth
			FROM concept_links WHERE ancestor = $1
			UNION ALL
			SELECT l.ancestor, l.descendant, c.depth + 1
			FROM concept_links l
			JOIN children c ON l.ancestor = c.descendant
			WHERE c.depth < $2
		)
		SELECT ancestor, descendant FROM children ORDER BY depth`
)

var _ concept.Repository = (*ConceptRepository)(nil)

// ConceptRepository implements concept.Repository backed by PostgreSQL.
type ConceptRepository struct {
	pool *pgxpool.Pool
}

// NewConceptRepository returns a ConceptRepository that uses the given pool.
func NewConceptRepository(pool *pgxpool.Pool) *ConceptRepository {
	return &ConceptRepository{pool: pool}
}

// Create inserts a new concept row.
func (r *ConceptRepository) Create(ctx context.Context, c concept.Concept) error {
	_, err := r.pool.Exec(ctx, createConceptSQL, c.Author, c.Title, c.Description, c.Diagram)
	if err != nil {
		if pgErrCode(err) == uniqueViolationCode {
			return concept.ErrDuplicate
		}
		return fmt.Errorf("creating concept %s/%s: %w", c.Author, c.Title, err)
	}
	return nil
}

// GetExact returns the concept with the given author and title.
func (r *ConceptRepository) GetExact(ctx context.Context, author, title string) (*concept.Concept, error) {
	rows, err := r.pool.Query(ctx, getConceptSQL, author, title)
	if err != nil {
		return nil, fmt.Errorf("getting concept %s/%s: %w", author, title, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanConcept)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, concept.ErrNotFound
		}
		return nil, fmt.Errorf("getting concept %s/%s: %w", author, title, err)
	}
	return &c, nil
}

// Search returns the identifiers of concepts matching the query, newest first.
// Fuzzy fields match as substrings, exact fields by equality. The time bounds
// apply to updated_at and are exclusive.
func (r *ConceptRepository) Search(ctx context.Context, q concept.SearchQuery) ([]string, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Author != "" {
		if q.Fuzzy == concept.FuzzyAuthor || q.Fuzzy == concept.FuzzyAll {
			conds = append(conds, "author LIKE "+arg("%"+q.Author+"%"))
		} else {
			conds = append(conds, "author = "+arg(q.Author))
		}
	}
	if q.Title != "" {
		if q.Fuzzy == concept.FuzzyTitle || q.Fuzzy == concept.FuzzyAll {
			conds = append(conds, "title LIKE "+arg("%"+q.Title+"%"))
		} else {
			conds = append(conds, "title = "+arg(q.Title))
		}
	}
	if q.NotBefore != nil {
		conds = append(conds, "updated_at > "+arg(*q.NotBefore))
	}
	if q.NotAfter != nil {
		conds = append(conds, "updated_at < "+arg(*q.NotAfter))
	}

	sql := "SELECT identifier FROM concepts"
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY updated_at DESC"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching concepts: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CreateLink records an ancestor/descendant relation between two concepts.
func (r *ConceptRepository) CreateLink(ctx context.Context, link concept.LinkRecord) error {
	_, err := r.pool.Exec(ctx, createLinkSQL, link.Ancestor, link.Descendant)
	if err != nil {
		if pgErrCode(err) == foreignKeyViolationCode {
			return concept.ErrNotFound
		}
		return fmt.Errorf("creating link %s -> %s: %w", link.Ancestor, link.Descendant, err)
	}
	return nil
}

// FindParents walks the link graph upward from identifier, nearest first,
// stopping after depth generations.
func (r *ConceptRepository) FindParents(ctx context.Context, identifier string, depth int) ([]concept.LinkRecord, error) {
	rows, err := r.pool.Query(ctx, findParentsSQL, identifier, depth)
	if err != nil {
		return nil, fmt.Errorf("finding parents of %q: %w", identifier, err)
	}
	return pgx.CollectRows(rows, scanLink)
}

// FindChildren walks the link graph downward from identifier, nearest first,
// stopping after depth generations.
func (r *ConceptRepository) FindChildren(ctx context.Context, identifier string, depth int) ([]concept.LinkRecord, error) {
	rows, err := r.pool.Query(ctx, findChildrenSQL, identifier, depth)
	if err != nil {
		return nil, fmt.Errorf("finding children of %q: %w", identifier, err)
	}
	return pgx.CollectRows(rows, scanLink)
}

func scanConcept(row pgx.CollectableRow) (concept.Concept, error) {
	var c concept.Concept
	err := row.Scan(&c.Author, &c.Title, &c.Description, &c.Diagram, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanLink(row pgx.CollectableRow) (concept.LinkRecord, error) {
	var l concept.LinkRecord
	err := row.Scan(&l.Ancestor, &l.Descendant)
	return l, err
}
