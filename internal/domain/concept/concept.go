package concept

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var (
	// ErrNotFound is returned when no concept matches an author/title pair.
	ErrNotFound = errors.New("concept not found")
	// ErrDuplicate is returned when creating a concept whose author/title
	// pair already exists.
	ErrDuplicate = errors.New("concept already exists")
	// ErrInvalidTitle is returned when a title does not match the required
	// format.
	ErrInvalidTitle = errors.New(
		"title must consist of letters, numbers, underscores, and hyphens, " +
			"and be between 3 and 128 characters",
	)
	// ErrInvalidDiagram is returned when a diagram payload is not a JSON object.
	ErrInvalidDiagram = errors.New("diagram must be a JSON object")
	// ErrInvalidIdentifier is returned when a concept identifier is not of
	// the form author/title.
	ErrInvalidIdentifier = errors.New("concept identifier must be of the form author/title")
)

var titleFormat = regexp.MustCompile(`^[\w\-]{3,128}$`)

// Concept is a published idea: a titled description with a diagram document,
// owned by the account that authored it.
type Concept struct {
	Author      string
	Title       string
	Description string
	Diagram     []byte // raw JSON object
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identifier returns the canonical author/title identifier.
func (c Concept) Identifier() string {
	return c.Author + "/" + c.Title
}

// SimpleView is the compact representation of a concept.
type SimpleView struct {
	Identifier   string `json:"identifier"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FullView is the complete representation of a concept.
type FullView struct {
	Author       string `json:"author"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Diagram      any    `json:"diagram"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// FuzzyOption selects which search fields use pattern matching.
type FuzzyOption string

const (
	FuzzyNone   FuzzyOption = "none"
	FuzzyAuthor FuzzyOption = "author"
	FuzzyTitle  FuzzyOption = "title"
	FuzzyAll    FuzzyOption = "all"
)

// SearchQuery holds concept search criteria. Zero-valued fields are not
// constrained. NotBefore and NotAfter bound the last-update time of matching
// concepts, exclusively.
type SearchQuery struct {
	Author    string
	Title     string
	NotBefore *time.Time
	NotAfter  *time.Time
	Fuzzy     FuzzyOption
}

// LinkRecord is an ancestor/descendant edge between two concepts.
type LinkRecord struct {
	Ancestor   string `json:"ancestor"`
	Descendant string `json:"descendant"`
}

// Repository defines persistence operations for concepts and their links.
type Repository interface {
	Create(ctx context.Context, c Concept) error
	GetExact(ctx context.Context, author, title string) (*Concept, error)
	Search(ctx context.Context, q SearchQuery) ([]string, error)
	CreateLink(ctx context.Context, link LinkRecord) error
	// FindParents walks link edges upward from identifier, nearest first,
	// up to depth levels.
	FindParents(ctx context.Context, identifier string, depth int) ([]LinkRecord, error)
	// FindChildren walks link edges downward from identifier, nearest first,
	// up to depth levels.
	FindChildren(ctx context.Context, identifier string, depth int) ([]LinkRecord, error)
}

// ValidTitle reports whether title matches the concept title format.
func ValidTitle(title string) bool {
	return titleFormat.MatchString(title)
}

// ValidDiagram reports whether raw is a syntactically valid JSON object.
func ValidDiagram(raw []byte) bool {
	d := jx.DecodeBytes(raw)
	if d.Next() != jx.Object {
		return false
	}
	return d.Validate() == nil
}

// SplitIdentifier breaks an author/title identifier into its parts.
func SplitIdentifier(identifier string) (author, title string, err error) {
	author, title, ok := strings.Cut(identifier, "/")
	if !ok || author == "" || title == "" || strings.Contains(title, "/") {
		return "", "", ErrInvalidIdentifier
	}
	return author, title, nil
}
