package concept

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
)

// maxLineageDepth bounds how far lineage walks extend in each direction.
const maxLineageDepth = 10

// LinkSharer produces presigned download and upload URLs for stored objects.
type LinkSharer interface {
	ShareURL(ctx context.Context, key string) (string, error)
	UploadURL(ctx context.Context, key string) (string, error)
}

// Lineage is the family tree of a concept: its ancestors up to the root and
// its descendants, with the focus concept in between.
type Lineage struct {
	Nodes   int          `json:"nodes"`
	Lineage *LineageNode `json:"lineage"`
}

// LineageNode is a single concept in a lineage tree.
type LineageNode struct {
	Data     SimpleView     `json:"data"`
	Children []*LineageNode `json:"children,omitempty"`
}

// Service holds concept publication, retrieval, linking, and lineage logic.
type Service struct {
	repo  Repository
	links LinkSharer
}

// NewService creates a concept Service with the given repository and link
// sharer.
func NewService(repo Repository, links LinkSharer) *Service {
	return &Service{repo: repo, links: links}
}

// Create validates and persists a new concept, returning its simple view.
func (s *Service) Create(ctx context.Context, c Concept) (*SimpleView, error) {
	if !ValidTitle(c.Title) {
		return nil, ErrInvalidTitle
	}
	if len(c.Diagram) == 0 {
		c.Diagram = []byte("{}")
	}
	if !ValidDiagram(c.Diagram) {
		return nil, ErrInvalidDiagram
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.simpleView(ctx, c.Identifier())
}

// GetSimple returns the compact view of the concept at author/title.
func (s *Service) GetSimple(ctx context.Context, author, title string) (*SimpleView, error) {
	c, err := s.repo.GetExact(ctx, author, title)
	if err != nil {
		return nil, err
	}
	return s.simpleView(ctx, c.Identifier())
}

// GetFull returns the complete view of the concept at author/title.
func (s *Service) GetFull(ctx context.Context, author, title string) (*FullView, error) {
	c, err := s.repo.GetExact(ctx, author, title)
	if err != nil {
		return nil, err
	}

	thumbnailURL, err := s.links.ShareURL(ctx, thumbnailKey(c.Identifier()))
	if err != nil {
		return nil, errors.Wrap(err, "share thumbnail")
	}

	var diagram any
	if err := json.Unmarshal(c.Diagram, &diagram); err != nil {
		return nil, errors.Wrap(err, "decode stored diagram")
	}

	return &FullView{
		Author:       c.Author,
		Title:        c.Title,
		Description:  c.Description,
		Diagram:      diagram,
		ThumbnailURL: thumbnailURL,
	}, nil
}

// Search returns the simple views of every concept matching the query.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]SimpleView, error) {
	identifiers, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "search concepts")
	}

	views := make([]SimpleView, 0, len(identifiers))
	for _, id := range identifiers {
		v, err := s.simpleView(ctx, id)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// Link records an ancestor/descendant edge. Both endpoints must exist.
func (s *Service) Link(ctx context.Context, link LinkRecord) (*LinkRecord, error) {
	for _, id := range []string{link.Ancestor, link.Descendant} {
		author, title, err := SplitIdentifier(id)
		if err != nil {
			return nil, err
		}
		if _, err := s.repo.GetExact(ctx, author, title); err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// BuildLineage assembles the lineage tree around the concept at author/title:
// a single chain of ancestors above it and the full descendant tree below it,
// both bounded by maxLineageDepth.
func (s *Service) BuildLineage(ctx context.Context, author, title string) (*Lineage, error) {
	c, err := s.repo.GetExact(ctx, author, title)
	if err != nil {
		return nil, err
	}
	focus := c.Identifier()

	focusNode, err := s.lineageNode(ctx, focus)
	if err != nil {
		return nil, err
	}
	nodes := 1
	root := focusNode

	// Walk upward: parent rows come back nearest first, so each ancestor
	// becomes the new root holding the tree built so far.
	parents, err := s.repo.FindParents(ctx, focus, maxLineageDepth)
	if err != nil {
		return nil, errors.Wrap(err, "find parent ideas")
	}
	for _, edge := range parents {
		parent, err := s.lineageNode(ctx, edge.Ancestor)
		if err != nil {
			return nil, err
		}
		parent.Children = []*LineageNode{root}
		root = parent
		nodes++
	}

	// Walk downward: child rows come back nearest first, so every edge's
	// ancestor is already in the tree by the time it is attached.
	byID := map[string]*LineageNode{focus: focusNode}
	children, err := s.repo.FindChildren(ctx, focus, maxLineageDepth)
	if err != nil {
		return nil, errors.Wrap(err, "find child ideas")
	}
	for _, edge := range children {
		parent, ok := byID[edge.Ancestor]
		if !ok {
			continue
		}
		child, err := s.lineageNode(ctx, edge.Descendant)
		if err != nil {
			return nil, err
		}
		parent.Children = append(parent.Children, child)
		byID[edge.Descendant] = child
		nodes++
	}

	return &Lineage{Nodes: nodes, Lineage: root}, nil
}

// ThumbnailUploadLink returns a presigned URL the concept author can PUT a
// thumbnail image to. The concept must exist.
func (s *Service) ThumbnailUploadLink(ctx context.Context, author, title string) (string, error) {
	c, err := s.repo.GetExact(ctx, author, title)
	if err != nil {
		return "", err
	}

	url, err := s.links.UploadURL(ctx, thumbnailKey(c.Identifier()))
	if err != nil {
		return "", errors.Wrap(err, "presign thumbnail upload")
	}
	return url, nil
}

func (s *Service) lineageNode(ctx context.Context, identifier string) (*LineageNode, error) {
	v, err := s.simpleView(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &LineageNode{Data: *v}, nil
}

func (s *Service) simpleView(ctx context.Context, identifier string) (*SimpleView, error) {
	thumbnailURL, err := s.links.ShareURL(ctx, thumbnailKey(identifier))
	if err != nil {
		return nil, errors.Wrap(err, "share thumbnail")
	}
	return &SimpleView{Identifier: identifier, ThumbnailURL: thumbnailURL}, nil
}

func thumbnailKey(identifier string) string {
	return "thumbnails/" + identifier
}
