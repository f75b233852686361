package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideabank/ideabank-webapi/internal/domain/account"
	"github.com/ideabank/ideabank-webapi/internal/domain/auth"
	"github.com/ideabank/ideabank-webapi/internal/domain/concept"
	"github.com/ideabank/ideabank-webapi/internal/domain/engagement"
)

var testSigningKey = []byte("handler-test-signing-key")

// --- Mock implementations ---

type mockAccountRepo struct {
	records map[string]account.Record
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{records: make(map[string]account.Record)}
}

func (m *mockAccountRepo) Create(_ context.Context, rec account.Record) error {
	if _, ok := m.records[rec.DisplayName]; ok {
		return account.ErrDisplayNameTaken
	}
	m.records[rec.DisplayName] = rec
	return nil
}

func (m *mockAccountRepo) GetAuthInfo(_ context.Context, name string) (*account.AuthInfo, error) {
	rec, ok := m.records[name]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &account.AuthInfo{
		DisplayName:  rec.DisplayName,
		PasswordHash: rec.PasswordHash,
		SaltValue:    rec.SaltValue,
	}, nil
}

func (m *mockAccountRepo) GetProfile(_ context.Context, name string) (*account.Profile, error) {
	rec, ok := m.records[name]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &account.Profile{PreferredName: rec.PreferredName, Biography: rec.Biography}, nil
}

func (m *mockAccountRepo) ListDisplayNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.records))
	for n := range m.records {
		names = append(names, n)
	}
	return names, nil
}

type mockConceptRepo struct {
	concepts map[string]concept.Concept
	links    []concept.LinkRecord
}

func newMockConceptRepo() *mockConceptRepo {
	return &mockConceptRepo{concepts: make(map[string]concept.Concept)}
}

func (m *mockConceptRepo) Create(_ context.Context, c concept.Concept) error {
	if _, ok := m.concepts[c.Identifier()]; ok {
		return concept.ErrDuplicate
	}
	m.concepts[c.Identifier()] = c
	return nil
}

func (m *mockConceptRepo) GetExact(_ context.Context, author, title string) (*concept.Concept, error) {
	c, ok := m.concepts[author+"/"+title]
	if !ok {
		return nil, concept.ErrNotFound
	}
	return &c, nil
}

func (m *mockConceptRepo) Search(_ context.Context, q concept.SearchQuery) ([]string, error) {
	var ids []string
	for id, c := range m.concepts {
		if q.Author != "" && c.Author != q.Author {
			continue
		}
		if q.Title != "" && c.Title != q.Title {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockConceptRepo) CreateLink(_ context.Context, link concept.LinkRecord) error {
	m.links = append(m.links, link)
	return nil
}

func (m *mockConceptRepo) FindParents(_ context.Context, id string, _ int) ([]concept.LinkRecord, error) {
	var out []concept.LinkRecord
	for _, l := range m.links {
		if l.Descendant == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockConceptRepo) FindChildren(_ context.Context, id string, _ int) ([]concept.LinkRecord, error) {
	var out []concept.LinkRecord
	for _, l := range m.links {
		if l.Ancestor == id {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockEngagementRepo struct {
	follows  map[engagement.FollowRecord]bool
	likes    map[engagement.LikeRecord]bool
	comments []engagement.Comment
}

func newMockEngagementRepo() *mockEngagementRepo {
	return &mockEngagementRepo{
		follows: make(map[engagement.FollowRecord]bool),
		likes:   make(map[engagement.LikeRecord]bool),
	}
}

func (m *mockEngagementRepo) CreateFollow(_ context.Context, rec engagement.FollowRecord) error {
	m.follows[rec] = true
	return nil
}

func (m *mockEngagementRepo) CheckFollow(_ context.Context, rec engagement.FollowRecord) error {
	if !m.follows[rec] {
		return engagement.ErrNoRecord
	}
	return nil
}

func (m *mockEngagementRepo) DeleteFollow(_ context.Context, rec engagement.FollowRecord) error {
	delete(m.follows, rec)
	return nil
}

func (m *mockEngagementRepo) CreateLike(_ context.Context, rec engagement.LikeRecord) error {
	m.likes[rec] = true
	return nil
}

func (m *mockEngagementRepo) CheckLike(_ context.Context, rec engagement.LikeRecord) error {
	if !m.likes[rec] {
		return engagement.ErrNoRecord
	}
	return nil
}

func (m *mockEngagementRepo) DeleteLike(_ context.Context, rec engagement.LikeRecord) error {
	delete(m.likes, rec)
	return nil
}

func (m *mockEngagementRepo) CreateComment(_ context.Context, c engagement.Comment) error {
	m.comments = append(m.comments, c)
	return nil
}

func (m *mockEngagementRepo) GetCommentConcept(_ context.Context, id uuid.UUID) (string, error) {
	for _, c := range m.comments {
		if c.CommentID == id {
			return c.ConceptID, nil
		}
	}
	return "", engagement.ErrCommentNotFound
}

func (m *mockEngagementRepo) ListComments(_ context.Context, conceptID string) ([]engagement.Comment, error) {
	var out []engagement.Comment
	for _, c := range m.comments {
		if c.ConceptID == conceptID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockLinkSharer struct{}

func (mockLinkSharer) ShareURL(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key + "?signed", nil
}

func (mockLinkSharer) UploadURL(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key + "?signed&verb=put", nil
}

// --- Helpers ---

type testAPI struct {
	router     *mux.Router
	accounts   *mockAccountRepo
	concepts   *mockConceptRepo
	engagement *mockEngagementRepo
}

func newTestAPI() *testAPI {
	accounts := newMockAccountRepo()
	concepts := newMockConceptRepo()
	eng := newMockEngagementRepo()

	h := New(
		account.NewService(accounts, mockLinkSharer{}),
		concept.NewService(concepts, mockLinkSharer{}),
		engagement.NewService(eng),
		auth.NewIssuer(testSigningKey),
	)

	router := mux.NewRouter()
	h.Register(router)
	return &testAPI{
		router:     router,
		accounts:   accounts,
		concepts:   concepts,
		engagement: eng,
	}
}

// signToken signs a token for owner that is already inside its validity
// window, since freshly issued tokens only become valid a moment later.
func signToken(t *testing.T, owner string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"username": owner,
		"exp":      now.Add(time.Hour).Unix(),
		"nbf":      now.Add(-time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (a *testAPI) register(t *testing.T, name, password string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/accounts/create", "", account.CredentialSet{
		DisplayName: name,
		Password:    password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *testAPI) addConcept(t *testing.T, author, title string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/concepts", signToken(t, author), createConceptRequest{
		Author:  author,
		Title:   title,
		Diagram: json.RawMessage(`{"nodes":[]}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// --- Tests ---

func TestCreateAccount(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/accounts/create", "", account.CredentialSet{
		DisplayName: "hannah",
		Password:    "hunter22hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, decodeBody[infoBody](t, rec).Msg, "hannah")

	t.Run("duplicate name returns 403", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/accounts/create", "", account.CredentialSet{
			DisplayName: "hannah",
			Password:    "anotherpassword",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.NotEmpty(t, decodeBody[errorBody](t, rec).ErrMsg)
	})

	t.Run("weak password returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/accounts/create", "", account.CredentialSet{
			DisplayName: "newcomer",
			Password:    "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/accounts/create", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthenticate(t *testing.T) {
	api := newTestAPI()
	api.register(t, "hannah", "hunter22hunter22")

	rec := api.do(t, http.MethodPost, "/accounts/authenticate", "", account.CredentialSet{
		DisplayName: "hannah",
		Password:    "hunter22hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tok := decodeBody[auth.AuthorizationToken](t, rec)
	assert.Equal(t, "hannah", tok.Presenter)
	assert.NotEmpty(t, tok.Token)

	t.Run("wrong password returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/accounts/authenticate", "", account.CredentialSet{
			DisplayName: "hannah",
			Password:    "wrongwrongwrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown name returns same 401", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/accounts/authenticate", "", account.CredentialSet{
			DisplayName: "nobody",
			Password:    "hunter22hunter22",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid display name or password", decodeBody[errorBody](t, rec).ErrMsg)
	})
}

func TestFetchProfile(t *testing.T) {
	api := newTestAPI()
	api.register(t, "hannah", "hunter22hunter22")

	rec := api.do(t, http.MethodGet, "/accounts/hannah/profile", signToken(t, "hannah"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	profile := decodeBody[account.Profile](t, rec)
	assert.Equal(t, "https://files.test/avatars/hannah?signed", profile.AvatarURL)

	t.Run("foreign token returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/accounts/hannah/profile", signToken(t, "mallory"), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/accounts/hannah/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/accounts/ghost/profile", signToken(t, "ghost"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAvatarUploadLink(t *testing.T) {
	api := newTestAPI()
	api.register(t, "hannah", "hunter22hunter22")

	rec := api.do(t, http.MethodGet, "/accounts/hannah/avatar/upload", signToken(t, "hannah"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://files.test/avatars/hannah?signed&verb=put", decodeBody[uploadBody](t, rec).URL)

	t.Run("foreign token returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/accounts/hannah/avatar/upload", signToken(t, "mallory"), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown account returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/accounts/ghost/avatar/upload", signToken(t, "ghost"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestThumbnailUploadLink(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "victor", "cold-fusion")

	rec := api.do(t, http.MethodGet, "/concepts/victor/cold-fusion/thumbnail/upload", signToken(t, "victor"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://files.test/thumbnails/victor/cold-fusion?signed&verb=put", decodeBody[uploadBody](t, rec).URL)

	t.Run("foreign token returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts/victor/cold-fusion/thumbnail/upload", signToken(t, "hannah"), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown concept returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts/victor/warp-drive/thumbnail/upload", signToken(t, "victor"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateConcept(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/concepts", signToken(t, "hannah"), createConceptRequest{
		Author:      "hannah",
		Title:       "perpetual-motion",
		Description: "a machine that never stops",
		Diagram:     json.RawMessage(`{"nodes":["wheel"]}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decodeBody[concept.SimpleView](t, rec)
	assert.Equal(t, "hannah/perpetual-motion", view.Identifier)
	assert.Equal(t, "https://files.test/thumbnails/hannah/perpetual-motion?signed", view.ThumbnailURL)

	t.Run("token for another user returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/concepts", signToken(t, "mallory"), createConceptRequest{
			Author: "hannah",
			Title:  "stolen-idea",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid title returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/concepts", signToken(t, "hannah"), createConceptRequest{
			Author: "hannah",
			Title:  "no spaces allowed",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-object diagram returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/concepts", signToken(t, "hannah"), createConceptRequest{
			Author:  "hannah",
			Title:   "flat-diagram",
			Diagram: json.RawMessage(`[1,2,3]`),
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate returns 403", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/concepts", signToken(t, "hannah"), createConceptRequest{
			Author: "hannah",
			Title:  "perpetual-motion",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetConcept(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "hannah", "perpetual-motion")

	rec := api.do(t, http.MethodGet, "/concepts/hannah/perpetual-motion", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	full := decodeBody[concept.FullView](t, rec)
	assert.Equal(t, "hannah", full.Author)
	assert.Equal(t, "perpetual-motion", full.Title)

	t.Run("simple view", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts/hannah/perpetual-motion?simple=true", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		view := decodeBody[concept.SimpleView](t, rec)
		assert.Equal(t, "hannah/perpetual-motion", view.Identifier)
	})

	t.Run("missing returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts/hannah/unknown", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSearchConcepts(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "hannah", "perpetual-motion")
	api.addConcept(t, "victor", "cold-fusion")

	rec := api.do(t, http.MethodGet, "/concepts?author=hannah", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	views := decodeBody[[]concept.SimpleView](t, rec)
	require.Len(t, views, 1)
	assert.Equal(t, "hannah/perpetual-motion", views[0].Identifier)

	t.Run("unknown fuzzy option returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts?fuzzy=sideways", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad timestamp returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts?not_before=yesterday", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateLink(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "hannah", "perpetual-motion")
	api.addConcept(t, "hannah", "motion-v2")

	rec := api.do(t, http.MethodPost, "/links", signToken(t, "hannah"), concept.LinkRecord{
		Ancestor:   "hannah/perpetual-motion",
		Descendant: "hannah/motion-v2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("missing endpoint returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/links", signToken(t, "hannah"), concept.LinkRecord{
			Ancestor:   "hannah/unknown",
			Descendant: "hannah/motion-v2",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed identifier returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/links", signToken(t, "hannah"), concept.LinkRecord{
			Ancestor:   "hannah/perpetual-motion",
			Descendant: "not-an-identifier",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetLineage(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "hannah", "origin")
	api.addConcept(t, "hannah", "derived")

	rec := api.do(t, http.MethodPost, "/links", signToken(t, "hannah"), concept.LinkRecord{
		Ancestor:   "hannah/origin",
		Descendant: "hannah/derived",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	res := api.do(t, http.MethodGet, "/concepts/hannah/derived/lineage", "", nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	lineage := decodeBody[concept.Lineage](t, res)
	assert.Equal(t, 2, lineage.Nodes)
	require.NotNil(t, lineage.Lineage)
	assert.Equal(t, "hannah/origin", lineage.Lineage.Data.Identifier)

	t.Run("missing concept returns 404", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/concepts/hannah/unknown/lineage", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFollows(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/follows", signToken(t, "hannah"), engagement.FollowRecord{
		Follower: "hannah",
		Followee: "victor",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/follows?follower=hannah&followee=victor", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hannah is following victor", decodeBody[infoBody](t, rec).Msg)

	rec = api.do(t, http.MethodDelete, "/follows?follower=hannah&followee=victor", signToken(t, "hannah"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/follows?follower=hannah&followee=victor", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "hannah is not following victor", decodeBody[errorBody](t, rec).ErrMsg)

	t.Run("self follow returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/follows", signToken(t, "hannah"), engagement.FollowRecord{
			Follower: "hannah",
			Followee: "hannah",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("follow for someone else returns 401", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/follows", signToken(t, "mallory"), engagement.FollowRecord{
			Follower: "hannah",
			Followee: "victor",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing query params return 400", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/follows?follower=hannah", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLikes(t *testing.T) {
	api := newTestAPI()

	rec := api.do(t, http.MethodPost, "/likes", signToken(t, "hannah"), engagement.LikeRecord{
		UserLiking:   "hannah",
		ConceptLiked: "victor/cold-fusion",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/likes?user_liking=hannah&concept_liked=victor/cold-fusion", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hannah does like victor/cold-fusion", decodeBody[infoBody](t, rec).Msg)

	rec = api.do(t, http.MethodDelete, "/likes?user_liking=hannah&concept_liked=victor/cold-fusion", signToken(t, "hannah"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/likes?user_liking=hannah&concept_liked=victor/cold-fusion", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComments(t *testing.T) {
	api := newTestAPI()
	api.addConcept(t, "victor", "cold-fusion")

	rec := api.do(t, http.MethodPost, "/concepts/victor/cold-fusion/comments", signToken(t, "hannah"), postCommentRequest{
		CommentAuthor: "hannah",
		CommentText:   "does this scale?",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	top := decodeBody[engagement.CommentView](t, rec)
	require.NotEqual(t, uuid.Nil, top.CommentID)

	rec = api.do(t, http.MethodPost, "/concepts/victor/cold-fusion/comments", signToken(t, "victor"), postCommentRequest{
		CommentAuthor: "victor",
		CommentText:   "only below room temperature",
		ResponseTo:    &top.CommentID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	section := api.do(t, http.MethodGet, "/concepts/victor/cold-fusion/comments", "", nil)
	require.Equal(t, http.StatusOK, section.Code)

	threads := decodeBody[engagement.CommentThreads](t, section)
	require.Len(t, threads.Threads, 1)
	assert.Equal(t, "does this scale?", threads.Threads[0].CommentText)
	require.Len(t, threads.Threads[0].Responses, 1)
	assert.Equal(t, "victor", threads.Threads[0].Responses[0].CommentAuthor)

	t.Run("empty comment returns 400", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/concepts/victor/cold-fusion/comments", signToken(t, "hannah"), postCommentRequest{
			CommentAuthor: "hannah",
			CommentText:   "   ",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reply under another concept returns 404", func(t *testing.T) {
		api.addConcept(t, "hannah", "perpetual-motion")

		rec := api.do(t, http.MethodPost, "/concepts/hannah/perpetual-motion/comments", signToken(t, "mallory"), postCommentRequest{
			CommentAuthor: "mallory",
			CommentText:   "replying in the wrong place",
			ResponseTo:    &top.CommentID,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
