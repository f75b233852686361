package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const (
	// nameFilterCapacity sizes the bloom filter for known display names.
	nameFilterCapacity = 1_000_000
	nameFilterFPR      = 0.001
)

// LinkSharer produces presigned download and upload URLs for stored objects.
type LinkSharer interface {
	ShareURL(ctx context.Context, key string) (string, error)
	UploadURL(ctx context.Context, key string) (string, error)
}

// Service holds account registration, authentication, and profile logic.
//
// Registration keeps a bloom filter of every display name seen so far: a
// negative filter probe means the name is definitely free, so the common case
// skips a round-trip. The database unique constraint remains the source of
// truth for positives.
type Service struct {
	repo  Repository
	links LinkSharer

	mu    sync.RWMutex
	names *bloom.BloomFilter
}

// NewService creates an account Service with the given repository and link
// sharer.
func NewService(repo Repository, links LinkSharer) *Service {
	return &Service{
		repo:  repo,
		links: links,
		names: bloom.NewWithEstimates(nameFilterCapacity, nameFilterFPR),
	}
}

// WarmNameFilter loads existing display names into the bloom filter. Safe to
// skip; the filter simply starts cold and every registration hits the DB.
func (s *Service) WarmNameFilter(ctx context.Context) error {
	names, err := s.repo.ListDisplayNames(ctx)
	if err != nil {
		return errors.Wrap(err, "list display names")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.names.AddString(n)
	}
	return nil
}

// Register creates a new account from the given credentials and returns the
// display name on success.
func (s *Service) Register(ctx context.Context, creds CredentialSet) (string, error) {
	if !ValidDisplayName(creds.DisplayName) {
		return "", ErrInvalidDisplayName
	}
	if len(creds.Password) < 8 {
		return "", ErrWeakPassword
	}

	if s.nameSeen(creds.DisplayName) {
		// Probably taken; confirm before attempting the insert so the usual
		// failure path is a clean lookup rather than a constraint violation.
		if _, err := s.repo.GetAuthInfo(ctx, creds.DisplayName); err == nil {
			return "", ErrDisplayNameTaken
		}
	}

	salt, err := newSalt()
	if err != nil {
		return "", errors.Wrap(err, "generate salt")
	}

	rec := Record{
		DisplayName:  creds.DisplayName,
		PasswordHash: hashPassword(creds.Password, salt),
		SaltValue:    salt,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.names.AddString(creds.DisplayName)
	s.mu.Unlock()

	return creds.DisplayName, nil
}

// Authenticate verifies the given credentials against the stored digest and
// returns the canonical display name on success.
func (s *Service) Authenticate(ctx context.Context, creds CredentialSet) (string, error) {
	info, err := s.repo.GetAuthInfo(ctx, creds.DisplayName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "fetch auth info")
	}

	provided := hashPassword(creds.Password, info.SaltValue)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(info.PasswordHash)) != 1 {
		return "", ErrInvalidCredentials
	}
	return info.DisplayName, nil
}

// FetchProfile returns the public profile of the given display name, with a
// presigned avatar link.
func (s *Service) FetchProfile(ctx context.Context, displayName string) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, displayName)
	if err != nil {
		return nil, err
	}

	avatarURL, err := s.links.ShareURL(ctx, "avatars/"+displayName)
	if err != nil {
		return nil, errors.Wrap(err, "share avatar")
	}
	p.AvatarURL = avatarURL
	return p, nil
}

// AvatarUploadLink returns a presigned URL the account owner can PUT a new
// avatar image to. The account must exist.
func (s *Service) AvatarUploadLink(ctx context.Context, displayName string) (string, error) {
	if _, err := s.repo.GetAuthInfo(ctx, displayName); err != nil {
		return "", err
	}

	url, err := s.links.UploadURL(ctx, "avatars/"+displayName)
	if err != nil {
		return "", errors.Wrap(err, "presign avatar upload")
	}
	return url, nil
}

func (s *Service) nameSeen(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names.TestString(name)
}

// hashPassword computes the hex SHA-256 digest of password+salt, matching the
// digest format stored in the accounts table.
func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// newSalt returns 32 random bytes hex-encoded (64 characters).
func newSalt() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
