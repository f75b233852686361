package account

import (
	"context"
	"regexp"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no account exists for a display name.
	ErrNotFound = errors.New("account not found")
	// ErrDisplayNameTaken is returned when registering a display name that
	// already exists.
	ErrDisplayNameTaken = errors.New("display name not available")
	// ErrInvalidCredentials is returned on authentication failure. The same
	// error covers unknown display names and wrong passwords.
	ErrInvalidCredentials = errors.New("Invalid display name or password")
	// ErrInvalidDisplayName is returned when a display name does not match
	// the required format.
	ErrInvalidDisplayName = errors.New(
		"display name must consist of letters, numbers, underscores, hyphens, and dots, " +
			"and be between 3 and 64 characters",
	)
	// ErrWeakPassword is returned when a password is shorter than 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

var displayNameFormat = regexp.MustCompile(`^[\w\-.]{3,64}$`)

// Record is a stored account row.
type Record struct {
	DisplayName   string
	PreferredName string
	Biography     string
	PasswordHash  string
	SaltValue     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CredentialSet is a display name / password pair presented by a client.
type CredentialSet struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// AuthInfo is the subset of an account used to verify credentials.
type AuthInfo struct {
	DisplayName  string
	PasswordHash string
	SaltValue    string
}

// Profile is the public view of an account.
type Profile struct {
	PreferredName string `json:"preferred_name"`
	Biography     string `json:"biography"`
	AvatarURL     string `json:"avatar_url"`
}

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetAuthInfo(ctx context.Context, displayName string) (*AuthInfo, error)
	GetProfile(ctx context.Context, displayName string) (*Profile, error)
	ListDisplayNames(ctx context.Context) ([]string, error)
}

// ValidDisplayName reports whether name matches the account name format.
func ValidDisplayName(name string) bool {
	return displayNameFormat.MatchString(name)
}
