// Package auth manages the client's bearer credential: a JWT issued by the
// hosted API, persisted to a file so sessions survive restarts. The client
// never verifies the signature (only the server holds the key); it reads the
// claims to learn the user id and to fail fast on an expired token.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors what the API puts into its tokens: registered claims plus a
// custom UserID.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// Credential is a parsed, not-yet-expired token.
type Credential struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// FileStore persists the raw token at a fixed path with owner-only
// permissions.
type FileStore struct {
	path string
	now  func() time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save validates the token's shape and expiry, then writes it to disk.
func (s *FileStore) Save(token string) error {
	cred, err := s.parse(token)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("error creating credential dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(cred.Token), 0o600); err != nil {
		return fmt.Errorf("error writing credential: %w", err)
	}
	return nil
}

// Load reads and parses the stored token. A missing file maps to
// common.ErrNoCredential, a stale token to common.ErrCredentialExpired.
func (s *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, common.ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("error reading credential: %w", err)
	}
	return s.parse(string(data))
}

// Clear removes the stored credential. Clearing an absent credential is not
// an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing credential: %w", err)
	}
	return nil
}

// Token supplies the raw bearer string for outgoing requests.
func (s *FileStore) Token() (string, error) {
	cred, err := s.Load()
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

func (s *FileStore) parse(token string) (*Credential, error) {
	claims := &Claims{}

	// Unverified on purpose: the signature is the server's concern. The
	// client only needs the subject and the expiry.
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("error parsing credential: %w", err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, common.ErrNoCredential
	}

	cred := &Credential{Token: token, UserID: userID}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
		if !cred.ExpiresAt.After(s.now()) {
			return nil, common.ErrCredentialExpired
		}
	}
	return cred, nil
}
