package auth

import (
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// localSigningKey signs identities minted for postgres mode, where there is
// no token-issuing service. The token never leaves the machine; the shared
// database trusts the user_id column, not the credential.
var localSigningKey = []byte("bukukas-local-credential")

// GenerateLocalToken mints a non-expiring credential carrying userID, for
// setups that talk straight to a shared database.
func GenerateLocalToken(userID string) (string, error) {
	if userID == "" {
		return "", common.ErrMissingUserID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		UserID:           userID,
	})
	return token.SignedString(localSigningKey)
}
