package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/trellis/internal/domain"
)

// ErrAuthentication is returned by Verifier for every rejected credential:
// missing, malformed, badly signed, expired, or pointing at an unknown user.
var ErrAuthentication = errors.New("auth: authentication error")

// UserLookup is the single read the verifier needs from the user store.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Verifier resolves a bearer credential to the user it was issued for.
type Verifier struct {
	secret string
	users  UserLookup
}

func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: secret, users: users}
}

// Verify checks the credential signature and expiry, then loads the user named
// by its "id" claim. Both "Bearer <jwt>" and a bare "<jwt>" are accepted.
func (v *Verifier) Verify(ctx context.Context, credential string) (*domain.User, error) {
	token := StripBearer(credential)
	if token == "" {
		return nil, fmt.Errorf("auth.Verify: missing credential: %w", ErrAuthentication)
	}

	claims, err := ValidateToken(v.secret, token)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: %w: %w", ErrAuthentication, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: invalid user id: %w", ErrAuthentication)
	}

	user, err := v.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.Verify: %w: %w", ErrAuthentication, err)
	}

	return user, nil
}

// StripBearer removes a case-insensitive "Bearer " prefix and surrounding spaces.
func StripBearer(credential string) string {
	credential = strings.TrimSpace(credential)
	if len(credential) > 7 && strings.EqualFold(credential[:7], "bearer ") {
		return strings.TrimSpace(credential[7:])
	}
	if strings.EqualFold(credential, "bearer") {
		return ""
	}
	return credential
}
