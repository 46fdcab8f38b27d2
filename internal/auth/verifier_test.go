package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/trellis/internal/auth"
	"github.com/gosuda/trellis/internal/domain"
)

const verifierSecret = "verifier-secret-at-least-32-characters"

// lookupFunc adapts a function to auth.UserLookup and counts calls.
type lookupFunc struct {
	fn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	calls int
}

func (l *lookupFunc) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	l.calls++
	return l.fn(ctx, id)
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New(), Email: "u1@example.com"}

	found := func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		if id == user.ID {
			return user, nil
		}
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}

	valid, err := auth.IssueToken(verifierSecret, user.ID, user.Email, time.Minute)
	require.NoError(t, err)
	expired, err := auth.IssueToken(verifierSecret, user.ID, user.Email, -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := auth.IssueToken("some-other-secret-that-is-long-enough", user.ID, user.Email, time.Minute)
	require.NoError(t, err)
	unknownUser, err := auth.IssueToken(verifierSecret, uuid.New(), "ghost@example.com", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		wantErr    bool
		wantLookup int
	}{
		{name: "bearer prefix", credential: "Bearer " + valid, wantLookup: 1},
		{name: "lowercase bearer", credential: "bearer " + valid, wantLookup: 1},
		{name: "bare token", credential: valid, wantLookup: 1},
		{name: "empty", credential: "", wantErr: true},
		{name: "bearer without token", credential: "Bearer ", wantErr: true},
		{name: "garbage", credential: "Bearer not-a-jwt", wantErr: true},
		{name: "expired", credential: "Bearer " + expired, wantErr: true},
		{name: "wrong secret", credential: "Bearer " + wrongSecret, wantErr: true},
		{name: "unknown user", credential: "Bearer " + unknownUser, wantErr: true, wantLookup: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lookup := &lookupFunc{fn: found}
			v := auth.NewVerifier(verifierSecret, lookup)

			got, err := v.Verify(context.Background(), tt.credential)
			assert.Equal(t, tt.wantLookup, lookup.calls)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.ErrorIs(t, err, auth.ErrAuthentication)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user, got)
		})
	}
}

func TestVerifier_LookupFailureIsAuthenticationError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	lookup := &lookupFunc{fn: func(context.Context, uuid.UUID) (*domain.User, error) {
		return nil, dbErr
	}}
	v := auth.NewVerifier(verifierSecret, lookup)

	token, err := auth.IssueToken(verifierSecret, uuid.New(), "x@example.com", time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthentication)
	assert.ErrorIs(t, err, dbErr)
}

func TestStripBearer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"abc", "abc"},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, auth.StripBearer(tt.in), "input %q", tt.in)
	}
}
