package auth

import (
	"context"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

func TestRequireUserID(t *testing.T) {
	t.Run("Authenticated user", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), 42, RoleUser)

		uid, err := RequireUserID(ctx)

		assert.NoError(t, err)
		assert.Equal(t, uint64(42), uid)
	})

	t.Run("Missing identity", func(t *testing.T) {
		_, err := RequireUserID(context.Background())

		assert.True(t, kerrors.IsUnauthorized(err))
	})

	t.Run("Guest identity", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), 0, RoleUser)

		_, err := RequireUserID(ctx)

		assert.True(t, kerrors.IsUnauthorized(err))
	})
}

func TestCheckOwnership(t *testing.T) {
	t.Run("Owner can access", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), 42, RoleUser)
		assert.NoError(t, CheckOwnership(ctx, 42))
	})

	t.Run("Other user is forbidden", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), 42, RoleUser)
		assert.True(t, kerrors.IsForbidden(CheckOwnership(ctx, 7)))
	})

	t.Run("Admin can access anything", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), 1, RoleAdmin)
		assert.NoError(t, CheckOwnership(ctx, 7))
	})

	t.Run("Anonymous is unauthorized", func(t *testing.T) {
		assert.True(t, kerrors.IsUnauthorized(CheckOwnership(context.Background(), 7)))
	})
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin(WithIdentity(context.Background(), 1, RoleAdmin)))
	assert.False(t, IsAdmin(WithIdentity(context.Background(), 1, RoleUser)))
	assert.False(t, IsAdmin(context.Background()))
}
