package block

import (
	"context"
	"testing"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/detour-app/detour-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*BlockUseCase, *repository.Repositories, string, string) {
	t.Helper()
	repos := memory.NewStore().Repositories()
	ctx := context.Background()

	a := &domain.User{ClerkID: "clerk_a", Name: "A"}
	b := &domain.User{ClerkID: "clerk_b", Name: "B"}
	require.NoError(t, repos.Users.Create(ctx, a))
	require.NoError(t, repos.Users.Create(ctx, b))
	return NewBlockUseCase(repos), repos, a.ID, b.ID
}

func TestBlockingIsSymmetric(t *testing.T) {
	uc, _, a, b := setup(t)
	ctx := context.Background()

	_, err := uc.BlockUser(ctx, a, b)
	require.NoError(t, err)

	for _, pair := range [][2]string{{a, b}, {b, a}} {
		status, err := uc.IsBlocked(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, status.Blocked)
		require.NotNil(t, status.BlockedBy)
		assert.Equal(t, a, *status.BlockedBy)
	}
}

func TestBlockUser_Idempotent(t *testing.T) {
	uc, _, a, b := setup(t)
	ctx := context.Background()

	first, err := uc.BlockUser(ctx, a, b)
	require.NoError(t, err)
	second, err := uc.BlockUser(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	blocks, err := uc.ListBlocked(ctx, a)
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestUnblockUser(t *testing.T) {
	uc, _, a, b := setup(t)
	ctx := context.Background()

	_, err := uc.BlockUser(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, uc.UnblockUser(ctx, a, b))
	require.NoError(t, uc.UnblockUser(ctx, a, b))

	status, err := uc.IsBlocked(ctx, b, a)
	require.NoError(t, err)
	assert.False(t, status.Blocked)
	assert.Nil(t, status.BlockedBy)
}

func TestUnblockUser_OnlyRemovesOwnBlock(t *testing.T) {
	uc, _, a, b := setup(t)
	ctx := context.Background()

	_, err := uc.BlockUser(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, uc.UnblockUser(ctx, b, a))

	status, err := uc.IsBlocked(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, status.Blocked)
}

func TestBlockUser_Guards(t *testing.T) {
	uc, _, a, _ := setup(t)
	ctx := context.Background()

	_, err := uc.BlockUser(ctx, a, a)
	assert.ErrorIs(t, err, domain.ErrCannotBlockSelf)

	_, err = uc.BlockUser(ctx, a, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
