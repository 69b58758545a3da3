package block

import (
	"context"
	"fmt"

	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/detour-app/detour-backend/internal/repository"
)

type BlockUseCase struct {
	repos *repository.Repositories
}

func NewBlockUseCase(repos *repository.Repositories) *BlockUseCase {
	return &BlockUseCase{repos: repos}
}

// BlockUser blocks blockedID on behalf of the principal. Blocking twice is a no-op.
func (uc *BlockUseCase) BlockUser(ctx context.Context, principalID, blockedID string) (*domain.BlockedUser, error) {
	if principalID == blockedID {
		return nil, domain.ErrCannotBlockSelf
	}

	block := &domain.BlockedUser{BlockerID: principalID, BlockedID: blockedID}
	err := uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.repos.Users.GetByID(ctx, blockedID); err != nil {
			return err
		}
		return uc.repos.Blocks.Create(ctx, block)
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// UnblockUser removes the principal's block on blockedID, if any.
func (uc *BlockUseCase) UnblockUser(ctx context.Context, principalID, blockedID string) error {
	if principalID == blockedID {
		return domain.ErrCannotBlockSelf
	}
	return uc.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return uc.repos.Blocks.Delete(ctx, principalID, blockedID)
	})
}

// IsBlocked checks both directions and reports which side initiated the block.
func (uc *BlockUseCase) IsBlocked(ctx context.Context, userA, userB string) (*domain.BlockStatus, error) {
	block, err := uc.repos.Blocks.FindBetween(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to check block status: %w", err)
	}
	if block == nil {
		return &domain.BlockStatus{Blocked: false}, nil
	}
	blockedBy := block.BlockerID
	return &domain.BlockStatus{Blocked: true, BlockedBy: &blockedBy}, nil
}

// ListBlocked returns the users the principal has blocked, newest first.
func (uc *BlockUseCase) ListBlocked(ctx context.Context, principalID string) ([]*domain.BlockedUser, error) {
	blocks, err := uc.repos.Blocks.ListByBlocker(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	return blocks, nil
}
