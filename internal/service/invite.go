package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

const (
	// inviteCodeAlphabet avoids visually ambiguous characters (0/O, 1/l/I)
	// since codes are read aloud and typed by hand.
	inviteCodeAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	// inviteCodeLength is the number of characters in an invite code.
	inviteCodeLength = 8
)

// InviteService handles invite creation and redemption.
type InviteService struct {
	store       *sqlite.Store
	permissions *PermissionService
	emitter     store.EventEmitter
	logger      *slog.Logger
}

// NewInviteService creates a new invite service.
func NewInviteService(
	store *sqlite.Store,
	permissions *PermissionService,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *InviteService {
	return &InviteService{
		store:       store,
		permissions: permissions,
		emitter:     emitter,
		logger:      logger,
	}
}

// CreateInviteRequest contains the data needed to create an invite.
type CreateInviteRequest struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil = never expires
	MaxUses   *int       `json:"max_uses,omitempty"`   // nil = unlimited
}

// CreateInvite generates a unique invite code for a space. Any member may
// create invites. A non-positive max use count is rejected.
func (s *InviteService) CreateInvite(ctx context.Context, userID, spaceID string, req CreateInviteRequest) (*domain.Invite, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, domainerrors.Validation("max_uses must be positive")
	}

	code, err := gonanoid.Generate(inviteCodeAlphabet, inviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	invite := &domain.Invite{
		ID:        id.MustGenerate("inv"),
		SpaceID:   spaceID,
		Code:      code,
		CreatedBy: userID,
		ExpiresAt: req.ExpiresAt,
		MaxUses:   req.MaxUses,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateInvite(ctx, invite); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Code collision. With 31^8 codes this is vanishingly rare;
			// let the caller retry rather than looping here.
			return nil, domainerrors.Conflict("invite code collision, try again")
		}
		return nil, fmt.Errorf("create invite: %w", err)
	}

	s.emitter.Emit(sse.NewInviteCreatedEvent(invite))

	s.logger.Info("invite created",
		"space_id", spaceID,
		"invite_id", invite.ID,
		"created_by", userID,
	)

	return invite, nil
}

// ListInvites returns a space's invites, terminal ones included. Requires
// owner or admin role.
func (s *InviteService) ListInvites(ctx context.Context, userID, spaceID string) ([]*domain.Invite, error) {
	if err := s.permissions.requireOwnerOrAdmin(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	invites, err := s.store.ListInvites(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// InvitePreview is what a prospective member sees before redeeming.
type InvitePreview struct {
	SpaceName   string              `json:"space_name"`
	MemberCount int                 `json:"member_count"`
	Status      domain.InviteStatus `json:"status"`
}

// PreviewInvite looks up an invite code and returns the space it grants
// access to, without redeeming it.
func (s *InviteService) PreviewInvite(ctx context.Context, code string) (*InvitePreview, error) {
	invite, err := s.store.GetInviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("invite not found")
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}

	space, err := s.store.GetSpace(ctx, invite.SpaceID)
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}
	counts, err := s.store.MemberCounts(ctx, []string{space.ID})
	if err != nil {
		return nil, fmt.Errorf("member counts: %w", err)
	}

	return &InvitePreview{
		SpaceName:   space.Name,
		MemberCount: counts[space.ID],
		Status:      invite.Status(),
	}, nil
}

// RedeemInvite atomically checks redeemability, increments the use
// counter, and adds the user as a member. Concurrent redemptions of a
// capped invite never oversubscribe it; the store serializes the
// increment-and-check.
func (s *InviteService) RedeemInvite(ctx context.Context, userID, code string) (*domain.Space, error) {
	membership := &domain.Membership{
		ID:        id.MustGenerate("mem"),
		UserID:    userID,
		Role:      domain.RoleMember,
		CreatedAt: time.Now(),
	}

	spaceID, err := s.store.RedeemInvite(ctx, code, membership)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("invite not found")
		case errors.Is(err, store.ErrInviteExpired):
			return nil, domainerrors.Expired("invite has expired")
		case errors.Is(err, store.ErrInviteExhausted):
			return nil, domainerrors.Exhausted("invite has reached its use limit")
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.Conflict("you are already a member of this space")
		}
		return nil, fmt.Errorf("redeem invite: %w", err)
	}

	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("get space: %w", err)
	}

	s.emitter.Emit(sse.NewMemberAddedEvent(membership))

	s.logger.Info("invite redeemed",
		"space_id", spaceID,
		"user_id", userID,
	)

	return space, nil
}
