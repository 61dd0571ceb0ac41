package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/sse"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// SpaceService manages space and membership lifecycle.
type SpaceService struct {
	store       *sqlite.Store
	permissions *PermissionService
	emitter     store.EventEmitter
	logger      *slog.Logger
}

// NewSpaceService creates a new space service.
func NewSpaceService(
	store *sqlite.Store,
	permissions *PermissionService,
	emitter store.EventEmitter,
	logger *slog.Logger,
) *SpaceService {
	return &SpaceService{
		store:       store,
		permissions: permissions,
		emitter:     emitter,
		logger:      logger,
	}
}

// CreateSpaceRequest contains the data needed to create a space.
type CreateSpaceRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IconPath string `json:"icon_path,omitempty"`
}

// SpaceResponse is a space together with its member count.
type SpaceResponse struct {
	*domain.Space
	MemberCount int `json:"member_count"`
}

// CreateSpace creates a space, its owner membership, and its default
// cloud channel as one atomic unit. The creator becomes the sole initial
// member with the owner role.
func (s *SpaceService) CreateSpace(ctx context.Context, ownerID string, req CreateSpaceRequest) (*domain.Space, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	now := time.Now()
	space := &domain.Space{
		ID:        id.MustGenerate("spc"),
		Name:      req.Name,
		IconPath:  req.IconPath,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	ownerMembership := &domain.Membership{
		ID:        id.MustGenerate("mem"),
		SpaceID:   space.ID,
		UserID:    ownerID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}
	cloudChannel := &domain.Channel{
		ID:        id.MustGenerate("chn"),
		SpaceID:   space.ID,
		Name:      "cloud",
		Type:      domain.ChannelCloud,
		CreatedAt: now,
	}

	if err := s.store.CreateSpace(ctx, space, ownerMembership, cloudChannel); err != nil {
		return nil, fmt.Errorf("create space: %w", err)
	}

	s.emitter.Emit(sse.NewSpaceCreatedEvent(space))

	s.logger.Info("space created",
		"space_id", space.ID,
		"owner_id", ownerID,
	)

	return space, nil
}

// GetSpace returns a space. The requester must be a member.
func (s *SpaceService) GetSpace(ctx context.Context, userID, spaceID string) (*domain.Space, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("space not found")
		}
		return nil, fmt.Errorf("get space: %w", err)
	}
	return space, nil
}

// ListSpaces returns the spaces the user belongs to, each with its
// member count.
func (s *SpaceService) ListSpaces(ctx context.Context, userID string) ([]*SpaceResponse, error) {
	spaces, err := s.store.ListSpacesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}

	ids := make([]string, len(spaces))
	for i, space := range spaces {
		ids[i] = space.ID
	}
	counts, err := s.store.MemberCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("member counts: %w", err)
	}

	out := make([]*SpaceResponse, len(spaces))
	for i, space := range spaces {
		out[i] = &SpaceResponse{Space: space, MemberCount: counts[space.ID]}
	}
	return out, nil
}

// UpdateSpaceRequest contains the mutable space fields.
type UpdateSpaceRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
	IconPath *string `json:"icon_path,omitempty"`
}

// UpdateSpace renames a space or changes its icon. Requires owner or
// admin role. The owner identity itself is immutable.
func (s *SpaceService) UpdateSpace(ctx context.Context, userID, spaceID string, req UpdateSpaceRequest) (*domain.Space, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if err := s.permissions.requireOwnerOrAdmin(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("space not found")
		}
		return nil, fmt.Errorf("get space: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domainerrors.Validation("name cannot be empty")
		}
		space.Name = name
	}
	if req.IconPath != nil {
		space.IconPath = *req.IconPath
	}
	space.UpdatedAt = time.Now()

	if err := s.store.UpdateSpace(ctx, space); err != nil {
		return nil, fmt.Errorf("update space: %w", err)
	}

	s.emitter.Emit(sse.NewSpaceUpdatedEvent(space))

	return space, nil
}

// DeleteSpace removes a space and everything in it. Only the owner may.
func (s *SpaceService) DeleteSpace(ctx context.Context, userID, spaceID string) error {
	role, ok, err := s.permissions.RoleOf(ctx, spaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Forbidden("you are not a member of this space")
	}
	if role != domain.RoleOwner {
		return domainerrors.Forbidden("only the owner can delete a space")
	}

	if err := s.store.DeleteSpace(ctx, spaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("space not found")
		}
		return fmt.Errorf("delete space: %w", err)
	}

	s.emitter.Emit(sse.NewSpaceDeletedEvent(spaceID, time.Now()))

	s.logger.Info("space deleted", "space_id", spaceID, "user_id", userID)

	return nil
}

// AddMember inserts a membership for a user with the given role. Requires
// owner or admin role. The owner role can never be granted this way.
func (s *SpaceService) AddMember(ctx context.Context, actorID, spaceID, userID string, role domain.SpaceRole) (*domain.Membership, error) {
	if err := s.permissions.requireOwnerOrAdmin(ctx, spaceID, actorID); err != nil {
		return nil, err
	}

	normalized, ok := domain.NormalizeRole(string(role))
	if !ok {
		return nil, domainerrors.Validationf("unknown role %q", role)
	}
	if normalized == domain.RoleOwner {
		return nil, domainerrors.Forbidden("the owner role is assigned only at space creation")
	}

	membership := &domain.Membership{
		ID:        id.MustGenerate("mem"),
		SpaceID:   spaceID,
		UserID:    userID,
		Role:      normalized,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateMembership(ctx, membership); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("user is already a member of this space")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("space or user not found")
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	s.emitter.Emit(sse.NewMemberAddedEvent(membership))

	return membership, nil
}

// RemoveMember deletes a membership. The owner membership can never be
// removed, regardless of who asks.
func (s *SpaceService) RemoveMember(ctx context.Context, actorID, spaceID, membershipID string) error {
	target, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("membership not found")
		}
		return fmt.Errorf("get membership: %w", err)
	}
	if target.SpaceID != spaceID {
		return domainerrors.NotFound("membership not found")
	}

	if target.IsOwner() {
		return domainerrors.Forbidden("the owner cannot be removed from a space")
	}
	ok, err := s.permissions.CanRemoveMember(ctx, actorID, target)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.Forbidden("removing members requires the owner or admin role")
	}

	// The store re-checks the owner protection inside the DELETE.
	if err := s.store.DeleteMembership(ctx, membershipID); err != nil {
		if errors.Is(err, store.ErrForbidden) {
			return domainerrors.Forbidden("the owner cannot be removed from a space")
		}
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("membership not found")
		}
		return fmt.Errorf("delete membership: %w", err)
	}

	s.emitter.Emit(sse.NewMemberRemovedEvent(spaceID, target.UserID))

	s.logger.Info("member removed",
		"space_id", spaceID,
		"user_id", target.UserID,
		"actor_id", actorID,
	)

	return nil
}

// MemberResponse is a membership joined with its user's public fields.
type MemberResponse struct {
	*domain.Membership
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarColor string `json:"avatar_color,omitempty"`
}

// ListMembers returns the space's memberships with user details. The
// requester must be a member.
func (s *SpaceService) ListMembers(ctx context.Context, userID, spaceID string) ([]*MemberResponse, error) {
	if err := s.permissions.requireMember(ctx, spaceID, userID); err != nil {
		return nil, err
	}

	memberships, err := s.store.ListMemberships(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	out := make([]*MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		resp := &MemberResponse{Membership: m}
		user, err := s.store.GetUser(ctx, m.UserID)
		if err == nil {
			resp.Email = user.Email
			resp.DisplayName = user.Name()
			resp.AvatarColor = user.AvatarColor
		}
		out = append(out, resp)
	}
	return out, nil
}

// MemberCounts returns the member count for each requested space. Every
// requested ID is present in the result, even when the count is zero.
func (s *SpaceService) MemberCounts(ctx context.Context, spaceIDs []string) (map[string]int, error) {
	counts, err := s.store.MemberCounts(ctx, spaceIDs)
	if err != nil {
		return nil, fmt.Errorf("member counts: %w", err)
	}
	return counts, nil
}
