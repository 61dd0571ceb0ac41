package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerInviteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createInvite",
		Method:      http.MethodPost,
		Path:        "/api/v1/spaces/{spaceID}/invites",
		Summary:     "Create invite",
		Description: "Generates an invite code for the space. Any member may create invites.",
		Tags:        []string{"Invites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "listInvites",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/invites",
		Summary:     "List invites",
		Description: "Lists the space's invites. Owner or admin only.",
		Tags:        []string{"Invites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListInvites)

	huma.Register(s.api, huma.Operation{
		OperationID: "previewInvite",
		Method:      http.MethodGet,
		Path:        "/api/v1/invites/{code}",
		Summary:     "Preview invite",
		Description: "Shows which space an invite code grants access to, without redeeming it",
		Tags:        []string{"Invites"},
	}, s.handlePreviewInvite)

	huma.Register(s.api, huma.Operation{
		OperationID: "redeemInvite",
		Method:      http.MethodPost,
		Path:        "/api/v1/invites/{code}/redeem",
		Summary:     "Redeem invite",
		Description: "Joins the space the invite code belongs to",
		Tags:        []string{"Invites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRedeemInvite)
}

// === DTOs ===

// CreateInviteInput wraps the create-invite request for Huma.
type CreateInviteInput struct {
	SpaceID string `path:"spaceID" doc:"Space ID"`
	Body    struct {
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Expiry timestamp, omit for no expiry"`
		MaxUses   *int       `json:"max_uses,omitempty" doc:"Maximum redemptions, omit for unlimited"`
	}
}

// InviteCodeInput identifies an invite by its code with rate limit headers.
type InviteCodeInput struct {
	Code          string `path:"code" doc:"Invite code"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// InviteOutput wraps a single invite for Huma.
type InviteOutput struct {
	Body *domain.Invite
}

// InviteListOutput wraps an invite list for Huma.
type InviteListOutput struct {
	Body []*domain.Invite
}

// InvitePreviewOutput wraps an invite preview for Huma.
type InvitePreviewOutput struct {
	Body *service.InvitePreview
}

// === Handlers ===

func (s *Server) handleCreateInvite(ctx context.Context, input *CreateInviteInput) (*InviteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	invite, err := s.services.Invite.CreateInvite(ctx, userID, input.SpaceID, service.CreateInviteRequest{
		ExpiresAt: input.Body.ExpiresAt,
		MaxUses:   input.Body.MaxUses,
	})
	if err != nil {
		return nil, err
	}

	return &InviteOutput{Body: invite}, nil
}

func (s *Server) handleListInvites(ctx context.Context, input *SpacePathInput) (*InviteListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	invites, err := s.services.Invite.ListInvites(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &InviteListOutput{Body: invites}, nil
}

func (s *Server) handlePreviewInvite(ctx context.Context, input *InviteCodeInput) (*InvitePreviewOutput, error) {
	preview, err := s.services.Invite.PreviewInvite(ctx, input.Code)
	if err != nil {
		return nil, err
	}

	return &InvitePreviewOutput{Body: preview}, nil
}

func (s *Server) handleRedeemInvite(ctx context.Context, input *InviteCodeInput) (*SpaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Redemption is rate limited per client IP to slow down code guessing.
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if !s.authRateLimiter.Allow(ip) {
		return nil, huma.Error429TooManyRequests("Too many invite attempts. Please try again later.")
	}

	space, err := s.services.Invite.RedeemInvite(ctx, userID, input.Code)
	if err != nil {
		return nil, err
	}

	return &SpaceOutput{Body: space}, nil
}
