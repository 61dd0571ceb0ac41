package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerSpaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSpace",
		Method:      http.MethodPost,
		Path:        "/api/v1/spaces",
		Summary:     "Create space",
		Description: "Creates a space with the caller as owner, plus its default cloud channel",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSpace)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSpaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces",
		Summary:     "List spaces",
		Description: "Lists spaces the caller belongs to, with member counts",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSpaces)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSpace",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}",
		Summary:     "Get space",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSpace)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSpace",
		Method:      http.MethodPatch,
		Path:        "/api/v1/spaces/{spaceID}",
		Summary:     "Update space",
		Description: "Renames a space or changes its icon. Owner or admin only.",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSpace)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSpace",
		Method:      http.MethodDelete,
		Path:        "/api/v1/spaces/{spaceID}",
		Summary:     "Delete space",
		Description: "Deletes a space and everything in it. Owner only.",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSpace)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSpaceMembers",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/members",
		Summary:     "List members",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMembers)

	huma.Register(s.api, huma.Operation{
		OperationID: "addSpaceMember",
		Method:      http.MethodPost,
		Path:        "/api/v1/spaces/{spaceID}/members",
		Summary:     "Add member",
		Description: "Adds a user to the space. Owner or admin only.",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddMember)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeSpaceMember",
		Method:      http.MethodDelete,
		Path:        "/api/v1/spaces/{spaceID}/members/{membershipID}",
		Summary:     "Remove member",
		Description: "Removes a membership. Members may remove themselves; otherwise owner or admin only. The owner's membership can never be removed.",
		Tags:        []string{"Spaces"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveMember)
}

// === DTOs ===

// SpacePathInput identifies a space by path parameter.
type SpacePathInput struct {
	SpaceID string `path:"spaceID" doc:"Space ID"`
}

// CreateSpaceInput wraps the create-space request for Huma.
type CreateSpaceInput struct {
	Body struct {
		Name     string `json:"name" doc:"Space name"`
		IconPath string `json:"icon_path,omitempty" doc:"Optional icon path"`
	}
}

// UpdateSpaceInput wraps the update-space request for Huma.
type UpdateSpaceInput struct {
	SpaceID string `path:"spaceID" doc:"Space ID"`
	Body    struct {
		Name     *string `json:"name,omitempty" doc:"New space name"`
		IconPath *string `json:"icon_path,omitempty" doc:"New icon path"`
	}
}

// AddMemberInput wraps the add-member request for Huma.
type AddMemberInput struct {
	SpaceID string `path:"spaceID" doc:"Space ID"`
	Body    struct {
		UserID string `json:"user_id" doc:"User to add"`
		Role   string `json:"role,omitempty" doc:"Role (admin or member, defaults to member)"`
	}
}

// MembershipPathInput identifies a membership within a space.
type MembershipPathInput struct {
	SpaceID      string `path:"spaceID" doc:"Space ID"`
	MembershipID string `path:"membershipID" doc:"Membership ID"`
}

// SpaceOutput wraps a single space for Huma.
type SpaceOutput struct {
	Body *domain.Space
}

// SpaceListOutput wraps a space list with member counts for Huma.
type SpaceListOutput struct {
	Body []*service.SpaceResponse
}

// MemberOutput wraps a single membership for Huma.
type MemberOutput struct {
	Body *domain.Membership
}

// MemberListOutput wraps a member list for Huma.
type MemberListOutput struct {
	Body []*service.MemberResponse
}

// === Handlers ===

func (s *Server) handleCreateSpace(ctx context.Context, input *CreateSpaceInput) (*SpaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	space, err := s.services.Space.CreateSpace(ctx, userID, service.CreateSpaceRequest{
		Name:     input.Body.Name,
		IconPath: input.Body.IconPath,
	})
	if err != nil {
		return nil, err
	}

	return &SpaceOutput{Body: space}, nil
}

func (s *Server) handleListSpaces(ctx context.Context, _ *struct{}) (*SpaceListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	spaces, err := s.services.Space.ListSpaces(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SpaceListOutput{Body: spaces}, nil
}

func (s *Server) handleGetSpace(ctx context.Context, input *SpacePathInput) (*SpaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	space, err := s.services.Space.GetSpace(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &SpaceOutput{Body: space}, nil
}

func (s *Server) handleUpdateSpace(ctx context.Context, input *UpdateSpaceInput) (*SpaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	space, err := s.services.Space.UpdateSpace(ctx, userID, input.SpaceID, service.UpdateSpaceRequest{
		Name:     input.Body.Name,
		IconPath: input.Body.IconPath,
	})
	if err != nil {
		return nil, err
	}

	return &SpaceOutput{Body: space}, nil
}

func (s *Server) handleDeleteSpace(ctx context.Context, input *SpacePathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Space.DeleteSpace(ctx, userID, input.SpaceID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Space deleted"}}, nil
}

func (s *Server) handleListMembers(ctx context.Context, input *SpacePathInput) (*MemberListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.services.Space.ListMembers(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &MemberListOutput{Body: members}, nil
}

func (s *Server) handleAddMember(ctx context.Context, input *AddMemberInput) (*MemberOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	role := input.Body.Role
	if role == "" {
		role = string(domain.RoleMember)
	}

	membership, err := s.services.Space.AddMember(ctx, userID, input.SpaceID, input.Body.UserID, domain.SpaceRole(role))
	if err != nil {
		return nil, err
	}

	return &MemberOutput{Body: membership}, nil
}

func (s *Server) handleRemoveMember(ctx context.Context, input *MembershipPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Space.RemoveMember(ctx, userID, input.SpaceID, input.MembershipID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Member removed"}}, nil
}
