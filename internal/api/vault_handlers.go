package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerVaultRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createVault",
		Method:      http.MethodPost,
		Path:        "/api/v1/vaults",
		Summary:     "Create vault",
		Description: "Creates a personal file vault owned by the caller",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVaults",
		Method:      http.MethodGet,
		Path:        "/api/v1/vaults",
		Summary:     "List vaults",
		Description: "Lists vaults owned by the caller",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListVaults)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVault",
		Method:      http.MethodGet,
		Path:        "/api/v1/vaults/{vaultID}",
		Summary:     "Get vault",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteVault",
		Method:      http.MethodDelete,
		Path:        "/api/v1/vaults/{vaultID}",
		Summary:     "Delete vault",
		Description: "Deletes a vault, its files, links, and shares. Owner only.",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "linkVault",
		Method:      http.MethodPost,
		Path:        "/api/v1/vaults/{vaultID}/links",
		Summary:     "Link vault to space",
		Description: "Makes the vault visible in a space the owner belongs to",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLinkVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkVault",
		Method:      http.MethodDelete,
		Path:        "/api/v1/vaults/{vaultID}/links/{spaceID}",
		Summary:     "Unlink vault from space",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlinkVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "shareVault",
		Method:      http.MethodPost,
		Path:        "/api/v1/vaults/{vaultID}/shares",
		Summary:     "Share vault with user",
		Description: "Grants another user access to the vault",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleShareVault)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokeVaultShare",
		Method:      http.MethodDelete,
		Path:        "/api/v1/vaults/{vaultID}/shares/{userID}",
		Summary:     "Revoke vault share",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRevokeShare)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVaultAccess",
		Method:      http.MethodGet,
		Path:        "/api/v1/vaults/{vaultID}/access",
		Summary:     "List vault access",
		Description: "Lists the vault's space links and user shares. Owner only.",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListVaultAccess)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSpaceVaults",
		Method:      http.MethodGet,
		Path:        "/api/v1/spaces/{spaceID}/vaults",
		Summary:     "List space vaults",
		Description: "Lists vaults linked into the space",
		Tags:        []string{"Vaults"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSpaceVaults)
}

// === DTOs ===

// VaultPathInput identifies a vault by path parameter.
type VaultPathInput struct {
	VaultID string `path:"vaultID" doc:"Vault ID"`
}

// CreateVaultInput wraps the create-vault request for Huma.
type CreateVaultInput struct {
	Body struct {
		Name string `json:"name" doc:"Vault name"`
	}
}

// LinkVaultInput wraps the link-vault request for Huma.
type LinkVaultInput struct {
	VaultID string `path:"vaultID" doc:"Vault ID"`
	Body    struct {
		SpaceID string   `json:"space_id" doc:"Space to link into"`
		Perms   []string `json:"perms,omitempty" doc:"Permissions (read, write; defaults to read)"`
	}
}

// UnlinkVaultInput identifies a vault link by path parameters.
type UnlinkVaultInput struct {
	VaultID string `path:"vaultID" doc:"Vault ID"`
	SpaceID string `path:"spaceID" doc:"Space ID"`
}

// ShareVaultInput wraps the share-vault request for Huma.
type ShareVaultInput struct {
	VaultID string `path:"vaultID" doc:"Vault ID"`
	Body    struct {
		UserID string   `json:"user_id" doc:"User to share with"`
		Perms  []string `json:"perms,omitempty" doc:"Permissions (read, write; defaults to read)"`
	}
}

// RevokeShareInput identifies a vault share by path parameters.
type RevokeShareInput struct {
	VaultID string `path:"vaultID" doc:"Vault ID"`
	UserID  string `path:"userID" doc:"Grantee user ID"`
}

// VaultOutput wraps a single vault for Huma.
type VaultOutput struct {
	Body *domain.Vault
}

// VaultListOutput wraps a vault list for Huma.
type VaultListOutput struct {
	Body []*domain.Vault
}

// VaultLinkOutput wraps a single vault link for Huma.
type VaultLinkOutput struct {
	Body *domain.VaultLink
}

// VaultLinkListOutput wraps a vault link list for Huma.
type VaultLinkListOutput struct {
	Body []*domain.VaultLink
}

// VaultShareOutput wraps a single vault share for Huma.
type VaultShareOutput struct {
	Body *domain.VaultShare
}

// VaultAccessOutput wraps a vault's links and shares for Huma.
type VaultAccessOutput struct {
	Body *service.VaultAccess
}

// === Handlers ===

func (s *Server) handleCreateVault(ctx context.Context, input *CreateVaultInput) (*VaultOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	vault, err := s.services.Vault.CreateVault(ctx, userID, service.CreateVaultRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}

	return &VaultOutput{Body: vault}, nil
}

func (s *Server) handleListVaults(ctx context.Context, _ *struct{}) (*VaultListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	vaults, err := s.services.Vault.ListVaults(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &VaultListOutput{Body: vaults}, nil
}

func (s *Server) handleGetVault(ctx context.Context, input *VaultPathInput) (*VaultOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	vault, err := s.services.Vault.GetVault(ctx, userID, input.VaultID)
	if err != nil {
		return nil, err
	}

	return &VaultOutput{Body: vault}, nil
}

func (s *Server) handleDeleteVault(ctx context.Context, input *VaultPathInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Vault.DeleteVault(ctx, userID, input.VaultID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Vault deleted"}}, nil
}

func (s *Server) handleLinkVault(ctx context.Context, input *LinkVaultInput) (*VaultLinkOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.services.Vault.LinkVaultToSpace(ctx, userID, input.VaultID, input.Body.SpaceID, input.Body.Perms)
	if err != nil {
		return nil, err
	}

	return &VaultLinkOutput{Body: link}, nil
}

func (s *Server) handleUnlinkVault(ctx context.Context, input *UnlinkVaultInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Vault.UnlinkVault(ctx, userID, input.VaultID, input.SpaceID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Vault unlinked"}}, nil
}

func (s *Server) handleShareVault(ctx context.Context, input *ShareVaultInput) (*VaultShareOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	share, err := s.services.Vault.ShareVaultWithUser(ctx, userID, input.VaultID, input.Body.UserID, input.Body.Perms)
	if err != nil {
		return nil, err
	}

	return &VaultShareOutput{Body: share}, nil
}

func (s *Server) handleRevokeShare(ctx context.Context, input *RevokeShareInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Vault.RevokeShare(ctx, userID, input.VaultID, input.UserID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Share revoked"}}, nil
}

func (s *Server) handleListVaultAccess(ctx context.Context, input *VaultPathInput) (*VaultAccessOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	access, err := s.services.Vault.ListVaultAccess(ctx, userID, input.VaultID)
	if err != nil {
		return nil, err
	}

	return &VaultAccessOutput{Body: access}, nil
}

func (s *Server) handleListSpaceVaults(ctx context.Context, input *SpacePathInput) (*VaultLinkListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.services.Vault.ListSpaceVaults(ctx, userID, input.SpaceID)
	if err != nil {
		return nil, err
	}

	return &VaultLinkListOutput{Body: links}, nil
}
