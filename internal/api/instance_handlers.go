package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

func (s *Server) registerInstanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getInstance",
		Method:      http.MethodGet,
		Path:        "/api/v1/instance",
		Summary:     "Get server instance",
		Description: "Returns server instance configuration and setup status",
		Tags:        []string{"Instance"},
	}, s.handleGetInstance)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateInstance",
		Method:      http.MethodPatch,
		Path:        "/api/v1/instance",
		Summary:     "Update server instance",
		Description: "Updates server settings. Only the root user may do this.",
		Tags:        []string{"Instance"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateInstance)
}

// InstanceResponse contains server instance data in API responses.
type InstanceResponse struct {
	ID            string    `json:"id" doc:"Instance ID"`
	Name          string    `json:"name" doc:"Server name"`
	Version       string    `json:"version" doc:"Server version"`
	LocalURL      string    `json:"local_url,omitempty" doc:"Local network URL"`
	RemoteURL     string    `json:"remote_url,omitempty" doc:"Remote access URL"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update timestamp"`
	SetupRequired bool      `json:"setup_required" doc:"Whether initial setup is needed"`
}

// InstanceOutput wraps the instance response for Huma.
type InstanceOutput struct {
	Body InstanceResponse
}

// UpdateInstanceInput wraps the instance update request for Huma.
type UpdateInstanceInput struct {
	Body struct {
		Name      *string `json:"name,omitempty" doc:"Server display name"`
		LocalURL  *string `json:"local_url,omitempty" doc:"Local network URL"`
		RemoteURL *string `json:"remote_url,omitempty" doc:"Remote access URL"`
	}
}

func (s *Server) handleGetInstance(ctx context.Context, _ *struct{}) (*InstanceOutput, error) {
	instance, err := s.services.Instance.GetInstance(ctx)
	if err != nil {
		return nil, err
	}

	return &InstanceOutput{Body: mapInstanceResponse(instance, !instance.HasRootUser)}, nil
}

func (s *Server) handleUpdateInstance(ctx context.Context, input *UpdateInstanceInput) (*InstanceOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	instance, err := s.services.Instance.UpdateInstance(ctx, user, service.UpdateInstanceRequest{
		Name:      input.Body.Name,
		LocalURL:  input.Body.LocalURL,
		RemoteURL: input.Body.RemoteURL,
	})
	if err != nil {
		return nil, err
	}

	return &InstanceOutput{Body: mapInstanceResponse(instance, !instance.HasRootUser)}, nil
}

func mapInstanceResponse(instance *domain.Instance, setupRequired bool) InstanceResponse {
	return InstanceResponse{
		ID:            instance.ID,
		Name:          instance.Name,
		Version:       instance.Version,
		LocalURL:      instance.LocalURL,
		RemoteURL:     instance.RemoteURL,
		CreatedAt:     instance.CreatedAt,
		UpdatedAt:     instance.UpdatedAt,
		SetupRequired: setupRequired,
	}
}
