package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/havenapp/haven-server/internal/config"
	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/id"
	"github.com/havenapp/haven-server/internal/store"
	"github.com/havenapp/haven-server/internal/store/sqlite"
)

// Version is the server release version reported by the instance record
// and the health endpoint.
const Version = "0.1.0"

// InstanceService handles server instance configuration.
type InstanceService struct {
	store  *sqlite.Store
	logger *slog.Logger
	config *config.Config
}

// NewInstanceService creates a new instance service.
func NewInstanceService(store *sqlite.Store, logger *slog.Logger, config *config.Config) *InstanceService {
	return &InstanceService{
		store:  store,
		logger: logger,
		config: config,
	}
}

// GetInstance retrieves the server instance configuration.
func (s *InstanceService) GetInstance(ctx context.Context) (*domain.Instance, error) {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("instance configuration not found").WithCause(err)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return instance, nil
}

// InitializeInstance ensures a server instance record exists and carries
// the current config values. Called once on startup.
func (s *InstanceService) InitializeInstance(ctx context.Context) (*domain.Instance, error) {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to get instance: %w", err)
		}

		now := time.Now()
		instance = &domain.Instance{
			ID:        id.MustGenerate("srv"),
			Name:      s.config.Server.Name,
			Version:   Version,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if instance.Name == "" {
			instance.Name = "Haven Server"
		}
		if err := s.store.CreateInstance(ctx, instance); err != nil {
			return nil, fmt.Errorf("failed to create instance: %w", err)
		}
	}

	// Config values win over what is stored.
	instance.Version = Version
	if s.config.Server.Name != "" {
		instance.Name = s.config.Server.Name
	}
	if s.config.Server.LocalURL != "" {
		instance.LocalURL = s.config.Server.LocalURL
	}
	if s.config.Server.RemoteURL != "" {
		instance.RemoteURL = s.config.Server.RemoteURL
	}
	instance.UpdatedAt = time.Now()

	if err := s.store.UpdateInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to update instance with config: %w", err)
	}

	return instance, nil
}

// IsSetupRequired checks if the server requires initial setup.
// Setup is required until the first (root) user exists.
func (s *InstanceService) IsSetupRequired(ctx context.Context) (bool, error) {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to get instance: %w", err)
	}
	return !instance.HasRootUser, nil
}

// UpdateInstanceRequest contains the mutable instance fields.
type UpdateInstanceRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=100"`
	LocalURL  *string `json:"local_url,omitempty"`
	RemoteURL *string `json:"remote_url,omitempty"`
}

// UpdateInstance changes the server's name or advertised URLs. Root only.
func (s *InstanceService) UpdateInstance(ctx context.Context, actor *domain.User, req UpdateInstanceRequest) (*domain.Instance, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if !actor.IsRoot {
		return nil, domainerrors.Forbidden("only the root user can change server settings")
	}

	instance, err := s.GetInstance(ctx)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != "" {
		instance.Name = *req.Name
	}
	if req.LocalURL != nil {
		instance.LocalURL = *req.LocalURL
	}
	if req.RemoteURL != nil {
		instance.RemoteURL = *req.RemoteURL
	}
	instance.UpdatedAt = time.Now()

	if err := s.store.UpdateInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}

	s.logger.Info("instance updated", "instance_id", instance.ID)

	return instance, nil
}
