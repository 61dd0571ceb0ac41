// Package mdns advertises the Haven server on the local network so
// clients can discover it without manual configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"

	"github.com/havenapp/haven-server/internal/domain"
	"github.com/havenapp/haven-server/internal/service"
)

const (
	// ServiceType is the registered mDNS service type for Haven.
	ServiceType = "_haven._tcp"

	// APIVersion is advertised in TXT records so clients can reject
	// servers they do not speak.
	APIVersion = "v1"
)

// Service manages a single mDNS advertisement.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start advertises the instance via mDNS. Call it after the HTTP server
// is listening. Restarting an already-advertising service replaces the
// previous advertisement. Failure is usually environmental, multicast
// is often unavailable inside containers.
func (s *Service) Start(instance *domain.Instance, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "haven-server"
	}

	txt := []string{
		fmt.Sprintf("id=%s", instance.ID),
		fmt.Sprintf("name=%s", instance.Name),
		fmt.Sprintf("version=%s", service.Version),
		fmt.Sprintf("api=%s", APIVersion),
	}
	if instance.RemoteURL != "" {
		txt = append(txt, fmt.Sprintf("remote=%s", instance.RemoteURL))
	}

	zone, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, txt)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", instance.Name,
		"id", instance.ID,
	)

	return nil
}

// Stop withdraws the advertisement. Safe to call repeatedly and before
// Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
