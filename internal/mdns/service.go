// Package mdns provides mDNS/Zeroconf service advertisement for ChartStash
// server discovery via the Avahi daemon.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/holoplot/go-avahi"
)

const (
	// ServiceType is the mDNS service type for ChartStash servers.
	ServiceType = "_chartstash._tcp"

	// APIVersion is the current API version advertised in TXT records.
	APIVersion = "v1"
)

// Advertisement describes what gets published in TXT records.
type Advertisement struct {
	Name    string // human-readable server name
	Version string
	Port    uint16
}

// Service manages mDNS advertisement for the ChartStash server.
// It allows local network discovery of the server without manual configuration.
type Service struct {
	logger *slog.Logger

	mu     sync.Mutex
	server *avahi.Server
	group  *avahi.EntryGroup
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising the server via Avahi. It should be called after
// the HTTP server is running. Errors are typically non-fatal (no Avahi
// daemon, or multicast not supported in a container).
func (s *Service) Start(ad Advertisement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stop existing advertisement if running (for restart scenarios).
	s.stopLocked()

	conn, err := dbus.SystemBus()
	if err != nil {
		return fmt.Errorf("connect to system bus: %w", err)
	}

	server, err := avahi.ServerNew(conn)
	if err != nil {
		return fmt.Errorf("connect to avahi daemon: %w", err)
	}

	group, err := server.EntryGroupNew()
	if err != nil {
		server.Close()
		return fmt.Errorf("create avahi entry group: %w", err)
	}

	instance, err := os.Hostname()
	if err != nil || instance == "" {
		instance = "chartstash-server"
	}

	err = group.AddService(
		avahi.InterfaceUnspec,
		avahi.ProtoUnspec,
		0,
		instance,
		ServiceType,
		"", // domain (empty = .local)
		"", // host (empty = this machine)
		ad.Port,
		buildTXT(ad),
	)
	if err != nil {
		server.Close()
		return fmt.Errorf("add avahi service: %w", err)
	}

	if err := group.Commit(); err != nil {
		server.Close()
		return fmt.Errorf("commit avahi entry group: %w", err)
	}

	s.server = server
	s.group = group

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", ad.Port,
		"name", ad.Name,
	)

	return nil
}

// Stop stops advertising. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.server != nil {
		s.server.Close()
		s.server = nil
		s.group = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}

// buildTXT builds the TXT records advertised with the service.
func buildTXT(ad Advertisement) [][]byte {
	records := [][]byte{
		[]byte("api=" + APIVersion),
	}
	if ad.Name != "" {
		records = append(records, []byte("name="+ad.Name))
	}
	if ad.Version != "" {
		records = append(records, []byte("version="+ad.Version))
	}
	return records
}
