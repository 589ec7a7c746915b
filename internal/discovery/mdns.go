// SPDX-License-Identifier: EPL-2.0

// Package discovery advertises the backend on the local network over mDNS
// so companion frontends can find it without configuration.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
)

// ServiceType is the DNS-SD type the backend registers under.
const ServiceType = "_emotalk._tcp"

var ErrInvalidPort = errors.New("invalid advertised port")

type Config struct {
	// Instance name shown to browsers, e.g. the host name.
	ServiceName string
	Port        int
	// TXT records, "path=/" when empty.
	TXT []string
}

// Advertiser runs an mDNS responder until Stop is called.
type Advertiser struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	server *mdns.Server
}

func NewAdvertiser(cfg Config, log zerolog.Logger) *Advertiser {
	if len(cfg.TXT) == 0 {
		cfg.TXT = []string{"path=/"}
	}

	return &Advertiser{cfg: cfg, log: log}
}

func (a *Advertiser) service() (*mdns.MDNSService, error) {
	if a.cfg.Port <= 0 || a.cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, a.cfg.Port)
	}

	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("listing local addresses: %w", err)
	}

	service, err := mdns.NewMDNSService(a.cfg.ServiceName, ServiceType, "", "", a.cfg.Port, ips, a.cfg.TXT)
	if err != nil {
		return nil, fmt.Errorf("creating mdns service: %w", err)
	}

	return service, nil
}

// Start begins answering queries. Calling it twice is a no-op.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	service, err := a.service()
	if err != nil {
		return err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("starting mdns server: %w", err)
	}
	a.server = server

	a.log.Info().
		Str("name", a.cfg.ServiceName).
		Str("type", ServiceType).
		Int("port", a.cfg.Port).
		Msg("advertising over mDNS")

	return nil
}

func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return nil
	}

	err := a.server.Shutdown()
	a.server = nil

	return err
}

// getLocalIPs returns the IPv4 addresses of interfaces that are up,
// skipping loopback.
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
