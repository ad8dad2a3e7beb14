// Package discovery advertises the canvas server on the local network and
// finds other instances.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_inamate-canvas._tcp"

// Peer is another canvas server found on the network.
type Peer struct {
	Instance string
	Addr     string
	Version  string
}

// Advertise announces instance on port until the returned server is shut
// down. An empty instance uses the hostname.
func Advertise(instance string, port int, version string) (*mdns.Server, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, txtRecords(version))
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}

	slog.Info("mdns advertising", "instance", instance, "service", ServiceType, "port", port)
	return server, nil
}

// Browse queries the network once and returns the peers that answered
// within timeout.
func Browse(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var peers []Peer
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return peers, <-errc
			}
			if p, ok := peerFromEntry(e); ok {
				peers = append(peers, p)
			}
		case <-ctx.Done():
			go func() {
				for range entries {
				}
			}()
			return peers, ctx.Err()
		}
	}
}

func txtRecords(version string) []string {
	return []string{"app=inamate-canvas", "version=" + version}
}

func peerFromEntry(e *mdns.ServiceEntry) (Peer, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Peer{}, false
	}
	p := Peer{
		Instance: strings.TrimSuffix(e.Name, "."+ServiceType+".local."),
		Addr:     net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
	}
	for _, txt := range e.InfoFields {
		if v, ok := strings.CutPrefix(txt, "version="); ok {
			p.Version = v
		}
	}
	return p, true
}
