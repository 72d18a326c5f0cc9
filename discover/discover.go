// Package discover implements LAN console discovery via mDNS, browsing
// for the "_xbdm._tcp" service instance. It is a convenience for
// interactive tooling; the core protocol engine has no dependency on
// it, and a console that does not announce itself is still reachable
// by dialing its address directly.
package discover

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Host is a discovered XBDM-capable console.
type Host struct {
	Instance  string // advertised name, e.g. "xbdm on devkit-01"
	Hostname  string // DNS hostname, e.g. "devkit-01.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// serviceType is the mDNS service instance XBDM consoles advertise.
const serviceType = "_xbdm._tcp"

// Find performs a blocking mDNS browse for consoles advertising
// "_xbdm._tcp", returning cleaned and deduplicated host entries once
// timeout elapses.
func Find(timeout time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discover: resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	results := make(map[string]Host)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					close(done)
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				results[key] = Host{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}
			case <-ctx.Done():
				close(done)
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, serviceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("discover: browse: %w", err)
	}
	<-done

	out := make([]Host, 0, len(results))
	for _, h := range results {
		out = append(out, h)
	}
	return out, nil
}

// cleanInstance removes Zeroconf escape sequences ("\ " -> " ").
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
