// Package iputil resolves the client address of requests reaching the
// sink, honouring forwarding headers only from trusted proxies.
package iputil

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseCIDRs parses IP addresses or CIDR notations. A bare address becomes
// a single-host network.
func ParseCIDRs(cidrStrings []string) ([]*net.IPNet, error) {
	if len(cidrStrings) == 0 {
		return nil, nil
	}

	cidrs := make([]*net.IPNet, 0, len(cidrStrings))
	for _, raw := range cidrStrings {
		cidrStr := strings.TrimSpace(raw)
		if ip := net.ParseIP(cidrStr); ip != nil {
			bits := 128
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 32
			}
			cidrs = append(cidrs, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidrStr)
		if err != nil {
			return nil, fmt.Errorf("invalid IP/CIDR format: %s (%w)", raw, err)
		}
		cidrs = append(cidrs, ipNet)
	}
	return cidrs, nil
}

// IsIPInAnyCIDR checks if the given IP address falls within any of the provided CIDR ranges.
func IsIPInAnyCIDR(ip net.IP, cidrs []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, cidr := range cidrs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// Resolver extracts client IPs using a fixed proxy trust configuration.
type Resolver struct {
	trusted []*net.IPNet
	header  string
}

// NewResolver parses the trusted proxy list. clientIPHeader names an
// optional header (e.g. CF-Connecting-IP) set by those proxies.
func NewResolver(trustedProxies []string, clientIPHeader string) (*Resolver, error) {
	trusted, err := ParseCIDRs(trustedProxies)
	if err != nil {
		return nil, err
	}
	return &Resolver{trusted: trusted, header: clientIPHeader}, nil
}

// ClientIP returns the address of the client that sent r.
//
// Forwarding headers are only consulted when the direct peer is a trusted
// proxy. The configured header wins; otherwise X-Forwarded-For is walked
// from the right, skipping trusted hops, so a client cannot spoof its
// address by prepending entries.
func (res *Resolver) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	peerIP := net.ParseIP(peer)
	if peerIP == nil || !IsIPInAnyCIDR(peerIP, res.trusted) {
		return peer
	}

	if res.header != "" {
		if h := strings.TrimSpace(r.Header.Get(res.header)); net.ParseIP(h) != nil {
			return h
		}
	}

	hops := forwardedFor(r)
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(hops[i])
		if ip == nil {
			break
		}
		if !IsIPInAnyCIDR(ip, res.trusted) {
			return hops[i]
		}
	}
	// Every hop is trusted: the leftmost is the best guess.
	if len(hops) > 0 && net.ParseIP(hops[0]) != nil {
		return hops[0]
	}
	return peer
}

// GetClientIP is a one-shot form of Resolver.ClientIP.
func GetClientIP(r *http.Request, trustedProxies []*net.IPNet, clientIPHeader string) string {
	return (&Resolver{trusted: trustedProxies, header: clientIPHeader}).ClientIP(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor collects X-Forwarded-For entries across repeated headers.
func forwardedFor(r *http.Request) []string {
	var hops []string
	for _, value := range r.Header.Values("X-Forwarded-For") {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				hops = append(hops, part)
			}
		}
	}
	return hops
}
