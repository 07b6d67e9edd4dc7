package clientip

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ErrInvalidProxy is returned by New for a trusted proxy entry that is
// neither an IP address nor a CIDR prefix.
var ErrInvalidProxy = errors.New("clientip: invalid trusted proxy")

// Config lists the proxy headers trusted to carry the client address, in
// priority order, and the proxies allowed to set them. Both are empty by
// default, which resolves every request from RemoteAddr.
type Config struct {
	TrustedHeaders []string `env:"CLIENT_IP_TRUSTED_HEADERS" envSeparator:","`
	TrustedProxies []string `env:"CLIENT_IP_TRUSTED_PROXIES" envSeparator:","`
}

// Resolver extracts the client IP from requests.
type Resolver struct {
	headers []string
	proxies []netip.Prefix
}

func New(cfg Config) (*Resolver, error) {
	res := &Resolver{}
	for _, h := range cfg.TrustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			res.headers = append(res.headers, http.CanonicalHeaderKey(h))
		}
	}
	for _, p := range cfg.TrustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		prefix, err := parsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrInvalidProxy, p)
		}
		res.proxies = append(res.proxies, prefix)
	}
	return res, nil
}

// IP returns the normalized client address. Trusted headers are consulted
// only when the peer is a trusted proxy, or when no proxies are configured.
// A header is read right to left and the first entry that is not itself a
// trusted proxy wins, since everything further left was supplied by the
// client. RemoteAddr is the fallback. An empty string means no valid address
// was found.
func (res *Resolver) IP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)

	if len(res.headers) > 0 && (len(res.proxies) == 0 || res.trusted(peer)) {
		for _, h := range res.headers {
			if ip, ok := res.fromHeader(r.Header.Get(h)); ok {
				return ip.String()
			}
		}
	}

	if !peer.IsValid() {
		return ""
	}
	return peer.String()
}

func (res *Resolver) fromHeader(v string) (netip.Addr, bool) {
	if strings.TrimSpace(v) == "" {
		return netip.Addr{}, false
	}
	entries := strings.Split(v, ",")
	for i := len(entries) - 1; i >= 0; i-- {
		ip := parseIP(entries[i])
		if !ip.IsValid() {
			return netip.Addr{}, false
		}
		if !res.trusted(ip) {
			return ip, true
		}
	}
	return netip.Addr{}, false
}

func (res *Resolver) trusted(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	for _, p := range res.proxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

func remoteIP(addr string) netip.Addr {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return parseIP(addr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an address. IPv4-mapped IPv6 addresses
// collapse to IPv4 so one client is not counted twice.
func parseIP(s string) netip.Addr {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap().WithZone("")
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
