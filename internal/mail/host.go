package mail

import (
	"net/netip"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Markers used in place of a probed title.
const (
	InnerIPMarker   = "<Inner IP>"
	UnknownTitle    = "<Unknown>"
	ParseErrorTitle = "Exception"
)

// Target is where a mail host would be probed.
type Target struct {
	URL   string
	Inner bool
}

// TargetFor classifies host and builds its probe URL. Bare registrable
// domains get a "www." prefix; dotted-quad hosts are probed directly unless
// they are internal addresses, which are never probed.
func TargetFor(host string) Target {
	if addr, err := netip.ParseAddr(host); err == nil && addr.Is4() {
		return Target{URL: "http://" + host, Inner: IsInner(addr)}
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	if domain == host {
		return Target{URL: "http://www." + host}
	}
	return Target{URL: "http://" + host}
}

// IsInner reports whether addr must never be probed: private, loopback,
// link-local or unspecified.
func IsInner(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}

func hostOf(address string) string {
	_, host, ok := strings.Cut(address, "@")
	if !ok {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(host), ".")
}
