package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// DefaultProbeTimeout bounds one title probe end to end.
const DefaultProbeTimeout = 4 * time.Second

// maxProbeBody caps how much of a probed page is read; the title lives in the
// head.
const maxProbeBody int64 = 1 << 20

// ErrInnerAddress is returned when a probe would connect to an internal
// address, including after DNS resolution or a redirect.
var ErrInnerAddress = errors.New("probe target resolves to an internal address")

// Prober fetches the page behind a mail domain.
type Prober interface {
	Probe(ctx context.Context, url string) ([]byte, error)
}

// HTTPProber probes over plain HTTP GET.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns a prober with the given timeout. Unless allowInner is
// set, connections to internal addresses are refused at dial time.
func NewHTTPProber(timeout time.Duration, allowInner bool) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	dialer := &net.Dialer{Timeout: timeout}
	if !allowInner {
		dialer.Control = refuseInner
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout, Transport: transport}}
}

func (p *HTTPProber) Probe(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "leakwatch-title-probe")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
}

func refuseInner(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("probe dial %q: %w", address, err)
	}
	if IsInner(addr) {
		return ErrInnerAddress
	}
	return nil
}
