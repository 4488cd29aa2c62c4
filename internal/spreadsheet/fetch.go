package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/sheetview/internal/core"
)

// FetchConfig holds Fetcher limits.
type FetchConfig struct {
	Timeout    time.Duration // Whole-request timeout for http(s) sources (default: 30s)
	MaxBytes   int64         // Largest accepted file (default: 50MB)
	AllowLocal bool          // Accept file paths and file:// URLs
	// AllowPrivate lets http(s) sources resolve to loopback, private,
	// link-local and other non-public addresses.
	AllowPrivate bool
}

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 50 << 20
)

// ErrUnsupportedScheme is returned for references that are neither
// http(s) URLs nor local paths.
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// Fetcher implements core.Fetcher for http(s) URLs and, when allowed, local
// files.
type Fetcher struct {
	client     *http.Client
	maxBytes   int64
	allowLocal bool
}

// NewFetcher creates a Fetcher. Zero config values fall back to defaults.
func NewFetcher(cfg FetchConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	return &Fetcher{
		client:     &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.AllowPrivate)},
		maxBytes:   cfg.MaxBytes,
		allowLocal: cfg.AllowLocal,
	}
}

// newTransport clones the default transport. Unless allowPrivate is set,
// every connection, including those made for redirects, is checked after DNS
// resolution and refused when the address is not public.
func newTransport(allowPrivate bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if allowPrivate {
		return t
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   denyPrivate,
	}
	t.DialContext = dialer.DialContext
	return t
}

// denyPrivate is a net.Dialer Control hook; address is the resolved ip:port.
func denyPrivate(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%s: %w", address, core.ErrPrivateSourceDenied)
	}
	if !isPublicAddr(ap.Addr()) {
		return fmt.Errorf("%s: %w", ap.Addr(), core.ErrPrivateSourceDenied)
	}
	return nil
}

// sharedAddressSpace is the carrier-grade NAT range (RFC 6598).
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified(),
		sharedAddressSpace.Contains(addr):
		return false
	}
	return true
}

// Fetch returns the bytes at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, core.ErrEmptySource
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || isDrivePath(u) {
		return f.readLocal(location)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.get(ctx, u.String())
	case "file":
		return f.readLocal(u.Path)
	}
	return nil, fmt.Errorf("%s: %w", u.Scheme, ErrUnsupportedScheme)
}

// isDrivePath catches Windows paths like C:\data\book.xlsx, which parse as a
// one-letter scheme.
func isDrivePath(u *url.URL) bool {
	return len(u.Scheme) == 1
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%d bytes: %w", resp.ContentLength, core.ErrSourceTooLarge)
	}
	return f.readAll(resp.Body)
}

func (f *Fetcher) readLocal(path string) ([]byte, error) {
	if !f.allowLocal {
		return nil, core.ErrLocalSourceDenied
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.Size() > f.maxBytes {
		return nil, fmt.Errorf("%d bytes: %w", info.Size(), core.ErrSourceTooLarge)
	}
	return f.readAll(file)
}

// readAll reads at most maxBytes; anything longer is ErrSourceTooLarge.
func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, core.ErrSourceTooLarge
	}
	return data, nil
}
