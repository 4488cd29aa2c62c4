package spreadsheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetview/internal/core"
)

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book.csv":
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/big.csv":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetchConfig{MaxBytes: 32, AllowPrivate: true})
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/book.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	_, err = f.Fetch(ctx, srv.URL+"/big.csv")
	assert.ErrorIs(t, err, core.ErrSourceTooLarge)

	_, err = f.Fetch(ctx, srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(FetchConfig{AllowPrivate: true}).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_PrivateAddressDenied(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("a\n1\n"))
	}))
	defer srv.Close()

	_, err := NewFetcher(FetchConfig{}).Fetch(context.Background(), srv.URL+"/book.csv")
	assert.ErrorIs(t, err, core.ErrPrivateSourceDenied)
	assert.Zero(t, hits, "no request reaches the server")

	localhost := strings.Replace(srv.URL, "127.0.0.1", "localhost", 1)
	_, err = NewFetcher(FetchConfig{}).Fetch(context.Background(), localhost+"/book.csv")
	assert.ErrorIs(t, err, core.ErrPrivateSourceDenied, "names are checked after resolution")
	assert.Zero(t, hits)
}

func TestFetcher_RedirectToPrivateDenied(t *testing.T) {
	// public.test answers with a redirect to the loopback server.
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secret\n"))
	}))
	defer internal.Close()

	f := NewFetcher(FetchConfig{})
	f.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Host == "public.test" {
				return &http.Response{
					StatusCode: http.StatusFound,
					Header:     http.Header{"Location": {internal.URL + "/book.csv"}},
					Body:       http.NoBody,
					Request:    r,
				}, nil
			}
			return newTransport(false).RoundTrip(r)
		}),
	}

	_, err := f.Fetch(context.Background(), "http://public.test/book.csv")
	assert.ErrorIs(t, err, core.ErrPrivateSourceDenied)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (fn roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return fn(r) }

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"100.64.0.1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
		{"224.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestFetcher_Local(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))

	_, err := NewFetcher(FetchConfig{}).Fetch(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrLocalSourceDenied)

	local := NewFetcher(FetchConfig{AllowLocal: true})
	data, err := local.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	data, err = local.Fetch(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))

	small := NewFetcher(FetchConfig{AllowLocal: true, MaxBytes: 2})
	_, err = small.Fetch(context.Background(), path)
	assert.ErrorIs(t, err, core.ErrSourceTooLarge)
}

func TestFetcher_BadReferences(t *testing.T) {
	f := NewFetcher(FetchConfig{AllowLocal: true})

	_, err := f.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrEmptySource)

	_, err = f.Fetch(context.Background(), "ftp://host/book.xlsx")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
