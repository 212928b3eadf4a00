package assets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
)

// ErrUnavailable is returned when an image reference cannot be loaded.
var ErrUnavailable = errors.New("image unavailable")

const (
	defaultMaxBytes   = 20 << 20
	defaultCacheItems = 256
)

// ObjectReader is the slice of the object store the resolver reads from.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
	KeyFor(ref string) (string, bool)
}

type Options struct {
	// AllowPrivateNetworks skips the private address check on http(s) refs.
	AllowPrivateNetworks bool
	MaxBytes             int64
	CacheItems           int
	HTTPClient           *http.Client
}

// Resolver loads trait and base images from data URLs, bare base64,
// the object store or http(s) URLs, and memoizes decoded results.
type Resolver struct {
	store  ObjectReader
	client *http.Client
	opt    Options

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]*image.NRGBA
	order []string
}

func NewResolver(store ObjectReader, opt Options) *Resolver {
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = defaultMaxBytes
	}
	if opt.CacheItems <= 0 {
		opt.CacheItems = defaultCacheItems
	}
	client := opt.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{
		store:  store,
		client: client,
		opt:    opt,
		cache:  make(map[string]*image.NRGBA),
	}
}

// Image returns the decoded image behind ref. The result is shared and
// must not be modified.
func (r *Resolver) Image(ctx context.Context, ref string) (*image.NRGBA, error) {
	if img, ok := r.cached(ref); ok {
		return img, nil
	}

	v, err, _ := r.group.Do(ref, func() (interface{}, error) {
		data, err := r.Bytes(ctx, ref)
		if err != nil {
			return nil, err
		}
		img, err := imaging.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		out := imaging.ToNRGBA(img)
		r.remember(ref, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*image.NRGBA), nil
}

// Bytes returns the raw encoded bytes behind ref.
func (r *Resolver) Bytes(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnavailable)
	}

	if imaging.IsDataURL(ref) {
		_, data, err := imaging.ParseDataURL(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return data, nil
	}

	if r.store != nil {
		if key, ok := r.store.KeyFor(ref); ok {
			data, err := r.store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return data, nil
		}
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return r.fetch(ctx, ref)
	}

	data, err := imaging.DecodeImageString(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported reference", ErrUnavailable)
	}
	return data, nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !r.opt.AllowPrivateNetworks {
		if ok, err := IsSafeURL(rawURL); !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.opt.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if int64(len(data)) > r.opt.MaxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnavailable, r.opt.MaxBytes)
	}
	return data, nil
}

func (r *Resolver) cached(ref string) (*image.NRGBA, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.cache[ref]
	return img, ok
}

// remember keeps at most CacheItems entries, evicting the oldest.
func (r *Resolver) remember(ref string, img *image.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cache[ref]; ok {
		return
	}
	if len(r.order) >= r.opt.CacheItems {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.cache, oldest)
	}
	r.cache[ref] = img
	r.order = append(r.order, ref)
}

// IsSafeURL rejects non-http schemes and hosts that resolve to private,
// loopback or link-local addresses.
func IsSafeURL(rawURL string) (bool, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false, fmt.Errorf("scheme not allowed: %s", parsed.Scheme)
	}

	ips, err := net.LookupIP(parsed.Hostname())
	if err != nil {
		return false, fmt.Errorf("resolve host %q: %w", parsed.Hostname(), err)
	}
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return false, fmt.Errorf("restricted network address: %s", ip)
		}
	}
	return true, nil
}
