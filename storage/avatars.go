// Package storage resolves stored media references into public URLs.
package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AvatarResolver turns the avatar references the backend stores, often
// bare object keys, into absolute URLs on the public media host.
type AvatarResolver struct {
	base *url.URL
}

// NewAvatarResolver builds a resolver over the media bucket's public
// base URL. An empty base yields a pass-through resolver.
func NewAvatarResolver(publicBaseURL string) (*AvatarResolver, error) {
	if publicBaseURL == "" {
		return &AvatarResolver{}, nil
	}
	base, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid avatar base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("avatar base URL must be absolute")
	}
	return &AvatarResolver{base: base}, nil
}

// Resolve maps one stored reference to a public URL. Absolute URLs and
// data URIs pass through untouched; an empty reference stays empty so
// the page can fall back to initials.
func (r *AvatarResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || r.base == nil {
		return ref
	}
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	return r.base.JoinPath(strings.TrimPrefix(ref, "/")).String()
}
