// Package storage abstracts the object store holding uploaded document
// images and generated export files. Two backends are provided: the Firebase
// bucket (GCS) the product runs on, and S3 for self-hosted deployments.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotManaged = errors.New("url does not belong to the configured bucket")

type ObjectInfo struct {
	Path    string
	Created time.Time
}

type Backend interface {
	// Put writes the object and returns its durable fetch URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// SignedURL returns a time-limited GET link forcing download under filename.
	SignedURL(ctx context.Context, path string, ttl time.Duration, filename string) (string, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// PathFromURL maps a durable URL produced by Put back to its object path.
	PathFromURL(url string) (string, bool)
}

// Client wraps a Backend with the URL-addressed helpers the rest of the
// service uses.
type Client struct {
	Backend
}

func NewClient(b Backend) *Client {
	return &Client{Backend: b}
}

// DeleteByURL removes the object a durable URL points at. URLs outside the
// configured bucket are rejected rather than guessed at.
func (c *Client) DeleteByURL(ctx context.Context, url string) error {
	path, ok := c.PathFromURL(url)
	if !ok {
		return ErrNotManaged
	}
	return c.Delete(ctx, path)
}
