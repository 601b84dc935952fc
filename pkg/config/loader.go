package config

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader reads and parses a configuration document. The implementation is
// internal/config/loader.
type Loader interface {
	Load(ctx context.Context, src Source) (Config, error)
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// FileSystem serves SourceKindFS documents.
	FileSystem fs.FS
	// HTTPClient fetches SourceKindURL documents. URL sources are refused
	// while it is nil.
	HTTPClient *http.Client
	// Timeout bounds each fetch attempt.
	Timeout time.Duration
	// Retries is how many times a failed fetch is retried with backoff.
	Retries int
}

// LoaderOption edits LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem serves FSSource documents from files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient allows URL documents, fetched with client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithRemote allows URL documents with a default client. Each attempt is
// bounded by timeout and failures are retried up to retries times.
func WithRemote(timeout time.Duration, retries int) LoaderOption {
	return func(opts *LoaderOptions) {
		if opts.HTTPClient == nil {
			opts.HTTPClient = &http.Client{}
		}
		opts.Timeout = timeout
		opts.Retries = retries
	}
}

// NewLoaderOptions applies options in order.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	var opts LoaderOptions
	for _, apply := range options {
		if apply != nil {
			apply(&opts)
		}
	}
	return opts
}
