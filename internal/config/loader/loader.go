// Package loader reads configuration documents from disk, an fs.FS or a
// remote URL.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/goliatone/go-wikiform/pkg/config"
)

const maxDocumentSize = 1 << 20

// Loader is the config.Loader used by the CLI.
type Loader struct {
	opts config.LoaderOptions
}

var _ config.Loader = (*Loader)(nil)

// New returns a Loader for opts.
func New(opts config.LoaderOptions) *Loader {
	return &Loader{opts: opts}
}

// Load reads the document behind src and parses it into a validated
// Config.
func (l *Loader) Load(ctx context.Context, src config.Source) (config.Config, error) {
	if err := ctx.Err(); err != nil {
		return config.Config{}, err
	}
	data, err := l.read(ctx, src)
	if err != nil {
		return config.Config{}, fmt.Errorf("config loader: %s: %w", src, err)
	}
	return config.Parse(data, src.Location)
}

func (l *Loader) read(ctx context.Context, src config.Source) ([]byte, error) {
	if src.Location == "" {
		return nil, errors.New("location is required")
	}
	switch src.Kind {
	case config.SourceKindFile:
		return os.ReadFile(src.Location)
	case config.SourceKindFS:
		if l.opts.FileSystem == nil {
			return nil, errors.New("no file system configured")
		}
		return fs.ReadFile(l.opts.FileSystem, src.Location)
	case config.SourceKindURL:
		if l.opts.HTTPClient == nil {
			return nil, errors.New("remote documents are disabled")
		}
		return l.fetch(ctx, src.Location)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", src.Kind)
	}
}

// fetch GETs url, retrying transport errors and 5xx responses.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	attempt := func() error {
		body, status, err := l.get(ctx, url)
		switch {
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case err != nil:
			return err
		case status >= 500:
			return fmt.Errorf("unexpected status %d", status)
		case status < 200 || status >= 300:
			return backoff.Permanent(fmt.Errorf("unexpected status %d", status))
		}
		data = body
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(l.opts.Retries, 0))), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, int, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/yaml, application/json;q=0.9, */*;q=0.1")

	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
