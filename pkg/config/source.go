package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind says how a Loader reads a configuration document.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source locates a configuration document.
type Source struct {
	Kind     SourceKind
	Location string
}

func (s Source) String() string {
	return string(s.Kind) + ":" + s.Location
}

// FileSource is a document on the local disk.
func FileSource(path string) Source {
	return Source{Kind: SourceKindFile, Location: filepath.Clean(path)}
}

// FSSource is a document inside the loader's fs.FS.
func FSSource(name string) Source {
	return Source{Kind: SourceKindFS, Location: name}
}

// URLSource is a document served over http or https.
func URLSource(raw string) (Source, error) {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, fmt.Errorf("config: invalid document url %q", raw)
	}
	return Source{Kind: SourceKindURL, Location: u.String()}, nil
}

// ParseSource reads a --config style location: http(s) URLs are fetched,
// anything else is a file path.
func ParseSource(location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Source{}, fmt.Errorf("config: document location is required")
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URLSource(location)
	}
	return FileSource(location), nil
}
