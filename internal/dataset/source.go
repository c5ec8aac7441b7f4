// Package dataset loads the item collection from a JSON file or URL.
//
// A dataset is a JSON array of objects. Files and URLs ending in ".zst" are
// zstd-compressed and ".gz" gzip-compressed; anything else is plain JSON.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/gcbaptista/go-facet-browser/model"
)

// Source yields the items of a dataset.
type Source interface {
	Load(ctx context.Context) ([]model.Item, error)
	String() string
}

// NewSource returns an HTTPSource for http(s) locations and a FileSource
// otherwise. Relative file paths are resolved against baseDir when it is set.
func NewSource(location, baseDir string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location}
	}
	path := location
	if baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	return &FileSource{Path: path}
}

// FileSource reads a dataset from the local filesystem.
type FileSource struct {
	Path string
}

func (s *FileSource) String() string { return s.Path }

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closeFn, err := decompress(f, s.Path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return Decode(r)
}

// HTTPSource fetches a dataset over HTTP(S).
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) String() string { return s.URL }

const defaultHTTPTimeout = 60 * time.Second

// Load performs a GET request and decodes the body. Any status other than
// 200 is an error.
func (s *HTTPSource) Load(ctx context.Context) ([]model.Item, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	name := s.URL
	if req.URL != nil {
		name = req.URL.Path
	}
	r, closeFn, err := decompress(resp.Body, name)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return Decode(r)
}

// decompress wraps r according to the extension of name.
func decompress(r io.Reader, name string) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	}
	return r, func() {}, nil
}

// Decode reads a JSON array of objects. Elements that are not objects are
// skipped with a warning; a document that is not an array is an error.
func Decode(r io.Reader) ([]model.Item, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding dataset: %w", err)
	}

	items := make([]model.Item, 0, len(raw))
	for i, elem := range raw {
		var item model.Item
		if err := json.Unmarshal(elem, &item); err != nil || item == nil {
			log.Printf("Warning: Skipping dataset element %d: not a JSON object", i)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Static is an in-memory source, used for tests and embedded datasets.
type Static struct {
	Name  string
	Items []model.Item
}

func (s *Static) String() string {
	if s.Name == "" {
		return "static"
	}
	return s.Name
}

// Load returns the items.
func (s *Static) Load(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Items, nil
}
