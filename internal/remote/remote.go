// Package remote fetches release information and files for a memory bank.
//
// Releases are published at a base URL as a machine-readable manifest.json
// describing the release version, notes, and per-file checksums, alongside
// the raw files themselves. For releases that predate the manifest, the
// version can still be recovered by scanning the published README for its
// version label line.
package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"membank/internal/errors"
	"membank/internal/version"
)

// DefaultBaseURL is the published release location for the standard bank.
const DefaultBaseURL = "https://raw.githubusercontent.com/membank/memory-bank/main"

// VersionLabel is the fixed label prefix scanned for in the fallback
// version document.
const VersionLabel = "**Version:**"

// DefaultTimeout bounds every remote request.
const DefaultTimeout = 15 * time.Second

// ErrUnavailable indicates the remote version could not be determined.
// Callers must take no destructive action when this is returned.
var ErrUnavailable = errors.New("unable to determine remote version")

// ManifestFile is a single file entry in a release manifest.
type ManifestFile struct {
	// Path is the slash-separated path relative to the bank root.
	Path string `json:"path"`

	// SHA256 is the hex-encoded hash of the published file contents.
	SHA256 string `json:"sha256"`
}

// Manifest is the machine-readable release descriptor (manifest.json).
type Manifest struct {
	// Version is the release version as a dotted triple.
	Version string `json:"version"`

	// Notes holds the Markdown release notes.
	Notes string `json:"notes,omitempty"`

	// Files lists every published file with its checksum.
	Files []ManifestFile `json:"files"`
}

// Client fetches release data over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the release base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a release client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the release base URL the client is configured for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchManifest retrieves and parses the release manifest.
// A missing or unreachable manifest yields ErrUnavailable.
func (c *Client) FetchManifest(ctx context.Context) (*Manifest, error) {
	body, err := c.get(ctx, "manifest.json")
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer body.Close()

	var m Manifest
	if err := json.NewDecoder(body).Decode(&m); err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}

	if _, err := version.Parse(m.Version); err != nil {
		return nil, errors.Wrapf(err, "remote manifest")
	}

	return &m, nil
}

// FetchVersion determines the published release version.
// It prefers the structured manifest and falls back to scanning README.md
// for the version label line.
func (c *Client) FetchVersion(ctx context.Context) (version.Version, error) {
	if m, err := c.FetchManifest(ctx); err == nil {
		return version.Parse(m.Version)
	}

	body, err := c.get(ctx, "README.md")
	if err != nil {
		return version.Version{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer body.Close()

	return scanVersionLabel(body)
}

// FetchFile retrieves the contents of a published release file.
func (c *Client) FetchFile(ctx context.Context, relPath string) ([]byte, error) {
	body, err := c.get(ctx, relPath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", relPath)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, relPath string) (io.ReadCloser, error) {
	url := c.baseURL + "/" + strings.TrimLeft(relPath, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "building request for %s", url)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Newf("fetching %s: unexpected status %s", url, resp.Status)
	}

	return resp.Body, nil
}

// scanVersionLabel scans a text document for the first line starting with
// VersionLabel and parses the remainder as a version triple.
func scanVersionLabel(r io.Reader) (version.Version, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, VersionLabel) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, VersionLabel))
		return version.Parse(raw)
	}
	if err := scanner.Err(); err != nil {
		return version.Version{}, errors.Wrap(ErrUnavailable, err.Error())
	}
	return version.Version{}, errors.Wrap(ErrUnavailable, "no version label in document")
}
