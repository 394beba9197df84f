package npm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/depsync/pkg/registry"
)

// DefaultBaseURL is the public npm registry endpoint.
const DefaultBaseURL = "https://registry.npmjs.org"

// acceptAbbreviated selects the abbreviated metadata document. It is a
// fraction of the size of the full one and still carries dist-tags and the
// versions map, which is all version discovery needs.
const acceptAbbreviated = "application/vnd.npm.install-v1+json"

// PackageVersions holds the published version list for one package.
type PackageVersions struct {
	Name     string
	Versions []string // All published versions, sorted lexically
	Latest   string   // The "latest" dist-tag, if present
}

type Client struct {
	*registry.Client
	baseURL string
}

// NewClient creates an npm registry client with response caching.
// Pass an empty baseURL to use the public registry.
func NewClient(baseURL string, cacheTTL time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cache, err := registry.NewCache(cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Client{
		Client:  registry.NewClient(cache, nil),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// BaseURL returns the registry endpoint this client queries.
func (c *Client) BaseURL() string { return c.baseURL }

// Lookup fetches the published version list for pkg. If refresh is true,
// cached data is bypassed. A package missing from the registry returns an
// error wrapping [registry.ErrNotFound].
func (c *Client) Lookup(ctx context.Context, pkg string, refresh bool) (*PackageVersions, error) {
	pkg = registry.NormalizePkgName(pkg)
	key := "npm:" + c.baseURL + ":" + pkg

	var info PackageVersions
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Versions returns just the published version list for pkg. It satisfies
// the resolver's fetcher contract.
func (c *Client) Versions(ctx context.Context, pkg string, refresh bool) ([]string, error) {
	info, err := c.Lookup(ctx, pkg, refresh)
	if err != nil {
		return nil, err
	}
	return info.Versions, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageVersions) error {
	headers := map[string]string{"Accept": acceptAbbreviated}

	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+registry.URLEncode(pkg), headers, &data); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}

	versions := make([]string, 0, len(data.Versions))
	for v := range data.Versions {
		versions = append(versions, v)
	}
	slices.Sort(versions)

	*info = PackageVersions{
		Name:     data.Name,
		Versions: versions,
		Latest:   data.DistTags.Latest,
	}
	return nil
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

// versionDetails is intentionally sparse: only the keys of the versions
// map matter for version discovery.
type versionDetails struct {
	Version string `json:"version"`
}
