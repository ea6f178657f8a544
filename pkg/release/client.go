package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/gamecube-tools/swissinstall/internal/constants"
	internalUtils "github.com/gamecube-tools/swissinstall/internal/utils"
)

// Client lists releases and downloads assets from the release source.
// Fields are exported so tests can point it at a local server.
type Client struct {
	API   string
	Token string
	HTTP  *http.Client
}

func NewClient() *Client {
	return &Client{
		API:   constants.GithubAPI,
		Token: internalUtils.Token(),
		HTTP:  &http.Client{Timeout: 5 * time.Minute},
	}
}

type ghAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type ghRelease struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	Assets      []ghAsset `json:"assets"`
}

func (g ghRelease) toRelease() Release {
	r := Release{
		Tag:         g.TagName,
		PublishedAt: g.PublishedAt,
		Draft:       g.Draft,
		Prerelease:  g.Prerelease,
	}
	for _, a := range g.Assets {
		r.Assets = append(r.Assets, AssetRef{Name: a.Name, DownloadURL: a.BrowserDownloadURL})
	}
	return r
}

// Releases returns the catalog for a repository, newest first.
func (c *Client) Releases(ctx context.Context, repo string) (Catalog, error) {
	var listing []ghRelease
	err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases?per_page=100", c.API, repo), &listing)
	if err != nil {
		return nil, err
	}

	catalog := make(Catalog, 0, len(listing))
	for _, r := range listing {
		catalog = append(catalog, r.toRelease())
	}
	catalog.Sort()
	return catalog, nil
}

// LatestRelease returns what the source itself publishes as the latest
// release of a repository. The boot-chain repositories only ever need
// their newest build.
func (c *Client) LatestRelease(ctx context.Context, repo string) (Release, error) {
	var rel ghRelease
	err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", c.API, repo), &rel)
	if err != nil {
		return Release{}, err
	}
	return rel.toRelease(), nil
}

// Download streams an asset into dir and returns the file path. Partial
// downloads never land on the final name.
func (c *Client) Download(ctx context.Context, asset AssetRef, dir string) (string, error) {
	dest := filepath.Join(dir, asset.Name)
	internalUtils.Log.Debug().Str("url", asset.DownloadURL).Str("dest", dest).Msg("Downloading asset")

	err := retry.Do(
		func() error { return c.downloadOnce(ctx, asset.DownloadURL, dest) },
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	return dest, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	return retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Accept", "application/vnd.github+json")
			req.Header.Set("User-Agent", constants.UserAgent)
			if c.Token != "" {
				req.Header.Set("Authorization", "Bearer "+c.Token)
			}

			res, err := c.HTTP.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = res.Body.Close() }()

			switch {
			case res.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("%s: %w", url, constants.ErrNotFound))
			case res.StatusCode == http.StatusForbidden, res.StatusCode == http.StatusTooManyRequests:
				// Anonymous API quota is tiny, tell the user the way out
				return retry.Unrecoverable(fmt.Errorf("rate limited by the release source (HTTP %d), set GITHUB_TOKEN", res.StatusCode))
			case res.StatusCode != http.StatusOK:
				return fmt.Errorf("unexpected status %d from %s", res.StatusCode, url)
			}

			return json.NewDecoder(res.Body).Decode(v)
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) downloadOnce(ctx context.Context, url, dest string) error {
	if err := ctx.Err(); err != nil {
		return retry.Unrecoverable(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, url)
	}

	if err := internalUtils.CreateIfNotExists(filepath.Dir(dest)); err != nil {
		return retry.Unrecoverable(err)
	}

	// Write to a side file and rename, a retried attempt starts clean
	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	if _, err := io.Copy(f, res.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
