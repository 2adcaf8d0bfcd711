package boundary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultBaseURL is the GADM 4.1 shapefile distribution root.
const DefaultBaseURL = "https://geodata.ucdavis.edu/gadm/gadm4.1/shp"

// Provider resolves country boundary shapefiles from a local cache, fetching
// from the GADM distribution on a miss. Fetches are a single attempt with no
// backoff; failures surface to the caller.
type Provider struct {
	baseURL  string
	cacheDir string
	client   *http.Client
}

// NewProvider creates a Provider. A nil client gets a 10-minute timeout
// default, matching the size of country shapefile archives.
func NewProvider(baseURL, cacheDir string, client *http.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Provider{baseURL: baseURL, cacheDir: cacheDir, client: client}
}

// Fetch returns the path of the admin boundary shapefile for an ISO 3166-1
// alpha-3 country code at the given admin level, downloading and extracting
// the GADM archive when not cached.
func (p *Provider) Fetch(ctx context.Context, iso3 string, level int) (string, error) {
	iso := strings.ToUpper(strings.TrimSpace(iso3))
	if len(iso) != 3 {
		return "", eris.Wrapf(ErrDataNotFound, "boundary: invalid country code %q", iso3)
	}

	extractDir := filepath.Join(p.cacheDir, strings.ToLower(iso))
	shpPath := filepath.Join(extractDir, fmt.Sprintf("gadm41_%s_%d.shp", iso, level))

	if _, err := os.Stat(shpPath); err == nil {
		zap.L().Debug("boundary cache hit", zap.String("path", shpPath))
		return shpPath, nil
	}

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "boundary: create cache dir %s", extractDir)
	}

	url := fmt.Sprintf("%s/gadm41_%s_shp.zip", p.baseURL, iso)
	zipPath := filepath.Join(extractDir, fmt.Sprintf("gadm41_%s_shp.zip", iso))
	zap.L().Info("downloading boundary archive", zap.String("url", url), zap.String("country", iso))

	if err := p.download(ctx, url, zipPath); err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(zipPath) }()

	if err := extractZIP(zipPath, extractDir); err != nil {
		return "", eris.Wrapf(err, "boundary: extract %s", zipPath)
	}

	if _, err := os.Stat(shpPath); err != nil {
		return "", eris.Wrapf(ErrDataNotFound, "boundary: %s has no admin level %d", iso, level)
	}
	return shpPath, nil
}

func (p *Provider) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "boundary: build request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "boundary: fetch %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return eris.Wrapf(ErrDataNotFound, "boundary: %s returned 404", url)
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("boundary: %s returned status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "boundary: create %s", dest)
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, resp.Body); err != nil {
		return eris.Wrapf(err, "boundary: write %s", dest)
	}
	return nil
}
