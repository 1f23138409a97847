// Package igs retrieves auxiliary correction products (precise orbits,
// clocks, broadcast ephemerides, ionosphere maps) from the NASA CDDIS
// archive for a given observation date. It is pure file transfer and
// decompression; nothing here touches the fusion algorithm.
package igs

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// AuthHost is the NASA Earthdata authentication host. Credentials must be
// preserved across redirects to and from this host.
const AuthHost = "urs.earthdata.nasa.gov"

// ProviderURL is the base URL of the CDDIS GNSS archive.
const ProviderURL = "https://cddis.nasa.gov/archive/gnss/"

// gpsEpoch is the start of GPS time.
var gpsEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

// GPSDate carries the date fields product file names are assembled from.
type GPSDate struct {
	Year      int // YYYY
	DayOfYear int // DDD, 1-366
	Week      int // GPS week number (WWWW)
	Day       int // day within the GPS week, 0 = Sunday
}

// NewGPSDate derives the GPS calendar fields for t (interpreted in UTC).
func NewGPSDate(t time.Time) GPSDate {
	t = t.UTC()
	days := int(t.Sub(gpsEpoch).Hours() / 24)
	return GPSDate{
		Year:      t.Year(),
		DayOfYear: t.YearDay(),
		Week:      days / 7,
		Day:       int(t.Weekday()),
	}
}

// YY returns the two-digit year string.
func (d GPSDate) YY() string {
	return fmt.Sprintf("%02d", d.Year%100)
}

// Downloader fetches products from the CDDIS archive with Earthdata basic
// authentication.
type Downloader struct {
	client  *http.Client
	baseURL string
	user    string
	pass    string
}

// NewDownloader returns a Downloader authenticating with the given
// Earthdata credentials.
func NewDownloader(user, pass string) *Downloader {
	d := &Downloader{
		baseURL: ProviderURL,
		user:    user,
		pass:    pass,
	}
	d.client = &http.Client{
		Timeout: 5 * time.Minute,
		// The archive redirects through the Earthdata auth host. The
		// default client strips Authorization on cross-host redirects, so
		// re-apply credentials unless the hop leaves both the archive and
		// the auth host.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			prev := via[len(via)-1].URL
			if req.URL.Hostname() == prev.Hostname() ||
				req.URL.Hostname() == AuthHost || prev.Hostname() == AuthHost {
				req.SetBasicAuth(d.user, d.pass)
			}
			return nil
		},
	}
	return d
}

// modern product names were introduced at GPS week 2238; earlier weeks only
// exist as Unix-compressed (.Z) legacy archives, which are not handled.
const firstModernWeek = 2238

// ErrLegacyProduct reports a request for a pre-2238 week whose products
// only exist in the unsupported .Z compression.
var ErrLegacyProduct = fmt.Errorf("igs: products before GPS week %d are only published Unix-compressed (.Z), which is unsupported", firstModernWeek)

// OrbitURLs returns candidate URLs for the precise (final) orbit file,
// preferred name first.
func (d *Downloader) OrbitURLs(date GPSDate) ([]string, error) {
	if date.Week < firstModernWeek {
		return nil, ErrLegacyProduct
	}
	name := fmt.Sprintf("IGS0OPSFIN_%04d%03d0000_01D_15M_ORB.SP3.gz", date.Year, date.DayOfYear)
	return []string{
		fmt.Sprintf("%sproducts/%d/%s", d.baseURL, date.Week, name),
		fmt.Sprintf("%sproducts/latest/%s", d.baseURL, name),
		fmt.Sprintf("%sproducts/latest/igs%04d%d.sp3.gz", d.baseURL, date.Week, date.Day),
	}, nil
}

// ClockURLs returns candidate URLs for the precise (final) clock file.
func (d *Downloader) ClockURLs(date GPSDate) ([]string, error) {
	if date.Week < firstModernWeek {
		return nil, ErrLegacyProduct
	}
	name := fmt.Sprintf("IGS0OPSFIN_%04d%03d0000_01D_05M_CLK.CLK.gz", date.Year, date.DayOfYear)
	return []string{
		fmt.Sprintf("%sproducts/%d/%s", d.baseURL, date.Week, name),
		fmt.Sprintf("%sproducts/latest/%s", d.baseURL, name),
		fmt.Sprintf("%sproducts/latest/igs%04d%d.clk.gz", d.baseURL, date.Week, date.Day),
	}, nil
}

// IonosphereURLs returns candidate URLs for the final ionosphere map.
func (d *Downloader) IonosphereURLs(date GPSDate) ([]string, error) {
	if date.Week < firstModernWeek {
		return nil, ErrLegacyProduct
	}
	name := fmt.Sprintf("IGS0OPSFIN_%04d%03d0000_01D_02H_GIM.INX.gz", date.Year, date.DayOfYear)
	return []string{
		fmt.Sprintf("%sproducts/ionex/%d/%s", d.baseURL, date.Week, name),
		fmt.Sprintf("%sproducts/ionex/%04d/%03d/%s", d.baseURL, date.Year, date.DayOfYear, name),
	}, nil
}

// BroadcastEphemerisURLs returns candidate URLs for the merged daily GPS
// broadcast ephemeris file.
func (d *Downloader) BroadcastEphemerisURLs(date GPSDate) ([]string, error) {
	if date.Week < firstModernWeek {
		return nil, ErrLegacyProduct
	}
	name := fmt.Sprintf("brdc%03d0.%sn.gz", date.DayOfYear, date.YY())
	return []string{
		fmt.Sprintf("%sdata/daily/%04d/%03d/%sn/%s", d.baseURL, date.Year, date.DayOfYear, date.YY(), name),
		fmt.Sprintf("%sdata/daily/%04d/brdc/%s", d.baseURL, date.Year, name),
	}, nil
}

// FetchProducts downloads the orbit, clock, ionosphere and broadcast
// ephemeris products for the given date into destDir, decompressing each.
// It returns the decompressed file paths keyed by product kind.
func (d *Downloader) FetchProducts(ctx context.Context, date GPSDate, destDir string) (map[string]string, error) {
	kinds := []struct {
		name string
		urls func(GPSDate) ([]string, error)
	}{
		{"orbits", d.OrbitURLs},
		{"clocks", d.ClockURLs},
		{"ionosphere", d.IonosphereURLs},
		{"broadcast_eph", d.BroadcastEphemerisURLs},
	}

	files := make(map[string]string, len(kinds))
	for _, kind := range kinds {
		candidates, err := kind.urls(date)
		if err != nil {
			return nil, err
		}
		file, err := d.fetchFirst(ctx, candidates, destDir)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch %s product: %w", kind.name, err)
		}
		files[kind.name] = file
	}
	return files, nil
}

// fetchFirst tries candidate URLs in order and returns the path of the
// first successfully downloaded and decompressed file.
func (d *Downloader) fetchFirst(ctx context.Context, candidates []string, destDir string) (string, error) {
	var lastErr error
	for _, u := range candidates {
		path, err := d.download(ctx, u, destDir)
		if err != nil {
			lastErr = err
			continue
		}
		return path, nil
	}
	return "", lastErr
}

// download fetches a single URL into destDir. Gzip payloads are
// decompressed and the archive removed; the returned path is the final
// usable file.
func (d *Downloader) download(ctx context.Context, rawURL, destDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad product URL %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(d.user, d.pass)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	name := path.Base(parsed.Path)
	archPath := filepath.Join(destDir, name)
	out, err := os.Create(archPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", archPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to write %s: %w", archPath, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if strings.HasSuffix(name, ".gz") {
		return extractGzip(archPath)
	}
	return archPath, nil
}

// extractGzip decompresses a .gz file next to itself and removes the
// archive.
func extractGzip(archPath string) (string, error) {
	in, err := os.Open(archPath)
	if err != nil {
		return "", err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return "", fmt.Errorf("failed to open gzip %s: %w", archPath, err)
	}
	defer zr.Close()

	outPath := strings.TrimSuffix(archPath, ".gz")
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to decompress %s: %w", archPath, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Remove(archPath); err != nil {
		return "", err
	}
	return outPath, nil
}
