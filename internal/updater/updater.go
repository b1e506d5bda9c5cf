// Package updater replaces the running wikichat binary with the latest
// GitHub release for this platform.
package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultReleaseURL = "https://api.github.com/repos/thinkscotty/wikichat/releases/latest"
	binaryName        = "wikichat"
	userAgent         = "wikichat-updater"
)

// ErrUpToDate is returned by Check when no newer release exists.
var ErrUpToDate = errors.New("already running the latest version")

// Release is the latest published build for this platform.
type Release struct {
	TagName     string
	Version     string // TagName without the leading "v"
	PublishedAt string
	HTMLURL     string
	AssetURL    string
	AssetName   string
	AssetSize   int64
}

type Updater struct {
	releaseURL string
	client     *http.Client
	goos       string
	goarch     string
	mu         sync.Mutex
}

// New returns an updater reading releaseURL, or DefaultReleaseURL when empty.
func New(releaseURL string) *Updater {
	if releaseURL == "" {
		releaseURL = DefaultReleaseURL
	}
	return &Updater{
		releaseURL: releaseURL,
		client:     &http.Client{Timeout: 5 * time.Minute},
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
	}
}

// Check fetches the latest release and returns it if it is newer than
// current. It returns ErrUpToDate otherwise.
func (u *Updater) Check(ctx context.Context, current string) (*Release, error) {
	body, err := u.get(ctx, u.releaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("parsing latest release: invalid JSON")
	}
	doc := gjson.ParseBytes(body)

	tag := doc.Get("tag_name").String()
	if tag == "" {
		return nil, fmt.Errorf("parsing latest release: missing tag_name")
	}

	want := u.assetName()
	asset := doc.Get(fmt.Sprintf("assets.#(name==%q)", want))
	if !asset.Exists() {
		return nil, fmt.Errorf("no binary %s in release %s", want, tag)
	}

	latest := strings.TrimPrefix(tag, "v")
	if !isNewer(current, latest) {
		return nil, ErrUpToDate
	}

	return &Release{
		TagName:     tag,
		Version:     latest,
		PublishedAt: doc.Get("published_at").String(),
		HTMLURL:     doc.Get("html_url").String(),
		AssetURL:    asset.Get("browser_download_url").String(),
		AssetName:   want,
		AssetSize:   asset.Get("size").Int(),
	}, nil
}

// Install downloads rel and atomically replaces the binary at target. An
// empty target means the running executable.
func (u *Updater) Install(ctx context.Context, rel *Release, target string) error {
	if !u.mu.TryLock() {
		return fmt.Errorf("an update is already in progress")
	}
	defer u.mu.Unlock()

	if target == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("finding executable path: %w", err)
		}
		target = exe
	}
	target, err := filepath.EvalSymlinks(target)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	tmpPath := target + ".update.tmp"
	os.Remove(tmpPath)

	slog.Info("Downloading update", "url", rel.AssetURL, "target", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.AssetURL, nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", rel.AssetName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: status %d", rel.AssetName, resp.StatusCode)
	}

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("cannot update: %w", err)
	}
	written, copyErr := io.Copy(f, resp.Body)
	f.Close()

	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if rel.AssetSize > 0 && written != rel.AssetSize {
		os.Remove(tmpPath)
		return fmt.Errorf("download size mismatch: expected %d bytes, got %d", rel.AssetSize, written)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing binary: %w", err)
	}

	slog.Info("Binary replaced", "path", target, "version", rel.Version, "bytes", written)
	return nil
}

func (u *Updater) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (u *Updater) assetName() string {
	name := fmt.Sprintf("%s-%s-%s", binaryName, u.goos, u.goarch)
	if u.goos == "windows" {
		name += ".exe"
	}
	return name
}

// isNewer reports whether latest is newer than current. Development builds
// and git describe strings always update.
func isNewer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	// "0.8.2-3-gabcdef1-dirty" compares as "0.8.2"
	if idx := strings.Index(current, "-"); idx > 0 {
		current = current[:idx]
	}
	if !isSemver(current) {
		return true
	}

	cur := parseSemver(current)
	lat := parseSemver(latest)
	for i := 0; i < 3; i++ {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

func isSemver(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

func parseSemver(s string) [3]int {
	var result [3]int
	parts := strings.Split(s, ".")
	for i := 0; i < len(parts) && i < 3; i++ {
		result[i], _ = strconv.Atoi(parts[i])
	}
	return result
}

// FormatBytes formats a byte count into a human-readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
