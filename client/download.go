// Package client downloads purchased files from the storefront API into
// the app's local storage.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/quillcart/bridge/bridge"
)

// ErrTokenExpired reports that the session token expired before the
// request was attempted. Callers should refresh the session rather than
// burn a round trip on a guaranteed 401.
var ErrTokenExpired = errors.New("session token expired")

// DownloadClient fetches purchase files with bearer authentication and
// stores them under Dir. It satisfies the downloader dependency of the
// click resolver.
type DownloadClient struct {
	BaseURL string
	Token   string
	Dir     string

	HTTP *http.Client
	Log  bridge.Logger
}

// NewDownloadClient creates a client with a default HTTP timeout.
func NewDownloadClient(baseURL, token, dir string, log bridge.Logger) *DownloadClient {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	return &DownloadClient{
		BaseURL: baseURL,
		Token:   token,
		Dir:     dir,
		HTTP:    &http.Client{Timeout: 2 * time.Minute},
		Log:     log,
	}
}

// DownloadFile fetches the file for resourceID and returns a file:// URI
// for the stored copy. The token's expiry claim is checked first so an
// expired session fails fast with ErrTokenExpired.
func (c *DownloadClient) DownloadFile(ctx context.Context, resourceID string) (string, error) {
	if err := checkExpiry(c.Token, time.Now()); err != nil {
		return "", err
	}

	reqURL, err := url.JoinPath(c.BaseURL, "files", url.PathEscape(resourceID))
	if err != nil {
		return "", fmt.Errorf("build download url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", resourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", resourceID, resp.Status)
	}

	dest, err := c.destPath(resourceID, resp.Header)
	if err != nil {
		return "", err
	}
	if err := writeFile(dest, resp.Body); err != nil {
		return "", fmt.Errorf("store %s: %w", resourceID, err)
	}

	c.Log.Info("file downloaded", "resource", resourceID, "path", dest)
	return "file://" + filepath.ToSlash(dest), nil
}

// destPath picks a local filename: the server's Content-Disposition name
// when present, otherwise the resource id with an extension derived from
// the content type. An existing file of the same name gets a unique
// suffix instead of being overwritten.
func (c *DownloadClient) destPath(resourceID string, hdr http.Header) (string, error) {
	name := dispositionFilename(hdr.Get("Content-Disposition"))
	if name == "" {
		name = resourceID + extensionFor(hdr.Get("Content-Type"))
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	dest := filepath.Join(c.Dir, name)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		dest = filepath.Join(c.Dir, base+"-"+uuid.NewString()+ext)
	}
	return dest, nil
}

func dispositionFilename(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return ""
	}
	// Strip any path component a hostile server might send.
	return path.Base(params["filename"])
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "application/pdf":
		return ".pdf"
	case "audio/mpeg":
		return ".mp3"
	case "application/epub+zip":
		return ".epub"
	case "application/zip":
		return ".zip"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// checkExpiry inspects the token's exp claim without verifying the
// signature. The server still verifies for real; this only avoids
// sending requests that are certain to be rejected. Tokens without an
// expiry, or strings that are not JWTs at all, pass through.
func checkExpiry(token string, now time.Time) error {
	if token == "" {
		return nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if now.After(exp.Time) {
		return ErrTokenExpired
	}
	return nil
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}
