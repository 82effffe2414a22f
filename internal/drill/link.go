package drill

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// LinkChecker checks external drill links before they are saved.
type LinkChecker struct {
	client *http.Client
}

// NewLinkChecker creates a checker with the default five second timeout.
func NewLinkChecker() *LinkChecker {
	return &LinkChecker{client: &http.Client{Timeout: 5 * time.Second}}
}

// Check sends a HEAD request. Any HTTP response counts as reachable, including error statuses.
func (c *LinkChecker) Check(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug("Link check failed", "url", u.String(), "error", err)
		return false
	}
	resp.Body.Close()
	return true
}
