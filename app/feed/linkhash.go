package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedLink reports a link that cannot be parsed as an absolute URL.
// Items carrying such links are dropped, not propagated as run failures.
var ErrMalformedLink = errors.New("malformed link")

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeLink canonicalizes an absolute URL: scheme and host are
// lowercased, the scheme's default port is stripped, and an empty path
// becomes "/". Two links that differ only in these aspects normalize to the
// same string.
func NormalizeLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: not an absolute URL: %q", ErrMalformedLink, link)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if port := u.Port(); port != "" && port == defaultPorts[u.Scheme] {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// LinkHash derives the deduplication key for a link: the SHA-256 digest of
// the normalized link, rendered as 64 lowercase hex characters.
func LinkHash(link string) (string, error) {
	normalized, err := NormalizeLink(link)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}
