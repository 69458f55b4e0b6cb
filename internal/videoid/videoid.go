// Package videoid derives the canonical video identifier from a submitted
// URL. The identifier is what deduplicates work across jobs: two URLs that
// point at the same video must yield the same id.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL rejects input that cannot be mapped to a video id. Nothing
// downstream runs for such input: no job, no event.
var ErrInvalidURL = errors.New("invalid video url")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// FromURL extracts the 11-character video id from the common URL forms:
// watch?v=, youtu.be/, shorts/, embed/ and live/.
func FromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = firstPathSegment(u.Path)
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segs) == 2 {
			switch segs[0] {
			case "shorts", "embed", "live", "v":
				id = segs[1]
			}
		}
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidURL, host)
	}

	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", ErrInvalidURL, raw)
	}
	return id, nil
}

func firstPathSegment(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
