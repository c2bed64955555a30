package driver

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// Location represents a parsed snapshot root argument.
type Location struct {
	Scheme string // "sftp" for URL form, empty otherwise
	Host   string
	User   string
	Path   string
	Port   int
}

// IsRemote returns true if the location refers to a remote host.
func (l Location) IsRemote() bool {
	return l.Host != ""
}

// String returns a human-readable representation.
func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	if l.Scheme == "sftp" {
		host := l.Host
		if l.Port != 0 {
			host = net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
		}
		if l.User != "" {
			return fmt.Sprintf("sftp://%s@%s%s", l.User, host, l.Path)
		}
		return fmt.Sprintf("sftp://%s%s", host, l.Path)
	}
	if l.User != "" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Path)
	}
	return fmt.Sprintf("%s:%s", l.Host, l.Path)
}

// ParseLocation parses a CLI argument into a Location.
//
// Supported formats:
//   - /absolute/path                  → local
//   - relative/path                   → local
//   - host:path                       → SFTP remote (current user)
//   - user@host:path                  → SFTP remote
//   - sftp://[user@]host[:port]/path  → SFTP remote
//
// A bare "word" with no colon is always local. A path containing ":" is
// only treated as remote if the part before the colon contains no path
// separators (so "/foo:bar" and "./host:path" are local).
//
//nolint:revive // cognitive-complexity: location parsing handles multiple format variants
func ParseLocation(arg string) Location {
	if strings.HasPrefix(arg, "sftp://") {
		return parseSFTPURL(arg)
	}

	// Absolute paths and paths starting with . are always local.
	if filepath.IsAbs(arg) || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return Location{Path: arg}
	}

	colonIdx := strings.IndexByte(arg, ':')
	if colonIdx < 0 {
		return Location{Path: arg}
	}

	hostPart := arg[:colonIdx]
	pathPart := arg[colonIdx+1:]

	// "dir/file:with:colons" is a local path.
	if strings.ContainsRune(hostPart, filepath.Separator) || strings.ContainsRune(hostPart, '/') {
		return Location{Path: arg}
	}
	if hostPart == "" {
		return Location{Path: arg}
	}

	var user, host string
	if atIdx := strings.LastIndexByte(hostPart, '@'); atIdx >= 0 {
		user = hostPart[:atIdx]
		host = hostPart[atIdx+1:]
	} else {
		host = hostPart
	}

	if host == "" {
		return Location{Path: arg}
	}

	return Location{
		Host: host,
		User: user,
		Path: pathPart,
	}
}

// parseSFTPURL parses an sftp://[user@]host[:port]/path URL. Malformed URLs
// fall back to a local path so the crawl reports them as not found.
func parseSFTPURL(raw string) Location {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{Path: raw}
	}

	host := u.Hostname()
	if host == "" {
		return Location{Path: raw}
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Location{Path: raw}
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	var user string
	if u.User != nil {
		user = u.User.Username()
	}

	return Location{
		Scheme: "sftp",
		Host:   host,
		User:   user,
		Port:   port,
		Path:   path,
	}
}
