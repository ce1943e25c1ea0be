package model

import (
	"sort"
	"strings"
)

// linkScheme is the only scheme pads are addressed with.
const linkScheme = "https://"

// Link is the canonical identity of a pad.
// Links are comparable and are used directly as map keys.
type Link struct {
	// Server is the host name of the pad server (e.g. "pad.example").
	Server string `json:"server"`

	// Name is the pad's name on that server, i.e. the first path segment.
	Name string `json:"name"`
}

// NewLink creates a Link from its parts.
func NewLink(server, name string) Link {
	return Link{Server: server, Name: name}
}

// URL returns the absolute URL of the pad, https://{server}/{name}.
func (l Link) URL() string {
	return linkScheme + l.Server + "/" + l.Name
}

// String implements fmt.Stringer and returns the pad URL.
func (l Link) String() string {
	return l.URL()
}

// ServerSet is the set of pad servers the crawler is allowed to follow.
// URLs pointing to any other host are not recognized as pads.
type ServerSet struct {
	// hosts holds the allowed hosts, longest first, so that resolution
	// is deterministic even when one host is a prefix of another.
	hosts []string
}

// NewServerSet creates a ServerSet from the given host names.
// Empty and duplicate entries are ignored.
func NewServerSet(hosts ...string) ServerSet {
	seen := make(map[string]bool, len(hosts))
	unique := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		unique = append(unique, h)
	}

	sort.Slice(unique, func(i, j int) bool {
		if len(unique[i]) != len(unique[j]) {
			return len(unique[i]) > len(unique[j])
		}
		return unique[i] < unique[j]
	})

	return ServerSet{hosts: unique}
}

// Hosts returns the allowed hosts in resolution order.
func (s ServerSet) Hosts() []string {
	out := make([]string, len(s.hosts))
	copy(out, s.hosts)
	return out
}

// Len returns the number of allowed hosts.
func (s ServerSet) Len() int {
	return len(s.hosts)
}

// Contains reports whether host is an allowed pad server.
func (s ServerSet) Contains(host string) bool {
	for _, h := range s.hosts {
		if h == host {
			return true
		}
	}
	return false
}

// Resolve converts an absolute URL into a Link.
//
// Resolution succeeds iff rawURL starts with https://{server}/ for an allowed
// server and the remainder is a single, non-empty path segment. A query
// string (HedgeDoc view modes such as "?both" or "?view") addresses the same
// pad and is dropped. The second return value is false when the URL is not
// recognized as a pad.
func (s ServerSet) Resolve(rawURL string) (Link, bool) {
	for _, host := range s.hosts {
		name, ok := strings.CutPrefix(rawURL, linkScheme+host+"/")
		if !ok {
			continue
		}

		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		if name == "" || strings.Contains(name, "/") {
			return Link{}, false
		}

		return Link{Server: host, Name: name}, true
	}

	return Link{}, false
}
