// Package uri implements Truth's protocol-tagged URI subject: the "file//",
// "http//", "https//" etc. source form, its canonical store-form
// serialization, equality, and relative-path resolution.
package uri

import (
	"fmt"
	"path"
	"strings"
)

// Protocol is one of the registered protocol tags a Truth document may use
// to reference another document.
type Protocol string

const (
	File     Protocol = "file"
	HTTP     Protocol = "http"
	HTTPS    Protocol = "https"
	Internal Protocol = "internal"
	None     Protocol = "none"
	Unknown  Protocol = "unknown"
)

// Registered is the set of protocols the statement parser recognizes as a
// "<proto>//" prefix (§6).
var Registered = []Protocol{File, HTTP, HTTPS, Internal, None, Unknown}

// IsRegistered reports whether p is one of the registered protocols.
func IsRegistered(p Protocol) bool {
	for _, r := range Registered {
		if r == p {
			return true
		}
	}
	return false
}

// Uri is the parsed form of a URI subject. The source syntax omits the
// colon ("file//a/b"); the store form restores it ("file://a/b") and writes
// a type-path suffix after a "/" ("file//a/b::T" stores as "file://a/b/T").
type Uri struct {
	Protocol Protocol
	Path     []string
	TypePath []string
}

// typePathSeparator marks where the document path ends and the type-path
// suffix begins within the raw URI text, e.g. "file//a/b::Type/Sub".
const typePathSeparator = "::"

// Parse parses the text following a recognized "<proto>//" prefix (the
// prefix itself, without "//", is passed as proto; raw is everything read
// until whitespace after the "//").
func Parse(proto Protocol, raw string) (Uri, error) {
	if !IsRegistered(proto) {
		return Uri{}, fmt.Errorf("uri: protocol %q is not registered", proto)
	}

	pathPart := raw
	var typePart string
	if idx := strings.Index(raw, typePathSeparator); idx >= 0 {
		pathPart = raw[:idx]
		typePart = raw[idx+len(typePathSeparator):]
	}

	u := Uri{
		Protocol: proto,
		Path:     splitNonEmpty(pathPart),
		TypePath: splitNonEmpty(typePart),
	}
	return u, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StoreString renders the canonical store form: "protocol://path[/typePath]".
func (u Uri) StoreString() string {
	var b strings.Builder
	b.WriteString(string(u.Protocol))
	b.WriteString("://")
	b.WriteString(strings.Join(u.Path, "/"))
	if len(u.TypePath) > 0 {
		b.WriteString("/")
		b.WriteString(strings.Join(u.TypePath, "/"))
	}
	return b.String()
}

// Equal reports equality: same protocol, path, and type-path, normalized.
func (u Uri) Equal(other Uri) bool {
	return u.Protocol == other.Protocol &&
		equalSegments(u.Path, other.Path) &&
		equalSegments(u.TypePath, other.TypePath)
}

func equalSegments(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RenderedProtocol returns the URI text (its store form) to show in fault
// rendering, or empty string when the protocol is one that is elided (§6: "URI
// omitted when protocol ∈ {internal, none, unknown}").
func (u Uri) RenderedProtocol() string {
	switch u.Protocol {
	case Internal, None, Unknown:
		return ""
	default:
		return u.StoreString()
	}
}

// Resolve resolves a relative URI text against base's path, returning a new
// Uri with the same protocol. If relative begins with a registered
// "<proto>//" prefix it is parsed independently of base (Parse should be
// used directly by the caller in that case); Resolve only handles the
// bare-path relative form used inside a document's own directory.
func (base Uri) Resolve(relative string) Uri {
	relPathPart := relative
	var typePart string
	if idx := strings.Index(relative, typePathSeparator); idx >= 0 {
		relPathPart = relative[:idx]
		typePart = relative[idx+len(typePathSeparator):]
	}

	joined := path.Join(append(append([]string{}, base.Path...), splitNonEmpty(relPathPart)...)...)
	joined = path.Clean("/" + joined)

	return Uri{
		Protocol: base.Protocol,
		Path:     splitNonEmpty(joined),
		TypePath: splitNonEmpty(typePart),
	}
}

// String implements fmt.Stringer using the store form.
func (u Uri) String() string {
	return u.StoreString()
}
