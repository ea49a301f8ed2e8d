package filesystem

import "strings"

// ResolvePath converts a file:// URI or bare path to a local path.
func ResolvePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// IsLocal reports whether uri names a local file rather than an http(s) URL.
func IsLocal(uri string) bool {
	lower := strings.ToLower(uri)
	return !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}
