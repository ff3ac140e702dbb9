package utils

import "strings"

// JoinURL joins a base URL and path segments with single slashes.
func JoinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, segment := range segments {
		segment = strings.Trim(segment, "/")
		if segment == "" {
			continue
		}
		out += "/" + segment
	}
	return out
}
