package model

import "strings"

// ResolveIcon turns a provider icon path into an absolute URL. Absolute
// and protocol-relative paths are returned unchanged.
func ResolveIcon(base, icon string) string {
	icon = strings.TrimSpace(icon)
	switch {
	case icon == "":
		return ""
	case strings.HasPrefix(icon, "http://"), strings.HasPrefix(icon, "https://"), strings.HasPrefix(icon, "//"):
		return icon
	case base == "":
		return icon
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(icon, "/")
}
