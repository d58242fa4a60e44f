package normalize

import "strings"

var mediaKeys = map[string]bool{
	"logo":   true,
	"image":  true,
	"avatar": true,
	"resume": true,
	"photo":  true,
}

var mediaSuffixes = []string{"_logo", "_image", "_url", "_resume", "_photo", "_avatar"}

func isMediaKey(key string) bool {
	if mediaKeys[key] {
		return true
	}
	for _, suffix := range mediaSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// AbsoluteURL prefixes baseURL onto a backend-relative path. Values that are
// already absolute, protocol-relative or empty are returned as is.
func AbsoluteURL(baseURL, value string) string {
	if baseURL == "" || !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") {
		return value
	}
	return strings.TrimRight(baseURL, "/") + value
}

// AbsolutizeMedia walks v and rewrites relative media paths in place
func AbsolutizeMedia(v any, baseURL string) any {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			if s, ok := child.(string); ok {
				if isMediaKey(key) {
					val[key] = AbsoluteURL(baseURL, s)
				}
				continue
			}
			val[key] = AbsolutizeMedia(child, baseURL)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = AbsolutizeMedia(child, baseURL)
		}
		return val
	default:
		return v
	}
}
