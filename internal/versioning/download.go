package versioning

import "strings"

const (
	DefaultIOSURL     = "https://apps.apple.com/app/your-app"
	DefaultAndroidURL = "https://play.google.com/store/apps/details?id=your.app"
)

// DefaultDownloadURLs is the built-in platform to store URL table.
func DefaultDownloadURLs() map[string]string {
	return map[string]string{
		"ios":     DefaultIOSURL,
		"android": DefaultAndroidURL,
	}
}

// DownloadResolver maps a platform identifier to its store URL, case-insensitively.
type DownloadResolver struct {
	urls map[string]string
}

// NewDownloadResolver builds a resolver from the defaults overlaid with overrides.
// An override with an empty URL removes that platform.
func NewDownloadResolver(overrides map[string]string) *DownloadResolver {
	urls := DefaultDownloadURLs()
	for platform, url := range overrides {
		key := normalizePlatform(platform)
		if key == "" {
			continue
		}
		url = strings.TrimSpace(url)
		if url == "" {
			delete(urls, key)
			continue
		}
		urls[key] = url
	}
	return &DownloadResolver{urls: urls}
}

// Resolve returns the store URL for platform, or "" when the platform is unknown.
func (r *DownloadResolver) Resolve(platform string) string {
	if r == nil {
		return ""
	}
	return r.urls[normalizePlatform(platform)]
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
