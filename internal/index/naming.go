package index

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
	hashSuffix  = regexp.MustCompile(`_[0-9a-f]{8}$`)
)

// CollectionName derives the stable collection name for an uploaded file:
// the prefixed, slugged filename stem plus the first 8 hex digits of the
// content hash. Identical filenames with different contents never collide.
func CollectionName(prefix, filename, contentHash string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	slug := slugPattern.ReplaceAllString(strings.ToLower(stem), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "document"
	}
	if len(contentHash) > 8 {
		contentHash = contentHash[:8]
	}
	return prefix + slug + "_" + contentHash
}

// DisplayName reverses CollectionName well enough for listings: the prefix
// and hash suffix are stripped and underscores become spaces.
func DisplayName(prefix, collection string) string {
	name := strings.TrimPrefix(collection, prefix)
	name = hashSuffix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "_", " ")
}
