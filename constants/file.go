package constants

import "strings"

// ImageContentTypes maps the receipt image extensions we accept to their MIME type.
var ImageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot) is an accepted receipt image.
func IsImageExt(ext string) bool {
	_, ok := ImageContentTypes[NormalizeExt(ext)]
	return ok
}
