package ingest

import (
	"path/filepath"
	"strings"
)

func isReceiptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// isHidden checks if a file or directory is hidden (starts with '.').
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
