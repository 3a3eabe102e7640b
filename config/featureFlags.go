package config

import (
	"os"
	"strings"
)

// StrictSlabOverlap makes slab validation consider inactive slabs as well as active ones,
// so a slab can never be activated into a silent conflict.
//
// Set via env:
// - STRICT_SLAB_OVERLAP=true
func StrictSlabOverlap() bool {
	return envFlag("STRICT_SLAB_OVERLAP")
}

// ArchiveImportFiles uploads every scoring import file to GCS_BUCKET before it is parsed.
//
// Set via env:
// - ARCHIVE_IMPORT_FILES=true
func ArchiveImportFiles() bool {
	return envFlag("ARCHIVE_IMPORT_FILES")
}

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
