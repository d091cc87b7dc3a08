package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/storefront/backend/internal/domain/catalog"
)

// ManifestColumn is one entry of the column manifest consumed by
// external admin tooling.
type ManifestColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// WriteColumnManifest overwrites the manifest artifact wholesale with
// the provider's current field list.
func WriteColumnManifest(manifestPath string, fields []catalog.FieldMeta) error {
	columns := make([]ManifestColumn, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, ManifestColumn{
			Key:   f.Name,
			Label: f.Name,
			Type:  f.Type,
		})
	}

	data, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode column manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(manifestPath), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	// Write-then-rename keeps downstream readers from observing a
	// half-written manifest.
	tmp := manifestPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write column manifest: %w", err)
	}
	if err := os.Rename(tmp, manifestPath); err != nil {
		return fmt.Errorf("failed to replace column manifest: %w", err)
	}
	return nil
}
