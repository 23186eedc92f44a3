package supply

import (
	"context"
	"fmt"
	"strings"

	"github.com/pders01/polarstock/internal/provider"
)

// Editor transforms one image reference into another (crop, zoom). The
// result is stored on the slot with Board.SetEditedOverlay.
type Editor interface {
	Edit(ctx context.Context, ref string) (string, error)
}

// Exporter packages the selected slots and returns where the bundle was written.
type Exporter interface {
	Export(ctx context.Context, items []ExportItem, settings CompressionSettings) (string, error)
}

type ExportItem struct {
	SlotID    int            `json:"slot_id"`
	Reference string         `json:"reference"`
	Edited    bool           `json:"edited"`
	Photo     provider.Photo `json:"photo"`
}

// CompressionSettings describe how an exporter should size images.
type CompressionSettings struct {
	Enabled       bool    `json:"enabled"`
	Quality       float64 `json:"quality"`
	MaxDimension  int     `json:"max_dimension"`
	MaxFileSizeMB float64 `json:"max_file_size_mb"`
}

func DefaultCompression() CompressionSettings {
	return CompressionSettings{
		Enabled:       true,
		Quality:       0.9,
		MaxDimension:  1920,
		MaxFileSizeMB: 2,
	}
}

var compressionPresets = map[string]struct {
	quality float64
	maxDim  int
}{
	"high":    {0.9, 2560},
	"medium":  {0.8, 1920},
	"low":     {0.6, 1280},
	"minimum": {0.4, 800},
}

// PresetNames lists the accepted preset names.
func PresetNames() []string {
	return []string{"default", "high", "medium", "low", "minimum", "none"}
}

// CompressionPreset returns the settings for a named preset. "none" disables
// compression; an empty name or "default" yields the defaults.
func CompressionPreset(name string) (CompressionSettings, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	settings := DefaultCompression()
	switch name {
	case "", "default":
		return settings, nil
	case "none", "off":
		settings.Enabled = false
		return settings, nil
	}
	p, ok := compressionPresets[name]
	if !ok {
		return settings, fmt.Errorf("unknown compression preset %q (want one of %s)", name, strings.Join(PresetNames(), ", "))
	}
	settings.Quality = p.quality
	settings.MaxDimension = p.maxDim
	return settings, nil
}
