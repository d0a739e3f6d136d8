package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one rendered frame in the output manifest.
type ManifestEntry struct {
	Camera           string `json:"camera"`
	Frame            int    `json:"frame"`
	Status           string `json:"reflection_status"`
	Blurred          bool   `json:"blurred"`
	ReflectionWidth  int    `json:"reflection_width,omitempty"`
	ReflectionHeight int    `json:"reflection_height,omitempty"`
	Image            string `json:"image"`
	Reflection       string `json:"reflection,omitempty"`
	Pyramid          string `json:"pyramid,omitempty"`
}

// WriteManifest writes the successful frames to path as JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Camera:           r.Camera,
			Frame:            r.Frame,
			Status:           r.Status,
			Blurred:          r.Blurred,
			ReflectionWidth:  r.ReflectionWidth,
			ReflectionHeight: r.ReflectionHeight,
			Image:            filepath.ToSlash(r.Image),
			Reflection:       filepath.ToSlash(r.Reflection),
			Pyramid:          filepath.ToSlash(r.Pyramid),
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
