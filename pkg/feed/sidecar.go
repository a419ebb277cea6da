package feed

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sidecarRecord is the diagnostic snapshot written next to every
// dispatched torrent's save folder.
type sidecarRecord struct {
	Title       string   `yaml:"title"`
	Tags        []string `yaml:"tags"`
	DownloadURL string   `yaml:"download_url"`
	Size        *int64   `yaml:"size,omitempty"`
	InfoHash    string   `yaml:"info_hash,omitempty"`
	Fingerprint uint64   `yaml:"fingerprint"`
}

// writeSidecar writes `{saveFolder}/__META_{fingerprint}.yaml`. Failure
// here is never fatal to dispatch; the caller logs and continues.
func writeSidecar(saveFolder string, a Announcement) error {
	rec := sidecarRecord{
		Title:       a.RawTitle,
		Tags:        a.SortedTags(),
		DownloadURL: a.DownloadURL,
		Size:        a.Size,
		InfoHash:    a.InfoHash,
		Fingerprint: a.Fingerprint,
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}

	path := filepath.Join(saveFolder, fmt.Sprintf("__META_%d.yaml", a.Fingerprint))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}

	return nil
}
