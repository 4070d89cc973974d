package pypi

import (
	"fmt"
	"time"

	"github.com/matzehuels/repute/pkg/fetch"
	"github.com/matzehuels/repute/pkg/store"
)

// Release holds the values extracted from a cached PyPI document. Field
// extraction runs against stored records, never against live responses, so
// a re-run works entirely from cache.
type Release struct {
	Name        string
	Version     string
	ReleasedAt  time.Time
	HomePage    string
	Author      string
	License     string
	Summary     string
	ProjectURLs map[string]string
}

type docInfo struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	HomePage    string         `json:"home_page"`
	Author      string         `json:"author"`
	License     string         `json:"license"`
	Summary     string         `json:"summary"`
	ProjectURLs map[string]any `json:"project_urls"`
}

type releaseFile struct {
	UploadTimeISO string `json:"upload_time_iso_8601"`
	UploadTime    string `json:"upload_time"`
}

// Extract pulls the fields of interest out of a cached PyPI record.
func Extract(item fetch.Item, rec *store.Record) (*Release, error) {
	var info docInfo
	if err := rec.Unmarshal("info", &info); err != nil {
		return nil, fmt.Errorf("pypi document for %s: %w", item, err)
	}

	releasedAt, err := releaseTime(item, rec)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(info.ProjectURLs))
	for k, v := range info.ProjectURLs {
		if s, ok := v.(string); ok {
			urls[k] = s
		}
	}

	return &Release{
		Name:        item.Name,
		Version:     info.Version,
		ReleasedAt:  releasedAt,
		HomePage:    info.HomePage,
		Author:      info.Author,
		License:     info.License,
		Summary:     info.Summary,
		ProjectURLs: urls,
	}, nil
}

// releaseTime finds the upload time of the item's release. A pinned version
// is looked up in the releases map when present; the "latest" qualifier (and
// version-specific documents, which carry only their own files) uses the
// top-level urls list.
func releaseTime(item fetch.Item, rec *store.Record) (time.Time, error) {
	files, err := releaseFiles(item, rec)
	if err != nil {
		return time.Time{}, err
	}
	if len(files) == 0 {
		return time.Time{}, fmt.Errorf("no release files found for %s", item)
	}
	return parseUploadTime(files[0])
}

func releaseFiles(item fetch.Item, rec *store.Record) ([]releaseFile, error) {
	if item.Version != "" && item.Version != fetch.VersionLatest {
		var releases map[string][]releaseFile
		if err := rec.Unmarshal("releases", &releases); err == nil && releases != nil {
			files, ok := releases[item.Version]
			if !ok {
				return nil, fmt.Errorf("no release files found for %s", item)
			}
			return files, nil
		}
	}

	var files []releaseFile
	if err := rec.Unmarshal("urls", &files); err != nil {
		return nil, fmt.Errorf("pypi document for %s: %w", item, err)
	}
	return files, nil
}

func parseUploadTime(f releaseFile) (time.Time, error) {
	if f.UploadTimeISO != "" {
		return time.Parse(time.RFC3339, f.UploadTimeISO)
	}
	// Older documents carry a zone-less ISO timestamp.
	return time.Parse("2006-01-02T15:04:05", f.UploadTime)
}
