package importpipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".heic": true, ".tif": true, ".tiff": true, ".gif": true, ".webp": true, ".raw": true, ".cr2": true, ".nef": true, ".dng": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true, ".m4v": true,
}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".rtf": true,
}

var mapExtensions = map[string]bool{
	".kml": true, ".kmz": true, ".gpx": true, ".geojson": true,
}

// detectKind classifies a file by extension, falling back to content
// sniffing via mimetype for extensionless or ambiguous files.
func detectKind(path, ext string) string {
	switch {
	case imageExtensions[ext]:
		return "image"
	case videoExtensions[ext]:
		return "video"
	case documentExtensions[ext]:
		return "document"
	case mapExtensions[ext]:
		return "map"
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "unknown"
	}
	switch {
	case strings.HasPrefix(mt.String(), "image/"):
		return "image"
	case strings.HasPrefix(mt.String(), "video/"):
		return "video"
	default:
		return "document"
	}
}

// Scan walks sourcePaths (files or directories), classifying every file
// it finds, per spec.md §4.E phase 1. Files over scanCeilingBytes (0 =
// unlimited) are still included, flagged HiddenReasonOverCeiling.
func Scan(sourcePaths []string, scanCeilingBytes int64) (ScanResult, error) {
	var result ScanResult

	visit := func(path string, d os.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(path))
		base := filepath.Base(path)

		item := ScanItem{
			Path:      path,
			Bytes:     info.Size(),
			Mtime:     info.ModTime(),
			Extension: ext,
		}

		switch {
		case strings.HasPrefix(base, "."):
			item.Hidden = true
			item.HiddenReason = HiddenReasonDotfile
		case sidecarExtensions[ext]:
			item.Hidden = true
			item.HiddenReason = HiddenReasonMetadataSidecar
		case scanCeilingBytes > 0 && info.Size() > scanCeilingBytes:
			item.Hidden = true
			item.HiddenReason = HiddenReasonOverCeiling
		}

		item.DetectedKind = detectKind(path, ext)

		result.Items = append(result.Items, item)
		result.TotalCount++
		result.TotalBytes += item.Bytes
		return nil
	}

	for _, source := range sourcePaths {
		info, err := os.Stat(source)
		if err != nil {
			return result, err
		}
		if !info.IsDir() {
			if err := visit(source, fileDirEntry{info}); err != nil {
				return result, err
			}
			continue
		}
		if err := filepath.WalkDir(source, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			return visit(path, d)
		}); err != nil {
			return result, err
		}
	}

	return result, nil
}

// fileDirEntry adapts an os.FileInfo for a single explicitly-named file
// into the os.DirEntry shape visit expects, avoiding a second stat.
type fileDirEntry struct{ info os.FileInfo }

func (f fileDirEntry) Name() string               { return f.info.Name() }
func (f fileDirEntry) IsDir() bool                 { return f.info.IsDir() }
func (f fileDirEntry) Type() os.FileMode           { return f.info.Mode().Type() }
func (f fileDirEntry) Info() (os.FileInfo, error) { return f.info, nil }
