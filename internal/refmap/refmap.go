// Package refmap implements the Reference-Map Engine (spec.md §4.G):
// format-specific parsers feeding a common Point channel, coordinate-
// rounding dedup, and GPS-proximity linking against known locations.
package refmap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/errs2"
	"github.com/bizzlechizzle/archivist-core/internal/hashing"
)

// Point is one parsed reference-map point, format-agnostic.
type Point struct {
	Name        string
	Description string
	Lat, Lng    float64
	State       string
	Category    string
	RawMetadata map[string]any
}

// Parser decodes one reference-map file format into a stream of Points.
// Parsing runs in a producer goroutine so the caller can start consuming
// points before the whole file has been read, per spec.md §4.G's
// "asynchronous, non-blocking" requirement.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error)
}

// ForExtension returns the Parser registered for a lowercase file
// extension (with leading dot, e.g. ".kml"), or nil if unsupported.
func ForExtension(ext string) Parser {
	switch strings.ToLower(ext) {
	case ".kml":
		return KMLParser{}
	case ".kmz":
		return KMZParser{}
	case ".gpx":
		return GPXParser{}
	case ".geojson", ".json":
		return GeoJSONParser{}
	case ".csv":
		return CSVParser{}
	default:
		return nil
	}
}

// Collect drains a Parser's channels into a slice, surfacing the first
// error (if any) once the point channel closes.
func Collect(ctx context.Context, p Parser, r io.Reader) ([]Point, error) {
	points, errs := p.Parse(ctx, r)
	var result []Point
	for pt := range points {
		result = append(result, pt)
	}
	select {
	case err := <-errs:
		if err != nil {
			return result, err
		}
	default:
	}
	return result, nil
}

// roundedKey is the Invariant 7 dedup key: coordinates rounded to 4
// decimal places (~11m of precision at the equator), matching the
// spec's "round(lat,4), round(lng,4)" rule.
func roundedKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", round4(lat), round4(lng))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Dedup groups points sharing a rounded coordinate key, returning one
// survivor per group (the first seen) and the names of every other
// point folded into it as an aka name, per spec.md Invariant 7.
func Dedup(points []Point) (survivors []Point, akaByIndex map[int][]string) {
	akaByIndex = make(map[int][]string)
	seen := make(map[string]int) // rounded key -> index into survivors

	for _, p := range points {
		key := roundedKey(p.Lat, p.Lng)
		if idx, ok := seen[key]; ok {
			akaByIndex[idx] = append(akaByIndex[idx], p.Name)
			continue
		}
		seen[key] = len(survivors)
		survivors = append(survivors, p)
	}
	return survivors, akaByIndex
}

// Import parses filePath with the parser registered for its extension,
// collapses coordinate-duplicate points via Dedup, and persists the
// survivors through repo.Import as one ref_maps row plus its
// ref_map_points rows, per spec.md §4.G. It does not link points to
// locations; that runs separately as the ref-map-point-match job.
func Import(ctx context.Context, repo *store.RefMapRepo, r io.Reader, filePath, importer string) (*store.RefMap, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	parser := ForExtension(ext)
	if parser == nil {
		return nil, errs2.CorruptInput.New("unsupported reference map extension %q", ext)
	}

	points, err := Collect(ctx, parser, r)
	if err != nil {
		return nil, err
	}
	survivors, akaByIndex := Dedup(points)

	m := &store.RefMap{
		ID:       hashing.NewEntityID(filePath + ":" + importer),
		Name:     filepath.Base(filePath),
		FilePath: filePath,
		FileType: strings.TrimPrefix(ext, "."),
		Importer: importer,
	}

	rows := make([]store.RefMapPoint, len(survivors))
	for i, p := range survivors {
		row := store.RefMapPoint{
			ID:   hashing.NewEntityID(fmt.Sprintf("%s:%d:%s", m.ID, i, p.Name)),
			Lat:  p.Lat,
			Lng:  p.Lng,
			Name: p.Name,
		}
		if p.Description != "" {
			row.Description = &p.Description
		}
		if p.State != "" {
			row.State = &p.State
		}
		if p.Category != "" {
			row.Category = &p.Category
		}
		if akas := akaByIndex[i]; len(akas) > 0 {
			joined := strings.Join(akas, "; ")
			row.AkaNames = &joined
		}
		if len(p.RawMetadata) > 0 {
			if raw, err := json.Marshal(p.RawMetadata); err == nil {
				rawStr := string(raw)
				row.RawMetadataJSON = &rawStr
			}
		}
		rows[i] = row
	}

	if err := repo.Import(ctx, m, rows); err != nil {
		return nil, err
	}
	return m, nil
}

// linkRadiusMeters is the proximity threshold for auto-linking a point
// to an existing location, per spec.md §4.G.
const linkRadiusMeters = 25.0

// NearestLocation returns the closest location to p within
// linkRadiusMeters, or ok=false if none qualifies.
func NearestLocation(p Point, locations []store.Location) (nearest store.Location, distanceMeters float64, ok bool) {
	best := math.Inf(1)
	var bestLoc store.Location
	found := false

	target := orb.Point{p.Lng, p.Lat}
	for _, loc := range locations {
		if loc.GPSLat == nil || loc.GPSLng == nil {
			continue
		}
		d := geo.Distance(target, orb.Point{*loc.GPSLng, *loc.GPSLat})
		if d < best {
			best = d
			bestLoc = loc
			found = true
		}
	}
	if !found || best > linkRadiusMeters {
		return store.Location{}, 0, false
	}
	return bestLoc, best, true
}
