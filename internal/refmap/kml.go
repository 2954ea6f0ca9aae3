package refmap

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// kmlDocument mirrors the small slice of the KML schema refmap cares
// about: named placemarks with a point geometry. go-kml/v3 is a
// generator, not a decoder, for arbitrary third-party KML (it has no
// public Unmarshal entry point), so parsing is done with encoding/xml
// against this minimal shape; see DESIGN.md.
type kmlDocument struct {
	XMLName   xml.Name `xml:"kml"`
	Document  struct {
		Placemark []kmlPlacemark `xml:"Placemark"`
		Folder    []struct {
			Placemark []kmlPlacemark `xml:"Placemark"`
		} `xml:"Folder"`
	} `xml:"Document"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

// KMLParser decodes KML placemarks into Points.
type KMLParser struct{}

func (KMLParser) Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error) {
	points := make(chan Point)
	errs := make(chan error, 1)

	go func() {
		defer close(points)
		defer close(errs)

		var doc kmlDocument
		if err := xml.NewDecoder(r).Decode(&doc); err != nil {
			errs <- fmt.Errorf("decode kml: %w", err)
			return
		}

		all := doc.Document.Placemark
		for _, folder := range doc.Document.Folder {
			all = append(all, folder.Placemark...)
		}

		for _, pm := range all {
			lat, lng, err := parseKMLCoordinates(pm.Point.Coordinates)
			if err != nil {
				continue // non-point placemarks (paths, polygons) are out of scope
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case points <- Point{Name: pm.Name, Description: pm.Description, Lat: lat, Lng: lng}:
			}
		}
	}()

	return points, errs
}

// parseKMLCoordinates parses a KML "lng,lat[,alt]" coordinate string.
func parseKMLCoordinates(raw string) (lat, lng float64, err error) {
	fields := strings.Split(strings.TrimSpace(raw), ",")
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("malformed coordinates %q", raw)
	}
	lng, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	lat, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// KMZParser unzips the in-memory archive and delegates to KMLParser on
// its first entry whose name ends in .kml, per spec.md §4.G.
type KMZParser struct{}

func (KMZParser) Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error) {
	points := make(chan Point)
	errs := make(chan error, 1)

	go func() {
		defer close(points)
		defer close(errs)

		buf, err := io.ReadAll(r)
		if err != nil {
			errs <- fmt.Errorf("read kmz: %w", err)
			return
		}
		zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
		if err != nil {
			errs <- fmt.Errorf("open kmz: %w", err)
			return
		}

		var kmlFile *zip.File
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
				kmlFile = f
				break
			}
		}
		if kmlFile == nil {
			errs <- fmt.Errorf("kmz archive has no .kml entry")
			return
		}

		rc, err := kmlFile.Open()
		if err != nil {
			errs <- fmt.Errorf("open kml entry: %w", err)
			return
		}
		defer rc.Close()

		inner, innerErrs := (KMLParser{}).Parse(ctx, rc)
		for p := range inner {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case points <- p:
			}
		}
		if err := <-innerErrs; err != nil {
			errs <- err
		}
	}()

	return points, errs
}
