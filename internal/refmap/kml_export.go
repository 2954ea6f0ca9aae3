package refmap

import (
	"io"

	"github.com/twpayne/go-kml/v3"
)

// ExportKML writes points back out as a KML document, the complement to
// KMLParser's decode side: a ref-map can be shared or re-imported
// elsewhere as a single .kml file.
func ExportKML(w io.Writer, documentName string, points []Point) error {
	placemarks := make([]kml.Element, 0, len(points))
	for _, p := range points {
		placemarks = append(placemarks, kml.Placemark(
			kml.Name(p.Name),
			kml.Description(p.Description),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: p.Lng, Lat: p.Lat})),
		))
	}

	doc := kml.KML(
		kml.Document(
			append([]kml.Element{kml.Name(documentName)}, placemarks...)...,
		),
	)
	return doc.Write(w)
}
