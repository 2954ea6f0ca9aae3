package refmap

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONParser decodes Point-geometry features into Points.
type GeoJSONParser struct{}

func (GeoJSONParser) Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error) {
	points := make(chan Point)
	errs := make(chan error, 1)

	go func() {
		defer close(points)
		defer close(errs)

		data, err := io.ReadAll(r)
		if err != nil {
			errs <- fmt.Errorf("read geojson: %w", err)
			return
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			errs <- fmt.Errorf("parse geojson: %w", err)
			return
		}

		for _, feature := range fc.Features {
			pt, ok := feature.Geometry.(orb.Point)
			if !ok {
				continue // only point geometries carry a single reference location
			}

			p := Point{
				Lng: pt.X(),
				Lat: pt.Y(),
			}
			if name, ok := feature.Properties["name"].(string); ok {
				p.Name = name
			}
			if desc, ok := feature.Properties["description"].(string); ok {
				p.Description = desc
			}
			p.RawMetadata = feature.Properties

			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case points <- p:
			}
		}
	}()

	return points, errs
}
