package refmap

import (
	"context"
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"
)

// GPXParser decodes GPX waypoints into Points.
type GPXParser struct{}

func (GPXParser) Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error) {
	points := make(chan Point)
	errs := make(chan error, 1)

	go func() {
		defer close(points)
		defer close(errs)

		data, err := io.ReadAll(r)
		if err != nil {
			errs <- fmt.Errorf("read gpx: %w", err)
			return
		}

		g, err := gpx.ParseBytes(data)
		if err != nil {
			errs <- fmt.Errorf("parse gpx: %w", err)
			return
		}

		for _, wp := range g.Waypoints {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case points <- Point{
				Name:        wp.Name,
				Description: wp.Description,
				Lat:         wp.Latitude,
				Lng:         wp.Longitude,
			}:
			}
		}
	}()

	return points, errs
}
