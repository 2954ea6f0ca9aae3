package refmap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser decodes a flat CSV with name,lat,lng[,description,state,category]
// columns (header required) into Points. No third-party CSV parser in
// the retrieved pack improves on stdlib encoding/csv for this flat,
// quote-aware format; see DESIGN.md.
type CSVParser struct{}

func (CSVParser) Parse(ctx context.Context, r io.Reader) (<-chan Point, <-chan error) {
	points := make(chan Point)
	errs := make(chan error, 1)

	go func() {
		defer close(points)
		defer close(errs)

		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if err != nil {
			errs <- fmt.Errorf("read csv header: %w", err)
			return
		}
		col := make(map[string]int, len(header))
		for i, h := range header {
			col[strings.ToLower(strings.TrimSpace(h))] = i
		}
		latIdx, hasLat := col["lat"]
		lngIdx, hasLng := col["lng"]
		if !hasLat || !hasLng {
			errs <- fmt.Errorf("csv header missing lat/lng columns")
			return
		}

		for {
			record, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- fmt.Errorf("read csv row: %w", err)
				return
			}

			lat, err := strconv.ParseFloat(record[latIdx], 64)
			if err != nil {
				continue
			}
			lng, err := strconv.ParseFloat(record[lngIdx], 64)
			if err != nil {
				continue
			}

			p := Point{Lat: lat, Lng: lng}
			if idx, ok := col["name"]; ok && idx < len(record) {
				p.Name = record[idx]
			}
			if idx, ok := col["description"]; ok && idx < len(record) {
				p.Description = record[idx]
			}
			if idx, ok := col["state"]; ok && idx < len(record) {
				p.State = record[idx]
			}
			if idx, ok := col["category"]; ok && idx < len(record) {
				p.Category = record[idx]
			}

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
