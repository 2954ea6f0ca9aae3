package refmap_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
	"github.com/bizzlechizzle/archivist-core/internal/refmap"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Old Quarry Hospital</name>
      <description>abandoned since 1998</description>
      <Point><coordinates>-71.123400,42.654300,0</coordinates></Point>
    </Placemark>
    <Folder>
      <Placemark>
        <name>Second Site</name>
        <Point><coordinates>-71.200000,42.700000</coordinates></Point>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestKMLParserYieldsPlacemarkPoints(t *testing.T) {
	points, err := refmap.Collect(context.Background(), refmap.KMLParser{}, strings.NewReader(sampleKML))
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, "Old Quarry Hospital", points[0].Name)
	require.InDelta(t, 42.6543, points[0].Lat, 0.0001)
	require.InDelta(t, -71.1234, points[0].Lng, 0.0001)
	require.Equal(t, "Second Site", points[1].Name)
}

const sampleCSV = `name,lat,lng,description
Site A,42.0001,-71.0001,first
Site B,42.9999,-71.9999,second
`

func TestCSVParserReadsFlatColumns(t *testing.T) {
	points, err := refmap.Collect(context.Background(), refmap.CSVParser{}, strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, "Site A", points[0].Name)
	require.Equal(t, "first", points[0].Description)
}

func TestDedupCollapsesPointsWithinRoundingPrecision(t *testing.T) {
	points := []refmap.Point{
		{Name: "Primary Name", Lat: 42.65430, Lng: -71.12340},
		{Name: "Alt Name", Lat: 42.65431, Lng: -71.12339}, // rounds to the same key
		{Name: "Distinct", Lat: 43.00000, Lng: -72.00000},
	}

	survivors, aka := refmap.Dedup(points)
	require.Len(t, survivors, 2)
	require.Equal(t, "Primary Name", survivors[0].Name)
	require.Equal(t, []string{"Alt Name"}, aka[0])
	require.Equal(t, "Distinct", survivors[1].Name)
	require.Empty(t, aka[1])
}

func TestNearestLocationHonorsProximityThreshold(t *testing.T) {
	near := 42.65430
	nearLng := -71.12340
	far := 45.0
	farLng := -80.0

	locations := []store.Location{
		{ID: "close", Name: "Close Site", GPSLat: &near, GPSLng: &nearLng},
		{ID: "far", Name: "Far Site", GPSLat: &far, GPSLng: &farLng},
	}

	p := refmap.Point{Lat: 42.65431, Lng: -71.12341}
	loc, dist, ok := refmap.NearestLocation(p, locations)
	require.True(t, ok)
	require.Equal(t, "close", loc.ID)
	require.Less(t, dist, 25.0)
}

func TestExportKMLProducesParseableDocument(t *testing.T) {
	points := []refmap.Point{
		{Name: "Old Quarry Hospital", Description: "abandoned", Lat: 42.6543, Lng: -71.1234},
	}

	var buf strings.Builder
	require.NoError(t, refmap.ExportKML(&buf, "ref-map export", points))

	roundTripped, err := refmap.Collect(context.Background(), refmap.KMLParser{}, strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, roundTripped, 1)
	require.Equal(t, "Old Quarry Hospital", roundTripped[0].Name)
	require.InDelta(t, 42.6543, roundTripped[0].Lat, 0.0001)
}

func TestNearestLocationRejectsBeyondRadius(t *testing.T) {
	lat, lng := 10.0, 10.0
	locations := []store.Location{{ID: "distant", GPSLat: &lat, GPSLng: &lng}}

	p := refmap.Point{Lat: 42.0, Lng: -71.0}
	_, _, ok := refmap.NearestLocation(p, locations)
	require.False(t, ok)
}
