// Package merge implements the Merge Engine (spec.md §4.H): candidate
// matching by name similarity and/or GPS proximity, an exclusion
// override, and the reattachment of a merged location's children to its
// survivor.
package merge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/xrash/smetrics"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

const (
	nameSimilarityThreshold = 0.92
	tokenOverlapThreshold   = 2.0 / 3.0

	gpsMatchRadiusMeters      = 25.0
	combinedMatchRadiusMeters = 100.0
	combinedSimilarityFloor   = 0.85
	genericNameRadiusMeters   = 5000.0

	jaroWinklerBoostThreshold = 0.7
	jaroWinklerPrefixSize     = 4
)

// genericNames are location names too common to trust on their own,
// requiring a second corroborating signal within genericNameRadiusMeters
// per spec.md §4.H's generic-name downgrade rule.
var genericNames = map[string]bool{
	"house": true, "barn": true, "farm": true, "mill": true,
	"church": true, "school": true, "factory": true, "hospital": true,
}

// Candidate is one proposed match between two locations.
type Candidate struct {
	A, B           *store.Location
	MatchType      store.MatchType
	DistanceMeters *float64
	NameSimilarity *float64
	SharedTokens   []string
	AutoMerge      bool
	Blocked        bool
}

// Evaluate scores a candidate pair of locations against the name/GPS
// rules in spec.md §4.H, checking the exclusion override first.
func Evaluate(ctx context.Context, exclusions *store.ExclusionRepo, a, b *store.Location) (*Candidate, error) {
	excluded, err := exclusions.IsExcluded(ctx, a.Name, b.Name)
	if err != nil {
		return nil, err
	}
	if excluded {
		return &Candidate{A: a, B: b, Blocked: true}, nil
	}

	similarity := nameSimilarity(a.Name, b.Name)
	shared := sharedTokens(a.Name, b.Name)
	overlap := tokenOverlap(a.Name, b.Name)

	var distance *float64
	if a.GPSLat != nil && a.GPSLng != nil && b.GPSLat != nil && b.GPSLng != nil {
		d := geo.Distance(orb.Point{*a.GPSLng, *a.GPSLat}, orb.Point{*b.GPSLng, *b.GPSLat})
		distance = &d
	}

	nameMatch := similarity >= nameSimilarityThreshold && overlap >= tokenOverlapThreshold
	gpsMatch := distance != nil && *distance <= gpsMatchRadiusMeters
	combinedMatch := distance != nil && *distance <= combinedMatchRadiusMeters && similarity >= combinedSimilarityFloor

	if nameMatch && isGeneric(a.Name) {
		// a generic name needs a second signal to avoid merging every
		// "Old Barn" in the country together: either GPS within
		// genericNameRadiusMeters, or a matching state.
		withinGPS := distance != nil && *distance <= genericNameRadiusMeters
		sameState := a.AddrState != nil && b.AddrState != nil &&
			strings.EqualFold(strings.TrimSpace(*a.AddrState), strings.TrimSpace(*b.AddrState))
		nameMatch = withinGPS || sameState
	}

	c := &Candidate{
		A: a, B: b, NameSimilarity: &similarity, SharedTokens: shared, DistanceMeters: distance,
	}

	switch {
	case gpsMatch && nameMatch:
		c.MatchType = store.MatchCombined
		c.AutoMerge = true
	case combinedMatch:
		c.MatchType = store.MatchCombined
		c.AutoMerge = true
	case gpsMatch:
		c.MatchType = store.MatchGPS
		c.AutoMerge = true
	case nameMatch:
		c.MatchType = store.MatchName
		c.AutoMerge = false // name-only matches need human confirmation
	default:
		return nil, nil
	}

	return c, nil
}

func nameSimilarity(a, b string) float64 {
	return smetrics.JaroWinkler(strings.ToLower(a), strings.ToLower(b), jaroWinklerBoostThreshold, jaroWinklerPrefixSize)
}

func tokenize(name string) []string {
	return strings.Fields(strings.ToLower(name))
}

func sharedTokens(a, b string) []string {
	bSet := make(map[string]bool)
	for _, t := range tokenize(b) {
		bSet[t] = true
	}
	var shared []string
	for _, t := range tokenize(a) {
		if bSet[t] {
			shared = append(shared, t)
		}
	}
	return shared
}

func tokenOverlap(a, b string) float64 {
	aTokens, bTokens := tokenize(a), tokenize(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	shared := len(sharedTokens(a, b))
	smaller := len(aTokens)
	if len(bTokens) < smaller {
		smaller = len(bTokens)
	}
	return float64(shared) / float64(smaller)
}

func isGeneric(name string) bool {
	tokens := tokenize(name)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if genericNames[t] {
			return true
		}
	}
	return false
}

// Merge folds loser into survivor: reattaches media, ref-map links,
// notes, bookmarks, and timeline events, then deletes the loser location
// and writes one append-only merge_audit_log row, all inside one
// transaction, per spec.md §4.H.
func Merge(ctx context.Context, s *store.Store, survivor *store.Location, loser *store.Location, c *Candidate) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.Media.ReattachLocation(ctx, tx, loser.ID, survivor.ID); err != nil {
		return err
	}
	for _, table := range []string{"notes", "bookmarks", "location_timeline"} {
		if err := reattachTable(ctx, tx, table, loser.ID, survivor.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE ref_map_points SET linked_locid = ? WHERE linked_locid = ?`, survivor.ID, loser.ID); err != nil {
		return err
	}

	akaNames := loser.Name
	if survivor.AlternateName != nil && *survivor.AlternateName != "" {
		akaNames = *survivor.AlternateName + "; " + akaNames
	}
	if _, err := tx.ExecContext(ctx, `UPDATE locs SET alternate_name = ? WHERE id = ?`, akaNames, survivor.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM locs WHERE id = ?`, loser.ID); err != nil {
		return err
	}

	sharedJSON, err := json.Marshal(c.SharedTokens)
	if err != nil {
		return err
	}
	entry := &store.MergeAuditEntry{
		ID:               uuid.NewString(),
		SurvivorID:       survivor.ID,
		MergedID:         loser.ID,
		MatchType:        c.MatchType,
		DistanceMeters:   c.DistanceMeters,
		NameSimilarity:   c.NameSimilarity,
		SharedTokensJSON: string(sharedJSON),
		AutoMerge:        c.AutoMerge,
		FieldsUpdatedJSON: `["alternate_name"]`,
	}
	if err := s.Merges.Append(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// reattachTable rewrites every row in table whose locid points at
// fromLocationID to point at toLocationID instead, the same reattach
// pattern MediaRepo.ReattachLocation applies to the four media tables.
func reattachTable(ctx context.Context, tx *sqlx.Tx, table, fromLocationID, toLocationID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE `+table+` SET locid = ? WHERE locid = ?`, toLocationID, fromLocationID)
	return err
}
