package store

import "time"

// DatePrecision orders from least to most precise, per spec.md §3/§4.I.
type DatePrecision string

const (
	PrecisionDecade      DatePrecision = "decade"
	PrecisionApproximate DatePrecision = "approximate"
	PrecisionYear        DatePrecision = "year"
	PrecisionMonth       DatePrecision = "month"
	PrecisionExact       DatePrecision = "exact"
)

// precisionRank orders DatePrecision values for comparison, per spec.md
// §4.I: "decade < approximate < year < month < exact".
var precisionRank = map[DatePrecision]int{
	PrecisionDecade:      0,
	PrecisionApproximate: 1,
	PrecisionYear:        2,
	PrecisionMonth:       3,
	PrecisionExact:       4,
}

// HigherPrecision reports whether a outranks b.
func HigherPrecision(a, b DatePrecision) bool {
	return precisionRank[a] > precisionRank[b]
}

// BagItStatus mirrors spec.md §3's enum.
type BagItStatus string

const (
	BagItNone       BagItStatus = "none"
	BagItValid      BagItStatus = "valid"
	BagItComplete   BagItStatus = "complete"
	BagItIncomplete BagItStatus = "incomplete"
	BagItInvalid    BagItStatus = "invalid"
)

// YearPrecision is the built/abandoned-year precision enum from spec.md §3.
type YearPrecision string

const (
	YearPrecisionYear  YearPrecision = "year"
	YearPrecisionRange YearPrecision = "range"
	YearPrecisionDate  YearPrecision = "date"
)

// Location is the Location entity from spec.md §3.
type Location struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	ShortName     *string `db:"short_name"`
	AlternateName *string `db:"alternate_name"`

	Category string `db:"category"`
	Class    string `db:"class"`

	GPSLat              *float64 `db:"gps_lat"`
	GPSLng              *float64 `db:"gps_lng"`
	GPSAccuracy         *float64 `db:"gps_accuracy"`
	GPSSource           *string  `db:"gps_source"`
	GPSTier             *string  `db:"gps_tier"`
	GPSVerifiedOnMap    bool     `db:"gps_verified_on_map"`
	GPSVerificationMeta *string  `db:"gps_verification_meta"`

	AddrStreet       *string `db:"addr_street"`
	AddrCity         *string `db:"addr_city"`
	AddrCounty       *string `db:"addr_county"`
	AddrState        *string `db:"addr_state"`
	AddrZipcode      *string `db:"addr_zipcode"`
	AddrConfidence   *float64 `db:"addr_confidence"`
	AddrRaw          *string `db:"addr_raw"`
	AddrNormalized   *string `db:"addr_normalized"`
	AddrParsed       *string `db:"addr_parsed"`
	AddrSource       *string `db:"addr_source"`
	AddrVerified     bool    `db:"addr_verified"`

	CensusRegion         *string `db:"census_region"`
	CensusDivision       *string `db:"census_division"`
	StateDirection       *string `db:"state_direction"`
	CulturalRegion       *string `db:"cultural_region"`
	CountryCulturalRegion *string `db:"country_cultural_region"`
	Country              *string `db:"country"`
	Continent            *string `db:"continent"`

	BuiltYear         *int          `db:"built_year"`
	BuiltYearPrecision *YearPrecision `db:"built_year_precision"`
	AbandonedYear     *int          `db:"abandoned_year"`
	AbandonedYearPrecision *YearPrecision `db:"abandoned_year_precision"`

	DocsInterior   bool `db:"docs_interior"`
	DocsExterior   bool `db:"docs_exterior"`
	DocsDrone      bool `db:"docs_drone"`
	DocsWebHistory bool `db:"docs_web_history"`
	DocsMapFind    bool `db:"docs_map_find"`

	IsProject  bool `db:"is_project"`
	IsFavorite bool `db:"is_favorite"`
	IsHistoric bool `db:"is_historic"`
	HostOnly   bool `db:"host_only"`

	HeroImageHash *string  `db:"hero_image_hash"`
	HeroFocalX    *float64 `db:"hero_focal_x"`
	HeroFocalY    *float64 `db:"hero_focal_y"`

	CreatedBy  string    `db:"created_by"`
	ModifiedBy string    `db:"modified_by"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`

	CountImages    int        `db:"count_images"`
	CountVideos    int        `db:"count_videos"`
	CountDocs      int        `db:"count_docs"`
	CountMaps      int        `db:"count_maps"`
	TotalBytes     int64      `db:"total_bytes"`
	EarliestMedia  *time.Time `db:"earliest_media_date"`
	LatestMedia    *time.Time `db:"latest_media_date"`

	BagItStatus       BagItStatus `db:"bagit_status"`
	BagItLastVerified *time.Time  `db:"bagit_last_verified"`
	BagItLastError    *string     `db:"bagit_last_error"`

	ViewCount int `db:"view_count"`
}

// SubLocation is the Sub-location entity: the Location shape plus a
// parent reference and a primary flag, per spec.md §3.
type SubLocation struct {
	Location
	ParentLocationID string `db:"parent_locid"`
	IsPrimary        bool   `db:"is_primary"`
}

// MediaKind distinguishes the four media tables.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaMap      MediaKind = "map"
)

// Media is the shared shape across the four per-kind media tables
// (imgs, vids, docs, maps) from spec.md §3. Kind-specific metadata lives
// in the pointer fields populated only for the matching Kind.
type Media struct {
	Hash string    `db:"hash"`
	Kind MediaKind `db:"kind"`

	OriginalFilename string `db:"original_filename"`
	CanonicalFilename string `db:"canonical_filename"`
	ArchivePath      string `db:"archive_path"`
	OriginalPath     string `db:"original_path"`

	LocationID    string  `db:"locid"`
	SubLocationID *string `db:"sublocid"`

	ImporterIdentity string  `db:"importer_identity"`
	ImportSource     string  `db:"import_source"`
	IsContribution   bool    `db:"is_contribution"`
	ContributionSrc  *string `db:"contribution_source"`
	Hidden           bool    `db:"hidden"`
	HiddenReason     *string `db:"hidden_reason"`
	IsLivePhoto      bool    `db:"is_live_photo"`

	FileSizeBytes int64 `db:"file_size_bytes"`

	ImageWidth  *int `db:"image_width"`
	ImageHeight *int `db:"image_height"`

	VideoDurationSeconds *float64 `db:"video_duration_seconds"`
	VideoCodec           *string  `db:"video_codec"`
	VideoFPS             *float64 `db:"video_fps"`

	DocumentPageCount *int    `db:"document_page_count"`
	DocumentAuthor    *string `db:"document_author"`
	DocumentTitle     *string `db:"document_title"`

	ExifBlob *string `db:"exif_blob"`
	GPSLat   *float64 `db:"gps_lat"`
	GPSLng   *float64 `db:"gps_lng"`

	ThumbSmallPath   *string `db:"thumb_sm_path"`
	ThumbLargePath   *string `db:"thumb_lg_path"`
	ThumbPreviewPath *string `db:"thumb_preview_path"`

	AutoTagsJSON   *string  `db:"auto_tags_json"`
	ConfidenceJSON *string  `db:"confidence_json"`
	ViewType       *string  `db:"view_type"`
	QualityScore   *float64 `db:"quality_score"`
	VLMBlock       *string  `db:"vlm_block"`

	PerceptualHash *string `db:"perceptual_hash"`

	WebSourceID *string `db:"web_source_id"`

	ImportedAt time.Time `db:"imported_at"`
}

// ImportSessionStatus mirrors spec.md §3/§4.E's phase state machine.
type ImportSessionStatus string

const (
	SessionPending     ImportSessionStatus = "pending"
	SessionScanning    ImportSessionStatus = "scanning"
	SessionHashing     ImportSessionStatus = "hashing"
	SessionCopying     ImportSessionStatus = "copying"
	SessionValidating  ImportSessionStatus = "validating"
	SessionFinalizing  ImportSessionStatus = "finalizing"
	SessionCompleted   ImportSessionStatus = "completed"
	SessionCancelled   ImportSessionStatus = "cancelled"
	SessionFailed      ImportSessionStatus = "failed"
)

// ImportSession is the Import session entity from spec.md §3.
type ImportSession struct {
	ID               string              `db:"id"`
	TargetLocationID string              `db:"target_locid"`
	Status           ImportSessionStatus `db:"status"`
	SourcePathsJSON  string              `db:"source_paths_json"`

	ScanResultJSON     *string `db:"scan_result_json"`
	HashResultJSON     *string `db:"hash_result_json"`
	CopyResultJSON     *string `db:"copy_result_json"`
	ValidateResultJSON *string `db:"validate_result_json"`
	FinalizeResultJSON *string `db:"finalize_result_json"`

	TotalCount int   `db:"total_count"`
	TotalBytes int64 `db:"total_bytes"`

	Resumable   bool `db:"resumable"`
	LastStep    int  `db:"last_step"`
	Cancelled   bool `db:"cancelled"`

	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// JobStatus mirrors spec.md §3/§4.F.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobDead       JobStatus = "dead"
)

// Job is the Job entity from spec.md §3/§4.F.
type Job struct {
	ID          string     `db:"id"`
	Queue       string     `db:"queue"`
	Priority    int        `db:"priority"`
	Status      JobStatus  `db:"status"`
	PayloadJSON string     `db:"payload_json"`
	DependsOn   *string    `db:"depends_on"`

	Attempts    int `db:"attempts"`
	MaxAttempts int `db:"max_attempts"`

	ResultJSON *string `db:"result_json"`
	LastError  *string `db:"last_error"`

	CreatedAt   time.Time  `db:"created_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`

	LockedBy *string    `db:"locked_by"`
	LockedAt *time.Time `db:"locked_at"`

	RetryAfter *time.Time `db:"retry_after"`
}

// JobAuditEntry is one row of job_audit_log, per spec.md §4.F.
type JobAuditEntry struct {
	ID          string     `db:"id"`
	JobID       string     `db:"job_id"`
	Queue       string     `db:"queue"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	DurationMS  *int64     `db:"duration_ms"`
	Status      JobStatus  `db:"status"`
	Attempt     int        `db:"attempt"`
	Error       *string    `db:"error"`
	ResultJSON  *string    `db:"result_json"`
}

// DeadLetter is a row in the dead-letter table, per spec.md §4.F.
type DeadLetter struct {
	ID           string    `db:"id"`
	Queue        string    `db:"queue"`
	PayloadJSON  string    `db:"payload_json"`
	Error        string    `db:"error"`
	Attempts     int       `db:"attempts"`
	FailedAt     time.Time `db:"failed_at"`
	Acknowledged bool      `db:"acknowledged"`
}

// RefMap is the Reference map entity, spec.md §3/§4.G.
type RefMap struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	FilePath   string    `db:"file_path"`
	FileType   string    `db:"file_type"`
	PointCount int       `db:"point_count"`
	Importer   string    `db:"importer"`
	ImportedAt time.Time `db:"imported_at"`
}

// RefMapPoint is the Reference map point entity, spec.md §3/§4.G.
type RefMapPoint struct {
	ID              string     `db:"id"`
	ParentMapID     string     `db:"parent_map_id"`
	Name            string     `db:"name"`
	Description     *string    `db:"description"`
	Lat             float64    `db:"lat"`
	Lng             float64    `db:"lng"`
	State           *string    `db:"state"`
	Category        *string    `db:"category"`
	RawMetadataJSON *string    `db:"raw_metadata_json"`
	AkaNames        *string    `db:"aka_names"`
	LinkedLocID     *string    `db:"linked_locid"`
	LinkedAt        *time.Time `db:"linked_at"`
}

// LocationExclusion suppresses re-prompting about a rejected merge, per
// spec.md §3.
type LocationExclusion struct {
	ID         string    `db:"id"`
	NameA      string    `db:"name_a"`
	NameB      string    `db:"name_b"`
	Decision   string    `db:"decision"`
	DecidedBy  string    `db:"decided_by"`
	DecidedAt  time.Time `db:"decided_at"`
}

// LocationDeletionLog is one row of location_deletion_log, written
// immediately before a cascading delete removes the location it
// describes, per spec.md's Lifecycle rule.
type LocationDeletionLog struct {
	ID              string    `db:"id"`
	LocID           string    `db:"locid"`
	Name            string    `db:"name"`
	ChildCountsJSON string    `db:"child_counts_json"`
	DeletedBy       string    `db:"deleted_by"`
	DeletedAt       time.Time `db:"deleted_at"`
}

// WebSourceStatus tracks capture progress across the four artifacts.
type WebSourceStatus string

const (
	WebSourcePending  WebSourceStatus = "pending"
	WebSourceCapturing WebSourceStatus = "capturing"
	WebSourceComplete WebSourceStatus = "complete"
	WebSourceFailed   WebSourceStatus = "failed"
)

// WebSource is the Web source entity, spec.md §3/§4.L. ID is the BLAKE3
// of the URL.
type WebSource struct {
	ID         string          `db:"id"`
	URL        string          `db:"url"`
	Title      *string         `db:"title"`
	LocationID string          `db:"locid"`
	SourceType string          `db:"source_type"`
	Status     WebSourceStatus `db:"status"`

	ComponentStatusJSON string `db:"component_status_json"`
	ExtractedText       *string `db:"extracted_text"`

	ScreenshotPath *string `db:"screenshot_path"`
	ScreenshotHash *string `db:"screenshot_hash"`
	PDFPath        *string `db:"pdf_path"`
	PDFHash        *string `db:"pdf_hash"`
	HTMLPath       *string `db:"html_path"`
	HTMLHash       *string `db:"html_hash"`
	WARCPath       *string `db:"warc_path"`
	WARCHash       *string `db:"warc_hash"`

	MetadataJSON *string `db:"metadata_json"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// WebSourceVersion is one re-capture row, per spec.md §4.L.
type WebSourceVersion struct {
	ID              string    `db:"id"`
	WebSourceID     string    `db:"web_source_id"`
	VersionNumber   int       `db:"version_number"`
	ScreenshotHash  *string   `db:"screenshot_hash"`
	PDFHash         *string   `db:"pdf_hash"`
	HTMLHash        *string   `db:"html_hash"`
	WARCHash        *string   `db:"warc_hash"`
	ContentChanged  bool      `db:"content_changed"`
	CapturedAt      time.Time `db:"captured_at"`
}

// TimelineEvent is the Timeline event entity, spec.md §3/§4.I.
type TimelineEvent struct {
	ID            string        `db:"id"`
	LocationID    string        `db:"locid"`
	SubLocationID *string       `db:"sublocid"`
	Type          string        `db:"type"`
	Subtype       *string       `db:"subtype"`
	DateStart     time.Time     `db:"date_start"`
	DateEnd       *time.Time    `db:"date_end"`
	Precision     DatePrecision `db:"precision"`
	SortOrder     int           `db:"sort_order"`
	SourceType    string        `db:"source_type"`
	MediaCount    int           `db:"media_count"`
	MediaHashesJSON string      `db:"media_hashes_json"`
	AutoApproved  bool          `db:"auto_approved"`
	UserApproved  bool          `db:"user_approved"`
	Confidence    float64       `db:"confidence"`
	Description   *string       `db:"description"`

	SourceRefsJSON string  `db:"source_refs_json"`
	VerbContext    *string `db:"verb_context"`
	PromptVersion  *string `db:"prompt_version"`
}

// MatchType is the kind of signal a merge decision was based on, per
// spec.md §4.H.
type MatchType string

const (
	MatchGPS      MatchType = "gps"
	MatchName     MatchType = "name"
	MatchCombined MatchType = "combined"
)

// MergeAuditEntry is one row of merge_audit_log, per spec.md §4.H.
type MergeAuditEntry struct {
	ID               string    `db:"id"`
	SurvivorID       string    `db:"survivor_id"`
	MergedID         string    `db:"merged_id"`
	MatchType        MatchType `db:"match_type"`
	DistanceMeters   *float64  `db:"distance_meters"`
	NameSimilarity   *float64  `db:"name_similarity"`
	SharedTokensJSON string    `db:"shared_tokens_json"`
	AutoMerge        bool      `db:"auto_merge"`
	Blocked          bool      `db:"blocked"`
	FieldsUpdatedJSON string   `db:"fields_updated_json"`
	CreatedAt        time.Time `db:"created_at"`
}

// Note is a free-text note scoped to a location, supplemental to spec.md
// §3's cascade-delete list.
type Note struct {
	ID            string    `db:"id"`
	LocationID    string    `db:"locid"`
	SubLocationID *string   `db:"sublocid"`
	Author        string    `db:"author"`
	Body          string    `db:"body"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Bookmark is a labeled pointer to a location, supplemental to spec.md
// §3's cascade-delete list.
type Bookmark struct {
	ID            string    `db:"id"`
	LocationID    string    `db:"locid"`
	SubLocationID *string   `db:"sublocid"`
	Label         string    `db:"label"`
	CreatedAt     time.Time `db:"created_at"`
}

// ExtractionVariant names which capability backend ran an extraction,
// per spec.md §9's redesign: the core calls a single extract(input) →
// result capability and records which variant served it without ever
// depending on that variant's internals.
type ExtractionVariant string

const (
	ExtractionSpaCy     ExtractionVariant = "spacy"
	ExtractionLocalLLM  ExtractionVariant = "local_llm"
	ExtractionRemoteLLM ExtractionVariant = "remote_llm"
)

// ExtractionStatus tracks one extraction run.
type ExtractionStatus string

const (
	ExtractionPending ExtractionStatus = "pending"
	ExtractionRunning ExtractionStatus = "running"
	ExtractionDone    ExtractionStatus = "done"
	ExtractionFailed  ExtractionStatus = "failed"
)

// Extraction is one run of the extraction capability against a
// location's notes/descriptions, spec.md §9. ResultJSON is populated
// only on success; Error only on failure.
type Extraction struct {
	ID          string             `db:"id"`
	LocationID  string             `db:"locid"`
	Variant     ExtractionVariant  `db:"variant"`
	Status      ExtractionStatus   `db:"status"`
	InputText   string             `db:"input_text"`
	ResultJSON  *string            `db:"result_json"`
	Error       *string            `db:"error"`
	StartedAt   time.Time          `db:"started_at"`
	CompletedAt *time.Time         `db:"completed_at"`
}
