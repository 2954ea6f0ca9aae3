package migrations

import "github.com/bizzlechizzle/archivist-core/internal/tagsql"

// webSourceSteps creates web_sources, web_source_versions, and the FTS5
// full-text index kept synchronized by triggers, versions 14-16.
// Additive. Per SPEC_FULL.md §4.L, the FTS5 virtual table uses porter +
// unicode61 tokenization and is kept consistent with web_sources via
// AFTER INSERT/UPDATE/DELETE triggers rather than application-level
// reindexing.
func webSourceSteps(db tagsql.DB) []*Step {
	return []*Step{
		sqlStep(db, 14, "create web_sources table", `
			CREATE TABLE IF NOT EXISTS web_sources (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL,
				title TEXT,
				locid TEXT NOT NULL REFERENCES locs(id) ON DELETE CASCADE,
				source_type TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				component_status_json TEXT NOT NULL DEFAULT '{}',
				extracted_text TEXT,

				screenshot_path TEXT,
				screenshot_hash TEXT,
				pdf_path TEXT,
				pdf_hash TEXT,
				html_path TEXT,
				html_hash TEXT,
				warc_path TEXT,
				warc_hash TEXT,

				metadata_json TEXT,

				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_web_sources_locid ON web_sources(locid)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_web_sources_url ON web_sources(url)`,
		),
		sqlStep(db, 15, "create web_source_versions table", `
			CREATE TABLE IF NOT EXISTS web_source_versions (
				id TEXT PRIMARY KEY,
				web_source_id TEXT NOT NULL REFERENCES web_sources(id) ON DELETE CASCADE,
				version_number INTEGER NOT NULL,
				screenshot_hash TEXT,
				pdf_hash TEXT,
				html_hash TEXT,
				warc_hash TEXT,
				content_changed INTEGER NOT NULL DEFAULT 0,
				captured_at TIMESTAMP NOT NULL
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_web_source_versions_unique ON web_source_versions(web_source_id, version_number)`,
		),
		sqlStep(db, 16, "create web_sources_fts index and sync triggers", `
			CREATE VIRTUAL TABLE IF NOT EXISTS web_sources_fts USING fts5(
				title, extracted_text, content='web_sources', content_rowid='rowid',
				tokenize='porter unicode61'
			)`,
			`CREATE TRIGGER IF NOT EXISTS web_sources_fts_ai AFTER INSERT ON web_sources BEGIN
				INSERT INTO web_sources_fts(rowid, title, extracted_text) VALUES (new.rowid, new.title, new.extracted_text);
			END`,
			`CREATE TRIGGER IF NOT EXISTS web_sources_fts_ad AFTER DELETE ON web_sources BEGIN
				INSERT INTO web_sources_fts(web_sources_fts, rowid, title, extracted_text) VALUES ('delete', old.rowid, old.title, old.extracted_text);
			END`,
			`CREATE TRIGGER IF NOT EXISTS web_sources_fts_au AFTER UPDATE ON web_sources BEGIN
				INSERT INTO web_sources_fts(web_sources_fts, rowid, title, extracted_text) VALUES ('delete', old.rowid, old.title, old.extracted_text);
				INSERT INTO web_sources_fts(rowid, title, extracted_text) VALUES (new.rowid, new.title, new.extracted_text);
			END`,
		),
	}
}
