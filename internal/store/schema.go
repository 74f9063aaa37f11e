package store

import (
	"strconv"
	"strings"
)

// Dialect selects driver-specific SQL.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, true
	case "pgx", "postgres", "postgresql":
		return Postgres, true
	}
	return 0, false
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders to $N for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) schema() string {
	pk, boolean := "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER"
	if d == Postgres {
		pk, boolean = "BIGSERIAL PRIMARY KEY", "BOOLEAN"
	}
	r := strings.NewReplacer("{pk}", pk, "{bool}", boolean)
	return r.Replace(`
CREATE TABLE IF NOT EXISTS courses (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  langcode TEXT NOT NULL DEFAULT '',
  label TEXT NOT NULL DEFAULT '',
  badge_active {bool} NOT NULL DEFAULT FALSE,
  badge_criteria TEXT NOT NULL DEFAULT '',
  badge_name TEXT NOT NULL DEFAULT '',
  badge_description TEXT NOT NULL DEFAULT '',
  guided_navigation {bool} NOT NULL DEFAULT FALSE,
  description TEXT NOT NULL DEFAULT '',
  description_format TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS modules (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  langcode TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  status {bool} NOT NULL DEFAULT FALSE,
  random_activity_score INTEGER NOT NULL DEFAULT 0,
  allow_resume {bool} NOT NULL DEFAULT FALSE,
  backwards_navigation {bool} NOT NULL DEFAULT FALSE,
  randomization INTEGER NOT NULL DEFAULT 0,
  random_activities INTEGER NOT NULL DEFAULT 0,
  takes INTEGER NOT NULL DEFAULT 0,
  show_attempt_stats {bool} NOT NULL DEFAULT FALSE,
  keep_results INTEGER NOT NULL DEFAULT 0,
  hide_results {bool} NOT NULL DEFAULT FALSE,
  badge_active {bool} NOT NULL DEFAULT FALSE,
  badge_criteria TEXT NOT NULL DEFAULT '',
  badge_name TEXT NOT NULL DEFAULT '',
  badge_description TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  description_format TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS group_content (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  group_id BIGINT NOT NULL,
  entity_id BIGINT NOT NULL,
  plugin_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS managed_content (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  group_id BIGINT NOT NULL,
  content_type_id TEXT NOT NULL DEFAULT '',
  entity_id BIGINT NOT NULL,
  success_score_min INTEGER NOT NULL DEFAULT 0,
  is_mandatory {bool} NOT NULL DEFAULT FALSE,
  coordinate_x INTEGER NOT NULL DEFAULT 0,
  coordinate_y INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS managed_links (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  group_id BIGINT NOT NULL,
  parent_content_id BIGINT NOT NULL,
  child_content_id BIGINT NOT NULL,
  required_score INTEGER NOT NULL DEFAULT 0,
  required_activities TEXT
);

CREATE TABLE IF NOT EXISTS activities (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  langcode TEXT NOT NULL DEFAULT '',
  status {bool} NOT NULL DEFAULT FALSE,
  body TEXT NOT NULL DEFAULT '',
  body_format TEXT NOT NULL DEFAULT '',
  evaluation_method INTEGER NOT NULL DEFAULT 0,
  allowed_extension TEXT NOT NULL DEFAULT '',
  attachment_field TEXT,
  attachment_target_id BIGINT,
  attachment_display {bool},
  h5p_content_id BIGINT
);

CREATE TABLE IF NOT EXISTS module_activities (
  module_id BIGINT NOT NULL,
  activity_id BIGINT NOT NULL,
  weight INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (module_id, activity_id)
);

CREATE TABLE IF NOT EXISTS files (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  owner_id BIGINT NOT NULL DEFAULT 0,
  filename TEXT NOT NULL DEFAULT '',
  uri TEXT NOT NULL,
  status INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS media (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  bundle TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  file_id BIGINT NOT NULL,
  owner_id BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS h5p_content (
  id {pk},
  uuid TEXT NOT NULL UNIQUE,
  library_id BIGINT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  parameters TEXT NOT NULL DEFAULT '',
  filtered_parameters TEXT NOT NULL DEFAULT '',
  disabled_features INTEGER NOT NULL DEFAULT 0,
  authors TEXT NOT NULL DEFAULT '[]',
  changes TEXT NOT NULL DEFAULT '[]',
  license TEXT NOT NULL DEFAULT 'U'
);

CREATE TABLE IF NOT EXISTS h5p_libraries (
  id {pk},
  machine_name TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  major_version INTEGER NOT NULL,
  minor_version INTEGER NOT NULL,
  patch_version INTEGER NOT NULL,
  runnable {bool} NOT NULL DEFAULT FALSE,
  embed_types TEXT NOT NULL DEFAULT '',
  preloaded_js TEXT NOT NULL DEFAULT '',
  preloaded_css TEXT NOT NULL DEFAULT '',
  UNIQUE (machine_name, major_version, minor_version, patch_version)
);
CREATE INDEX IF NOT EXISTS idx_h5p_libraries_machine_name ON h5p_libraries (machine_name);

CREATE TABLE IF NOT EXISTS h5p_content_libraries (
  content_id BIGINT NOT NULL,
  library_id BIGINT NOT NULL,
  dependency_type TEXT NOT NULL,
  drop_css {bool} NOT NULL DEFAULT FALSE,
  weight INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_h5p_content_libraries_content_id ON h5p_content_libraries (content_id);
`)
}
