package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered schema history. Append only; never edit an
// applied entry.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "001_core_tables",
		SQL: `
			CREATE TABLE IF NOT EXISTS places (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				name TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				radius_meters REAL NOT NULL DEFAULT 100,
				category TEXT NOT NULL DEFAULT 'other',
				address TEXT NOT NULL DEFAULT '',
				is_auto_detected INTEGER NOT NULL DEFAULT 0,
				is_confirmed INTEGER NOT NULL DEFAULT 1,
				visit_count INTEGER NOT NULL DEFAULT 0,
				total_dwell_minutes REAL NOT NULL DEFAULT 0,
				first_visited INTEGER,
				last_visited INTEGER,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_places_uid ON places(uid);
			CREATE INDEX IF NOT EXISTS idx_places_uid_category ON places(uid, category);

			CREATE TABLE IF NOT EXISTS place_visits (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				entered_at INTEGER NOT NULL,
				exited_at INTEGER,
				dwell_minutes REAL,
				day_of_week INTEGER NOT NULL,
				is_routine INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_visits_open ON place_visits(uid) WHERE exited_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_visits_place ON place_visits(place_id, entered_at);
			CREATE INDEX IF NOT EXISTS idx_visits_uid_entered ON place_visits(uid, entered_at);

			CREATE TABLE IF NOT EXISTS location_fixes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				uid TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				accuracy REAL NOT NULL DEFAULT 0,
				speed REAL NOT NULL DEFAULT 0,
				motion TEXT NOT NULL DEFAULT '',
				battery_level REAL NOT NULL DEFAULT 0,
				device_id TEXT NOT NULL DEFAULT '',
				recorded_at INTEGER NOT NULL,
				created_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_fixes_uid_recorded ON location_fixes(uid, recorded_at);
		`,
	},
	{
		Version: 2,
		Name:    "002_tags_triggers_lists",
		SQL: `
			CREATE TABLE IF NOT EXISTS tags (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				name TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_uid_name ON tags(uid, name);

			CREATE TABLE IF NOT EXISTS place_tags (
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (place_id, tag_id)
			);

			CREATE TABLE IF NOT EXISTS place_triggers (
				id TEXT PRIMARY KEY,
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				trigger_type TEXT NOT NULL,
				action_type TEXT NOT NULL,
				payload TEXT NOT NULL DEFAULT '',
				enabled INTEGER NOT NULL DEFAULT 1,
				cooldown_minutes INTEGER NOT NULL DEFAULT 0,
				last_fired_at INTEGER,
				created_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_triggers_place ON place_triggers(place_id, trigger_type);

			CREATE TABLE IF NOT EXISTS place_lists (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				color TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);

			CREATE TABLE IF NOT EXISTS place_list_members (
				list_id TEXT NOT NULL REFERENCES place_lists(id) ON DELETE CASCADE,
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				position INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (list_id, place_id)
			);

			CREATE TABLE IF NOT EXISTS place_memory_links (
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				memory_id TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				PRIMARY KEY (place_id, memory_id)
			);
		`,
	},
	{
		Version: 3,
		Name:    "003_caches_and_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS place_suggestions (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				suggested_radius_m REAL NOT NULL DEFAULT 100,
				visit_count INTEGER NOT NULL,
				fix_count INTEGER NOT NULL,
				suggested_category TEXT NOT NULL DEFAULT 'other',
				first_seen INTEGER NOT NULL,
				last_seen INTEGER NOT NULL,
				min_visits INTEGER NOT NULL,
				days_back INTEGER NOT NULL,
				computed_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_suggestions_uid ON place_suggestions(uid, computed_at);

			CREATE TABLE IF NOT EXISTS routines (
				id TEXT PRIMARY KEY,
				uid TEXT NOT NULL,
				place_id TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
				place_name TEXT NOT NULL,
				day_of_week INTEGER NOT NULL,
				hour INTEGER NOT NULL,
				occurrence_count INTEGER NOT NULL,
				confidence REAL NOT NULL,
				band TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				days_back INTEGER NOT NULL,
				computed_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_routines_uid ON routines(uid, computed_at);
			CREATE INDEX IF NOT EXISTS idx_routines_slot ON routines(uid, day_of_week, hour);

			CREATE TABLE IF NOT EXISTS job_runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				job_name TEXT NOT NULL,
				mode TEXT NOT NULL DEFAULT 'FULL_RECOMPUTE',
				uid TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				progress_percent INTEGER NOT NULL DEFAULT 0,
				total_items INTEGER NOT NULL DEFAULT 0,
				processed_items INTEGER NOT NULL DEFAULT 0,
				skipped_items INTEGER NOT NULL DEFAULT 0,
				result_summary TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				created_at INTEGER NOT NULL,
				started_at INTEGER,
				completed_at INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_job_runs_name ON job_runs(job_name, created_at);
		`,
	},
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db *sql.DB
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// InitMigrationsTable creates the migrations tracking table
func (m *MigrationManager) InitMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *MigrationManager) GetAppliedMigrations() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}

// ApplyMigration applies a single migration
func (m *MigrationManager) ApplyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if _, err = tx.Exec(migration.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
	}

	_, err = tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", migration.Version, migration.Name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}

	log.Printf("Applied migration %d: %s", migration.Version, migration.Name)
	return nil
}

// RunMigrations runs all pending migrations
func (m *MigrationManager) RunMigrations() error {
	if err := m.InitMigrationsTable(); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations()
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		if err := m.ApplyMigration(migration); err != nil {
			return err
		}
	}

	return nil
}
