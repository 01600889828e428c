// Package store provides SQLite-backed persistence for assettrack.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/railtms/assettrack/internal/models"
)

// ErrAssetNotFound indicates no asset exists with the given uid.
var ErrAssetNotFound = errors.New("asset not found")

// ErrMissingUID indicates a write without a primary key.
var ErrMissingUID = errors.New("asset uid is required")

// Store provides access to the assettrack SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL so report reads do not block inspection writes
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		uid TEXT PRIMARY KEY,
		asset_type TEXT,
		item_type TEXT,
		zone TEXT,
		division TEXT,
		vendor_name TEXT,
		condition_lot TEXT,
		remarks TEXT,
		warranty_expiry TEXT,
		last_inspection TEXT,
		latitude REAL,
		longitude REAL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		uid TEXT NOT NULL,
		warranty_expiry TEXT NOT NULL,
		days_left INTEGER NOT NULL,
		scan_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pdr (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		subject_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_vendor ON assets(vendor_name);
	CREATE INDEX IF NOT EXISTS idx_assets_type ON assets(asset_type);
	CREATE INDEX IF NOT EXISTS idx_assets_warranty ON assets(warranty_expiry);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Asset Operations ---

const assetColumns = `uid, asset_type, item_type, zone, division, vendor_name, condition_lot, remarks,
	warranty_expiry, last_inspection, latitude, longitude, created_at, updated_at`

// AssetFilter narrows ListAssets. Empty fields match everything.
type AssetFilter struct {
	VendorName string
	AssetType  string
}

// UpsertAsset inserts an asset or replaces every field of an existing one.
func (s *Store) UpsertAsset(ctx context.Context, a *models.AssetRecord) error {
	if strings.TrimSpace(a.UID) == "" {
		return ErrMissingUID
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
			asset_type = excluded.asset_type,
			item_type = excluded.item_type,
			zone = excluded.zone,
			division = excluded.division,
			vendor_name = excluded.vendor_name,
			condition_lot = excluded.condition_lot,
			remarks = excluded.remarks,
			warranty_expiry = excluded.warranty_expiry,
			last_inspection = excluded.last_inspection,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at`,
		a.UID, nullString(a.AssetType), nullString(a.ItemType), nullString(a.Zone), nullString(a.Division),
		nullString(a.VendorName), nullString(a.ConditionLot), nullString(a.Remarks),
		nullDate(a.WarrantyExpiry), nullDate(a.LastInspection), nullFloat(a.Latitude), nullFloat(a.Longitude),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert asset %s: %w", a.UID, err)
	}
	return nil
}

// GetAsset retrieves an asset by uid. It returns nil, nil when none exists.
func (s *Store) GetAsset(ctx context.Context, uid string) (*models.AssetRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE uid = ?`, uid)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query asset: %w", err)
	}
	return a, nil
}

// ListAssets returns assets matching filter, ordered by uid descending.
func (s *Store) ListAssets(ctx context.Context, filter AssetFilter) ([]models.AssetRecord, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE uid IS NOT NULL AND uid != ''`
	var args []interface{}

	if filter.VendorName != "" {
		query += ` AND vendor_name = ?`
		args = append(args, filter.VendorName)
	}
	if filter.AssetType != "" {
		query += ` AND asset_type = ?`
		args = append(args, filter.AssetType)
	}
	query += ` ORDER BY uid DESC`

	return s.queryAssets(ctx, query, args...)
}

// ListWithWarranty returns every asset that has a warranty expiry date.
func (s *Store) ListWithWarranty(ctx context.Context) ([]models.AssetRecord, error) {
	return s.queryAssets(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE warranty_expiry IS NOT NULL AND warranty_expiry != '' ORDER BY uid`)
}

func (s *Store) queryAssets(ctx context.Context, query string, args ...interface{}) ([]models.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []models.AssetRecord
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// UpdateInspection applies an inspector's update to an existing asset and returns
// the stored record. Empty optional values are stored as NULL.
func (s *Store) UpdateInspection(ctx context.Context, uid string, u models.InspectionUpdate) (*models.AssetRecord, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET condition_lot = ?, remarks = ?, last_inspection = ?, latitude = ?, longitude = ?, updated_at = ?
		 WHERE uid = ?`,
		nullString(u.ConditionLot), nullString(u.Remarks), nullDate(u.LastInspection),
		nullFloat(u.Latitude), nullFloat(u.Longitude), time.Now().UTC(), uid,
	)
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrAssetNotFound
	}
	return s.GetAsset(ctx, uid)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row rowScanner) (*models.AssetRecord, error) {
	var a models.AssetRecord
	var assetType, itemType, zone, division, vendor, cond, remarks, warranty, inspected sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(&a.UID, &assetType, &itemType, &zone, &division, &vendor, &cond, &remarks,
		&warranty, &inspected, &lat, &lng, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.AssetType = assetType.String
	a.ItemType = itemType.String
	a.Zone = zone.String
	a.Division = division.String
	a.VendorName = vendor.String
	a.ConditionLot = cond.String
	a.Remarks = remarks.String
	// An unparseable stored date is treated as absent rather than failing the read.
	a.WarrantyExpiry = parseDate(warranty)
	a.LastInspection = parseDate(inspected)
	if lat.Valid {
		a.Latitude = &lat.Float64
	}
	if lng.Valid {
		a.Longitude = &lng.Float64
	}
	return &a, nil
}

// --- Alert Operations ---

// RecordAlert appends an expiry alert.
func (s *Store) RecordAlert(ctx context.Context, alert models.ExpiryAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, uid, warranty_expiry, days_left, scan_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.UID, alert.WarrantyExpiry.Format(models.DateLayout), alert.DaysLeft, alert.ScanID, alert.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListAlerts returns the most recent alerts, newest first.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]models.ExpiryAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uid, warranty_expiry, days_left, scan_id, created_at FROM alerts ORDER BY created_at DESC, uid LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.ExpiryAlert
	for rows.Next() {
		var a models.ExpiryAlert
		var expiry string
		if err := rows.Scan(&a.ID, &a.UID, &expiry, &a.DaysLeft, &a.ScanID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if t, err := time.Parse(models.DateLayout, expiry); err == nil {
			a.WarrantyExpiry = t
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// --- PDR Operations ---

// WritePDR writes a Process Decision Record.
func (s *Store) WritePDR(action, inputsHash, outcome, subjectID, details string) (*models.PDREntry, error) {
	pdr := &models.PDREntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		SubjectID:  subjectID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO pdr (id, action, inputs_hash, outcome, subject_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pdr.ID, pdr.Action, pdr.InputsHash, pdr.Outcome, pdr.SubjectID, pdr.Details, pdr.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pdr: %w", err)
	}
	return pdr, nil
}

// ListPDR returns decision records for action (all actions when empty), newest first.
func (s *Store) ListPDR(action string, limit int) ([]models.PDREntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, action, inputs_hash, outcome, subject_id, details, timestamp FROM pdr`
	var args []interface{}
	if action != "" {
		query += ` WHERE action = ?`
		args = append(args, action)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pdr: %w", err)
	}
	defer rows.Close()

	var entries []models.PDREntry
	for rows.Next() {
		var e models.PDREntry
		var subject, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &subject, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan pdr: %w", err)
		}
		e.SubjectID = subject.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Helpers ---

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(models.DateLayout), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(models.DateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
