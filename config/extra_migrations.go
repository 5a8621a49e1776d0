package config

import "gorm.io/gorm"

// CreateInFlightApplicationIndex backs the one-application-in-flight rule
// with a partial unique index, so two concurrent submissions by the same
// owner cannot both land. Postgres only.
func CreateInFlightApplicationIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_owner_in_flight
		ON applications (owner_id)
		WHERE deleted_at IS NULL
		AND status NOT IN ('draft', 'approved', 'rejected');
	`).Error
}

// CreateAuditAppendOnlyRule turns updates and deletes on the audit table into no-ops.
func CreateAuditAppendOnlyRule(db *gorm.DB) error {
	return db.Exec(`
		CREATE OR REPLACE RULE application_actions_no_update AS
		ON UPDATE TO application_actions DO INSTEAD NOTHING;
		CREATE OR REPLACE RULE application_actions_no_delete AS
		ON DELETE TO application_actions DO INSTEAD NOTHING;
	`).Error
}
