package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'role_request_status') THEN
			CREATE TYPE role_request_status AS ENUM ('PENDING', 'APPROVED', 'REJECTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'report_kind') THEN
			CREATE TYPE report_kind AS ENUM ('MUNICIPAL', 'RENTAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS operators (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		document_id VARCHAR(32) NOT NULL,
		full_name VARCHAR(256) NOT NULL,
		license_class VARCHAR(16) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_operators_document_id ON operators (document_id);`,
	`CREATE TABLE IF NOT EXISTS machines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate VARCHAR(32) NOT NULL,
		type VARCHAR(32) NOT NULL,
		ownership VARCHAR(16) NOT NULL,
		material_kind VARCHAR(32),
		rental_company VARCHAR(256),
		hourly_rate NUMERIC(12,2),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_machines_plate ON machines (plate);`,
	`CREATE TABLE IF NOT EXISTS role_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL,
		requested_role VARCHAR(32) NOT NULL,
		status role_request_status NOT NULL DEFAULT 'PENDING',
		rejection_reason TEXT,
		decided_by_user_id UUID,
		decided_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_role_requests_user_id ON role_requests (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_role_requests_status ON role_requests (status);`,
	`CREATE TABLE IF NOT EXISTS usage_reports (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		kind report_kind NOT NULL,
		work_date DATE NOT NULL,
		machine_id UUID NOT NULL REFERENCES machines(id),
		variant VARCHAR(32),
		towed_plate VARCHAR(32),
		cargo_detail TEXT,
		operator_id UUID REFERENCES operators(id),
		rental_company VARCHAR(256),
		hourly_rate NUMERIC(12,2),
		activity VARCHAR(256) NOT NULL,
		district VARCHAR(64),
		road_code VARCHAR(8),
		start_time VARCHAR(5) NOT NULL,
		end_time VARCHAR(5) NOT NULL,
		total_hours NUMERIC(6,2) NOT NULL,
		ordinary_hours NUMERIC(6,2) NOT NULL,
		overtime_hours NUMERIC(6,2) NOT NULL,
		hourmeter_start NUMERIC(12,1),
		hourmeter_end NUMERIC(12,1),
		station_from NUMERIC(12,2),
		station_to NUMERIC(12,2),
		source_site VARCHAR(64),
		water_loads INTEGER,
		daily_total_m3 NUMERIC(12,2),
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_reports_work_date ON usage_reports (work_date);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_reports_machine_id ON usage_reports (machine_id);`,
	`CREATE INDEX IF NOT EXISTS idx_usage_reports_road_code ON usage_reports (road_code) WHERE road_code IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS ticket_entries (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		report_id UUID NOT NULL REFERENCES usage_reports(id) ON DELETE CASCADE,
		material_type VARCHAR(64) NOT NULL,
		cubic_meters NUMERIC(12,2) NOT NULL,
		source_site VARCHAR(64) NOT NULL,
		sub_source VARCHAR(128),
		ticket_number VARCHAR(6) NOT NULL,
		road_code VARCHAR(3) NOT NULL,
		district VARCHAR(64) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_entries_report_id ON ticket_entries (report_id);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		actor_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		entity_kind VARCHAR(64) NOT NULL,
		entity_id UUID NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_actor_id ON audit_log (actor_id);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_created_at ON audit_log (created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
