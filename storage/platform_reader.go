package storage

import (
	"context"
	"fmt"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/jmoiron/sqlx"
)

// PlatformReader loads credential sets and their linked properties. All of
// these tables are owned by the surrounding application; the scraper only
// reads them (plus one timestamp touch).
type PlatformReader struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewPlatformReader creates a new PlatformReader
func NewPlatformReader(db *sqlx.DB, logger *utils.Logger) *PlatformReader {
	return &PlatformReader{db: db, logger: logger}
}

// ActiveCredentialSets returns every active platform login for the given
// platform name, each with the properties reachable under it.
func (r *PlatformReader) ActiveCredentialSets(ctx context.Context, platformName string) ([]models.CredentialSet, error) {
	var sets []models.CredentialSet
	err := r.db.SelectContext(ctx, &sets, `
		SELECT hpp.id AS platform_id,
		       hpp.platform_name,
		       hpp.username,
		       hpp.password,
		       hpp.config,
		       hpp.last_scraped_at
		FROM hotel_pms_platforms hpp
		WHERE hpp.platform_name = $1
		  AND hpp.status = 'active'
		  AND hpp.username IS NOT NULL
		  AND hpp.password IS NOT NULL
		ORDER BY hpp.id`,
		platformName)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active platforms: %w", err)
	}

	for i := range sets {
		props, err := r.propertiesForPlatform(ctx, sets[i].PlatformID)
		if err != nil {
			return nil, err
		}
		sets[i].Properties = props
	}

	r.logger.Info("Found %d active %q platform(s)", len(sets), platformName)
	return sets, nil
}

// propertiesForPlatform returns the properties linked to one platform
// login, each with its most recent saleable-rooms snapshot.
func (r *PlatformReader) propertiesForPlatform(ctx context.Context, platformID int64) ([]models.Property, error) {
	var props []models.Property
	err := r.db.SelectContext(ctx, &props, `
		SELECT p.id,
		       p.uuid,
		       p.property_code,
		       p.hotel_name,
		       p.pms_id,
		       p.bfi_property_id,
		       pch.saleable_rooms
		FROM properties p
		INNER JOIN property_hotel_pms_platform php
		    ON p.id = php.property_id
		LEFT JOIN LATERAL (
		    SELECT saleable_rooms
		    FROM properties_characteristics_history
		    WHERE property_id = p.id
		    ORDER BY record_date DESC
		    LIMIT 1
		) pch ON true
		WHERE php.hotel_pms_platform_id = $1
		ORDER BY p.hotel_name`,
		platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch properties for platform %d: %w", platformID, err)
	}
	return props, nil
}

// TouchLastScraped stamps the platform after all its properties completed
func (r *PlatformReader) TouchLastScraped(ctx context.Context, platformID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE hotel_pms_platforms
		SET last_scraped_at = NOW()
		WHERE id = $1`,
		platformID)
	if err != nil {
		return fmt.Errorf("failed to update last_scraped_at for platform %d: %w", platformID, err)
	}
	return nil
}
