package models

import (
	"time"

	"github.com/google/uuid"
)

// Property identifies one hotel reachable through a platform login. Owned
// by the surrounding application; the scraper only reads it.
type Property struct {
	ID            int64     `db:"id"`
	UUID          uuid.UUID `db:"uuid"`
	PropertyCode  string    `db:"property_code"`
	HotelName     string    `db:"hotel_name"`
	PMSID         *string   `db:"pms_id"`
	BFIPropertyID *string   `db:"bfi_property_id"`

	// Latest saleable-rooms snapshot from the characteristics history;
	// nil when the property has no snapshot yet.
	SaleableRooms *int `db:"saleable_rooms"`
}

// CredentialSet is one platform login plus the properties reachable under
// it. One browser session per credential set.
type CredentialSet struct {
	PlatformID    int64      `db:"platform_id"`
	PlatformName  string     `db:"platform_name"`
	Username      string     `db:"username"`
	Password      string     `db:"password"`
	ConfigJSON    *string    `db:"config"`
	LastScrapedAt *time.Time `db:"last_scraped_at"`

	Properties []Property
}
