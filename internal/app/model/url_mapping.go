package model

import "time"

// URLMapping is a persisted short_code -> long_url association. Rows are
// written once and never updated or deleted.
type URLMapping struct {
	ID        int64     `db:"id" json:"id"`
	LongURL   string    `db:"long_url" json:"longUrl"`
	ShortCode string    `db:"short_code" json:"shortCode"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// MaxShortCodeLength mirrors the short_code VARCHAR(10) column.
const MaxShortCodeLength = 10
