package model

import "time"

// VisitEvent records one successful redirect through a short code.
type VisitEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ShortCode string    `json:"short_code" gorm:"size:10;not null;index"`
	IP        string    `json:"ip" gorm:"size:64"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	Referer   string    `json:"referer" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

// TableName keeps visits next to the urls table.
func (VisitEvent) TableName() string {
	return "url_visits"
}

const (
	VisitStreamName     = "SHORTY_VISITS"
	VisitStreamSubject  = "shorty.visits"
	VisitConsumerName   = "visit-recorder"
	VisitStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
