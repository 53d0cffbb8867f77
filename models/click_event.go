package models

import "time"

// ClickEvent is one recorded visit to a short link.
type ClickEvent struct {
	IP        string    `bson:"ip" json:"ip"`
	UserAgent string    `bson:"userAgent" json:"userAgent"`
	Referrer  string    `bson:"referrer" json:"referrer"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
