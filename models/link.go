package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Link is one shortened URL. Click events are embedded in the document and
// only ever appended; ExpiresAt is carried in the schema but no code acts on it.
type Link struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ShortID     string             `bson:"shortId" json:"shortId"`
	OriginalURL string             `bson:"originalUrl" json:"originalUrl"`
	UserID      primitive.ObjectID `bson:"userId" json:"-"`
	Clicks      []ClickEvent       `bson:"clicks" json:"clicks,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt   *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

func (l *Link) TotalClicks() int {
	return len(l.Clicks)
}

// LinkSummary is a Link as it appears in listings: no click history, only the
// count. ShortURL is derived from the request host, not stored.
type LinkSummary struct {
	ShortID     string    `bson:"shortId" json:"shortId"`
	OriginalURL string    `bson:"originalUrl" json:"originalUrl"`
	ShortURL    string    `bson:"-" json:"shortUrl"`
	TotalClicks int64     `bson:"totalClicks" json:"totalClicks"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
