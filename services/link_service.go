package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"linktrackr/cache"
	"linktrackr/models"
)

var (
	ErrMissingURL  = errors.New("original URL is required")
	ErrInvalidURL  = errors.New("invalid URL format")
	ErrAliasTaken  = errors.New("custom alias already taken")
	ErrIDExhausted = errors.New("could not allocate identifier")
	ErrNotFound    = errors.New("link not found")
)

// LinkStore is the persistent document store holding Link records.
// Lookups for absent records return ErrNotFound.
type LinkStore interface {
	Insert(ctx context.Context, link *models.Link) error
	FindByShortID(ctx context.Context, shortID string) (*models.Link, error)
	FindOwned(ctx context.Context, shortID string, userID primitive.ObjectID) (*models.Link, error)
	DeleteOwned(ctx context.Context, shortID string, userID primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]models.LinkSummary, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Exists(ctx context.Context, shortID string) (bool, error)
	AppendClick(ctx context.Context, shortID string, click models.ClickEvent) error
}

// Pagination describes one page of a user's link listing.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalLinks  int64 `json:"totalLinks"`
	HasMore     bool  `json:"hasMore"`
}

// LinkService implements link creation, resolution, listing, analytics and
// deletion on top of an injected store and cache.
type LinkService struct {
	store LinkStore
	cache cache.Cache
}

func NewLinkService(store LinkStore, c cache.Cache) *LinkService {
	return &LinkService{store: store, cache: c}
}

// Create validates and normalizes originalURL, allocates a short identifier
// (the custom alias when given, a random one otherwise), persists the link
// and seeds the cache.
func (s *LinkService) Create(ctx context.Context, userID primitive.ObjectID, originalURL, customAlias string) (*models.Link, error) {
	normalized, err := NormalizeURL(originalURL)
	if err != nil {
		return nil, err
	}

	shortID := customAlias
	if customAlias != "" {
		taken, err := s.store.Exists(ctx, customAlias)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrAliasTaken
		}
	} else {
		shortID, err = s.allocateShortID(ctx)
		if err != nil {
			return nil, err
		}
	}

	link := &models.Link{
		ShortID:     shortID,
		OriginalURL: normalized,
		UserID:      userID,
		Clicks:      []models.ClickEvent{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, link); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, shortID, normalized)
	log.Info().Str("short_id", shortID).Str("url", normalized).Msg("link created")

	return link, nil
}

// allocateShortID draws random identifiers until one is free, giving up after
// the initial draw plus maxIDAttempts redraws.
func (s *LinkService) allocateShortID(ctx context.Context) (string, error) {
	for attempt := 0; attempt <= maxIDAttempts; attempt++ {
		shortID, err := GenerateShortID()
		if err != nil {
			return "", err
		}
		taken, err := s.store.Exists(ctx, shortID)
		if err != nil {
			return "", err
		}
		if !taken {
			return shortID, nil
		}
		log.Warn().Str("short_id", shortID).Int("attempt", attempt).Msg("generated id collided")
	}
	return "", ErrIDExhausted
}

// Resolve maps a short identifier to its destination URL: cache first, store
// on miss, populating the cache on the way out. Unknown ids return ErrNotFound.
func (s *LinkService) Resolve(ctx context.Context, shortID string) (string, error) {
	if url, ok := s.cache.Get(ctx, shortID); ok {
		return url, nil
	}

	link, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		return "", err
	}

	s.cache.Set(ctx, shortID, link.OriginalURL)
	return link.OriginalURL, nil
}

// RecordClick appends one click event to the link's history. Callers on the
// redirect path invoke it on a detached goroutine and only log failures.
func (s *LinkService) RecordClick(ctx context.Context, shortID, ip, userAgent, referrer string) error {
	if ip == "" {
		ip = "unknown"
	}
	if userAgent == "" {
		userAgent = "unknown"
	}
	if referrer == "" {
		referrer = "direct"
	}
	click := models.ClickEvent{
		IP:        ip,
		UserAgent: userAgent,
		Referrer:  referrer,
		Timestamp: time.Now().UTC(),
	}
	return s.store.AppendClick(ctx, shortID, click)
}

// List returns one page of the user's links, newest first, with total click
// counts but without the click histories themselves.
func (s *LinkService) List(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.LinkSummary, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	skip := int64(page-1) * int64(limit)

	links, err := s.store.ListByUser(ctx, userID, skip, int64(limit))
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pg := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalLinks:  total,
		HasMore:     skip+int64(len(links)) < total,
	}
	return links, pg, nil
}

// Analytics returns the owned link together with aggregates computed over its
// full click history. Unknown ids and foreign owners both yield ErrNotFound.
func (s *LinkService) Analytics(ctx context.Context, userID primitive.ObjectID, shortID string) (*models.Link, Analytics, error) {
	link, err := s.store.FindOwned(ctx, shortID, userID)
	if err != nil {
		return nil, Analytics{}, err
	}
	return link, ComputeAnalytics(link.Clicks), nil
}

// Delete removes an owned link and evicts its cache entry.
func (s *LinkService) Delete(ctx context.Context, userID primitive.ObjectID, shortID string) error {
	if err := s.store.DeleteOwned(ctx, shortID, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, shortID)
	log.Info().Str("short_id", shortID).Msg("link deleted")
	return nil
}
