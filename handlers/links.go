package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"linktrackr/auth"
	"linktrackr/services"
)

// clickTimeout bounds the detached click-append write; the redirect response
// never waits on it.
const clickTimeout = 5 * time.Second

type ShortenRequest struct {
	OriginalURL string `json:"originalUrl"`
	CustomAlias string `json:"customAlias"`
}

type LinkHandler struct {
	links *services.LinkService
}

func NewLinkHandler(links *services.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

// Shorten creates a new short link for the authenticated user.
// POST /api/shorten
func (h *LinkHandler) Shorten(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	link, err := h.links.Create(c.Request.Context(), userID, req.OriginalURL, req.CustomAlias)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingURL), errors.Is(err, services.ErrInvalidURL), errors.Is(err, services.ErrAliasTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrIDExhausted):
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("shorten failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while creating short URL"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Short URL created successfully",
		"data": gin.H{
			"shortId":     link.ShortID,
			"shortUrl":    baseURL(c) + "/" + link.ShortID,
			"originalUrl": link.OriginalURL,
			"createdAt":   link.CreatedAt,
		},
	})
}

// Redirect resolves a short id and answers with a permanent redirect. The
// click is recorded on a detached goroutine: failures are logged, never
// surfaced, and the response does not wait for the write.
// GET /:shortId
func (h *LinkHandler) Redirect(c *gin.Context) {
	shortID := c.Param("shortId")

	destination, err := h.links.Resolve(c.Request.Context(), shortID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Short URL not found"})
			return
		}
		log.Error().Err(err).Str("short_id", shortID).Msg("redirect failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during redirect"})
		return
	}

	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()
	referrer := c.Request.Referer()

	go func() {
		// Fresh context: the request context dies with the response.
		ctx, cancel := context.WithTimeout(context.Background(), clickTimeout)
		defer cancel()
		if err := h.links.RecordClick(ctx, shortID, ip, userAgent, referrer); err != nil {
			log.Error().Err(err).Str("short_id", shortID).Msg("failed to record click")
		}
	}()

	c.Redirect(http.StatusMovedPermanently, destination)
}

// List returns one page of the user's links, newest first.
// GET /api/links?page&limit
func (h *LinkHandler) List(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	links, pagination, err := h.links.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("list links failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching links"})
		return
	}

	base := baseURL(c)
	for i := range links {
		links[i].ShortURL = base + "/" + links[i].ShortID
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       links,
		"pagination": pagination,
	})
}

// Analytics reports aggregates over a single owned link's click history.
// GET /api/analytics/:shortId
func (h *LinkHandler) Analytics(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	shortID := c.Param("shortId")

	link, analytics, err := h.links.Analytics(c.Request.Context(), userID, shortID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found or unauthorized"})
			return
		}
		log.Error().Err(err).Str("short_id", shortID).Msg("analytics failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while fetching analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"shortId":     link.ShortID,
			"originalUrl": link.OriginalURL,
			"shortUrl":    baseURL(c) + "/" + link.ShortID,
			"createdAt":   link.CreatedAt,
			"analytics":   analytics,
		},
	})
}

// Delete removes an owned link and evicts it from the cache.
// DELETE /api/links/:shortId
func (h *LinkHandler) Delete(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	shortID := c.Param("shortId")

	if err := h.links.Delete(c.Request.Context(), userID, shortID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found or unauthorized"})
			return
		}
		log.Error().Err(err).Str("short_id", shortID).Msg("delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while deleting link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Link deleted successfully",
	})
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
