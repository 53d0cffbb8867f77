package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"linktrackr/auth"
	"linktrackr/cache"
	"linktrackr/models"
	"linktrackr/services"
)

// stubStore implements services.LinkStore in memory.
type stubStore struct {
	mu    sync.Mutex
	links map[string]*models.Link
}

func newStubStore() *stubStore {
	return &stubStore{links: make(map[string]*models.Link)}
}

func (s *stubStore) Insert(_ context.Context, link *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *link
	s.links[link.ShortID] = &cp
	return nil
}

func (s *stubStore) FindByShortID(_ context.Context, shortID string) (*models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[shortID]
	if !ok {
		return nil, services.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *stubStore) FindOwned(_ context.Context, shortID string, userID primitive.ObjectID) (*models.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[shortID]
	if !ok || link.UserID != userID {
		return nil, services.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *stubStore) DeleteOwned(_ context.Context, shortID string, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[shortID]
	if !ok || link.UserID != userID {
		return services.ErrNotFound
	}
	delete(s.links, shortID)
	return nil
}

func (s *stubStore) ListByUser(_ context.Context, userID primitive.ObjectID, skip, limit int64) ([]models.LinkSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []*models.Link
	for _, link := range s.links {
		if link.UserID == userID {
			owned = append(owned, link)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	var out []models.LinkSummary
	for i := skip; i < int64(len(owned)) && int64(len(out)) < limit; i++ {
		out = append(out, models.LinkSummary{
			ShortID:     owned[i].ShortID,
			OriginalURL: owned[i].OriginalURL,
			TotalClicks: int64(len(owned[i].Clicks)),
			CreatedAt:   owned[i].CreatedAt,
		})
	}
	return out, nil
}

func (s *stubStore) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, link := range s.links {
		if link.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) Exists(_ context.Context, shortID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[shortID]
	return ok, nil
}

func (s *stubStore) AppendClick(_ context.Context, shortID string, click models.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[shortID]
	if !ok {
		return services.ErrNotFound
	}
	link.Clicks = append(link.Clicks, click)
	return nil
}

func (s *stubStore) clickCount(shortID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link, ok := s.links[shortID]; ok {
		return len(link.Clicks)
	}
	return 0
}

// newTestRouter wires the real service and handlers onto a stub store, with a
// middleware that pretends userID already authenticated.
func newTestRouter(userID primitive.ObjectID) (*gin.Engine, *stubStore) {
	gin.SetMode(gin.TestMode)

	store := newStubStore()
	svc := services.NewLinkService(store, cache.NewMemory())
	h := NewLinkHandler(svc)

	asUser := func(c *gin.Context) {
		auth.SetUserID(c, userID)
		c.Next()
	}

	router := gin.New()
	api := router.Group("/api", asUser)
	{
		api.POST("/shorten", h.Shorten)
		api.GET("/links", h.List)
		api.GET("/analytics/:shortId", h.Analytics)
		api.DELETE("/links/:shortId", h.Delete)
	}
	router.GET("/:shortId", h.Redirect)

	return router, store
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestShortenWithCustomAlias(t *testing.T) {
	router, _ := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{
		"originalUrl": "example.com/page",
		"customAlias": "demo",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			ShortID     string `json:"shortId"`
			ShortURL    string `json:"shortUrl"`
			OriginalURL string `json:"originalUrl"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "demo", resp.Data.ShortID)
	assert.Equal(t, "https://example.com/page", resp.Data.OriginalURL)
	assert.Contains(t, resp.Data.ShortURL, "/demo")
}

func TestShortenAliasTaken(t *testing.T) {
	router, _ := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "first.com", "customAlias": "demo"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "second.com", "customAlias": "demo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "custom alias already taken")
}

func TestShortenRejectsMissingURL(t *testing.T) {
	router, _ := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"customAlias": "demo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedirectAndClickLogging(t *testing.T) {
	router, store := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "example.com/page", "customAlias": "demo"})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/demo", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0)")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://example.com/page", rec.Header().Get("Location"))

	// The click append runs on a detached goroutine.
	assert.Eventually(t, func() bool {
		return store.clickCount("demo") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedirectUnknownID(t *testing.T) {
	router, _ := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodGet, "/nope123", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Short URL not found")
}

func TestAnalyticsAfterRedirects(t *testing.T) {
	router, store := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "example.com", "customAlias": "stats"})
	require.Equal(t, http.StatusCreated, rec.Code)

	const n = 3
	for i := 0; i < n; i++ {
		r := httptest.NewRequest(http.MethodGet, "/stats", nil)
		r.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh)")
		router.ServeHTTP(httptest.NewRecorder(), r)
	}
	require.Eventually(t, func() bool {
		return store.clickCount("stats") == n
	}, 2*time.Second, 10*time.Millisecond)

	rec = doJSON(router, http.MethodGet, "/api/analytics/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ShortID   string `json:"shortId"`
			Analytics struct {
				TotalClicks     int                 `json:"totalClicks"`
				ClicksByDate    map[string]int      `json:"clicksByDate"`
				DeviceBreakdown map[string]int      `json:"deviceBreakdown"`
				RecentClicks    []models.ClickEvent `json:"recentClicks"`
			} `json:"analytics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, n, resp.Data.Analytics.TotalClicks)
	assert.Equal(t, n, resp.Data.Analytics.DeviceBreakdown["Desktop"])
	assert.Len(t, resp.Data.Analytics.RecentClicks, n)
}

func TestAnalyticsWrongOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	router, store := newTestRouter(owner)

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "example.com", "customAlias": "mine"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same store, different authenticated user.
	strangerRouter := routerForStore(store, primitive.NewObjectID())
	rec = doJSON(strangerRouter, http.MethodGet, "/api/analytics/mine", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Link not found or unauthorized")
}

func TestDeleteWrongOwnerLeavesLinkIntact(t *testing.T) {
	owner := primitive.NewObjectID()
	router, store := newTestRouter(owner)

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "example.com", "customAlias": "keep"})
	require.Equal(t, http.StatusCreated, rec.Code)

	strangerRouter := routerForStore(store, primitive.NewObjectID())
	rec = doJSON(strangerRouter, http.MethodDelete, "/api/links/keep", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still resolvable.
	rec = doJSON(router, http.MethodGet, "/keep", nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}

func TestDeleteThenAnalytics(t *testing.T) {
	router, _ := newTestRouter(primitive.NewObjectID())

	rec := doJSON(router, http.MethodPost, "/api/shorten", gin.H{"originalUrl": "example.com", "customAlias": "gone"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/api/links/gone", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Link deleted successfully")

	rec = doJSON(router, http.MethodGet, "/api/analytics/gone", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPaginationEnvelope(t *testing.T) {
	userID := primitive.NewObjectID()
	router, store := newTestRouter(userID)

	base := time.Now().UTC()
	for i := 0; i < 15; i++ {
		require.NoError(t, store.Insert(context.Background(), &models.Link{
			ShortID:     fmt.Sprintf("link%03d", i),
			OriginalURL: "https://example.com",
			UserID:      userID,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}))
	}

	rec := doJSON(router, http.MethodGet, "/api/links?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success    bool                 `json:"success"`
		Data       []models.LinkSummary `json:"data"`
		Pagination services.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, 2, resp.Pagination.CurrentPage)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Equal(t, int64(15), resp.Pagination.TotalLinks)
	assert.False(t, resp.Pagination.HasMore)
	for _, item := range resp.Data {
		assert.Contains(t, item.ShortURL, "/"+item.ShortID)
	}
}

// routerForStore builds a router around an existing store with a different
// authenticated user.
func routerForStore(store *stubStore, userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := services.NewLinkService(store, cache.NewMemory())
	h := NewLinkHandler(svc)

	router := gin.New()
	api := router.Group("/api", func(c *gin.Context) {
		auth.SetUserID(c, userID)
		c.Next()
	})
	{
		api.POST("/shorten", h.Shorten)
		api.GET("/links", h.List)
		api.GET("/analytics/:shortId", h.Analytics)
		api.DELETE("/links/:shortId", h.Delete)
	}
	router.GET("/:shortId", h.Redirect)
	return router
}
