package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	categoryRepo "servimatch/database/repository/category"
	providerRepo "servimatch/database/repository/provider"
	"servimatch/models"
	"servimatch/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultNearbyRadiusKm applies when a nearby search gives no radius.
const DefaultNearbyRadiusKm = 50.0

// MatchingService ranks providers for a request and answers nearby searches.
type MatchingService interface {
	MatchProviders(ctx context.Context, criteria models.MatchCriteria, maxResults int) (*models.MatchResponse, error)
	SearchNearby(ctx context.Context, categoryID int64, lat, lng, radiusKm float64) ([]models.NearbyProvider, error)
}

// DefaultMatchingService loads candidates from the provider directory and
// scores them with RankProviders. Results are cached in Redis when a client
// is configured.
type DefaultMatchingService struct {
	Providers    providerRepo.ProviderDirectory
	Categories   categoryRepo.CategoryDirectory
	CacheClient  *redis.Client
	CacheTTL     time.Duration
	Workers      int
	VerifiedOnly bool
	Logger       *zap.Logger
}

func (s *DefaultMatchingService) MatchProviders(ctx context.Context, criteria models.MatchCriteria, maxResults int) (*models.MatchResponse, error) {
	if err := validateCriteria(criteria); err != nil {
		return nil, err
	}

	cacheKey, keyErr := matchCacheKey(criteria, maxResults, s.VerifiedOnly)
	if keyErr == nil {
		if cached, ok := s.readCache(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	candidates, err := s.Providers.ListEligibleProviders(ctx, criteria.CategoryID, MinCredits, s.VerifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve providers: %w", err)
	}

	matches := RankProviders(criteria, candidates, maxResults, s.Workers)
	s.logger().Info("Matched providers",
		zap.Int64("categoryId", criteria.CategoryID),
		zap.Int("candidates", len(candidates)),
		zap.Int("matches", len(matches)))

	resp := &models.MatchResponse{
		CategoryID:   criteria.CategoryID,
		CategoryName: s.categoryName(ctx, criteria.CategoryID),
		Matches:      matches,
	}

	if keyErr == nil {
		s.writeCache(ctx, cacheKey, resp)
	}
	return resp, nil
}

// SearchNearby lists eligible providers within radiusKm of a point, nearest
// first. Providers without coordinates are skipped.
func (s *DefaultMatchingService) SearchNearby(ctx context.Context, categoryID int64, lat, lng, radiusKm float64) ([]models.NearbyProvider, error) {
	if categoryID <= 0 {
		return nil, models.InvalidArgument("categoryId", categoryID, "must be a positive integer")
	}
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return nil, models.InvalidArgument("lat", lat, "must be within [-90, 90]")
	}
	if lng < -180 || lng > 180 || math.IsNaN(lng) {
		return nil, models.InvalidArgument("lng", lng, "must be within [-180, 180]")
	}
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return nil, models.InvalidArgument("radiusKm", radiusKm, "must be a non-negative number")
	}
	if radiusKm == 0 {
		radiusKm = DefaultNearbyRadiusKm
	}

	candidates, err := s.Providers.ListEligibleProviders(ctx, categoryID, MinCredits, s.VerifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby providers: %w", err)
	}

	nearby := []models.NearbyProvider{}
	for _, p := range candidates {
		if !utils.HasCoordinates(p.Latitude, p.Longitude) {
			continue
		}
		d := utils.DistanceKm(&lat, &lng, p.Latitude, p.Longitude)
		if d > radiusKm {
			continue
		}
		nearby = append(nearby, models.NearbyProvider{
			Provider:   p,
			DistanceKm: math.Round(d*100) / 100,
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

func validateCriteria(c models.MatchCriteria) error {
	if c.CategoryID <= 0 {
		return models.InvalidArgument("categoryId", c.CategoryID, "must be a positive integer")
	}
	if (c.Latitude == nil) != (c.Longitude == nil) {
		return models.ValidationFailed("latitude", c.Latitude, "latitude and longitude must be given together")
	}
	if c.Latitude != nil && (*c.Latitude < -90 || *c.Latitude > 90) {
		return models.InvalidArgument("latitude", *c.Latitude, "must be within [-90, 90]")
	}
	if c.Longitude != nil && (*c.Longitude < -180 || *c.Longitude > 180) {
		return models.InvalidArgument("longitude", *c.Longitude, "must be within [-180, 180]")
	}
	return nil
}

// categoryName is best effort; a lookup failure only drops the name.
func (s *DefaultMatchingService) categoryName(ctx context.Context, categoryID int64) string {
	if s.Categories == nil {
		return ""
	}
	name, err := s.Categories.GetName(ctx, categoryID)
	if err != nil {
		if !errors.Is(err, categoryRepo.ErrCategoryNotFound) {
			s.logger().Warn("Category lookup failed", zap.Int64("categoryId", categoryID), zap.Error(err))
		}
		return ""
	}
	return name
}

func matchCacheKey(c models.MatchCriteria, maxResults int, verifiedOnly bool) (string, error) {
	keyBytes, err := json.Marshal(struct {
		Criteria     models.MatchCriteria `json:"c"`
		MaxResults   int                  `json:"m"`
		VerifiedOnly bool                 `json:"v"`
	}{c, maxResults, verifiedOnly})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%x", utils.MatchCachePrefix, keyBytes), nil
}

func (s *DefaultMatchingService) readCache(ctx context.Context, key string) (*models.MatchResponse, bool) {
	if s.CacheClient == nil {
		return nil, false
	}
	cached, err := s.CacheClient.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger().Warn("Match cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var resp models.MatchResponse
	if err := json.Unmarshal([]byte(cached), &resp); err != nil {
		// Fall through to re-computation.
		return nil, false
	}
	return &resp, true
}

func (s *DefaultMatchingService) writeCache(ctx context.Context, key string, resp *models.MatchResponse) {
	if s.CacheClient == nil || s.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.CacheClient.Set(ctx, key, payload, s.CacheTTL).Err(); err != nil {
		s.logger().Warn("Match cache write failed", zap.Error(err))
	}
}

func (s *DefaultMatchingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
