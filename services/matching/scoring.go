package matching

import (
	"math"
	"runtime"
	"sort"
	"strings"

	"servimatch/models"
	"servimatch/utils"

	"golang.org/x/sync/errgroup"
)

// Scoring weights. They sum to 1.0.
const (
	WeightCategory     = 0.25
	WeightLocation     = 0.20
	WeightQuality      = 0.20
	WeightAvailability = 0.15
	WeightResponseTime = 0.10
	WeightCredits      = 0.10
)

// MinCredits is the credit floor for a provider to be matched at all.
const MinCredits = 1

const (
	reasonHighlyRated = "Highly rated"
	reasonNearby      = "Nearby"
	reasonFast        = "Fast response"
	reasonAvailable   = "Available now"
	reasonVerified    = "Verified professional"
	reasonFallback    = "Good match for your request"

	maxReasons      = 2
	reasonThreshold = 80.0
)

// FindMatches ranks providers against a request. Ineligible providers are
// dropped silently. maxResults <= 0 returns every eligible provider.
func FindMatches(req models.MatchCriteria, providers []models.ServiceProvider, maxResults int) []models.MatchScore {
	return RankProviders(req, providers, maxResults, 0)
}

// RankProviders is FindMatches with an explicit bound on scoring goroutines.
// workers <= 0 uses GOMAXPROCS.
func RankProviders(req models.MatchCriteria, providers []models.ServiceProvider, maxResults, workers int) []models.MatchScore {
	eligible := make([]models.ServiceProvider, 0, len(providers))
	for _, p := range providers {
		if IsEligible(req, p) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return []models.MatchScore{}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Each goroutine writes its own index, so results keep encounter order.
	scores := make([]models.MatchScore, len(eligible))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range eligible {
		g.Go(func() error {
			scores[i] = ScoreProvider(req, eligible[i])
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if maxResults > 0 && len(scores) > maxResults {
		scores = scores[:maxResults]
	}
	return scores
}

// IsEligible reports whether p may be matched to req.
func IsEligible(req models.MatchCriteria, p models.ServiceProvider) bool {
	return p.Credits >= MinCredits && p.ServesCategory(req.CategoryID)
}

// ScoreProvider computes the full MatchScore for one provider.
func ScoreProvider(req models.MatchCriteria, p models.ServiceProvider) models.MatchScore {
	breakdown := models.ScoreBreakdown{
		Category:     CategoryScore(req, p),
		Location:     LocationScore(req, p),
		Quality:      QualityScore(p),
		Availability: AvailabilityScore(req, p),
		ResponseTime: ResponseTimeScore(p.ResponseTimeHours),
		Credits:      CreditsScore(p.Credits),
	}

	total := breakdown.Category*WeightCategory +
		breakdown.Location*WeightLocation +
		breakdown.Quality*WeightQuality +
		breakdown.Availability*WeightAvailability +
		breakdown.ResponseTime*WeightResponseTime +
		breakdown.Credits*WeightCredits

	score := models.MatchScore{
		ProviderID:            p.ID,
		Score:                 clampScore(int(math.Round(total))),
		Breakdown:             breakdown,
		EstimatedResponseTime: EstimateResponseTime(p.ResponseTimeHours),
		Reasons:               Reasons(breakdown, p.IsVerified),
	}
	if utils.HasCoordinates(req.Latitude, req.Longitude) && utils.HasCoordinates(p.Latitude, p.Longitude) {
		d := math.Round(utils.DistanceKm(req.Latitude, req.Longitude, p.Latitude, p.Longitude)*100) / 100
		score.DistanceKm = &d
	}
	return score
}

func CategoryScore(req models.MatchCriteria, p models.ServiceProvider) float64 {
	if p.ServesCategory(req.CategoryID) {
		return 100
	}
	return 0
}

// LocationScore falls back to a city comparison when either side has no coordinates.
func LocationScore(req models.MatchCriteria, p models.ServiceProvider) float64 {
	if !utils.HasCoordinates(req.Latitude, req.Longitude) || !utils.HasCoordinates(p.Latitude, p.Longitude) {
		if sameCity(req.City, p.City) {
			return 90
		}
		return 50
	}

	d := utils.DistanceKm(req.Latitude, req.Longitude, p.Latitude, p.Longitude)
	switch {
	case d <= 5:
		return 100
	case d <= 10:
		return 85
	case d <= 20:
		return 70
	case d <= 50:
		return 50
	default:
		return 20
	}
}

func sameCity(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// QualityScore combines verification, rating and job history. A zero rating
// counts as unrated.
func QualityScore(p models.ServiceProvider) float64 {
	var score float64
	if p.IsVerified {
		score += 30
	}

	if p.Rating != nil && *p.Rating > 0 {
		r := math.Min(*p.Rating, 5)
		score += (r / 5) * 50
	} else {
		score += 25
	}

	jobs := 0
	if p.CompletedJobs != nil {
		jobs = *p.CompletedJobs
	}
	switch {
	case jobs >= 50:
		score += 20
	case jobs >= 20:
		score += 15
	case jobs >= 5:
		score += 10
	default:
		score += 5
	}

	return math.Min(score, 100)
}

func AvailabilityScore(req models.MatchCriteria, p models.ServiceProvider) float64 {
	if p.IsAvailable == nil {
		return 50
	}

	var score float64
	available := *p.IsAvailable
	switch {
	case available && req.IsUrgent:
		score = 60 + 40
	case available:
		score = 60 + 30
	case req.IsUrgent:
		score = 20 + 10
	default:
		score = 20 + 30
	}
	return math.Min(score, 100)
}

func ResponseTimeScore(hours *float64) float64 {
	if hours == nil {
		return 60
	}
	switch h := *hours; {
	case h <= 1:
		return 100
	case h <= 4:
		return 85
	case h <= 12:
		return 70
	case h <= 24:
		return 50
	default:
		return 30
	}
}

func CreditsScore(credits int) float64 {
	switch {
	case credits >= 20:
		return 100
	case credits >= 10:
		return 80
	case credits >= 5:
		return 60
	case credits >= 1:
		return 40
	default:
		return 0
	}
}

// EstimateResponseTime renders a provider's typical response time for display.
func EstimateResponseTime(hours *float64) string {
	if hours == nil {
		return "Response time unknown"
	}
	switch h := *hours; {
	case h <= 1:
		return "Within 1 hour"
	case h <= 4:
		return "Within 4 hours"
	case h <= 12:
		return "Within 12 hours"
	case h <= 24:
		return "Within 24 hours"
	default:
		return "More than 24 hours"
	}
}

// Reasons picks up to two tags in fixed priority order.
func Reasons(b models.ScoreBreakdown, verified bool) []string {
	candidates := []struct {
		ok  bool
		tag string
	}{
		{b.Quality >= reasonThreshold, reasonHighlyRated},
		{b.Location >= reasonThreshold, reasonNearby},
		{b.ResponseTime >= reasonThreshold, reasonFast},
		{b.Availability >= reasonThreshold, reasonAvailable},
		{verified, reasonVerified},
	}

	reasons := make([]string, 0, maxReasons)
	for _, c := range candidates {
		if !c.ok {
			continue
		}
		reasons = append(reasons, c.tag)
		if len(reasons) == maxReasons {
			break
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, reasonFallback)
	}
	return reasons
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
