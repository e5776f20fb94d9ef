package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servimatch/config"
	"servimatch/database/repository"
	"servimatch/handlers"
	"servimatch/models"
	"servimatch/services/availability"
	"servimatch/services/booking"
	"servimatch/services/locking"
	"servimatch/services/matching"
	"servimatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	customerID      = 100
	otherCustomerID = 101
	providerID      = 1
	otherProviderID = 2
	plumbing        = 7
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func f64(v float64) *float64 { return &v }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prevSecret := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "routes-test-secret"
	prevLogger := utils.Logger
	utils.Logger = zap.NewNop()
	t.Cleanup(func() {
		config.AppConfig.JWTSecret = prevSecret
		utils.Logger = prevLogger
	})

	stores := repository.NewMemoryStores(
		[]models.ServiceProvider{
			{
				ID: providerID, Name: "Amani Plumbing", CategoryIDs: []int64{plumbing},
				Latitude: f64(-1.2864), Longitude: f64(36.8172), City: "Nairobi",
				IsVerified: true, Credits: 50, Rating: f64(4.8),
			},
			{
				ID: otherProviderID, Name: "Far Away Pipes", CategoryIDs: []int64{plumbing},
				Latitude: f64(-4.0435), Longitude: f64(39.6682), City: "Mombasa",
				IsVerified: true, Credits: 5,
			},
		},
		[]models.Category{{ID: plumbing, Name: "Plumbing"}},
	)

	locker := locking.NewKeyedMutex()
	matcher := &matching.DefaultMatchingService{
		Providers:    stores.Providers,
		Categories:   stores.Categories,
		Workers:      2,
		VerifiedOnly: true,
		Logger:       zap.NewNop(),
	}
	slots := availability.NewManager(stores.Slots, locker, time.UTC, zap.NewNop())
	checker := booking.NewConflictChecker(stores.Slots, stores.Requests, time.UTC)
	requests := booking.NewRequestService(stores.Requests, stores.Providers, checker, locker, nil, zap.NewNop())

	hb := handlers.NewHandlerBundle(matcher, slots, requests, &handlers.HealthHandler{}, 10)
	r := gin.New()
	RegisterRoutes(r, hb, 10000)
	return &testServer{t: t, router: r}
}

func (s *testServer) token(id int64, role string) string {
	tok, err := utils.GenerateToken(id, role, time.Hour)
	require.NoError(s.t, err)
	return tok
}

// do sends a JSON request as the given actor; an empty role sends no token.
func (s *testServer) do(method, path string, id int64, role string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(id, role))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", 0, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/requests/1", 0, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/requests/1", customerID, "admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown role")

	req := httptest.NewRequest(http.MethodGet, "/api/requests/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMatchEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/matches", customerID, models.RoleCustomer, map[string]any{
		"categoryId": plumbing,
		"latitude":   -1.29,
		"longitude":  36.82,
		"city":       "Nairobi",
		"maxResults": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.MatchResponse](t, w)
	assert.Equal(t, "Plumbing", resp.CategoryName)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, int64(providerID), resp.Matches[0].ProviderID)
	require.NotNil(t, resp.Matches[0].DistanceKm)

	w = s.do(http.MethodPost, "/api/matches", providerID, models.RoleProvider, map[string]any{"categoryId": plumbing})
	assert.Equal(t, http.StatusForbidden, w.Code, "providers cannot request matches")

	w = s.do(http.MethodPost, "/api/matches", customerID, models.RoleCustomer, map[string]any{"categoryId": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errResp := decode[utils.ErrorResponse](t, w)
	assert.Equal(t, string(models.KindInvalidArgument), errResp.Kind)
	assert.Equal(t, "categoryId", errResp.Field)
}

func TestNearbyEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, fmt.Sprintf("/api/providers/nearby?categoryId=%d&lat=-1.29&lng=36.82&radiusKm=20", plumbing),
		customerID, models.RoleCustomer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[struct {
		Providers []models.NearbyProvider `json:"providers"`
	}](t, w)
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, int64(providerID), resp.Providers[0].Provider.ID)

	w = s.do(http.MethodGet, "/api/providers/nearby?categoryId=7&lat=abc&lng=1", customerID, models.RoleCustomer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSlotEndpoints(t *testing.T) {
	s := newTestServer(t)
	base := fmt.Sprintf("/api/providers/%d/slots", providerID)
	monday := map[string]any{"dayOfWeek": 1, "startTime": "09:00", "endTime": "17:00"}

	w := s.do(http.MethodPost, base, providerID, models.RoleProvider, monday)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	slot := decode[models.AvailabilitySlot](t, w)
	assert.Equal(t, 1, slot.MaxBookings)
	assert.True(t, slot.IsActive)

	w = s.do(http.MethodPost, base, otherProviderID, models.RoleProvider, monday)
	assert.Equal(t, http.StatusForbidden, w.Code, "another provider's slots")

	w = s.do(http.MethodPost, base, providerID, models.RoleCustomer, monday)
	assert.Equal(t, http.StatusForbidden, w.Code, "customer role")

	w = s.do(http.MethodPost, base, providerID, models.RoleProvider,
		map[string]any{"dayOfWeek": 1, "startTime": "16:00", "endTime": "18:00"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(models.KindOverlapConflict), decode[utils.ErrorResponse](t, w).Kind)

	w = s.do(http.MethodPost, base, providerID, models.RoleProvider,
		map[string]any{"dayOfWeek": 1, "startTime": "17:00", "endTime": "19:00"})
	assert.Equal(t, http.StatusCreated, w.Code, "touching slots do not overlap")

	w = s.do(http.MethodPatch, fmt.Sprintf("%s/%d", base, slot.ID), providerID, models.RoleProvider,
		map[string]any{"endTime": "12:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "12:00", decode[models.AvailabilitySlot](t, w).EndTime)

	w = s.do(http.MethodPatch, fmt.Sprintf("%s/%d", base, slot.ID), providerID, models.RoleProvider, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty patch")

	w = s.do(http.MethodGet, base, providerID, models.RoleProvider, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Slots []models.AvailabilitySlot `json:"slots"`
	}](t, w)
	assert.Len(t, list.Slots, 2)

	w = s.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, slot.ID), providerID, models.RoleProvider, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("%s/%d", base, slot.ID), providerID, models.RoleProvider, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/providers/%d/slots", providerID), providerID, models.RoleProvider, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, fmt.Sprintf("/api/providers/%d/slots", providerID), providerID, models.RoleProvider,
		map[string]any{"dayOfWeek": 1, "startTime": "09:00", "endTime": "17:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	check := func(date, at string) *httptest.ResponseRecorder {
		return s.do(http.MethodGet, fmt.Sprintf("/api/providers/%d/availability?date=%s&time=%s", providerID, date, at),
			customerID, models.RoleCustomer, nil)
	}

	w = check("2024-03-04", "17:00")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.AvailabilityCheck](t, w).Available)

	w = check("2024-03-05", "10:00")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.AvailabilityCheck](t, w).Available)

	w = check("2024-03-04", "9am")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/providers/%d/slots", providerID), providerID, models.RoleProvider,
		map[string]any{"dayOfWeek": 1, "startTime": "09:00", "endTime": "17:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 2030-03-04 is a Monday.
	preferred := time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)
	create := map[string]any{
		"categoryId":      plumbing,
		"city":            "Nairobi",
		"preferredDate":   preferred,
		"durationMinutes": 90,
	}
	w = s.do(http.MethodPost, "/api/requests", customerID, models.RoleCustomer, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	req := decode[models.ServiceRequest](t, w)
	assert.Equal(t, models.StatusPending, req.Status)
	path := fmt.Sprintf("/api/requests/%d", req.ID)

	w = s.do(http.MethodGet, path, otherCustomerID, models.RoleCustomer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "strangers cannot see the request")

	w = s.do(http.MethodPost, path+"/assign", customerID, models.RoleCustomer, map[string]any{"providerId": providerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path+"/quote", otherProviderID, models.RoleProvider, map[string]any{"price": 40})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path+"/quote", providerID, models.RoleProvider, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "price is required")

	w = s.do(http.MethodPost, path+"/quote", providerID, models.RoleProvider, map[string]any{"price": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusQuoted, decode[models.ServiceRequest](t, w).Status)

	w = s.do(http.MethodPost, path+"/accept", customerID, models.RoleCustomer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusAccepted, decode[models.ServiceRequest](t, w).Status)

	w = s.do(http.MethodGet, path, providerID, models.RoleProvider, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, path+"/start", providerID, models.RoleProvider, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path+"/complete", providerID, models.RoleProvider, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCompleted, decode[models.ServiceRequest](t, w).Status)

	w = s.do(http.MethodPost, path+"/cancel", customerID, models.RoleCustomer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	errResp := decode[utils.ErrorResponse](t, w)
	assert.Equal(t, string(models.KindInvalidStatusTransition), errResp.Kind)
	assert.Equal(t, string(models.StatusCompleted), errResp.Value)
}

func TestAcceptRejectedBySchedule(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/providers/%d/slots", providerID), providerID, models.RoleProvider,
		map[string]any{"dayOfWeek": 1, "startTime": "09:00", "endTime": "17:00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 2030-03-05 is a Tuesday with no slot.
	w = s.do(http.MethodPost, "/api/requests", customerID, models.RoleCustomer, map[string]any{
		"categoryId":    plumbing,
		"city":          "Nairobi",
		"preferredDate": time.Date(2030, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := fmt.Sprintf("/api/requests/%d", decode[models.ServiceRequest](t, w).ID)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, path+"/assign", customerID, models.RoleCustomer,
		map[string]any{"providerId": providerID}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, path+"/quote", providerID, models.RoleProvider,
		map[string]any{"price": 25}).Code)

	w = s.do(http.MethodPost, path+"/accept", customerID, models.RoleCustomer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(models.KindProviderNotWorkingThatDay), decode[utils.ErrorResponse](t, w).Kind)

	w = s.do(http.MethodGet, path, customerID, models.RoleCustomer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusQuoted, decode[models.ServiceRequest](t, w).Status, "failed accept leaves the request unchanged")
}

func TestBadPathParam(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/requests/abc", customerID, models.RoleCustomer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "requestID", decode[utils.ErrorResponse](t, w).Field)
}
