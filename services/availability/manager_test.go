package availability

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"servimatch/database/repository/memstore"
	"servimatch/models"
	"servimatch/services/locking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestManager() *Manager {
	m := NewManager(memstore.NewSlots(), locking.NewKeyedMutex(), time.UTC, nil)
	m.Now = func() time.Time { return fixedNow }
	return m
}

func day(d int) *int { return &d }
func date(s string) *string { return &s }
func str(s string) *string { return &s }
func bookings(n int) *int { return &n }
func flag(b bool) *bool { return &b }
func recurring(d int, start, end string) models.SlotInput {
	return models.SlotInput{DayOfWeek: day(d), StartTime: start, EndTime: end}
}

// slotPatch decodes a PATCH body the way the handler does, so explicit
// nulls are kept apart from absent fields.
func slotPatch(t *testing.T, body string) models.SlotPatch {
	t.Helper()
	var p models.SlotPatch
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestCreateSlot_Defaults(t *testing.T) {
	m := newTestManager()

	slot, err := m.CreateSlot(context.Background(), 5, recurring(1, "09:00", "12:00"))
	require.NoError(t, err)
	assert.Positive(t, slot.ID)
	assert.Equal(t, int64(5), slot.ProviderID)
	assert.True(t, slot.IsActive)
	assert.Equal(t, 1, slot.MaxBookings)
	assert.Equal(t, fixedNow, slot.CreatedAt)

	slots, err := m.ListSlots(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestCreateSlot_Validation(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	cases := []struct {
		name string
		in   models.SlotInput
		kind models.ErrorKind
	}{
		{"weekday too large", recurring(7, "09:00", "10:00"), models.KindInvalidArgument},
		{"negative weekday", recurring(-1, "09:00", "10:00"), models.KindInvalidArgument},
		{"bad start", recurring(1, "9:00", "10:00"), models.KindInvalidArgument},
		{"bad end", recurring(1, "09:00", "24:01"), models.KindInvalidArgument},
		{"start at end of day", recurring(1, "24:00", "24:00"), models.KindInvalidArgument},
		{"start equals end", recurring(1, "10:00", "10:00"), models.KindValidationFailed},
		{"start after end", recurring(1, "11:00", "10:00"), models.KindValidationFailed},
		{"recurring with date", models.SlotInput{DayOfWeek: day(1), SpecificDate: date("2024-03-04"), StartTime: "09:00", EndTime: "10:00"}, models.KindValidationFailed},
		{"neither scope", models.SlotInput{StartTime: "09:00", EndTime: "10:00"}, models.KindValidationFailed},
		{"malformed date", models.SlotInput{SpecificDate: date("2024-3-4"), StartTime: "09:00", EndTime: "10:00"}, models.KindInvalidArgument},
		{"impossible date", models.SlotInput{SpecificDate: date("2024-02-30"), StartTime: "09:00", EndTime: "10:00"}, models.KindInvalidArgument},
		{"zero bookings", models.SlotInput{DayOfWeek: day(1), StartTime: "09:00", EndTime: "10:00", MaxBookings: bookings(0)}, models.KindInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.CreateSlot(ctx, 1, tc.in)
			require.Error(t, err)
			assert.True(t, models.IsKind(err, tc.kind), "got %v", err)
		})
	}

	_, err := m.CreateSlot(ctx, 0, recurring(1, "09:00", "10:00"))
	assert.True(t, models.IsKind(err, models.KindInvalidArgument))

	_, err = m.ListSlots(ctx, -3)
	assert.True(t, models.IsKind(err, models.KindInvalidArgument))
}

func TestCreateSlot_Overlap(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	monday, err := m.CreateSlot(ctx, 1, recurring(1, "09:00", "12:00"))
	require.NoError(t, err)

	_, err = m.CreateSlot(ctx, 1, recurring(1, "11:00", "13:00"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindOverlapConflict))
	var ee *models.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, monday.ID, ee.Value)

	// Touching windows do not overlap.
	_, err = m.CreateSlot(ctx, 1, recurring(1, "12:00", "14:00"))
	assert.NoError(t, err)

	// Other weekday, other provider, and one-off dates are separate scopes.
	_, err = m.CreateSlot(ctx, 1, recurring(2, "09:00", "12:00"))
	assert.NoError(t, err)
	_, err = m.CreateSlot(ctx, 2, recurring(1, "09:00", "12:00"))
	assert.NoError(t, err)
	_, err = m.CreateSlot(ctx, 1, models.SlotInput{SpecificDate: date("2024-03-04"), StartTime: "10:00", EndTime: "11:00"})
	assert.NoError(t, err)
	_, err = m.CreateSlot(ctx, 1, models.SlotInput{SpecificDate: date("2024-03-04"), StartTime: "10:30", EndTime: "11:30"})
	assert.True(t, models.IsKind(err, models.KindOverlapConflict))
}

func TestCreateSlot_InactiveDoesNotBlock(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	slot, err := m.CreateSlot(ctx, 1, recurring(3, "09:00", "12:00"))
	require.NoError(t, err)
	_, err = m.UpdateSlot(ctx, slot.ID, 1, models.SlotPatch{IsActive: flag(false)})
	require.NoError(t, err)

	_, err = m.CreateSlot(ctx, 1, recurring(3, "10:00", "11:00"))
	require.NoError(t, err)

	// Reactivating the first slot now collides with the second.
	_, err = m.UpdateSlot(ctx, slot.ID, 1, models.SlotPatch{IsActive: flag(true)})
	assert.True(t, models.IsKind(err, models.KindOverlapConflict))
}

func TestCreateSlot_ConcurrentOverlapOnlyOneWins(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateSlot(ctx, 1, recurring(4, "09:00", "10:00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if models.IsKind(err, models.KindOverlapConflict) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 9, conflict)
}

func TestCreateSlot_RunsToMidnight(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	slot, err := m.CreateSlot(ctx, 1, recurring(1, "22:00", "24:00"))
	require.NoError(t, err)
	assert.Equal(t, "24:00", slot.EndTime)

	_, err = m.CreateSlot(ctx, 1, recurring(1, "23:00", "23:30"))
	assert.True(t, models.IsKind(err, models.KindOverlapConflict))

	// 2024-03-04 is a Monday.
	ok, err := m.CheckAvailability(ctx, 1, "2024-03-04", "23:59")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateSlot(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	first, err := m.CreateSlot(ctx, 1, recurring(1, "09:00", "12:00"))
	require.NoError(t, err)
	second, err := m.CreateSlot(ctx, 1, recurring(1, "13:00", "15:00"))
	require.NoError(t, err)

	t.Run("merges supplied fields", func(t *testing.T) {
		updated, err := m.UpdateSlot(ctx, second.ID, 1, models.SlotPatch{EndTime: str("16:00"), MaxBookings: bookings(3)})
		require.NoError(t, err)
		assert.Equal(t, "13:00", updated.StartTime)
		assert.Equal(t, "16:00", updated.EndTime)
		assert.Equal(t, 3, updated.MaxBookings)
		require.NotNil(t, updated.DayOfWeek)
		assert.Equal(t, 1, *updated.DayOfWeek)
	})

	t.Run("validates merged result", func(t *testing.T) {
		_, err := m.UpdateSlot(ctx, second.ID, 1, models.SlotPatch{StartTime: str("17:00")})
		assert.True(t, models.IsKind(err, models.KindValidationFailed))

		_, err = m.UpdateSlot(ctx, second.ID, 1, slotPatch(t, `{"specificDate":"2024-03-04"}`))
		assert.True(t, models.IsKind(err, models.KindValidationFailed))
	})

	t.Run("excludes itself from overlap", func(t *testing.T) {
		_, err := m.UpdateSlot(ctx, first.ID, 1, models.SlotPatch{StartTime: str("08:00")})
		assert.NoError(t, err)
	})

	t.Run("rejects overlap with sibling", func(t *testing.T) {
		_, err := m.UpdateSlot(ctx, first.ID, 1, models.SlotPatch{EndTime: str("13:30")})
		assert.True(t, models.IsKind(err, models.KindOverlapConflict))
	})

	t.Run("switches to one-off", func(t *testing.T) {
		updated, err := m.UpdateSlot(ctx, first.ID, 1, slotPatch(t, `{"dayOfWeek":null,"specificDate":"2024-03-05"}`))
		require.NoError(t, err)
		assert.Nil(t, updated.DayOfWeek)
		require.NotNil(t, updated.SpecificDate)
		assert.Equal(t, "2024-03-05", *updated.SpecificDate)
	})

	t.Run("ownership", func(t *testing.T) {
		_, err := m.UpdateSlot(ctx, first.ID, 2, models.SlotPatch{EndTime: str("10:00")})
		assert.True(t, models.IsKind(err, models.KindNotFoundOrUnauthorized))
		_, err = m.UpdateSlot(ctx, 999, 1, models.SlotPatch{EndTime: str("10:00")})
		assert.True(t, models.IsKind(err, models.KindNotFoundOrUnauthorized))
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := m.UpdateSlot(ctx, first.ID, 1, models.SlotPatch{})
		assert.True(t, models.IsKind(err, models.KindInvalidArgument))
	})

	t.Run("failed update leaves slot untouched", func(t *testing.T) {
		before, err := m.Slots.GetByID(ctx, second.ID, 1)
		require.NoError(t, err)
		_, err = m.UpdateSlot(ctx, second.ID, 1, models.SlotPatch{StartTime: str("99:00")})
		require.Error(t, err)
		after, err := m.Slots.GetByID(ctx, second.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestDeleteSlot(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	slot, err := m.CreateSlot(ctx, 1, recurring(1, "09:00", "12:00"))
	require.NoError(t, err)

	err = m.DeleteSlot(ctx, slot.ID, 2)
	assert.True(t, models.IsKind(err, models.KindNotFoundOrUnauthorized))

	require.NoError(t, m.DeleteSlot(ctx, slot.ID, 1))

	err = m.DeleteSlot(ctx, slot.ID, 1)
	assert.True(t, models.IsKind(err, models.KindNotFoundOrUnauthorized))

	slots, err := m.ListSlots(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCheckAvailability(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	// 2024-03-04 is a Monday.
	_, err := m.CreateSlot(ctx, 1, recurring(1, "09:00", "17:00"))
	require.NoError(t, err)
	_, err = m.CreateSlot(ctx, 1, models.SlotInput{SpecificDate: date("2024-03-06"), StartTime: "18:00", EndTime: "20:00"})
	require.NoError(t, err)

	cases := []struct {
		date, time string
		want       bool
	}{
		{"2024-03-04", "08:59", false},
		{"2024-03-04", "09:00", true},
		{"2024-03-04", "12:30", true},
		{"2024-03-04", "17:00", true},
		{"2024-03-04", "17:01", false},
		{"2024-03-11", "10:00", true},
		{"2024-03-05", "10:00", false},
		{"2024-03-06", "18:00", true},
		{"2024-03-06", "20:00", true},
		{"2024-03-13", "19:00", false},
	}
	for _, tc := range cases {
		got, err := m.CheckAvailability(ctx, 1, tc.date, tc.time)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s", tc.date, tc.time)
	}

	_, err = m.CheckAvailability(ctx, 1, "2024-13-01", "10:00")
	assert.True(t, models.IsKind(err, models.KindInvalidArgument))
	_, err = m.CheckAvailability(ctx, 1, "2024-03-04", "1000")
	assert.True(t, models.IsKind(err, models.KindInvalidArgument))

	got, err := m.CheckAvailability(ctx, 77, "2024-03-04", "10:00")
	require.NoError(t, err)
	assert.False(t, got)
}
