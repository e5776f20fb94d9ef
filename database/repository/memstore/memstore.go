// Package memstore holds in-memory implementations of the repository
// interfaces. They back STORAGE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	categoryRepo "servimatch/database/repository/category"
	providerRepo "servimatch/database/repository/provider"
	requestRepo "servimatch/database/repository/request"
	timeslotRepo "servimatch/database/repository/timeslot"
	"servimatch/models"
)

// Providers is an in-memory ProviderDirectory.
type Providers struct {
	mu        sync.RWMutex
	providers map[int64]models.ServiceProvider
}

func NewProviders(seed ...models.ServiceProvider) *Providers {
	p := &Providers{providers: make(map[int64]models.ServiceProvider)}
	for _, sp := range seed {
		p.providers[sp.ID] = sp
	}
	return p
}

// Put inserts or replaces a provider.
func (p *Providers) Put(sp models.ServiceProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providers[sp.ID] = sp
}

func (p *Providers) ListEligibleProviders(_ context.Context, categoryID int64, minCredits int, verifiedOnly bool) ([]models.ServiceProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []models.ServiceProvider
	for _, sp := range p.providers {
		if !sp.ServesCategory(categoryID) || sp.Credits < minCredits {
			continue
		}
		if verifiedOnly && !sp.IsVerified {
			continue
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *Providers) GetByID(_ context.Context, id int64) (*models.ServiceProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sp, ok := p.providers[id]
	if !ok {
		return nil, providerRepo.ErrProviderNotFound
	}
	return &sp, nil
}

// Slots is an in-memory AvailabilityStore.
type Slots struct {
	mu     sync.RWMutex
	nextID int64
	slots  map[int64]models.AvailabilitySlot
}

func NewSlots() *Slots {
	return &Slots{slots: make(map[int64]models.AvailabilitySlot)}
}

func (s *Slots) ListByProvider(_ context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	return s.list(providerID, false), nil
}

func (s *Slots) ListActiveByProvider(_ context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	return s.list(providerID, true), nil
}

func (s *Slots) list(providerID int64, activeOnly bool) []models.AvailabilitySlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.AvailabilitySlot{}
	for _, slot := range s.slots {
		if slot.ProviderID != providerID || (activeOnly && !slot.IsActive) {
			continue
		}
		out = append(out, cloneSlot(slot))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Slots) GetByID(_ context.Context, id, providerID int64) (*models.AvailabilitySlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok || slot.ProviderID != providerID {
		return nil, timeslotRepo.ErrSlotNotFound
	}
	slot = cloneSlot(slot)
	return &slot, nil
}

func (s *Slots) Create(_ context.Context, slot *models.AvailabilitySlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	slot.ID = s.nextID
	s.slots[slot.ID] = cloneSlot(*slot)
	return nil
}

func (s *Slots) Update(_ context.Context, id, providerID int64, patch models.SlotPatch, updatedAt time.Time) (*models.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || slot.ProviderID != providerID {
		return nil, timeslotRepo.ErrSlotNotFound
	}
	merged := cloneSlot(patch.Apply(slot))
	merged.UpdatedAt = updatedAt
	s.slots[id] = merged
	out := cloneSlot(merged)
	return &out, nil
}

func (s *Slots) Delete(_ context.Context, id, providerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || slot.ProviderID != providerID {
		return timeslotRepo.ErrSlotNotFound
	}
	delete(s.slots, id)
	return nil
}

func cloneSlot(slot models.AvailabilitySlot) models.AvailabilitySlot {
	if slot.DayOfWeek != nil {
		d := *slot.DayOfWeek
		slot.DayOfWeek = &d
	}
	if slot.SpecificDate != nil {
		d := *slot.SpecificDate
		slot.SpecificDate = &d
	}
	return slot
}

// Requests is an in-memory RequestStore.
type Requests struct {
	mu       sync.RWMutex
	nextID   int64
	requests map[int64]models.ServiceRequest
}

func NewRequests() *Requests {
	return &Requests{requests: make(map[int64]models.ServiceRequest)}
}

func (r *Requests) Create(_ context.Context, req *models.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	r.requests[req.ID] = *req
	return nil
}

func (r *Requests) GetByID(_ context.Context, id int64) (*models.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, requestRepo.ErrRequestNotFound
	}
	return &req, nil
}

func (r *Requests) ListByProviderOnDate(_ context.Context, providerID int64, from, to time.Time, statuses []models.RequestStatus) ([]models.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.ServiceRequest
	for _, req := range r.requests {
		if !req.HasProvider(providerID) || req.PreferredDate == nil {
			continue
		}
		if req.PreferredDate.Before(from) || !req.PreferredDate.Before(to) {
			continue
		}
		if !slices.Contains(statuses, req.Status) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PreferredDate.Equal(*out[j].PreferredDate) {
			return out[i].PreferredDate.Before(*out[j].PreferredDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Requests) UpdateStatus(_ context.Context, id int64, version int64, patch models.StatusPatch) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, requestRepo.ErrRequestNotFound
	}
	if req.Version != version {
		return nil, requestRepo.ErrConcurrentUpdate
	}
	patch.Apply(&req)
	req.Version++
	r.requests[id] = req
	return &req, nil
}

// Categories is an in-memory CategoryDirectory.
type Categories struct {
	mu    sync.RWMutex
	names map[int64]string
}

func NewCategories(seed ...models.Category) *Categories {
	c := &Categories{names: make(map[int64]string)}
	for _, cat := range seed {
		c.names[cat.ID] = cat.Name
	}
	return c
}

func (c *Categories) GetName(_ context.Context, categoryID int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[categoryID]
	if !ok {
		return "", categoryRepo.ErrCategoryNotFound
	}
	return name, nil
}
