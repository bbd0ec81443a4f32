package slots

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps slot inventory in process memory. Booking is
// serialized per doctor+date so concurrent callers can never both
// claim the same slot.
type MemoryStore struct {
	mu   sync.Mutex
	days map[string]*daySchedule
}

type daySchedule struct {
	mu    sync.Mutex
	slots map[string]*Slot
}

// NewMemoryStore creates an empty in-memory slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{days: make(map[string]*daySchedule)}
}

func dayKey(doctor, date string) string {
	return strings.ToLower(strings.TrimSpace(doctor)) + "|" + strings.TrimSpace(date)
}

func (m *MemoryStore) day(doctor, date string, create bool) *daySchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(doctor, date)
	d, ok := m.days[key]
	if !ok && create {
		d = &daySchedule{slots: make(map[string]*Slot)}
		m.days[key] = d
	}
	return d
}

// Seed loads pre-built inventory, replacing any slot with the same id.
func (m *MemoryStore) Seed(seed []Slot) {
	for _, s := range seed {
		d := m.day(s.Doctor, s.Date, true)
		dup := s
		d.mu.Lock()
		d.slots[s.ID] = &dup
		d.mu.Unlock()
	}
}

// Day returns every slot for the doctor on the given date.
func (m *MemoryStore) Day(ctx context.Context, doctor, date string) ([]Slot, error) {
	d := m.day(doctor, date, false)
	if d == nil {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Slot, 0, len(d.slots))
	for _, s := range d.slots {
		out = append(out, *s)
	}
	sortSlots(out)
	return out, nil
}

// Available returns the open slots for the doctor on the given date.
func (m *MemoryStore) Available(ctx context.Context, doctor, date string) ([]Slot, error) {
	return m.filter(ctx, doctor, date, true)
}

// Booked returns the occupied slots for the doctor on the given date.
func (m *MemoryStore) Booked(ctx context.Context, doctor, date string) ([]Slot, error) {
	return m.filter(ctx, doctor, date, false)
}

func (m *MemoryStore) filter(ctx context.Context, doctor, date string, available bool) ([]Slot, error) {
	all, err := m.Day(ctx, doctor, date)
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0, len(all))
	for _, s := range all {
		if s.Available == available {
			out = append(out, s)
		}
	}
	return out, nil
}

// Book flips one slot to unavailable. The day's mutex makes the
// check-then-write atomic, so the losing caller gets ErrSlotTaken.
func (m *MemoryStore) Book(ctx context.Context, doctor, date, slotID, patient, reason string) error {
	d := m.day(doctor, date, false)
	if d == nil {
		return ErrSlotNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.slots[slotID]
	if !ok {
		return ErrSlotNotFound
	}
	if !s.Available {
		return ErrSlotTaken
	}
	s.Available = false
	s.Patient = patient
	s.Reason = reason
	return nil
}

// OpenWindow returns open slots across all doctors within the window.
func (m *MemoryStore) OpenWindow(ctx context.Context, from time.Time, days int) ([]Slot, error) {
	until := from.AddDate(0, 0, days)

	m.mu.Lock()
	scheds := make([]*daySchedule, 0, len(m.days))
	for _, d := range m.days {
		scheds = append(scheds, d)
	}
	m.mu.Unlock()

	var out []Slot
	for _, d := range scheds {
		d.mu.Lock()
		for _, s := range d.slots {
			if s.Available && !s.Start.Before(from) && s.Start.Before(until) {
				out = append(out, *s)
			}
		}
		d.mu.Unlock()
	}
	sortSlots(out)
	return out, nil
}

func sortSlots(s []Slot) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].Start.Equal(s[j].Start) {
			return s[i].Start.Before(s[j].Start)
		}
		return s[i].Doctor < s[j].Doctor
	})
}

var _ Store = (*MemoryStore)(nil)
