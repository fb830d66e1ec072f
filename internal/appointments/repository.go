package appointments

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository defines the interface for appointment storage.
//
// InsertConfirmed must check that the slot is free and insert the row as one
// atomic step, returning ErrSlotTaken when another confirmed appointment
// already holds (date, time). The patient upsert belongs to the same unit.
type Repository interface {
	SlotLookup
	InsertConfirmed(ctx context.Context, appt *Appointment, patient *Patient) (*Appointment, error)
	Cancel(ctx context.Context, id int64, note string, at time.Time) (bool, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Search(ctx context.Context, filter SearchFilter) ([]Appointment, error)
	History(ctx context.Context, phone string) ([]Appointment, error)
	ListRange(ctx context.Context, from, to string) ([]Appointment, error)
	GetPatient(ctx context.Context, phone string) (*Patient, error)
}

// InMemoryRepository keeps appointments in process memory guarded by a mutex.
type InMemoryRepository struct {
	mu           sync.RWMutex
	nextID       int64
	appointments map[int64]*Appointment
	slots        map[string]int64
	patients     map[string]*Patient
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		appointments: make(map[int64]*Appointment),
		slots:        make(map[string]int64),
		patients:     make(map[string]*Patient),
	}
}

// IsSlotTaken reports whether a confirmed appointment holds the slot.
func (r *InMemoryRepository) IsSlotTaken(ctx context.Context, date, clock string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[slotKey(date, clock)]
	return ok, nil
}

// InsertConfirmed stores the appointment unless the slot is already held.
func (r *InMemoryRepository) InsertConfirmed(ctx context.Context, appt *Appointment, patient *Patient) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := appt.SlotKey()
	if _, taken := r.slots[key]; taken {
		return nil, newError(KindSlotTaken, appt.Date, appt.Time, "%s at %s is already booked", appt.Date, appt.Time)
	}

	r.nextID++
	stored := *appt
	stored.ID = r.nextID
	stored.Status = StatusConfirmed
	r.appointments[stored.ID] = &stored
	r.slots[key] = stored.ID

	if patient != nil {
		if existing, ok := r.patients[patient.Phone]; ok {
			existing.Name = patient.Name
			if patient.Email != "" {
				existing.Email = patient.Email
			}
			mergeMedical(existing, patient)
			existing.UpdatedAt = patient.UpdatedAt
		} else {
			p := *patient
			r.patients[p.Phone] = &p
		}
	}

	out := stored
	return &out, nil
}

// Cancel transitions a confirmed appointment to cancelled.
func (r *InMemoryRepository) Cancel(ctx context.Context, id int64, note string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.appointments[id]
	if !ok || appt.Status != StatusConfirmed {
		return false, nil
	}
	appt.Status = StatusCancelled
	appt.UpdatedAt = at
	if note != "" {
		appt.Notes = appendNote(appt.Notes, note)
	}
	delete(r.slots, appt.SlotKey())
	return true, nil
}

// GetByID retrieves an appointment by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *appt
	return &out, nil
}

// Search matches confirmed appointments by name, phone or treatment within the window.
func (r *InMemoryRepository) Search(ctx context.Context, filter SearchFilter) ([]Appointment, error) {
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, appt := range r.appointments {
		if appt.Status != StatusConfirmed || !inWindow(appt.Date, filter.From, filter.To) {
			continue
		}
		matched := strings.Contains(strings.ToLower(appt.PatientName), q) ||
			strings.Contains(strings.ToLower(appt.Phone), q) ||
			strings.Contains(strings.ToLower(string(appt.Treatment)), q) ||
			(filter.Treatment != "" && appt.Treatment == filter.Treatment)
		if matched {
			out = append(out, *appt)
		}
	}
	sortChronological(out)
	return out, nil
}

// History returns every appointment for a phone number, newest first.
func (r *InMemoryRepository) History(ctx context.Context, phone string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, appt := range r.appointments {
		if appt.Phone == phone {
			out = append(out, *appt)
		}
	}
	sortChronological(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListRange returns appointments of any status within the window, chronologically.
func (r *InMemoryRepository) ListRange(ctx context.Context, from, to string) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, appt := range r.appointments {
		if inWindow(appt.Date, from, to) {
			out = append(out, *appt)
		}
	}
	sortChronological(out)
	return out, nil
}

// GetPatient looks up a patient by phone.
func (r *InMemoryRepository) GetPatient(ctx context.Context, phone string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[phone]
	if !ok {
		return nil, ErrPatientNotFound
	}
	out := *p
	return &out, nil
}

func mergeMedical(dst, src *Patient) {
	if src.BirthDate != "" {
		dst.BirthDate = src.BirthDate
	}
	if src.Conditions != "" {
		dst.Conditions = src.Conditions
	}
	if src.Medications != "" {
		dst.Medications = src.Medications
	}
	if src.Allergies != "" {
		dst.Allergies = src.Allergies
	}
}

// inWindow compares ISO dates lexically; empty bounds are open.
func inWindow(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func sortChronological(list []Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].ID < list[j].ID
	})
}
