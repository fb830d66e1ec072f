package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store persists clinic schedules in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a new schedule store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:schedule:%s", clinicID)
}

// Get retrieves a clinic schedule, returning the default hours if none is stored.
func (s *Store) Get(ctx context.Context, clinicID string) (*Schedule, error) {
	schedule, found, err := s.Lookup(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultSchedule(clinicID), nil
	}
	return schedule, nil
}

// Lookup returns the stored schedule and whether one exists.
func (s *Store) Lookup(ctx context.Context, clinicID string) (*Schedule, bool, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("clinic: get schedule: %w", err)
	}

	var schedule Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, false, fmt.Errorf("clinic: unmarshal schedule: %w", err)
	}
	if schedule.ClinicID == "" {
		schedule.ClinicID = clinicID
	}
	return &schedule, true, nil
}

// Set validates and saves a clinic schedule.
func (s *Store) Set(ctx context.Context, schedule *Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("clinic: marshal schedule: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(schedule.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set schedule: %w", err)
	}
	return nil
}

// AddClosure records a closed day on the stored schedule.
func (s *Store) AddClosure(ctx context.Context, clinicID string, closure Closure) (*Schedule, error) {
	current, err := s.Get(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	updated, err := current.WithClosure(closure)
	if err != nil {
		return nil, err
	}
	if err := s.Set(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
