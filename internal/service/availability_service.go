package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/logger"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// AvailabilityService answers "which seats of this showtime are free".
// Results may be served from Redis; every reservation mutation for the
// showtime deletes the cached entry, so a stale read can only happen
// inside the window between commit and invalidation.
type AvailabilityService struct {
	seats *repository.SeatRepo
	rdb   *redis.Client
	cfg   config.AvailabilityCacheConfig
	log   *logger.Logger
}

// NewAvailabilityService wires the service.  rdb may be nil, which
// disables caching.
func NewAvailabilityService(seats *repository.SeatRepo, rdb *redis.Client, cfg config.AvailabilityCacheConfig, log *logger.Logger) *AvailabilityService {
	if log == nil {
		log = logger.Default()
	}
	return &AvailabilityService{seats: seats, rdb: rdb, cfg: cfg, log: log}
}

func (s *AvailabilityService) cacheOn() bool { return s != nil && s.rdb != nil && s.cfg.Enabled }

// CacheKey returns the Redis key holding the availability of showtimeID.
func (s *AvailabilityService) CacheKey(showtimeID uint64) string {
	return fmt.Sprintf("%s:showtime:%d", s.cfg.Prefix, showtimeID)
}

// ListAvailable returns the free seats of the showtime.  An unknown
// showtime, or one whose auditorium has no seats, and a fully booked
// showtime are both NotFound but with different messages.
func (s *AvailabilityService) ListAvailable(ctx context.Context, showtimeID uint64) ([]model.AvailableSeat, error) {
	if s.cacheOn() {
		raw, err := s.rdb.Get(ctx, s.CacheKey(showtimeID)).Bytes()
		switch {
		case err == nil:
			var seats []model.AvailableSeat
			if jerr := json.Unmarshal(raw, &seats); jerr == nil && len(seats) > 0 {
				return seats, nil
			}
		case !errors.Is(err, redis.Nil):
			s.log.Warnf("CACHE", "availability get showtime=%d: %v", showtimeID, err)
		}
	}

	seats, total, err := s.seats.ListAvailable(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("list available seats: %w", err)
	}
	if total == 0 {
		return nil, repository.NotFound("Showtime not found.")
	}
	if len(seats) == 0 {
		return nil, repository.NotFound("No available seat with this showtime.")
	}

	if s.cacheOn() {
		if b, err := json.Marshal(seats); err == nil {
			if err := s.rdb.Set(ctx, s.CacheKey(showtimeID), b, s.cfg.TTL).Err(); err != nil {
				s.log.Warnf("CACHE", "availability set showtime=%d: %v", showtimeID, err)
			}
		}
	}
	return seats, nil
}

// Invalidate drops the cached availability of showtimeID.
func (s *AvailabilityService) Invalidate(ctx context.Context, showtimeID uint64) {
	if !s.cacheOn() {
		return
	}
	if err := s.rdb.Del(ctx, s.CacheKey(showtimeID)).Err(); err != nil {
		s.log.Warnf("CACHE", "availability invalidate showtime=%d: %v", showtimeID, err)
	}
}
