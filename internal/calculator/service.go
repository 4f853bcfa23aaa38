package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/take-home-pay/internal/events"
	"github.com/iwvelando/take-home-pay/internal/record"
	"go.uber.org/zap"
)

// Service keeps stored records in step with their breakdowns.
type Service struct {
	logger    *zap.Logger
	calc      *Calculator
	store     record.Store
	publisher events.Publisher
	mode      Mode
}

// NewService creates a Service that computes with calc in the given default mode.
// A nil publisher discards events.
func NewService(logger *zap.Logger, calc *Calculator, store record.Store, publisher events.Publisher, mode Mode) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if mode == "" {
		mode = ModeLocal
	}
	return &Service{logger: logger, calc: calc, store: store, publisher: publisher, mode: mode}
}

// Calculator returns the underlying calculator.
func (s *Service) Calculator() *Calculator {
	return s.calc
}

// Mode returns the default mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// GetRecord loads a record.
func (s *Service) GetRecord(ctx context.Context, id string) (record.Record, error) {
	return s.store.Get(ctx, id)
}

// SyncRecord loads a record and, when it has a salary but no take-home
// figure, computes and stores the breakdown. The boolean reports whether the
// record was updated.
func (s *Service) SyncRecord(ctx context.Context, id string) (record.Record, bool, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return record.Record{}, false, err
	}
	if !r.NeedsBreakdown() {
		return r, false, nil
	}

	s.logger.Info("record missing breakdown, recalculating",
		zap.String("op", "calculator.SyncRecord"),
		zap.String("id", id),
	)

	updated, _, err := s.persist(ctx, r, r.Salary, s.mode)
	if err != nil {
		return r, false, err
	}
	return updated, true, nil
}

// SaveRecord computes the breakdown for salary and stores it on the record,
// creating the record if it does not exist. An empty mode uses the default.
func (s *Service) SaveRecord(ctx context.Context, id string, salary float64, mode Mode) (record.Record, *Result, error) {
	if id == "" {
		return record.Record{}, nil, errors.New("record ID is required")
	}
	if mode == "" {
		mode = s.mode
	}

	r, err := s.store.Get(ctx, id)
	if errors.Is(err, record.ErrNotFound) {
		r = record.Record{ID: id}
	} else if err != nil {
		return record.Record{}, nil, err
	}

	return s.persist(ctx, r, salary, mode)
}

// persist calculates, persists and announces a breakdown for r.
func (s *Service) persist(ctx context.Context, r record.Record, salary float64, mode Mode) (record.Record, *Result, error) {
	result, err := s.calc.Calculate(ctx, salary, mode)
	if err != nil {
		return r, nil, err
	}

	updated, err := s.store.Save(ctx, r.Apply(result.Breakdown))
	if err != nil {
		return r, nil, fmt.Errorf("failed to save record %s: %w", r.ID, err)
	}

	event := events.NewEvent(events.EventTypeBreakdownSaved, updated.ID, string(result.Mode), result.Breakdown)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish breakdown event",
			zap.String("op", "calculator.SaveRecord"),
			zap.String("id", updated.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("breakdown saved",
		zap.String("op", "calculator.SaveRecord"),
		zap.String("id", updated.ID),
		zap.String("mode", string(result.Mode)),
		zap.Float64("takeHomeYearly", updated.TakeHomeYearly),
	)
	return updated, result, nil
}
