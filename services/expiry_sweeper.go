package services

import (
	"context"
	"errors"
	"log"
	"time"
)

// ExpirySweeper removes declined connection requests once their
// reconsideration window has passed, freeing the pair for a brand-new
// request. This is advisory housekeeping: the window is also enforced at
// write time by the store's conditional create, so correctness never depends
// on sweep timing.
type ExpirySweeper struct {
	Store    ConnectionRecordStore
	Interval time.Duration

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *ExpirySweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start runs the sweep loop until the context is cancelled.
func (s *ExpirySweeper) Start(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Printf("Expiry sweeper started (interval: %s)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				log.Printf("Sweep pass failed: %v", err)
			}
		}
	}
}

// SweepOnce performs a single pass and returns the scan error, if any.
// Per-record delete failures are logged and skipped; a record that stopped
// being declined mid-sweep was reclaimed by a fresh request and is left alone.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) error {
	cutoff := s.now().Add(-ReconsiderationWindow).UTC().Format(time.RFC3339)

	declined, err := s.Store.ListDeclined(ctx)
	if err != nil {
		return err
	}

	swept := 0
	for i := range declined {
		rec := &declined[i]
		if rec.RespondedAt >= cutoff {
			continue
		}
		if err := s.Store.DeleteDeclined(ctx, rec); err != nil {
			if !errors.Is(err, ErrStaleState) {
				log.Printf("Failed to sweep declined record %s: %v", rec.ID, err)
			}
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Printf("Swept %d expired declined request(s)", swept)
	}
	return nil
}
