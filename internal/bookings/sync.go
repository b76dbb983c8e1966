package bookings

import (
	"context"
	"time"

	"disputeflow/internal/config"
	"disputeflow/internal/storage"
)

// SyncService keeps the local booking cache aligned with the back-office
// system, so booking enrichment works without a booking export on hand.
type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

func (s *SyncService) InitialSync(ctx context.Context) (int, error) {
	records, err := s.client.GetBookingsScrollAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.db.UpsertBookings(records); err != nil {
		return 0, err
	}
	_ = s.db.SetMetadata("bookings.last_initial_sync", time.Now().UTC().Format(time.RFC3339))
	return len(records), nil
}

func (s *SyncService) IncrementalSync(ctx context.Context) (int, error) {
	records, err := s.client.GetBookingsModifiedSince(ctx)
	if err != nil {
		return 0, err
	}
	if len(records) > 0 {
		if err := s.db.UpsertBookings(records); err != nil {
			return 0, err
		}
	}
	_ = s.db.SetMetadata("bookings.last_incremental_sync", time.Now().UTC().Format(time.RFC3339))
	return len(records), nil
}
