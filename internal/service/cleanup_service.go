package service

import (
	"context"
	"log"
	"time"
)

// CleanupService is the background worker that purges expired refresh token
// rows. Expiry itself is enforced lazily at rotation time; this keeps the
// table from growing without bound.
type CleanupService struct {
	registry *RefreshTokenRegistry
	interval time.Duration
}

func NewCleanupService(registry *RefreshTokenRegistry, interval time.Duration) *CleanupService {
	return &CleanupService{
		registry: registry,
		interval: interval,
	}
}

// Start begins the background worker. Blocks until ctx is cancelled.
func (w *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("Token cleanup worker started - running every %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Token cleanup worker stopped")
			return
		case <-ticker.C:
			w.purge()
		}
	}
}

func (w *CleanupService) purge() {
	deleted, err := w.registry.PurgeExpired()
	if err != nil {
		log.Printf("Error purging expired refresh tokens: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Purged %d expired refresh tokens", deleted)
	}
}
