package draw

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/metadata"
	"github.com/google/logger"
	"gorm.io/gorm"
)

// Source is the part of the external client the draw engine needs.
type Source interface {
	GetCurrentDraw(ctx context.Context) (*lotteryapi.Draw, error)
	GetDraw(ctx context.Context, drawID int64) (*lotteryapi.Draw, error)
}

// Syncer pulls draws from the external system into the mirror.
type Syncer struct {
	db         *gorm.DB
	api        Source
	reconciler *Reconciler
	repo       *Repository
	now        func() time.Time
}

func NewSyncer(db *gorm.DB, api Source) *Syncer {
	return &Syncer{
		db:         db,
		api:        api,
		reconciler: NewReconciler(db),
		repo:       NewRepository(db),
		now:        time.Now,
	}
}

// Repository exposes the read side used by callers of the syncer.
func (s *Syncer) Repository() *Repository {
	return s.repo
}

// SyncCurrent fetches the external current draw and reconciles it. It
// returns (nil, nil) when the external system publishes no current draw.
func (s *Syncer) SyncCurrent(ctx context.Context) (*Draw, error) {
	rec, err := s.api.GetCurrentDraw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch current draw: %w", err)
	}
	if rec == nil {
		logger.Info("draw: no current draw published")
		s.markSynced()
		return nil, nil
	}

	d, err := s.reconciler.Reconcile(ctx, *rec)
	if err != nil {
		return nil, err
	}
	s.announce(d)
	s.markSynced()
	return d, nil
}

// SyncByExternalID mirrors one draw by id.
func (s *Syncer) SyncByExternalID(ctx context.Context, externalID int64) (*Draw, error) {
	rec, err := s.api.GetDraw(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch draw %d: %w", externalID, err)
	}
	return s.reconciler.Reconcile(ctx, *rec)
}

// EnsureMirrored fetches every referenced draw that has no local row yet.
// Individual failures are logged and skipped.
func (s *Syncer) EnsureMirrored(ctx context.Context, externalIDs []int64) {
	missing, err := s.repo.MissingExternalIDs(ctx, externalIDs)
	if err != nil {
		logger.Errorf("draw: cannot check mirrored draws: %v", err)
		return
	}
	for _, id := range missing {
		if _, err := s.SyncByExternalID(ctx, id); err != nil {
			logger.Warningf("draw: cannot mirror draw %d: %v", id, err)
		}
	}
}

// announce logs newly published winning numbers exactly once per draw.
func (s *Syncer) announce(d *Draw) {
	if !d.HasResults() {
		return
	}
	last, err := metadata.GetLastAnnouncedDrawID(s.db)
	if err != nil {
		logger.Errorf("draw: cannot read last announced draw: %v", err)
		return
	}
	if last == d.ExternalID {
		return
	}
	logger.Infof("draw: results of %q (#%d): %s", d.Name, d.ExternalID, d.WinningNumbers)
	if err := metadata.SetLastAnnouncedDrawID(s.db, d.ExternalID); err != nil {
		logger.Errorf("draw: cannot record announcement of draw %d: %v", d.ExternalID, err)
	}
}

func (s *Syncer) markSynced() {
	if err := metadata.SetLastDrawSyncAt(s.db, s.now()); err != nil {
		logger.Warningf("draw: cannot record sync time: %v", err)
	}
}
