package draw

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/metadata"
	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "draws.db"))
	require.NoError(t, err)
	require.NoError(t, PrimeDB(db))
	require.NoError(t, metadata.PrimeDB(db))
	return db
}

type fakeSource struct {
	current *lotteryapi.Draw
	draws   map[int64]*lotteryapi.Draw
	err     error
	calls   atomic.Int32
}

func (f *fakeSource) GetCurrentDraw(context.Context) (*lotteryapi.Draw, error) {
	f.calls.Add(1)
	return f.current, f.err
}

func (f *fakeSource) GetDraw(_ context.Context, id int64) (*lotteryapi.Draw, error) {
	if d, ok := f.draws[id]; ok {
		return d, nil
	}
	return nil, lotteryapi.ErrNotFound
}

func record(id int64, status string, scheduled string) lotteryapi.Draw {
	pick, total := 6, 45
	return lotteryapi.Draw{
		ID:            id,
		Name:          "Draw",
		Status:        status,
		ScheduledAt:   lotteryapi.ParseTimestamp(scheduled),
		PrizePool:     lotteryapi.Amount{Decimal: decimal.NewFromInt(1000), Valid: true},
		NumbersToPick: &pick,
		NumbersTotal:  &total,
		PrizeGrid:     []byte(`{"6": 200000}`),
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	rec := record(12, lotteryapi.DrawStatusActive, "2026-03-20T18:00:00Z")
	var first *Draw
	for i := 0; i < 4; i++ {
		d, err := r.Reconcile(ctx, rec)
		require.NoError(t, err)
		if first == nil {
			first = d
		}
		assert.Equal(t, first.ID, d.ID)
	}

	rec.Status = lotteryapi.DrawStatusCompleted
	rec.WinningNumbers = []int{45, 1, 12, 5, 23, 34}
	rec.ExecutedAt = lotteryapi.ParseTimestamp("2026-03-20T18:05:00Z")
	rec.PrizeGrid = nil
	d, err := r.Reconcile(ctx, rec)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Draw{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.Equal(t, first.ID, d.ID)
	assert.Equal(t, lotteryapi.DrawStatusCompleted, d.Status)
	assert.Equal(t, lottery.Numbers{1, 5, 12, 23, 34, 45}, d.WinningNumbers)
	assert.True(t, d.IsCompleted())
	assert.NotNil(t, d.ExecutedAt)
	assert.Nil(t, d.PrizeGrid)
	assert.Equal(t, lottery.Rules{Pick: 6, Pool: 45}, d.Rules(lottery.Rules{Pick: 5, Pool: 36}))
}

func TestDrawRules(t *testing.T) {
	fallback := lottery.Rules{Pick: 6, Pool: 45}
	ptr := func(v int) *int { return &v }

	cases := []struct {
		name        string
		pick, total *int
		want        lottery.Rules
	}{
		{"absent", nil, nil, fallback},
		{"both", ptr(5), ptr(36), lottery.Rules{Pick: 5, Pool: 36}},
		{"pool only", nil, ptr(49), lottery.Rules{Pick: 6, Pool: 49}},
		{"zero ignored", ptr(0), ptr(0), fallback},
		{"pool smaller than pick", nil, ptr(5), fallback},
		{"pick larger than pool", ptr(10), ptr(9), fallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &Draw{ExternalID: 1, NumbersToPick: tc.pick, NumbersTotal: tc.total}
			got := d.Rules(fallback)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got.Generate(nil), got.Pick)
		})
	}
}

func TestReconcile_RejectsRecordWithoutID(t *testing.T) {
	_, err := NewReconciler(openTestDB(t)).Reconcile(context.Background(), lotteryapi.Draw{Status: "active"})
	assert.Error(t, err)
}

func TestCurrent(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	repo := NewRepository(db)
	ctx := context.Background()

	d, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, d)

	for _, rec := range []lotteryapi.Draw{
		record(1, lotteryapi.DrawStatusCompleted, "2026-05-01T00:00:00Z"),
		record(2, lotteryapi.DrawStatusActive, "2026-03-01T00:00:00Z"),
		record(3, lotteryapi.DrawStatusPending, "2026-04-01T00:00:00Z"),
		record(4, lotteryapi.DrawStatusPending, ""),
		record(5, lotteryapi.DrawStatusCancelled, "2026-06-01T00:00:00Z"),
	} {
		_, err := r.Reconcile(ctx, rec)
		require.NoError(t, err)
	}

	d, err = repo.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.EqualValues(t, 3, d.ExternalID)

	completed, err := repo.CompletedExternalIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true}, completed)

	missing, err := repo.MissingExternalIDs(ctx, []int64{2, 9, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 10}, missing)
}

func TestSyncCurrent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := &fakeSource{}
	s := NewSyncer(db, src)

	d, err := s.SyncCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, d)
	syncedAt, err := metadata.GetLastDrawSyncAt(db)
	require.NoError(t, err)
	assert.False(t, syncedAt.IsZero())

	rec := record(7, lotteryapi.DrawStatusCompleted, "2026-03-20T18:00:00Z")
	rec.WinningNumbers = []int{1, 2, 3, 4, 5, 6}
	src.current = &rec

	d, err = s.SyncCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	last, err := metadata.GetLastAnnouncedDrawID(db)
	require.NoError(t, err)
	assert.EqualValues(t, 7, last)

	src.err = lotteryapi.ErrTransient
	_, err = s.SyncCurrent(ctx)
	assert.ErrorIs(t, err, lotteryapi.ErrTransient)
}

func TestEnsureMirrored(t *testing.T) {
	db := openTestDB(t)
	rec := record(21, lotteryapi.DrawStatusActive, "2026-03-20T18:00:00Z")
	s := NewSyncer(db, &fakeSource{draws: map[int64]*lotteryapi.Draw{21: &rec}})

	s.EnsureMirrored(context.Background(), []int64{21, 22})

	_, err := s.Repository().FindByExternalID(context.Background(), 21)
	assert.NoError(t, err)
	_, err = s.Repository().FindByExternalID(context.Background(), 22)
	assert.ErrorIs(t, err, ErrDrawNotFound)
}

type flakySyncer struct {
	calls atomic.Int32
}

func (f *flakySyncer) SyncCurrent(context.Context) (*Draw, error) {
	switch f.calls.Add(1) {
	case 1:
		panic("boom")
	case 2:
		return nil, errors.New("store unreachable")
	default:
		return &Draw{ExternalID: 1, Name: "ok"}, nil
	}
}

func TestSyncWorker_SurvivesFailedCycles(t *testing.T) {
	m := lifecycle.NewManager("test")
	syncer := &flakySyncer{}
	require.NoError(t, m.Go("draw-sync", func(h *lifecycle.Handle) {
		StartSyncWorker(h, syncer, 5*time.Millisecond)
	}))

	require.Eventually(t, func() bool { return syncer.calls.Load() >= 4 }, time.Second, 5*time.Millisecond)

	m.Shutdown()
	assert.Empty(t, m.WaitWithTimeout(time.Second))
}
