package ticket

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "tickets.db"))
	require.NoError(t, err)
	require.NoError(t, user.PrimeDB(db))
	require.NoError(t, draw.PrimeDB(db))
	require.NoError(t, PrimeDB(db))
	return db
}

func i64(v int64) *int64 { return &v }
func boolPtr(v bool) *bool { return &v }

func apiTicket(id, drawID int64, numbers []int, winner *bool) lotteryapi.Ticket {
	return lotteryapi.Ticket{
		ID:         i64(id),
		CustomerID: i64(501),
		DrawID:     i64(drawID),
		Numbers:    numbers,
		IsWinner:   winner,
	}
}

func TestDeriveStatus(t *testing.T) {
	nums := lottery.Numbers{1, 2, 3, 4, 5, 6}
	assert.Equal(t, StatusPending, DeriveStatus(nil, false, false))
	assert.Equal(t, StatusPending, DeriveStatus(nil, true, true))
	assert.Equal(t, StatusActive, DeriveStatus(nums, false, false))
	assert.Equal(t, StatusWon, DeriveStatus(nums, true, false))
	assert.Equal(t, StatusWon, DeriveStatus(nums, true, true))
	assert.Equal(t, StatusLost, DeriveStatus(nums, false, true))
}

func TestReconcile_Idempotent(t *testing.T) {
	db := openTestDB(t)
	r := NewReconciler(db)
	ctx := context.Background()

	rec := apiTicket(9001, 12, nil, nil)
	for n := 1; n <= 5; n++ {
		rows, err := r.Reconcile(ctx, 1, []lotteryapi.Ticket{rec})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, StatusPending, rows[0].Status)
	}

	rec.Numbers = []int{3, 8, 15, 22, 31, 40}
	rec.IsWinner = boolPtr(false)
	rec.PrizeAmount = lotteryapi.Amount{Decimal: decimal.NewFromInt(0), Valid: true}
	rec.FilledAt = lotteryapi.ParseTimestamp("2026-03-01T10:00:00Z")
	rows, err := r.Reconcile(ctx, 1, []lotteryapi.Ticket{rec})
	require.NoError(t, err)

	count, err := NewRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got := rows[0]
	assert.EqualValues(t, 9001, got.ExternalID)
	assert.Equal(t, lottery.Numbers{3, 8, 15, 22, 31, 40}, got.Numbers)
	assert.Equal(t, StatusActive, got.Status)
	require.NotNil(t, got.FilledAt)
}

func TestReconcile_StatusIndependentOfOrder(t *testing.T) {
	nums := []int{1, 2, 3, 4, 5, 6}
	pending := apiTicket(1, 12, nil, nil)
	active := apiTicket(1, 12, nums, boolPtr(false))
	won := apiTicket(1, 12, nums, boolPtr(true))

	for _, order := range [][]lotteryapi.Ticket{
		{pending, active, won},
		{won, pending, active, won},
		{active, won},
	} {
		db := openTestDB(t)
		rows, err := NewReconciler(db).Reconcile(context.Background(), 1, order)
		require.NoError(t, err)
		require.Len(t, rows, len(order))
		assert.Equal(t, StatusWon, rows[len(rows)-1].Status)
		for _, row := range rows {
			assert.Equal(t, rows[0].ID, row.ID)
		}
	}
}

func TestReconcile_SkipsUnmaterialisedAndKeepsOrder(t *testing.T) {
	db := openTestDB(t)
	records := []lotteryapi.Ticket{
		apiTicket(30, 12, nil, nil),
		{CustomerID: i64(501), DrawID: i64(12)},
		apiTicket(10, 12, nil, nil),
		{ID: i64(11)},
		apiTicket(20, 12, nil, nil),
	}
	rows, err := NewReconciler(db).Reconcile(context.Background(), 1, records)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.EqualValues(t, 30, rows[0].ExternalID)
	assert.EqualValues(t, 10, rows[1].ExternalID)
	assert.EqualValues(t, 20, rows[2].ExternalID)
}

func TestReconcile_LostOnlyAfterDrawCompleted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	r := NewReconciler(db)
	rec := apiTicket(5, 12, []int{1, 2, 3, 4, 5, 6}, boolPtr(false))

	rows, err := r.Reconcile(ctx, 1, []lotteryapi.Ticket{rec})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, rows[0].Status)

	_, err = draw.NewReconciler(db).Reconcile(ctx, lotteryapi.Draw{
		ID: 12, Status: lotteryapi.DrawStatusCompleted, WinningNumbers: []int{7, 8, 9, 10, 11, 12},
	})
	require.NoError(t, err)

	rows, err = r.Reconcile(ctx, 1, []lotteryapi.Ticket{rec})
	require.NoError(t, err)
	assert.Equal(t, StatusLost, rows[0].Status)
}

// --- Syncer / Issuer ---

type fakeSource struct {
	tickets  []lotteryapi.Ticket
	listErr  error
	created  *lotteryapi.Ticket
	requests []lotteryapi.CreateTicketRequest
}

func (f *fakeSource) ListCustomerTickets(_ context.Context, _ int64, _ *int64) ([]lotteryapi.Ticket, error) {
	return f.tickets, f.listErr
}

func (f *fakeSource) CreateTicket(_ context.Context, req lotteryapi.CreateTicketRequest) (*lotteryapi.Ticket, error) {
	f.requests = append(f.requests, req)
	return f.created, nil
}

type fakeResolver struct {
	externalID *int64
	err        error
	calls      int
}

func (f *fakeResolver) Resolve(_ context.Context, u *user.User) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	u.ExternalID = f.externalID
	return nil
}

type fakeDraws struct {
	ids []int64
}

func (f *fakeDraws) EnsureMirrored(_ context.Context, ids []int64) {
	f.ids = append(f.ids, ids...)
}

func TestSyncForUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := &user.User{ID: 1, ChatID: 100, Phone: "79990000001"}

	src := &fakeSource{tickets: []lotteryapi.Ticket{
		apiTicket(1, 12, nil, nil),
		apiTicket(2, 12, []int{1, 2, 3, 4, 5, 6}, boolPtr(true)),
		apiTicket(3, 11, []int{1, 2, 3, 4, 5, 6}, nil),
	}}
	resolver := &fakeResolver{externalID: i64(501)}
	draws := &fakeDraws{}
	s := NewSyncer(db, src, resolver, draws)

	tickets, err := s.SyncForUser(ctx, u, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	require.Len(t, tickets, 3)
	assert.Equal(t, []Status{StatusPending, StatusWon, StatusActive},
		[]Status{tickets[0].Status, tickets[1].Status, tickets[2].Status})
	assert.Equal(t, []int64{12, 11}, draws.ids)

	// linked users are not resolved again
	_, err = s.SyncForUser(ctx, u, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
}

func TestSyncForUser_LinkageFailure(t *testing.T) {
	db := openTestDB(t)
	u := &user.User{ID: 1, ChatID: 100, Phone: "79990000001"}
	s := NewSyncer(db, &fakeSource{}, &fakeResolver{err: lotteryapi.ErrNotFound}, &fakeDraws{})

	_, err := s.SyncForUser(context.Background(), u, nil)
	assert.ErrorIs(t, err, user.ErrNotLinked)
	assert.ErrorIs(t, err, lotteryapi.ErrNotFound)
}

func TestSyncForUser_TransientLinkageFailure(t *testing.T) {
	db := openTestDB(t)
	u := &user.User{ID: 1, ChatID: 100, Phone: "79990000001"}
	s := NewSyncer(db, &fakeSource{}, &fakeResolver{err: lotteryapi.ErrTransient}, &fakeDraws{})

	_, err := s.SyncForUser(context.Background(), u, nil)
	assert.ErrorIs(t, err, lotteryapi.ErrTransient)
	assert.NotErrorIs(t, err, user.ErrNotLinked)
	assert.False(t, u.IsLinked())
}

func TestSyncForUser_TransientFailureWritesNothing(t *testing.T) {
	db := openTestDB(t)
	u := &user.User{ID: 1, ChatID: 100, ExternalID: i64(501)}
	s := NewSyncer(db, &fakeSource{listErr: lotteryapi.ErrTransient}, &fakeResolver{}, &fakeDraws{})

	_, err := s.SyncForUser(context.Background(), u, nil)
	assert.ErrorIs(t, err, lotteryapi.ErrTransient)
	count, err := NewRepository(db).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResults(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := &user.User{ID: 1, ChatID: 100, ExternalID: i64(501)}
	s := NewSyncer(db, &fakeSource{}, &fakeResolver{}, &fakeDraws{})

	d, results, err := s.Results(ctx, u, nil)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Empty(t, results)

	_, err = draw.NewReconciler(db).Reconcile(ctx, lotteryapi.Draw{
		ID: 12, Status: lotteryapi.DrawStatusCompleted, WinningNumbers: []int{1, 5, 12, 23, 34, 45},
	})
	require.NoError(t, err)
	_, err = NewReconciler(db).Reconcile(ctx, u.ID, []lotteryapi.Ticket{
		apiTicket(1, 12, []int{1, 5, 12, 23, 7, 8}, boolPtr(true)),
		apiTicket(2, 12, nil, nil),
		apiTicket(3, 12, []int{2, 3, 4, 6, 7, 8}, boolPtr(false)),
	})
	require.NoError(t, err)

	d, results, err = s.Results(ctx, u, nil)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.EqualValues(t, 12, d.ExternalID)
	require.Len(t, results, 2)
	assert.Equal(t, 4, results[0].Outcome.Matches)
	assert.True(t, results[0].Outcome.Prize.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, 0, results[1].Outcome.Matches)
	assert.Equal(t, StatusLost, results[1].Ticket.Status)
}

func TestIssue(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := &user.User{ID: 1, ChatID: 100}
	rec := apiTicket(77, 12, nil, nil)
	src := &fakeSource{created: &rec}
	resolver := &fakeResolver{externalID: i64(501)}
	issuer := NewIssuer(db, src, resolver, lottery.DefaultRules)

	_, err := issuer.Issue(ctx, u, nil)
	assert.ErrorIs(t, err, user.ErrNotLinked)

	u.ExternalID = i64(501)
	_, err = issuer.Issue(ctx, u, nil)
	assert.ErrorIs(t, err, draw.ErrNoCurrentDraw)

	_, err = draw.NewReconciler(db).Reconcile(ctx, lotteryapi.Draw{ID: 12, Status: lotteryapi.DrawStatusActive})
	require.NoError(t, err)

	_, err = issuer.Issue(ctx, u, lottery.Numbers{1, 2})
	var verr *lottery.ValidationError
	assert.ErrorAs(t, err, &verr)

	created, err := issuer.Issue(ctx, u, nil)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.EqualValues(t, 77, created.ExternalID)
	assert.Equal(t, StatusPending, created.Status)
	require.Len(t, src.requests, 1)
	assert.EqualValues(t, 12, src.requests[0].DrawID)
	assert.EqualValues(t, 501, src.requests[0].CustomerID)
	assert.Equal(t, 1, resolver.calls)
}

func TestIssue_UnmaterialisedTicket(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := &user.User{ID: 1, ChatID: 100, ExternalID: i64(501)}
	_, err := draw.NewReconciler(db).Reconcile(ctx, lotteryapi.Draw{ID: 12, Status: lotteryapi.DrawStatusActive})
	require.NoError(t, err)

	for _, created := range []lotteryapi.Ticket{
		{DrawID: i64(12)},
		apiTicket(0, 12, nil, nil),
	} {
		issuer := NewIssuer(db, &fakeSource{created: &created}, &fakeResolver{externalID: i64(501)}, lottery.DefaultRules)
		got, err := issuer.Issue(ctx, u, nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	count, err := NewRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
