package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/internal/platform/startup"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	lotteryapi.Client
	current *lotteryapi.Draw
	created []lotteryapi.CreateTicketRequest
}

func (f *fakeAPI) GetCustomerByPhone(_ context.Context, phone string) (*lotteryapi.Customer, error) {
	if phone != "79652223633" {
		return nil, lotteryapi.ErrNotFound
	}
	n := 1 + len(f.created)
	return &lotteryapi.Customer{ID: 501, AvailableTickets: &n}, nil
}

func (f *fakeAPI) GetCurrentDraw(context.Context) (*lotteryapi.Draw, error) {
	return f.current, nil
}

func (f *fakeAPI) CreateTicket(_ context.Context, req lotteryapi.CreateTicketRequest) (*lotteryapi.Ticket, error) {
	f.created = append(f.created, req)
	id := int64(7000 + len(f.created))
	return &lotteryapi.Ticket{ID: &id, Numbers: req.Numbers}, nil
}

func newEnv(t *testing.T) (*Env, *fakeAPI) {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	require.NoError(t, startup.InitializeApplication(db))

	repo := user.NewRepository(db)
	for chat, phone := range map[int64]string{1: "+7 965 222 36 33", 2: "+1 555 000 0000"} {
		_, err := repo.Register(context.Background(), chat, phone)
		require.NoError(t, err)
	}

	api := &fakeAPI{current: &lotteryapi.Draw{ID: 12, Name: "Weekly", Status: lotteryapi.DrawStatusActive}}
	return &Env{DB: db, API: api, Rules: lottery.DefaultRules}, api
}

func run(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(func() (*Env, error) { return env, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"sync-users", "sync-draw", "issue-ticket"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestSyncUsers(t *testing.T) {
	env, _ := newEnv(t)
	out, err := run(t, env, "sync-users", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data["synced"])
	assert.Equal(t, 1, resp.Data["failed"])
}

func TestSyncDrawAndIssue(t *testing.T) {
	env, api := newEnv(t)

	out, err := run(t, env, "issue-ticket", "--phone", "79652223633")
	require.Error(t, err, out)

	out, err = run(t, env, "sync-draw")
	require.NoError(t, err)
	assert.Contains(t, out, "draw 12")

	_, err = run(t, env, "sync-users")
	require.NoError(t, err)

	_, err = run(t, env, "issue-ticket", "--phone", "79652223633", "--numbers", "1 2 3 4 5 99")
	var verr *lottery.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, api.created)

	out, err = run(t, env, "issue-ticket", "--phone", "+7 (965) 222-36-33", "--numbers", "6,5,4,3,2,1")
	require.NoError(t, err)
	assert.Contains(t, out, "issued ticket 7001 in draw 12 (active), 2 available")
	require.Len(t, api.created, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, api.created[0].Numbers)
}

func TestInvalidFormat(t *testing.T) {
	env, _ := newEnv(t)
	_, err := run(t, env, "sync-draw", "--format", "yaml")
	assert.Error(t, err)
}
