package api

import (
	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/fill"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/SlpAus/lotto-mirror-backend/internal/ticket"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"gorm.io/gorm"
)

// Handlers 持有所有 HTTP 处理函数需要的服务。
type Handlers struct {
	db         *gorm.DB
	users      *user.Repository
	linker     *user.Linker
	draws      *draw.Syncer
	tickets    *ticket.Syncer
	ticketRepo *ticket.Repository
	issuer     *ticket.Issuer
	fill       *fill.Workflow
	limiter    *fill.SubmitLimiter
}

// NewHandlers wires the services on top of the mirror store, the external
// client and the fill session store.
func NewHandlers(db *gorm.DB, client lotteryapi.Client, sessions fill.SessionStore, rules lottery.Rules) *Handlers {
	users := user.NewRepository(db)
	linker := user.NewLinker(users, client)
	draws := draw.NewSyncer(db, client)

	return &Handlers{
		db:         db,
		users:      users,
		linker:     linker,
		draws:      draws,
		tickets:    ticket.NewSyncer(db, client, linker, draws),
		ticketRepo: ticket.NewRepository(db),
		issuer:     ticket.NewIssuer(db, client, linker, rules),
		fill:       fill.NewWorkflow(users, draws.Repository(), client, ticket.NewReconciler(db), sessions, rules),
	}
}

// Draws exposes the draw syncer so the background worker shares it.
func (h *Handlers) Draws() *draw.Syncer {
	return h.draws
}

// WithSubmitLimiter enables per-chat rate limiting of fill submissions.
func (h *Handlers) WithSubmitLimiter(l *fill.SubmitLimiter) *Handlers {
	h.limiter = l
	return h
}
