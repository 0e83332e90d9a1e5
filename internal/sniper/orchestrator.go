package sniper

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yourneighborhoodchef/sniper/internal/logging"
	"github.com/yourneighborhoodchef/sniper/internal/proxy"
	"github.com/yourneighborhoodchef/sniper/internal/ratelimit"
	"github.com/yourneighborhoodchef/sniper/internal/roblox"
	"github.com/yourneighborhoodchef/sniper/internal/session"
)

// Attempt is the recorded outcome of one (user, item, route) purchase
// attempt. Exactly one of Verdict and Err is meaningful.
type Attempt struct {
	UserID  uint64
	ItemID  uint64
	Route   string
	Verdict *roblox.PurchaseData
	Err     error
}

// Orchestrator pairs users with pool endpoints and runs purchase
// batches. One attempt failing never aborts the batch; every outcome is
// recorded against its (user, item, route) tuple.
type Orchestrator struct {
	pool    *proxy.Pool
	users   []*session.User
	jar     *ratelimit.TokenJar
	retries int
}

// New builds an orchestrator. retries is how many extra endpoints to try
// for one intent after a recoverable failure (rate limit, cooldown,
// transport).
func New(pool *proxy.Pool, users []*session.User, jar *ratelimit.TokenJar, retries int) *Orchestrator {
	if retries < 0 {
		retries = 0
	}
	return &Orchestrator{pool: pool, users: users, jar: jar, retries: retries}
}

// Run executes the batch: every user attempts every item not already in
// its history. Users run in parallel; one user's attempts stay
// sequential so its history and balance evolve in order.
func (o *Orchestrator) Run(ctx context.Context, items []*roblox.Item) []Attempt {
	results := make(chan Attempt)
	var wg sync.WaitGroup

	for _, u := range o.users {
		wg.Add(1)
		go func(u *session.User) {
			defer wg.Done()
			for _, item := range items {
				if ctx.Err() != nil {
					return
				}
				if u.HasPurchased(item.ItemTargetID) {
					logging.L().Debug("skipping purchased item",
						zap.Uint64("user_id", u.UserID()),
						zap.Uint64("item_id", item.ItemTargetID))
					continue
				}
				results <- o.attempt(ctx, u, item)
			}
		}(u)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var attempts []Attempt
	for a := range results {
		attempts = append(attempts, a)
	}
	return attempts
}

// attempt runs one intent to a terminal outcome, switching endpoints on
// recoverable failures. The intent (and its idempotency key) is shared
// across the retries so the marketplace can de-duplicate.
func (o *Orchestrator) attempt(ctx context.Context, u *session.User, item *roblox.Item) Attempt {
	intent := roblox.NewBuyData(item)

	var last Attempt
	for try := 0; try <= o.retries; try++ {
		if o.jar != nil {
			if err := o.jar.Wait(ctx); err != nil {
				return Attempt{UserID: u.UserID(), ItemID: item.ItemTargetID, Err: err}
			}
		}

		ep := o.pool.Next()
		verdict, err := u.Purchase(intent, ep)
		last = Attempt{
			UserID:  u.UserID(),
			ItemID:  item.ItemTargetID,
			Route:   ep.Route(),
			Verdict: verdict,
			Err:     err,
		}

		if err == nil {
			if verdict.Purchased {
				u.MarkPurchased(item.ItemTargetID)
			}
			return last
		}

		// Credential and funds problems won't improve on another route.
		if errors.Is(err, session.ErrInsufficientFunds) || errors.Is(err, session.ErrMissingCSRF) {
			return last
		}

		logging.L().Debug("retrying on another endpoint",
			zap.Uint64("user_id", u.UserID()),
			zap.Uint64("item_id", item.ItemTargetID),
			zap.String("route", ep.Route()),
			zap.Error(err))
	}
	return last
}
