package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	"github.com/yourneighborhoodchef/sniper/internal/headers"
	"github.com/yourneighborhoodchef/sniper/internal/logging"
	"github.com/yourneighborhoodchef/sniper/internal/proxy"
	"github.com/yourneighborhoodchef/sniper/internal/roblox"
)

var (
	ErrMissingCSRF       = errors.New("missing x-csrf-token from headers")
	ErrInsufficientFunds = errors.New("cannot afford item")
)

// User is one authenticated account. The cached balance is authoritative
// only locally: it is decremented after a confirmed purchase and
// otherwise only moves on an explicit RefreshBalance. All mutation goes
// through the user's own attempt flow; users are not shared between
// concurrent attempt loops.
type User struct {
	cookie string
	userID uint64
	robux  uint64

	// items bought this session, advisory duplicate-avoidance only
	history []uint64

	api  *roblox.API
	http tls_client.HttpClient
}

// New builds a user from a credential and an initial balance. A nil api
// selects the production endpoints.
func New(cookie string, userID, robux uint64, api *roblox.API) (*User, error) {
	if api == nil {
		api = roblox.DefaultAPI()
	}
	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	)
	if err != nil {
		return nil, err
	}
	return &User{cookie: cookie, userID: userID, robux: robux, api: api, http: client}, nil
}

func (u *User) UserID() uint64 { return u.userID }
func (u *User) Robux() uint64  { return u.robux }

func (u *User) HasPurchased(itemTargetID uint64) bool {
	for _, id := range u.history {
		if id == itemTargetID {
			return true
		}
	}
	return false
}

// MarkPurchased records an item in this session's history so later
// batches skip it.
func (u *User) MarkPurchased(itemTargetID uint64) {
	u.history = append(u.history, itemTargetID)
}

// FetchCSRF derives a fresh anti-forgery token. The logout call is
// expected to be rejected; only the token it echoes back matters.
func (u *User) FetchCSRF() (string, error) {
	req, err := http.NewRequest(http.MethodPost, u.api.LogoutURL, nil)
	if err != nil {
		return "", err
	}
	req.Header = headers.Build(u.cookie, "")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("csrf request: %w", err)
	}
	defer resp.Body.Close()

	token := resp.Header.Get("x-csrf-token")
	if token == "" {
		return "", ErrMissingCSRF
	}
	return token, nil
}

// Purchase runs one attempt for the given intent through the given
// endpoint. The affordability guard only consults the local cache; it
// trades staleness for not spending a round trip per attempt. The
// balance is decremented only after a decoded verdict confirms the
// purchase, so an ambiguous transport outcome leaves it untouched. A
// declined verdict is returned with a nil error.
func (u *User) Purchase(data *roblox.BuyData, ep *proxy.Endpoint) (*roblox.PurchaseData, error) {
	if data.ExpectedPrice > u.robux {
		return nil, ErrInsufficientFunds
	}

	// Claim the intent: the seller identity must be ours, not the
	// template's. The idempotency key is deliberately kept, so a retry
	// of the same intent de-duplicates remotely.
	claimed := *data
	claimed.ExpectedSellerID = u.userID
	claimed.ExpectedSellerType = roblox.CreatorUser

	csrf, err := u.FetchCSRF()
	if err != nil {
		return nil, err
	}

	resp, err := ep.Dispatch(
		fmt.Sprintf(u.api.PurchaseURL, claimed.CollectibleItemID),
		&claimed,
		headers.Build(u.cookie, csrf),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read purchase response: %w", err)
	}

	var verdict roblox.PurchaseData
	if err := json.Unmarshal(body, &verdict); err != nil {
		return nil, fmt.Errorf("decode purchase response (status %d): %w (%s)",
			resp.StatusCode, err, roblox.BodySample(body))
	}

	if verdict.Purchased {
		u.robux -= claimed.ExpectedPrice
	}

	return &verdict, nil
}

// RefreshBalance replaces the cached balance with the remote one. Used
// to reconcile after ambiguous outcomes; never called implicitly.
func (u *User) RefreshBalance() error {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf(u.api.CurrencyURL, u.userID), nil)
	if err != nil {
		return err
	}
	req.Header = headers.Build(u.cookie, "")

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("currency request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var cur struct {
		Robux uint64 `json:"robux"`
	}
	if err := json.Unmarshal(body, &cur); err != nil {
		return fmt.Errorf("decode currency response: %w", err)
	}
	u.robux = cur.Robux
	return nil
}

// FetchAll warms up the given users' credentials concurrently and
// returns the ones whose token fetch succeeded. Broken cookies are
// logged and dropped, not escalated.
func FetchAll(users []*User) []*User {
	type result struct {
		user *User
		err  error
	}

	results := make(chan result)
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u *User) {
			defer wg.Done()
			_, err := u.FetchCSRF()
			results <- result{user: u, err: err}
		}(u)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var live []*User
	for r := range results {
		if r.err != nil {
			logging.L().Warn("dropping user",
				zap.Uint64("user_id", r.user.userID), zap.Error(r.err))
			continue
		}
		live = append(live, r.user)
	}
	return live
}
