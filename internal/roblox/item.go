package roblox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/yourneighborhoodchef/sniper/internal/headers"
)

// CreatorType is the owner kind the marketplace distinguishes for
// creators, purchasers and sellers.
type CreatorType string

const (
	CreatorUser  CreatorType = "user"
	CreatorGroup CreatorType = "group"
)

// Item is a purchasable collectible as resolved from the marketplace
// details endpoint.
type Item struct {
	CollectibleItemID    string      `json:"collectibleItemId"`
	CollectibleProductID string      `json:"collectibleProductId"`
	CreatorType          CreatorType `json:"creatorType"`
	ItemTargetID         uint64      `json:"itemTargetId"`
	CreatorID            uint64      `json:"creatorId"`
	Price                uint64      `json:"price"`
	QuantityLimitPerUser uint64      `json:"quantityLimitPerUser"`
}

type catalogItem struct {
	CollectibleItemID string `json:"collectibleItemId"`
}

type itemDetailsPayload struct {
	ItemIDs []string `json:"itemIds"`
}

// Resolver turns human-facing catalog ids into purchasable Items. It
// talks to the marketplace directly, without a proxy.
type Resolver struct {
	api  *API
	http tls_client.HttpClient
}

func NewResolver(api *API) (*Resolver, error) {
	if api == nil {
		api = DefaultAPI()
	}
	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	)
	if err != nil {
		return nil, err
	}
	return &Resolver{api: api, http: client}, nil
}

// ItemByCollectibleID resolves the full details of one collectible item.
func (r *Resolver) ItemByCollectibleID(collectibleItemID string) (*Item, error) {
	body, err := json.Marshal(itemDetailsPayload{ItemIDs: []string{collectibleItemID}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, r.api.ItemDetailsURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = headers.Build("", "")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("item details request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode item details: %w (%s)", err, BodySample(raw))
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no item details for %s", collectibleItemID)
	}
	return &items[0], nil
}

// Item resolves a catalog asset id to its collectible item details.
func (r *Resolver) Item(id uint64) (*Item, error) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf(r.api.CatalogDetailsURL, id), nil)
	if err != nil {
		return nil, err
	}
	req.Header = headers.Build("", "")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog details request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var ci catalogItem
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, fmt.Errorf("decode catalog details: %w (%s)", err, BodySample(raw))
	}
	if ci.CollectibleItemID == "" {
		return nil, fmt.Errorf("asset %d has no collectible item id", id)
	}
	return r.ItemByCollectibleID(ci.CollectibleItemID)
}

// BodySample truncates a response body for diagnostics.
func BodySample(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
