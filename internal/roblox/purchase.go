package roblox

import "github.com/google/uuid"

// BuyData is the purchase-item request body. The idempotency key lets
// the marketplace de-duplicate a retried attempt; reuse the same BuyData
// when retrying after a transient failure.
type BuyData struct {
	CollectibleItemID     string      `json:"collectibleItemId"`
	CollectibleProductID  string      `json:"collectibleProductId"`
	ExpectedCurrency      int         `json:"expectedCurrency"`
	ExpectedPrice         uint64      `json:"expectedPrice"`
	ExpectedPurchaserID   uint64      `json:"expectedPurchaserId"`
	ExpectedPurchaserType CreatorType `json:"expectedPurchaserType"`
	ExpectedSellerID      uint64      `json:"expectedSellerId"`
	ExpectedSellerType    CreatorType `json:"expectedSellerType"`
	// Wire name matches the marketplace API, typo included.
	IdempotencyKey string `json:"idemptoencyKey"`
}

// NewBuyData builds a purchase intent from an item template with a fresh
// idempotency key. Seller fields are placeholders until a session claims
// the intent.
func NewBuyData(item *Item) *BuyData {
	return &BuyData{
		CollectibleItemID:     item.CollectibleItemID,
		CollectibleProductID:  item.CollectibleProductID,
		ExpectedCurrency:      1,
		ExpectedPrice:         item.Price,
		ExpectedPurchaserID:   item.CreatorID,
		ExpectedPurchaserType: CreatorUser,
		ExpectedSellerID:      0,
		ExpectedSellerType:    item.CreatorType,
		IdempotencyKey:        uuid.NewString(),
	}
}

// PurchaseData is the marketplace's verdict on a purchase attempt.
// Purchased is the only field that carries authority; the rest is
// diagnostic.
type PurchaseData struct {
	// e.g. "Flooded"
	PurchaseResult *string `json:"purchaseResult"`
	// e.g. "QuantityExhausted", purchaser-type mismatch text
	ErrorMessage *string `json:"errorMessage"`
	Purchased    bool    `json:"purchased"`
}
