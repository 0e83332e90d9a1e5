package roblox

// API holds the endpoint set for the marketplace. The zero value is not
// usable; call DefaultAPI for production endpoints or override fields in
// tests.
type API struct {
	// POST, body {"itemIds": [...]}
	ItemDetailsURL string
	// GET, %d is the catalog asset id
	CatalogDetailsURL string
	// POST, %s is the collectible item id
	PurchaseURL string
	// POST, only the x-csrf-token response header matters
	LogoutURL string
	// GET, %d is the user id
	CurrencyURL string
}

func DefaultAPI() *API {
	return &API{
		ItemDetailsURL:    "https://apis.roblox.com/marketplace-items/v1/items/details",
		CatalogDetailsURL: "https://catalog.roblox.com/v1/catalog/items/%d/details?itemType=Asset",
		PurchaseURL:       "https://apis.roblox.com/marketplace-sales/v1/item/%s/purchase-item",
		LogoutURL:         "https://auth.roblox.com/v2/logout",
		CurrencyURL:       "https://economy.roblox.com/v1/users/%d/currency",
	}
}
