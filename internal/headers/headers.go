package headers

import (
	"fmt"
	"math/rand"

	http "github.com/bogdanfinn/fhttp"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var langOpts = []string{
	"en-US,en;q=0.9",
	"en-US,en;q=0.8",
	"en-GB,en;q=0.9,en-US;q=0.8",
	"en-US",
}

var headerOrder = []string{
	"Accept",
	"Accept-Language",
	"Content-Type",
	"Cookie",
	"Origin",
	"Referer",
	"User-Agent",
	"X-Csrf-Token",
}

// Build assembles the headers for an authenticated Roblox API call.
// cookie and csrf may be empty for unauthenticated requests.
func Build(cookie, csrf string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", langOpts[rand.Intn(len(langOpts))])
	h.Set("Content-Type", "application/json")
	h.Set("Origin", "https://www.roblox.com")
	h.Set("Referer", "https://www.roblox.com/")
	h.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])

	if cookie != "" {
		h.Set("Cookie", fmt.Sprintf(".ROBLOSECURITY=%s;", cookie))
	}
	if csrf != "" {
		h.Set("X-Csrf-Token", csrf)
	}

	h[http.HeaderOrderKey] = headerOrder

	return h
}
