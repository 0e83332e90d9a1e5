package headers

import (
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
)

func TestBuildAuthenticated(t *testing.T) {
	h := Build("mycookie", "mytoken")

	assert.Equal(t, ".ROBLOSECURITY=mycookie;", h.Get("Cookie"))
	assert.Equal(t, "mytoken", h.Get("X-Csrf-Token"))
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.NotEmpty(t, h.Get("User-Agent"))
	assert.Equal(t, headerOrder, h[http.HeaderOrderKey])
}

func TestBuildAnonymous(t *testing.T) {
	h := Build("", "")
	assert.Empty(t, h.Get("Cookie"))
	assert.Empty(t, h.Get("X-Csrf-Token"))
}
