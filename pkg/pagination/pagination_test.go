package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, "newest", p.Order)
}

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	p := FromRequest(req)

	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, "newest", p.Order)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews?limit=50&offset=100&order=rating_desc", nil)
	p := FromRequest(req)

	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 100, p.Offset)
	assert.Equal(t, "rating_desc", p.Order)
}

func TestFromRequest_LimitCappedAtMax(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews?limit=500", nil)
	p := FromRequest(req)
	assert.Equal(t, 100, p.Limit)
}

func TestFromRequest_LimitExactlyMax(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reviews?limit=100", nil)
	p := FromRequest(req)
	assert.Equal(t, 100, p.Limit)
}

func TestFromRequest_InvalidLimit(t *testing.T) {
	for _, raw := range []string{"0", "-5", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/reviews?limit="+raw, nil)
		p := FromRequest(req)
		assert.Equal(t, 20, p.Limit, "limit=%s should fall back to default", raw)
	}
}

func TestFromRequest_InvalidOffset(t *testing.T) {
	for _, raw := range []string{"-1", "xyz"} {
		req := httptest.NewRequest(http.MethodGet, "/reviews?offset="+raw, nil)
		p := FromRequest(req)
		assert.Equal(t, 0, p.Offset, "offset=%s should fall back to default", raw)
	}
}
