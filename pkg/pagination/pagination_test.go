package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/patients"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContextDefaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("defaults: got %+v", p)
	}
}

func TestFromContextClampsLimit(t *testing.T) {
	p := paramsFor(t, "?limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("limit: got %d want %d", p.Limit, MaxLimit)
	}

	p = paramsFor(t, "?limit=-3&offset=-9")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("negative values: got %+v", p)
	}
}

func TestFromContextExplicit(t *testing.T) {
	p := paramsFor(t, "?limit=10&offset=30")
	if p.Limit != 10 || p.Offset != 30 {
		t.Errorf("explicit: got %+v", p)
	}
}

func TestResponseHasMore(t *testing.T) {
	if r := NewResponse(nil, 50, 20, 0); !r.HasMore {
		t.Error("expected has_more for first page of 50")
	}
	if r := NewResponse(nil, 50, 20, 40); r.HasMore {
		t.Error("expected no has_more on final page")
	}
}
