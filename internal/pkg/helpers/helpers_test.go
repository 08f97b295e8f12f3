package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		page, size int
		offset     uint64
		limit      int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{2, 0, uint64(DefaultPageSize), DefaultPageSize},
		{2, MaxPageSize + 1, uint64(DefaultPageSize), DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := CalculateOffsetLimit(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Fatalf("CalculateOffsetLimit(%d,%d) = %d,%d want %d,%d", tt.page, tt.size, offset, limit, tt.offset, tt.limit)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPaginationInfo(45, 2, 20)
	if p.TotalPages != 3 || p.CurrentPage != 2 || p.TotalItems != 45 {
		t.Fatalf("unexpected pagination: %+v", p)
	}

	empty := NewPaginationInfo(0, 4, 20)
	if empty.TotalPages != 1 || empty.CurrentPage != 1 {
		t.Fatalf("empty listing: %+v", empty)
	}
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/posts?page=3&size=500", nil)

	page, size := ParsePaginationParams(c)
	if page != 3 || size != DefaultPageSize {
		t.Fatalf("got page=%d size=%d", page, size)
	}
}

func TestIsValidID(t *testing.T) {
	if IsValidID("xyz") {
		t.Fatalf("xyz accepted")
	}
	if IsValidID("{7c4b1d1e-3f0a-4c55-9f7e-2f3a1b0c9d8e}") {
		t.Fatalf("braced form accepted")
	}
	if !IsValidID("7c4b1d1e-3f0a-4c55-9f7e-2f3a1b0c9d8e") {
		t.Fatalf("canonical uuid rejected")
	}
}

func TestParseDuration(t *testing.T) {
	if d := ParseDuration("90s", time.Minute); d != 90*time.Second {
		t.Fatalf("got %v", d)
	}
	if d := ParseDuration("soon", time.Minute); d != time.Minute {
		t.Fatalf("fallback not used: %v", d)
	}
}
