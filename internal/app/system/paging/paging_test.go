// internal/app/system/paging/paging_test.go
package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url  string
		want Page
	}{
		{"/audit", Page{Number: 1, Size: PageSize}},
		{"/audit?page=3", Page{Number: 3, Size: PageSize}},
		{"/audit?page=0", Page{Number: 1, Size: PageSize}},
		{"/audit?page=-2", Page{Number: 1, Size: PageSize}},
		{"/audit?page=abc", Page{Number: 1, Size: PageSize}},
		{"/audit?page=2&size=10", Page{Number: 2, Size: 10}},
		{"/audit?size=10000", Page{Number: 1, Size: MaxPageSize}},
		{"/audit?size=0", Page{Number: 1, Size: PageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Parse(httptest.NewRequest("GET", tt.url, nil))
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestPage_OffsetLimit(t *testing.T) {
	p := Page{Number: 3, Size: 20}
	if p.Offset() != 40 {
		t.Errorf("Offset() = %d, want 40", p.Offset())
	}
	if p.Limit() != 20 {
		t.Errorf("Limit() = %d, want 20", p.Limit())
	}
}

func TestPage_ComputeRange(t *testing.T) {
	tests := []struct {
		name  string
		page  Page
		shown int
		total int64
		want  Range
	}{
		{"empty", Page{1, 50}, 0, 0, Range{}},
		{"past the end", Page{3, 50}, 0, 20, Range{HasPrev: true}},
		{"single page", Page{1, 50}, 20, 20, Range{Start: 1, End: 20}},
		{"first of many", Page{1, 50}, 50, 120, Range{Start: 1, End: 50, HasNext: true}},
		{"middle", Page{2, 50}, 50, 120, Range{Start: 51, End: 100, HasPrev: true, HasNext: true}},
		{"last", Page{3, 50}, 20, 120, Range{Start: 101, End: 120, HasPrev: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.ComputeRange(tt.shown, tt.total); got != tt.want {
				t.Errorf("ComputeRange() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
