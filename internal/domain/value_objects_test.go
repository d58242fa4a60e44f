package domain

import "testing"

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		name         string
		page, size   string
		wantPage     int
		wantPageSize int
		wantErr      bool
	}{
		{"defaults", "", "", 1, DefaultPageSize, false},
		{"explicit", "2", "1", 2, 1, false},
		{"size capped", "1", "1000", 1, MaxPageSize, false},
		{"zero page", "0", "", 0, 0, true},
		{"negative size", "1", "-3", 0, 0, true},
		{"non numeric", "two", "", 0, 0, true},
		{"page overflows offset", "9223372036854775807", "10", 0, 0, true},
		{"page out of range", "30000000", "100", 0, 0, true},
		{"large page in range", "20000000", "100", 20000000, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPageRequest(tt.page, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !IsValidationError(err) {
					t.Errorf("error kind = %v, want validation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize {
				t.Errorf("got %+v, want page=%d size=%d", got, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name         string
		items        []string
		total        int
		req          PageRequest
		wantNext     bool
		wantPrevious bool
		wantPages    int
	}{
		{"middle page", []string{"b"}, 3, PageRequest{Page: 2, PageSize: 1}, true, true, 3},
		{"first page", []string{"a", "b"}, 3, PageRequest{Page: 1, PageSize: 2}, true, false, 2},
		{"last page", []string{"c"}, 3, PageRequest{Page: 2, PageSize: 2}, false, true, 2},
		{"empty", nil, 0, PageRequest{Page: 1, PageSize: 10}, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPage(tt.items, tt.total, tt.req)
			if page.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", page.HasNext, tt.wantNext)
			}
			if page.HasPrevious != tt.wantPrevious {
				t.Errorf("HasPrevious = %v, want %v", page.HasPrevious, tt.wantPrevious)
			}
			if page.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", page.TotalPages, tt.wantPages)
			}
			if page.Results == nil {
				t.Error("Results should never be nil")
			}
		})
	}
}

func TestPageRequest_Offset(t *testing.T) {
	if got := (PageRequest{Page: 3, PageSize: 20}).Offset(); got != 40 {
		t.Errorf("Offset() = %d, want 40", got)
	}
}
