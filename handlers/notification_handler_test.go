package handlers

import "testing"

func TestClampPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         string
		pageSize     string
		wantPage     int
		wantPageSize int
	}{
		{"no params", "", "", 1, 20},
		{"valid values", "3", "50", 3, 50},
		{"zero page", "0", "20", 1, 20},
		{"negative page", "-2", "20", 1, 20},
		{"page size only", "", "20", 1, 20},
		{"oversized page size", "1", "500", 1, 20},
		{"zero page size", "1", "0", 1, 20},
		{"garbage input", "abc", "xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, pageSize := clampPagination(tt.page, tt.pageSize)
			if page != tt.wantPage || pageSize != tt.wantPageSize {
				t.Errorf("clampPagination(%q, %q) = (%d, %d), want (%d, %d)",
					tt.page, tt.pageSize, page, pageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}
