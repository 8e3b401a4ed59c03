package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"empty", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"kept", PageRequest{Page: 3, PageSize: 10}, PageRequest{Page: 3, PageSize: 10}},
		{"clamped", PageRequest{Page: 1, PageSize: 500}, PageRequest{Page: 1, PageSize: MaxPageSize}},
		{"negative", PageRequest{Page: -2, PageSize: -1}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Defaults()
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse([]int(nil), 2, 10, 21)
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %v", resp.Data)
	}
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if (&PageRequest{Page: 2, PageSize: 10}).Offset() != 10 {
		t.Error("expected offset 10 for page 2")
	}

	if zero := NewPageResponse([]int{}, 1, 0, 5); zero.TotalPages != 0 {
		t.Errorf("expected 0 pages for a zero page size, got %d", zero.TotalPages)
	}
}
