package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tc := range tests {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		params Params
		want   int
	}{
		{Params{Limit: 10, Page: 1}, 0},
		{Params{Limit: 10, Page: 3}, 20},
		{Params{Limit: 0, Page: 0}, 0},
		{Params{Limit: 10, Page: -2}, 0},
	}
	for _, tc := range tests {
		if got := tc.params.Offset(); got != tc.want {
			t.Fatalf("Offset(%+v) = %d, want %d", tc.params, got, tc.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{101, 10, 11},
	}
	for _, tc := range tests {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
