package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Params
		wantPage  int
		wantLimit int
	}{
		{"defaults", Params{}, 1, DefaultLimit},
		{"negative values", Params{Page: -3, Limit: -1}, 1, DefaultLimit},
		{"capped limit", Params{Page: 2, Limit: 500}, 2, MaxLimit},
		{"passthrough", Params{Page: 4, Limit: 10}, 4, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Page != tc.wantPage || got.Limit != tc.wantLimit {
				t.Fatalf("normalize = %+v, want page=%d limit=%d", got, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	p := Params{Page: 3, Limit: 25}
	if got := p.Offset(); got != 50 {
		t.Fatalf("offset = %d, want 50", got)
	}
	if got := (Params{}).Normalize().Offset(); got != 0 {
		t.Fatalf("offset = %d, want 0", got)
	}
}
