package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// no trimming
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, -1, 1, DefaultPageSize},
		{2, 5, 2, 5},
		{1, 1000, 1, MaxPageSize},
	}
	for _, tc := range cases {
		p, s := ClampPage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ClampPage(%d,%d) = (%d,%d); want (%d,%d)", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
	if Offset(3, 20) != 40 {
		t.Fatalf("Offset(3,20) = %d", Offset(3, 20))
	}
}

func TestTotalPages(t *testing.T) {
	if TotalPages(0, 20) != 0 || TotalPages(1, 20) != 1 || TotalPages(40, 20) != 2 || TotalPages(41, 20) != 3 {
		t.Fatalf("unexpected TotalPages results")
	}
	if TotalPages(10, 0) != 0 {
		t.Fatalf("zero page size must yield 0")
	}
}
