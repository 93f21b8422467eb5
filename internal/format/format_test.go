package format

import "testing"

func TestCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{500, "$500"},
		{999, "$999"},
		{1000, "$1.0K"},
		{3400, "$3.4K"},
		{999999, "$1000.0K"},
		{1200000, "$1.2M"},
	}
	for _, c := range cases {
		if got := Currency(c.in); got != c.want {
			t.Fatalf("Currency(%f) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTonnage(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 MT"},
		{500, "500 MT"},
		{5000, "5.0K MT"},
		{25000, "25.0K MT"},
		{1200000, "1.2M MT"},
	}
	for _, c := range cases {
		if got := Tonnage(c.in); got != c.want {
			t.Fatalf("Tonnage(%f) = %q, want %q", c.in, got, c.want)
		}
	}
}
