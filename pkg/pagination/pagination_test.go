package pagination

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, DefaultLimit, 0},
		{"negative limit", -5, 0, DefaultLimit, 0},
		{"over max", 10000, 0, MaxLimit, 0},
		{"negative offset", 20, -3, 20, 0},
		{"in range", 75, 150, 75, 150},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Clamp(c.limit, c.offset)
			if p.Limit != c.wantLimit || p.Offset != c.wantOffset {
				t.Errorf("Clamp(%d, %d) = %+v, want limit=%d offset=%d",
					c.limit, c.offset, p, c.wantLimit, c.wantOffset)
			}
		})
	}
}
