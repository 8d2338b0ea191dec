package banner

import "testing"

func TestLetter(t *testing.T) {
	cases := []struct {
		order int
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tc := range cases {
		if got := Letter(tc.order); got != tc.want {
			t.Errorf("Letter(%d) = %q, expected %q", tc.order, got, tc.want)
		}
	}
}

func TestColumnIsTotal(t *testing.T) {
	if !(Column{ID: TotalID}).IsTotal() {
		t.Error("TOTAL column should report IsTotal")
	}
	if (Column{ID: "male"}).IsTotal() {
		t.Error("non-total column should not report IsTotal")
	}
}

func TestColumnHeader(t *testing.T) {
	col := Column{ID: "male", Label: "Male", Order: 1, Letter: "B"}
	h := col.Header()
	if h.ID != "male" || h.Label != "Male" || h.Letter != "B" {
		t.Errorf("header = %+v", h)
	}
}
