package normalize

import (
	"testing"
)

func TestStreetNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"15", "15"},
		{"15A", "15A"},
		{"15a", "15A"},
		{" 015 b ", "15B"},
		{"0", "0"},
		{"", ""},
		{"12 - 14", "12-14"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := StreetNumber(tt.input); got != tt.want {
				t.Errorf("StreetNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocCode(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"1", 2, "01"},
		{"01", 2, "01"},
		{" 7 ", 3, "007"},
		{"12", 2, "12"},
		{"A1", 2, "A1"},
		{"", 2, ""},
	}

	for _, tt := range tests {
		if got := LocCode(tt.input, tt.width); got != tt.want {
			t.Errorf("LocCode(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}

func TestParseNameSuffix(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantStreet string
		wantNumber string
		wantOK     bool
	}{
		{
			name:       "street with letter suffix",
			input:      "Kongens gate 15A",
			wantStreet: "Kongens gate",
			wantNumber: "15A",
			wantOK:     true,
		},
		{
			name:       "legacy entrance prefix",
			input:      "Inngang Storgata 2",
			wantStreet: "Storgata",
			wantNumber: "2",
			wantOK:     true,
		},
		{
			name:       "separated letter and comma",
			input:      "Åsveien, 012 b",
			wantStreet: "Åsveien",
			wantNumber: "12B",
			wantOK:     true,
		},
		{
			name:   "no trailing number",
			input:  "Blokk B",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			street, number, ok := ParseNameSuffix(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNameSuffix(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if street != tt.wantStreet || number != tt.wantNumber {
				t.Errorf("ParseNameSuffix(%q) = (%q, %q), want (%q, %q)",
					tt.input, street, number, tt.wantStreet, tt.wantNumber)
			}
		})
	}
}

func TestStreetNameKey(t *testing.T) {
	if StreetNameKey("Kongens  Gate") != StreetNameKey("kongens gate") {
		t.Errorf("expected case and spacing to be ignored")
	}
	if StreetNameKey("Øvre Slottsgate") == StreetNameKey("Nedre Slottsgate") {
		t.Errorf("different streets must not collide")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abc", 5); got != "abc" {
		t.Errorf("Truncate short = %q", got)
	}
	got := Truncate("abcdefgh", 5)
	if got != "abcd…" {
		t.Errorf("Truncate long = %q, want %q", got, "abcd…")
	}
	if n := len([]rune(got)); n != 5 {
		t.Errorf("Truncate length = %d, want 5", n)
	}
}

func TestNaturalSorter(t *testing.T) {
	values := []string{"10", "2", "15B", "15A", "1"}
	NewNaturalSorter().Strings(values)

	want := []string{"1", "2", "10", "15A", "15B"}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", values, want)
		}
	}
}

func TestAbbreviations(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Kongens gt.", "Kongens gate", true},
		{"Gl. Kongevei", "Gl Kongevei", true},
		{"Solbakken vn", "Solbakkeveien", false},
		{"V Storgate", "vei Storgate", false},
		{"Ringnes pl.", "ringnes PLASS", true},
	}

	for _, tt := range tests {
		if got := StreetNameKey(tt.a) == StreetNameKey(tt.b); got != tt.same {
			t.Errorf("StreetNameKey(%q) == StreetNameKey(%q) is %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}
