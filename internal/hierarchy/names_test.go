package hierarchy

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func testStreets() *StreetNames {
	s := NewStreetNames()
	s.Set(1, "Kongens gate")
	s.Set(2, "Storgata")
	s.Set(3, "  Kongens   gate ")
	s.Set(4, "Bakkeveien")
	return s
}

func TestLoc3Name(t *testing.T) {
	n := NewNameSynthesizer(testStreets(), 0)

	tests := []struct {
		street StreetKey
		want   string
	}{
		{StreetKey{1, "15A"}, "Kongens gate 15A"},
		{StreetKey{3, "2"}, "Kongens gate 2"},
		{StreetKey{9, "7"}, "7"},
		{StreetKey{2, ""}, "Storgata"},
	}

	for _, tt := range tests {
		if got := n.Loc3Name(tt.street); got != tt.want {
			t.Errorf("Loc3Name(%s) = %q, want %q", tt.street, got, tt.want)
		}
	}
}

func TestLoc2Name(t *testing.T) {
	n := NewNameSynthesizer(testStreets(), 0)

	tests := []struct {
		name    string
		streets []StreetKey
		want    string
	}{
		{
			name:    "numbers sort numerically",
			streets: []StreetKey{{1, "10"}, {1, "2"}, {1, "2B"}},
			want:    "Kongens gate 2/2B/10",
		},
		{
			name:    "streets sort by name",
			streets: []StreetKey{{4, "1"}, {2, "5"}, {1, "3"}},
			want:    "Bakkeveien 1, Kongens gate 3, Storgata 5",
		},
		{
			name:    "same street name merges",
			streets: []StreetKey{{1, "1"}, {3, "1"}, {3, "4"}},
			want:    "Kongens gate 1/4",
		},
		{
			name:    "empty",
			streets: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Loc2Name(tt.streets))
		})
	}
}

func TestLoc2NameTruncates(t *testing.T) {
	n := NewNameSynthesizer(testStreets(), 20)
	name := n.Loc2Name([]StreetKey{{1, "1"}, {1, "3"}, {1, "5"}, {1, "7"}, {2, "9"}})

	assert.Equal(t, 20, utf8.RuneCountInString(name))
	assert.True(t, strings.HasSuffix(name, "…"))
	assert.True(t, strings.HasPrefix(name, "Kongens gate 1/3/5/"))

	long := NewNameSynthesizer(testStreets(), 0)
	var many []StreetKey
	for i := 0; i < 200; i++ {
		many = append(many, StreetKey{1, strings.Repeat("1", 1+i%3) + string(rune('A'+i%26))})
	}
	assert.LessOrEqual(t, utf8.RuneCountInString(long.Loc2Name(many)), DefaultMaxLoc2NameLength)
}

func TestNewLoc2Name(t *testing.T) {
	n := NewNameSynthesizer(testStreets(), 0)
	streets := []StreetKey{{2, "4"}}

	assert.Equal(t, "Bygningsnr:7000", n.NewLoc2Name(Known(7000), streets))
	assert.Equal(t, "Storgata 4", n.NewLoc2Name(Synthetic(StreetKey{2, "4"}), streets))
}
