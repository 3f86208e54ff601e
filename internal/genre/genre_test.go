package genre

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"Death Metal":       "Metal",
		"punk rock":         "Rock",
		"hip-hop":           "Hip Hop/Rap",
		"trap":              "Hip Hop/Rap",
		"jazz house":        "Jazz",
		"deep house":        "Electronic/Dance",
		"bebop":             "Jazz",
		"delta blues":       "Blues",
		"blues rock":        "Rock",
		"neo soul":          "Soul/R&B",
		"funk":              "Funk",
		"indie folk":        "Folk/Americana",
		"alt-country":       "Country",
		"indie":             "Indie/Alternative",
		"indie pop":         "Indie/Alternative",
		"synthpop":          "Pop",
		"k-pop":             "Pop",
		"roots reggae":      "Folk/Americana",
		"reggae":            "Reggae/Caribbean",
		"bossa nova":        "Latin",
		"baroque":           "Classical",
		"celtic":            "World",
		"gospel":            "Gospel/Christian",
		"christmas":         "Holiday",
		"hardcore punk":     "Electronic/Dance",
		"post-punk":         "Punk",
		"disco":             "Disco",
		"  Shoegaze  ":      "Rock",
		"singer-songwriter": "Folk/Americana",
	}
	for tag, want := range cases {
		got, ok := Classify(tag)
		if !ok || got != want {
			t.Errorf("Classify(%q) = %q, %v; want %q", tag, got, ok, want)
		}
	}
}

func TestClassifyUnmatched(t *testing.T) {
	for _, tag := range []string{"", "seen live", "female vocalists", "favorites"} {
		if g, ok := Classify(tag); ok {
			t.Errorf("Classify(%q) = %q, want no match", tag, g)
		}
	}
}

func TestBroadIsDistinctAndOrdered(t *testing.T) {
	got := Broad([]string{"indie rock", "seen live", "alternative rock", "electronic", "indie"})
	want := []string{"Rock", "Electronic/Dance", "Indie/Alternative"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Broad() = %v, want %v", got, want)
	}
}

func TestLookup(t *testing.T) {
	lookup := Lookup(map[string][]string{
		"Radiohead": {"alternative", "rock"},
		"Nobody":    {"seen live"},
	})
	if got := lookup("Radiohead"); !reflect.DeepEqual(got, []string{"Indie/Alternative", "Rock"}) {
		t.Errorf("lookup(Radiohead) = %v", got)
	}
	if got := lookup("Nobody"); got != nil {
		t.Errorf("lookup(Nobody) = %v, want nil", got)
	}
	if got := lookup("Missing"); got != nil {
		t.Errorf("lookup(Missing) = %v, want nil", got)
	}
}
