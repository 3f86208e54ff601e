// Package genre maps free-text genre tags onto a small set of broad genres.
package genre

import "strings"

type rule struct {
	genre string
	// The rule matches when the tag contains every string in all, at least
	// one string in any (if set), and nothing in none.
	all  []string
	any  []string
	none []string
}

func (r rule) matches(tag string) bool {
	for _, s := range r.all {
		if !strings.Contains(tag, s) {
			return false
		}
	}
	for _, s := range r.none {
		if strings.Contains(tag, s) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, s := range r.any {
		if strings.Contains(tag, s) {
			return true
		}
	}
	return false
}

// Rules are checked in order and the first match wins, so the more specific
// genres come first.
var rules = []rule{
	{genre: "Metal", any: []string{"metal", "deathcore", "djent"}},
	{genre: "Rock", any: []string{
		"rock", "grunge", "britpop", "shoegaze", "madchester", "aor", "new wave",
		"jam band", "southern gothic", "neo-psychedelic",
	}},
	{genre: "Hip Hop/Rap", any: []string{
		"hip hop", "hip-hop", "hiphop", "rap", "trap", "drill", "boom bap", "crunk",
		"g-funk", "horrorcore", "freestyle",
	}},
	{genre: "Jazz", all: []string{"jazz", "house"}},
	{genre: "Electronic/Dance", any: []string{
		"house", "techno", "trance", "edm", "electronic", "electronica",
		"drum and bass", "drum n bass", "dubstep", "ambient", "downtempo", "idm",
		"breakbeat", "garage", "bass", "hardstyle", "hardcore", "eurodance",
		"synthwave", "vaporwave", "chillwave", "nightcore", "trip hop", "trip-hop",
		"big beat", "big room", "electro", "chillstep", "darkwave", "hi-nrg",
		"new rave", "moombahton", "frenchcore",
	}},
	{genre: "Jazz", any: []string{"jazz", "bop"}},
	{genre: "Blues", all: []string{"blues"}, none: []string{"rock"}},
	{genre: "Blues", any: []string{"boogie-woogie"}},
	{genre: "Soul/R&B", any: []string{"soul", "r&b", "r & b", "rnb", "motown", "doo-wop"}},
	{genre: "Funk", all: []string{"funk"}, none: []string{"house"}},
	{genre: "Folk/Americana", any: []string{
		"folk", "americana", "singer-songwriter", "bluegrass", "roots", "newgrass",
		"sea shanties", "cajun", "zydeco",
	}},
	{genre: "Country", any: []string{"country", "honky tonk", "tejano", "red dirt"}},
	{genre: "Indie/Alternative", any: []string{"indie", "alternative", "bedroom", "lo-fi", "lofi", "slowcore"}},
	{genre: "Pop", any: []string{"pop", "chanson", "variété", "schlager"}},
	{genre: "Reggae/Caribbean", any: []string{
		"reggae", "ska", "dancehall", "dub", "ragga", "rocksteady", "calypso", "soca",
	}},
	{genre: "Latin", any: []string{
		"latin", "salsa", "bachata", "merengue", "cumbia", "mariachi", "tango",
		"bossa nova", "samba", "mpb", "pagode", "trova", "vallenato", "urbano",
		"corridos", "bolero", "cha cha cha", "candombe",
	}},
	{genre: "Classical", any: []string{
		"classical", "baroque", "opera", "symphony", "orchestral", "concerto",
		"chamber", "renaissance", "medieval", "choral", "gregorian",
		"impressionism", "minimalism", "early music", "ballet", "soundtrack",
	}},
	{genre: "World", any: []string{
		"african", "afro", "celtic", "indian", "bollywood", "bhangra", "flamenco",
		"fado", "klezmer", "world", "ethnic", "traditional", "balkan", "turkish",
		"arabic", "persian", "chinese", "japanese", "korean", "highlife", "enka",
		"shibuya-kei", "punjabi", "hindi", "tamil",
	}},
	{genre: "Gospel/Christian", any: []string{"gospel", "christian", "worship", "ccm", "devotional"}},
	{genre: "Holiday", any: []string{"christmas", "holiday", "villancicos"}},
	{genre: "Punk", all: []string{"punk"}, none: []string{"funk"}},
	{genre: "Punk", any: []string{"riot grrrl", "queercore"}},
	{genre: "Disco", any: []string{"disco"}},
}

// Classify returns the broad genre for a tag, or false if no rule matches.
func Classify(tag string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if t == "" {
		return "", false
	}
	for _, r := range rules {
		if r.matches(t) {
			return r.genre, true
		}
	}
	return "", false
}

// Broad classifies tags and returns the distinct broad genres in the order
// they first appear. Tags that match no rule are dropped.
func Broad(tags []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tag := range tags {
		g, ok := Classify(tag)
		if !ok || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// Lookup builds a lookup from each artist's tags, most relevant first.
func Lookup(artistTags map[string][]string) func(artist string) []string {
	broad := make(map[string][]string, len(artistTags))
	for artist, tags := range artistTags {
		if g := Broad(tags); len(g) > 0 {
			broad[artist] = g
		}
	}
	return func(artist string) []string {
		return broad[artist]
	}
}
