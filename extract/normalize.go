package extract

import (
	"regexp"
	"strings"
)

// commonShortWords lists real 2-3 letter English words that must not be
// joined to an adjacent fragment by the spurious-split fixer.
var commonShortWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		ad ah am an as at ax be by do go ha he hi ho if in is it ma me mr
		ms my no of oh ok on or ow ox so to up us we
		abs ace act add age ago aid aim air all and any apt arc are ark arm
		art ask ate bad bag ban bar bat bay bed bet bid big bit bow box boy
		bud bug bun bus but buy cab can cap car cat cop cow cry cup cut dad
		dam day did die dig dim dip dog dot dry dub due dug dye ear eat egg
		ego end era eve eye fan far fat fax fed fee few fig fin fit fix fly
		fog for fox fry fun fur gap gas get god got gum gun gut guy gym had
		ham has hat hay hen her hid him hip his hit hog hop hot how hub hug
		hut ice icy ill ink inn ion its ivy jam jar jaw jay jet job jog joy
		jug key kid kin kit lab lad lag lap law lay led leg let lid lie lip
		lit log lot low mad man map mat max may men met mid mix mob mod mom
		mop mud mug nap net new nil nod nor not now nun nut oak oar oat odd
		off oft oil old one opt ore our out owe owl own pad pal pan par pat
		paw pay pea peg pen per pet pie pig pin pit ply pod pop pot pro pry
		pub pun pup put rag ram ran rap rat raw ray red ref rib rid rig rim
		rip rob rod rot row rub rug rum run rut rye sad sag sap sat saw say
		sea set sew she shy sin sip sir sis sit six ski sky sly sob sod son
		sow soy spa spy sub sue sum sun tab tag tan tap tar tax tea ten the
		thy tie tin tip toe ton too top tot tow toy try tub tug two urn use
		van vat vet via vow wad wag war was wax way web wed wet who why wig
		win wit woe wok won woo wow yam yap yaw yea yes yet yew you zap zen
		zip zoo`) {
		commonShortWords[w] = true
	}
}

var (
	hyphenSplitRe  = regexp.MustCompile(`(\w+)-\n(\w+)`)
	pairLettersRe  = regexp.MustCompile(`(^|\s)([b-hj-z]) ([b-hj-z])($|[\s.,;:!?)])`)
	trailLetterRe  = regexp.MustCompile(`(\w\w+) ([b-hj-z])($|[\s.,;:!?)])`)
	leadLetterRe   = regexp.MustCompile(`(^|\s)([b-hj-z]) ([a-z][a-z]+)`)
	shortFragRe    = regexp.MustCompile(`(^|\s)([a-z]{2,3}) ([a-z]{3,})`)
	articleLineRe  = regexp.MustCompile(`(?i)^Article\s+\d+`)
	structHeaderRe = regexp.MustCompile(`^(Article|ARTICLE|Section|SECTION)\s+`)
)

// Dehyphenate joins "word-\nfrag" into "wordfrag" when the continuation
// starts lowercase; compound words keep their hyphen.
func Dehyphenate(text string) string {
	return hyphenSplitRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := hyphenSplitRe.FindStringSubmatch(m)
		first, second := sub[1], sub[2]
		if second != "" && second[0] >= 'a' && second[0] <= 'z' {
			return first + second
		}
		return first + "-" + second
	})
}

// NormalizeText normalizes page text for consistent indexing: dehyphenates,
// rejoins spurious splits from PDF extraction, collapses whitespace, and
// drops empty lines. Deterministic.
func NormalizeText(text string) string {
	text = Dehyphenate(text)

	// Pattern 1: two adjacent single lowercase letters - "o f" -> "of".
	// Runs first so pairs are joined before other patterns consume them.
	text = pairLettersRe.ReplaceAllString(text, "$1$2$3$4")

	// Pattern 2: trailing single letter on a word - "member s" -> "members".
	text = trailLetterRe.ReplaceAllString(text, "$1$2$3")

	// Pattern 3: leading single letter before continuation - "e mployee" -> "employee".
	text = leadLetterRe.ReplaceAllString(text, "$1$2$3")

	// Pattern 4: short fragment before a longer continuation - "pe rform"
	// -> "perform", gated by the real-word denylist.
	text = shortFragRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := shortFragRe.FindStringSubmatch(m)
		if commonShortWords[strings.ToLower(sub[2])] {
			return m
		}
		return sub[1] + sub[2] + sub[3]
	})

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			normalized = append(normalized, line)
		}
	}
	return strings.Join(normalized, "\n")
}

// detectRepeatedLines finds lines appearing on at least threshold of the
// pages (likely headers/footers). Needs 3+ pages; Article-style lines are
// never flagged.
func detectRepeatedLines(pages []string, threshold float64) map[string]bool {
	if len(pages) < 3 {
		return nil
	}

	counts := make(map[string]int)
	for _, pageText := range pages {
		seen := make(map[string]bool)
		for _, line := range strings.Split(pageText, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 2 {
				seen[line] = true
			}
		}
		for line := range seen {
			counts[line]++
		}
	}

	repeated := make(map[string]bool)
	for line, count := range counts {
		if float64(count)/float64(len(pages)) >= threshold && !articleLineRe.MatchString(line) &&
			!structHeaderRe.MatchString(line) {
			repeated[line] = true
		}
	}
	return repeated
}

// removeRepeatedLines strips detected header/footer lines from text.
func removeRepeatedLines(text string, repeated map[string]bool) string {
	if len(repeated) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	filtered := lines[:0]
	for _, line := range lines {
		if !repeated[strings.TrimSpace(line)] {
			filtered = append(filtered, line)
		}
	}
	return strings.Join(filtered, "\n")
}
