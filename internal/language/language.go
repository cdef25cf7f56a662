package language

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2      string   // ISO 639-1 (2-letter)
	code3      string   // ISO 639-2 primary (3-letter)
	alt3       string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display    string   // Human-readable name
	words      []string // Full word forms (e.g. "english")
	commentary bool     // accepted by the commentary service
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}, true},
	{"fr", "fra", "fre", "French", []string{"french"}, true},
	{"ar", "ara", "", "Arabic", []string{"arabic"}, true},
	{"ur", "urd", "", "Urdu", []string{"urdu"}, true},
	{"es", "spa", "", "Spanish", []string{"spanish"}, true},
	{"de", "deu", "ger", "German", []string{"german"}, false},
	{"it", "ita", "", "Italian", []string{"italian"}, false},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}, false},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}, false},
	{"ko", "kor", "", "Korean", []string{"korean"}, false},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}, false},
	{"ru", "rus", "", "Russian", []string{"russian"}, false},
	{"hi", "hin", "", "Hindi", []string{"hindi"}, false},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}, false},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if base, ok := baseFromTag(code); ok {
		if e, ok := byCode2[base]; ok {
			return e
		}
	}
	return nil
}

// baseFromTag extracts the primary language subtag from a BCP 47 tag such as
// "en-US" or "fr_CA".
func baseFromTag(code string) (string, bool) {
	if !strings.ContainsAny(code, "-_") {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return "", false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", false
	}
	return base.String(), true
}

// ToISO2 converts any recognized language code, word or BCP 47 tag to
// ISO 639-1 (2-letter). Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ToISO3 converts any recognized language code to ISO 639-2 (3-letter).
// Returns "und" for unrecognized 2-letter codes, passes through 3-letter codes.
func ToISO3(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "und"
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// NativeName returns the language's name written in that language
// (e.g. "français" for fr). Unrecognized codes yield an empty string.
func NativeName(code string) string {
	iso := ToISO2(code)
	if iso == "" {
		return ""
	}
	tag, err := language.Parse(iso)
	if err != nil {
		return ""
	}
	return display.Self.Name(tag)
}

// Supported reports whether the commentary service accepts the language.
func Supported(code string) bool {
	e := lookup(code)
	return e != nil && e.commentary
}

// Option describes one selectable commentary language.
type Option struct {
	Code    string
	Name    string
	Native  string
	Default bool
}

// Options lists the commentary languages in catalog order, flagging def as
// the default selection.
func Options(def string) []Option {
	def = ToISO2(def)
	out := make([]Option, 0, len(languages))
	for _, e := range languages {
		if !e.commentary {
			continue
		}
		out = append(out, Option{
			Code:    e.code2,
			Name:    e.display,
			Native:  NativeName(e.code2),
			Default: e.code2 == def,
		})
	}
	return out
}

// NormalizeList deduplicates and normalizes a list of language codes to ISO 639-1.
func NormalizeList(languages []string) []string {
	if len(languages) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(languages))
	seen := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		trimmed := strings.ToLower(strings.TrimSpace(lang))
		if trimmed == "" {
			continue
		}
		if mapped := ToISO2(trimmed); mapped != "" {
			trimmed = mapped
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}

// SupportedCodes returns the sorted commentary language codes.
func SupportedCodes() []string {
	codes := make([]string, 0, len(languages))
	for _, e := range languages {
		if e.commentary {
			codes = append(codes, e.code2)
		}
	}
	sort.Strings(codes)
	return codes
}
