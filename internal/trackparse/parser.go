package trackparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const monthsEn = `January|February|March|April|May|June|July|August|September|October|November|December`
const monthsPt = `Janeiro|Fevereiro|Março|Abril|Maio|Junho|Julho|Agosto|Setembro|Outubro|Novembro|Dezembro`
const months = monthsEn + "|" + monthsPt

// Precompiled once and shared across calls; Parse never compiles a regex
// per invocation except the one dynamic per-speaker strip in cleanTitle.
var (
	extensionRe         = regexp.MustCompile(`(?i)\.(mp3|wav|m4a|flac|ogg|mpeg)$`)
	leadingNumberRe      = regexp.MustCompile(`^(\d+)[_\s-]`)
	isoDateAnywhereRe    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	comboSpeakerRe       = regexp.MustCompile(`(?i)^\d+[_\s-]+([A-Z]{2,5})[+&]([A-Z]{2,5})(?:\s+-|\s+\[|\s+[A-Z]|\s+[a-z]|-)`)
	singleSpeakerRe      = regexp.MustCompile(`(?i)^\d+[_\s-]+([A-Z]{2,5})(?:\s+-|\s+\[|-)`)
	fallbackAdjacencyRe  = regexp.MustCompile(`^\d+[_\s-]+([A-Z]{2,5})\s+`)
	standaloneTradRe     = regexp.MustCompile(`(?i)(^|[ _])TRAD($|[ -])`)
	bracketLangRe        = regexp.MustCompile(`(?i)\[(\p{L}+)(?:\s*-\s*[^\]]+)?\]`)
	isoDateCaptureRe     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	compactDateRe        = regexp.MustCompile(`(?:^|\D)(\d{4})(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])(?:\D|$)`)
	sessionParenRe       = regexp.MustCompile(`(?i)\((\d{1,2})[\s_-]+(` + months + `)[\s_-]+(AM|PM)(?:[\s_-]+part[\s_-]*(\d+)[^)]*)?\)`)
	sessionTailRe        = regexp.MustCompile(`(?i)[\s-]+(\d{1,2})[\s_-]+(` + months + `)[\s_-]+(AM|PM)(?:[\s_-]+part[\s_-]*(\d+)\w*)?$`)

	// Title-cleanup-only patterns (§4.1.8). These mirror the extraction
	// patterns above but are shaped for stripping rather than capturing.
	leadingIsoDateStripRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[_\s-]+`)
	leadingDigitsStripRe  = regexp.MustCompile(`^\d+[_\s-]+`)
	comboPrefixStripRe    = regexp.MustCompile(`(?i)^[A-Z]{2,5}[+&][A-Z]{2,5}[\s-]*`)
	leadingTradStripRe    = regexp.MustCompile(`(?i)^TRAD(?:\s*-\s*|\s+)`)
	bracketStripRe        = regexp.MustCompile(`(?i)\[\p{L}+(?:\s*-\s*[^\]]+)?\]\s*`)
	isoDateStripAnywhereRe = regexp.MustCompile(`\s*\d{4}-\d{2}-\d{2}`)
	compactDateStripRe    = regexp.MustCompile(`\s*\d{8}(?:\s|$)`)
	sessionParenStripRe   = regexp.MustCompile(`(?i)[\s-]*\(\d{1,2}[\s_-]+(?:` + months + `)[\s_-]+(?:AM|PM)(?:[\s_-]+part[\s_-]*\d+[^)]*)?\)`)
	sessionTailStripRe    = regexp.MustCompile(`(?i)[\s-]+\d{1,2}[\s_-]+(?:` + months + `)[\s_-]+(?:AM|PM)(?:[\s_-]+part[\s_-]*\d+\w*)?$`)
	trailingAmPmStripRe   = regexp.MustCompile(`(?i)\s*-?\s*\b(?:AM|PM)\b\s*$`)
	trailingWhitespaceDashRe = regexp.MustCompile(`[\s-]+$`)
)

var ptMonthToEn = map[string]string{
	"janeiro": "January", "fevereiro": "February", "março": "March", "marco": "March",
	"abril": "April", "maio": "May", "junho": "June", "julho": "July",
	"agosto": "August", "setembro": "September", "outubro": "October",
	"novembro": "November", "dezembro": "December",
}

// Parse derives a normalized ParsedTrack from a single filename. It never
// fails: malformed or minimal filenames degrade gracefully, falling back to
// the extensionless basename as the title when cleanup yields nothing.
func Parse(filename string) ParsedTrack {
	basename := extensionRe.ReplaceAllString(filename, "")

	pt := ParsedTrack{
		OriginalFilename: filename,
		Languages:        []string{"en"},
		OriginalLanguage: "en",
	}

	// §4.1.2 leading-number interpretation
	if m := leadingNumberRe.FindStringSubmatch(basename); m != nil {
		digits := m[1]
		switch {
		case len(digits) == 8:
			if y, mo, d, ok := parseYYYYMMDD(digits); ok {
				pt.TrackNumber = 0
				if pt.Date == nil {
					date := fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
					pt.Date = &date
				}
			} else if n, err := strconv.Atoi(digits); err == nil {
				pt.TrackNumber = n
			}
		case len(digits) == 4:
			yr, err := strconv.Atoi(digits)
			if err == nil && yr >= 1900 && yr <= 2099 && isoDateAnywhereRe.MatchString(basename) {
				pt.TrackNumber = 0
			} else if n, err := strconv.Atoi(digits); err == nil {
				pt.TrackNumber = n
			}
		default:
			if n, err := strconv.Atoi(digits); err == nil {
				pt.TrackNumber = n
			}
		}
	}

	// §4.1.3 speaker detection
	var speaker string
	var speakers []string
	comboMatch := comboSpeakerRe.FindStringSubmatch(basename)
	if comboMatch != nil {
		first := strings.ToUpper(comboMatch[1])
		second := strings.ToUpper(comboMatch[2])
		switch {
		case second == "TRAD" || second == "TRA":
			if !nonTeacher[first] {
				speaker, speakers = first, []string{first}
			}
			pt.OriginalLanguage = "en"
			pt.Languages = []string{"en", "pt"}
			pt.IsTranslation = false
		case first == "TRAD" || first == "TRA":
			if !nonTeacher[second] {
				speaker, speakers = second, []string{second}
			}
			pt.OriginalLanguage = "en"
			pt.Languages = []string{"en", "pt"}
			pt.IsTranslation = false
		default:
			var list []string
			if !nonTeacher[first] {
				list = append(list, first)
			}
			if !nonTeacher[second] {
				list = append(list, second)
			}
			if len(list) > 0 {
				speakers = list
				speaker = list[0]
			}
		}
	} else {
		if m := singleSpeakerRe.FindStringSubmatch(basename); m != nil {
			code := strings.ToUpper(m[1])
			if !nonTeacher[code] {
				speaker, speakers = code, []string{code}
			}
		}
		if speaker == "" {
			if m := fallbackAdjacencyRe.FindStringSubmatch(basename); m != nil {
				code := m[1]
				if !nonTeacher[code] {
					speaker, speakers = code, []string{code}
				}
			}
		}
	}
	if speaker != "" {
		pt.Speaker = strPtr(speaker)
	}
	if speakers == nil {
		speakers = []string{}
	}
	pt.Speakers = speakers

	// §4.1.4 standalone TRAD detection
	if comboMatch == nil && standaloneTradRe.MatchString(basename) {
		pt.IsTranslation = true
		pt.OriginalLanguage = "pt"
		pt.Languages = []string{"pt"}
	}

	// §4.1.5 bracketed language tag
	isComboTranslation := comboMatch != nil && (strings.ToUpper(comboMatch[1]) == "TRAD" || strings.ToUpper(comboMatch[1]) == "TRA" ||
		strings.ToUpper(comboMatch[2]) == "TRAD" || strings.ToUpper(comboMatch[2]) == "TRA")
	if m := bracketLangRe.FindStringSubmatch(basename); m != nil {
		norm := normalizeLanguage(m[1])
		if !isComboTranslation {
			pt.Languages = []string{norm}
			pt.OriginalLanguage = norm
			if norm != "tib" {
				pt.IsTranslation = true
			}
		}
	}

	// §4.1.6 date extraction
	if pt.Date == nil {
		if m := isoDateCaptureRe.FindStringSubmatch(basename); m != nil {
			pt.Date = strPtr(m[1])
		} else if m := compactDateRe.FindStringSubmatch(basename); m != nil {
			pt.Date = strPtr(fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
		}
	}

	// §4.1.7 session block extraction
	if m := sessionParenRe.FindStringSubmatch(basename); m != nil {
		applySessionBlock(&pt, m)
	} else if m := sessionTailRe.FindStringSubmatch(basename); m != nil {
		applySessionBlock(&pt, m)
	}

	// §4.1.8 title cleanup
	pt.Title = cleanTitle(basename, speaker, comboMatch != nil)
	if pt.Title == "" {
		pt.Title = basename
	}
	if pt.Title == "" {
		pt.Title = filename
	}
	if pt.Title == "" {
		pt.Title = "untitled"
	}

	return pt
}

func parseYYYYMMDD(digits string) (year, month, day int, ok bool) {
	if len(digits) != 8 {
		return 0, 0, 0, false
	}
	y, err1 := strconv.Atoi(digits[0:4])
	m, err2 := strconv.Atoi(digits[4:6])
	d, err3 := strconv.Atoi(digits[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	if y < 1900 || y > 2099 || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func normalizeLanguage(code string) string {
	switch strings.ToUpper(code) {
	case "ENG", "ING", "ENGLISH":
		return "en"
	case "POR", "PORT", "PT", "PORTUGUÊS", "PORTUGUESE":
		return "pt"
	case "TIB", "TIBETAN", "TIBETANO":
		return "tib"
	case "FR", "FRENCH", "FRANCÊS":
		return "fr"
	default:
		return strings.ToLower(code)
	}
}

func normalizeMonth(month string) string {
	lower := strings.ToLower(month)
	if en, ok := ptMonthToEn[lower]; ok {
		return en
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func applySessionBlock(pt *ParsedTrack, m []string) {
	day, _ := strconv.Atoi(m[1])
	month := normalizeMonth(m[2])
	ampm := strings.ToUpper(m[3])

	date := fmt.Sprintf("%s %d", month, day)
	pt.Date = &date

	if ampm == "AM" {
		pt.TimePeriod = periodPtr(Morning)
	} else {
		pt.TimePeriod = periodPtr(Afternoon)
	}

	if len(m) > 4 && m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err == nil {
			pt.PartNumber = intPtr(n)
		}
	}
}

// cleanTitle applies the ordered substitutions of §4.1.8 to derive a human
// title from the basename. speaker and hadCombo reflect what §4.1.3 found, so
// the leading speaker token(s) can be stripped the same way they were matched.
func cleanTitle(basename, speaker string, hadCombo bool) string {
	title := basename

	title = leadingIsoDateStripRe.ReplaceAllString(title, "")
	title = leadingDigitsStripRe.ReplaceAllString(title, "")

	if hadCombo {
		title = comboPrefixStripRe.ReplaceAllString(title, "")
	} else if speaker != "" {
		speakerStripRe := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(speaker) + `(?:\s*-\s*|[\s-]+)`)
		title = speakerStripRe.ReplaceAllString(title, "")
	}

	title = leadingTradStripRe.ReplaceAllString(title, "")
	title = bracketStripRe.ReplaceAllString(title, "")
	title = isoDateStripAnywhereRe.ReplaceAllString(title, "")
	title = compactDateStripRe.ReplaceAllString(title, "")
	title = sessionParenStripRe.ReplaceAllString(title, "")
	title = sessionTailStripRe.ReplaceAllString(title, "")
	title = trailingAmPmStripRe.ReplaceAllString(title, "")
	title = trailingWhitespaceDashRe.ReplaceAllString(title, "")
	title = strings.ReplaceAll(title, "_", " ")

	return strings.TrimSpace(title)
}
