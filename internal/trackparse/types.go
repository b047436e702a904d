// Package trackparse turns two decades of inconsistently-named teaching
// recordings into normalized track and session records. Parsing is pure and
// total: every filename, however malformed, produces a well-formed ParsedTrack.
package trackparse

// Period is the half-day slot a session was recorded in.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
)

// ParsedTrack is the normalized result of parsing one filename.
type ParsedTrack struct {
	TrackNumber      int
	Speaker          *string
	Speakers         []string
	Title            string
	Languages        []string
	OriginalLanguage string
	IsTranslation    bool
	Date             *string
	TimePeriod       *Period
	PartNumber       *int
	OriginalFilename string
}

// InferredSession groups ParsedTrack values recorded in the same half-day slot.
type InferredSession struct {
	SessionNumber int
	Date          *string
	TimePeriod    *Period
	PartNumber    *int
	TitleEn       string
	Tracks        []ParsedTrack
}

// nonTeacher lists tokens that look like teacher codes but never are one:
// translation/role markers, language tags, and other structural abbreviations
// that happen to be 2-5 uppercase letters.
var nonTeacher = map[string]bool{
	"TRAD": true, "PT": true, "ENG": true, "TIB": true, "POR": true, "FR": true,
	"PBD": true, "SHA": true, "PP1": true, "PP2": true, "PP3": true, "PP4": true,
	"TM1": true, "TM2": true, "PART": true, "GRP": true, "ALUNA": true,
	"TSOK": true, "TRA": true, "HH": true,
}

func periodPtr(p Period) *Period {
	return &p
}

func strPtr(s string) *string {
	return &s
}

func intPtr(n int) *int {
	return &n
}
