package trackparse

import (
	"strconv"
	"testing"
)

func strv(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func periodv(p *Period) string {
	if p == nil {
		return "<nil>"
	}
	return string(*p)
}

func intv(p *int) string {
	if p == nil {
		return "<nil>"
	}
	return strconv.Itoa(*p)
}

func TestParse_ScenarioS1(t *testing.T) {
	got := Parse("001 JKR - The daily practice in three parts-(17 April AM).mp3")

	if got.TrackNumber != 1 {
		t.Errorf("TrackNumber = %d, want 1", got.TrackNumber)
	}
	if strv(got.Speaker) != "JKR" {
		t.Errorf("Speaker = %s, want JKR", strv(got.Speaker))
	}
	if got.Title != "The daily practice in three parts" {
		t.Errorf("Title = %q, want %q", got.Title, "The daily practice in three parts")
	}
	if len(got.Languages) != 1 || got.Languages[0] != "en" {
		t.Errorf("Languages = %v, want [en]", got.Languages)
	}
	if got.OriginalLanguage != "en" {
		t.Errorf("OriginalLanguage = %s, want en", got.OriginalLanguage)
	}
	if got.IsTranslation {
		t.Error("IsTranslation = true, want false")
	}
	if strv(got.Date) != "April 17" {
		t.Errorf("Date = %s, want April 17", strv(got.Date))
	}
	if periodv(got.TimePeriod) != "morning" {
		t.Errorf("TimePeriod = %s, want morning", periodv(got.TimePeriod))
	}
	if got.PartNumber != nil {
		t.Errorf("PartNumber = %s, want <nil>", intv(got.PartNumber))
	}
}

func TestParse_ScenarioS2(t *testing.T) {
	got := Parse("001 TRAD - A pratica diaria em tres partes.mp3")

	if got.TrackNumber != 1 {
		t.Errorf("TrackNumber = %d, want 1", got.TrackNumber)
	}
	if got.Speaker != nil {
		t.Errorf("Speaker = %s, want <nil>", strv(got.Speaker))
	}
	if got.Title != "A pratica diaria em tres partes" {
		t.Errorf("Title = %q, want %q", got.Title, "A pratica diaria em tres partes")
	}
	if len(got.Languages) != 1 || got.Languages[0] != "pt" {
		t.Errorf("Languages = %v, want [pt]", got.Languages)
	}
	if got.OriginalLanguage != "pt" {
		t.Errorf("OriginalLanguage = %s, want pt", got.OriginalLanguage)
	}
	if !got.IsTranslation {
		t.Error("IsTranslation = false, want true")
	}
	if got.Date != nil {
		t.Errorf("Date = %s, want <nil>", strv(got.Date))
	}
	if got.TimePeriod != nil {
		t.Errorf("TimePeriod = %s, want <nil>", periodv(got.TimePeriod))
	}
}

func TestParse_ScenarioS3(t *testing.T) {
	got := Parse("01 KPS [TIB] Initial prayers 2017-11-14.mp3")

	if got.TrackNumber != 1 {
		t.Errorf("TrackNumber = %d, want 1", got.TrackNumber)
	}
	if strv(got.Speaker) != "KPS" {
		t.Errorf("Speaker = %s, want KPS", strv(got.Speaker))
	}
	if got.Title != "Initial prayers" {
		t.Errorf("Title = %q, want %q", got.Title, "Initial prayers")
	}
	if len(got.Languages) != 1 || got.Languages[0] != "tib" {
		t.Errorf("Languages = %v, want [tib]", got.Languages)
	}
	if got.OriginalLanguage != "tib" {
		t.Errorf("OriginalLanguage = %s, want tib", got.OriginalLanguage)
	}
	if got.IsTranslation {
		t.Error("IsTranslation = true, want false")
	}
	if strv(got.Date) != "2017-11-14" {
		t.Errorf("Date = %s, want 2017-11-14", strv(got.Date))
	}
}

func TestParse_ScenarioS4(t *testing.T) {
	got := Parse("02 KPS [ENG] Introduction to the text 2017-11-14.mp3")

	if strv(got.Speaker) != "KPS" {
		t.Errorf("Speaker = %s, want KPS", strv(got.Speaker))
	}
	if len(got.Languages) != 1 || got.Languages[0] != "en" {
		t.Errorf("Languages = %v, want [en]", got.Languages)
	}
	if got.OriginalLanguage != "en" {
		t.Errorf("OriginalLanguage = %s, want en", got.OriginalLanguage)
	}
	if !got.IsTranslation {
		t.Error("IsTranslation = false, want true")
	}
	if got.Title != "Introduction to the text" {
		t.Errorf("Title = %q, want %q", got.Title, "Introduction to the text")
	}
	if strv(got.Date) != "2017-11-14" {
		t.Errorf("Date = %s, want 2017-11-14", strv(got.Date))
	}
}

func TestParse_ScenarioS5(t *testing.T) {
	got := Parse("019 JKR+TRAD - Initial prayers-(7 April AM_part_1).mp3")

	if got.TrackNumber != 19 {
		t.Errorf("TrackNumber = %d, want 19", got.TrackNumber)
	}
	if strv(got.Speaker) != "JKR" {
		t.Errorf("Speaker = %s, want JKR", strv(got.Speaker))
	}
	if len(got.Speakers) != 1 || got.Speakers[0] != "JKR" {
		t.Errorf("Speakers = %v, want [JKR]", got.Speakers)
	}
	if len(got.Languages) != 2 || got.Languages[0] != "en" || got.Languages[1] != "pt" {
		t.Errorf("Languages = %v, want [en pt]", got.Languages)
	}
	if got.OriginalLanguage != "en" {
		t.Errorf("OriginalLanguage = %s, want en", got.OriginalLanguage)
	}
	if got.IsTranslation {
		t.Error("IsTranslation = true, want false")
	}
	if got.Title != "Initial prayers" {
		t.Errorf("Title = %q, want %q", got.Title, "Initial prayers")
	}
	if strv(got.Date) != "April 7" {
		t.Errorf("Date = %s, want April 7", strv(got.Date))
	}
	if periodv(got.TimePeriod) != "morning" {
		t.Errorf("TimePeriod = %s, want morning", periodv(got.TimePeriod))
	}
	if intv(got.PartNumber) != "1" {
		t.Errorf("PartNumber = %s, want 1", intv(got.PartNumber))
	}
}

func TestParse_ScenarioS6(t *testing.T) {
	got := Parse("20250810-PART_1 [ENG].mp3")

	if got.TrackNumber != 0 {
		t.Errorf("TrackNumber = %d, want 0", got.TrackNumber)
	}
	if strv(got.Date) != "2025-08-10" {
		t.Errorf("Date = %s, want 2025-08-10", strv(got.Date))
	}
	if got.Title != "PART 1" {
		t.Errorf("Title = %q, want %q", got.Title, "PART 1")
	}
	if len(got.Languages) != 1 || got.Languages[0] != "en" {
		t.Errorf("Languages = %v, want [en]", got.Languages)
	}
	if got.OriginalLanguage != "en" {
		t.Errorf("OriginalLanguage = %s, want en", got.OriginalLanguage)
	}
	if !got.IsTranslation {
		t.Error("IsTranslation = false, want true")
	}
}

func TestParse_TotalAndDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"no-structure-at-all",
		"____.mp3",
		"99999999.mp3",
		"2005-PALTEACHING.wav",
		"002_PBD_SHA-Combined session.flac",
	}
	for _, in := range inputs {
		a := Parse(in)
		b := Parse(in)
		if a.Title != b.Title || a.TrackNumber != b.TrackNumber {
			t.Errorf("Parse(%q) not deterministic: %+v vs %+v", in, a, b)
		}
		if a.Title == "" {
			t.Errorf("Parse(%q).Title is empty, want non-empty", in)
		}
		if a.OriginalFilename != in {
			t.Errorf("Parse(%q).OriginalFilename = %q, want %q", in, a.OriginalFilename, in)
		}
	}
}

func TestParse_SpeakersExcludeNonTeacher(t *testing.T) {
	cases := []string{
		"003 TRAD - title.mp3",
		"004 PART - title.mp3",
		"005 ENG - title.mp3",
		"006 GRP - title.mp3",
	}
	for _, in := range cases {
		got := Parse(in)
		for _, s := range got.Speakers {
			if nonTeacher[s] {
				t.Errorf("Parse(%q).Speakers contains NON_TEACHER code %q", in, s)
			}
		}
		if got.Speaker != nil && nonTeacher[*got.Speaker] {
			t.Errorf("Parse(%q).Speaker is a NON_TEACHER code %q", in, *got.Speaker)
		}
	}
}

func TestParse_ComboTwoTeachers(t *testing.T) {
	got := Parse("010 JKR+KPS - Joint session-(3 May PM).mp3")

	if strv(got.Speaker) != "JKR" {
		t.Errorf("Speaker = %s, want JKR", strv(got.Speaker))
	}
	if len(got.Speakers) != 2 || got.Speakers[0] != "JKR" || got.Speakers[1] != "KPS" {
		t.Errorf("Speakers = %v, want [JKR KPS]", got.Speakers)
	}
	if got.Title != "Joint session" {
		t.Errorf("Title = %q, want %q", got.Title, "Joint session")
	}
	if periodv(got.TimePeriod) != "afternoon" {
		t.Errorf("TimePeriod = %s, want afternoon", periodv(got.TimePeriod))
	}
}

func TestParse_PortugueseMonthNormalized(t *testing.T) {
	got := Parse("012 JKR - A pratica-(9 Março AM).mp3")

	if strv(got.Date) != "March 9" {
		t.Errorf("Date = %s, want March 9", strv(got.Date))
	}
}

func TestParse_NonParenthesizedSessionTail(t *testing.T) {
	got := Parse("013 JKR - Evening talk 5 June PM.mp3")

	if strv(got.Date) != "June 5" {
		t.Errorf("Date = %s, want June 5", strv(got.Date))
	}
	if periodv(got.TimePeriod) != "afternoon" {
		t.Errorf("TimePeriod = %s, want afternoon", periodv(got.TimePeriod))
	}
	if got.Title != "Evening talk" {
		t.Errorf("Title = %q, want %q", got.Title, "Evening talk")
	}
}

func TestParse_CompactDateWithoutLeadingYear(t *testing.T) {
	got := Parse("003 JKR - Teaching on 20180305 notes.mp3")

	if strv(got.Date) != "2018-03-05" {
		t.Errorf("Date = %s, want 2018-03-05", strv(got.Date))
	}
}

func TestParse_LeadingYearRequiresISODateElsewhere(t *testing.T) {
	got := Parse("1987 JKR - Old cassette transfer.mp3")

	if got.TrackNumber != 1987 {
		t.Errorf("TrackNumber = %d, want 1987 (no ISO date elsewhere so it's a real track number)", got.TrackNumber)
	}
}
