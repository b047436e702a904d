package trackparse

import "testing"

func TestInfer_ScenarioS7(t *testing.T) {
	tracks := []ParsedTrack{
		Parse("001 JKR - The daily practice...-(17 April AM).mp3"),
		Parse("001 TRAD - A pratica diaria...mp3"),
		Parse("002 JKR - The four thoughts-(17 April AM).mp3"),
		Parse("002 TRAD - Os quatro pensamentos.mp3"),
		Parse("014 JKR - Question about compassion-(17 April PM).mp3"),
		Parse("014 TRAD - Questao sobre compaixao.mp3"),
	}

	sessions := Infer(tracks)

	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}

	s1 := sessions[0]
	if s1.SessionNumber != 1 {
		t.Errorf("sessions[0].SessionNumber = %d, want 1", s1.SessionNumber)
	}
	if s1.TitleEn != "April 17 - Morning" {
		t.Errorf("sessions[0].TitleEn = %q, want %q", s1.TitleEn, "April 17 - Morning")
	}
	if len(s1.Tracks) != 4 {
		t.Fatalf("len(sessions[0].Tracks) = %d, want 4", len(s1.Tracks))
	}
	wantNums := []int{1, 1, 2, 2}
	wantTrans := []bool{false, true, false, true}
	for i, tr := range s1.Tracks {
		if tr.TrackNumber != wantNums[i] {
			t.Errorf("sessions[0].Tracks[%d].TrackNumber = %d, want %d", i, tr.TrackNumber, wantNums[i])
		}
		if tr.IsTranslation != wantTrans[i] {
			t.Errorf("sessions[0].Tracks[%d].IsTranslation = %v, want %v", i, tr.IsTranslation, wantTrans[i])
		}
	}

	s2 := sessions[1]
	if s2.SessionNumber != 2 {
		t.Errorf("sessions[1].SessionNumber = %d, want 2", s2.SessionNumber)
	}
	if s2.TitleEn != "April 17 - Afternoon" {
		t.Errorf("sessions[1].TitleEn = %q, want %q", s2.TitleEn, "April 17 - Afternoon")
	}
	if len(s2.Tracks) != 2 {
		t.Fatalf("len(sessions[1].Tracks) = %d, want 2", len(s2.Tracks))
	}
	if s2.Tracks[0].TrackNumber != 14 || s2.Tracks[0].IsTranslation {
		t.Errorf("sessions[1].Tracks[0] = %+v, want original track 14", s2.Tracks[0])
	}
	if s2.Tracks[1].TrackNumber != 14 || !s2.Tracks[1].IsTranslation {
		t.Errorf("sessions[1].Tracks[1] = %+v, want translation track 14", s2.Tracks[1])
	}
}

func TestInfer_SessionNumbersConsecutive(t *testing.T) {
	tracks := []ParsedTrack{
		Parse("001 JKR - A-(1 January AM).mp3"),
		Parse("001 JKR - B-(2 January PM).mp3"),
		Parse("001 JKR - C-(3 January AM).mp3"),
	}
	sessions := Infer(tracks)
	if len(sessions) != 3 {
		t.Fatalf("len(sessions) = %d, want 3", len(sessions))
	}
	for i, s := range sessions {
		if s.SessionNumber != i+1 {
			t.Errorf("sessions[%d].SessionNumber = %d, want %d", i, s.SessionNumber, i+1)
		}
	}
}

func TestInfer_OrphanFallsIntoUnknownBucket(t *testing.T) {
	orphanTrad := Parse("999 TRAD - Unmatched translation.mp3")
	if orphanTrad.Date != nil {
		t.Fatalf("test fixture assumption broken: orphan has a date")
	}

	tracks := []ParsedTrack{
		Parse("001 JKR - Keyed original-(1 January AM).mp3"),
		orphanTrad,
	}
	sessions := Infer(tracks)

	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2 (one dated, one unknown)", len(sessions))
	}
	last := sessions[len(sessions)-1]
	if last.Date != nil {
		t.Errorf("unknown-bucket session.Date = %v, want nil", *last.Date)
	}
	if last.TitleEn != "Session 2" {
		t.Errorf("unknown-bucket session.TitleEn = %q, want %q", last.TitleEn, "Session 2")
	}
	if len(last.Tracks) != 1 || last.Tracks[0].TrackNumber != 999 {
		t.Errorf("unknown-bucket session.Tracks = %+v, want the orphan track", last.Tracks)
	}
}

func TestInfer_OrphanMatchesByTrackNumber(t *testing.T) {
	tracks := []ParsedTrack{
		Parse("007 JKR - Original-(1 January AM).mp3"),
		Parse("007 TRAD - Matching translation.mp3"),
	}
	sessions := Infer(tracks)

	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1 (orphan should join the dated session)", len(sessions))
	}
	if len(sessions[0].Tracks) != 2 {
		t.Fatalf("len(sessions[0].Tracks) = %d, want 2", len(sessions[0].Tracks))
	}
}

func TestInfer_EmptyBatch(t *testing.T) {
	sessions := Infer(nil)
	if len(sessions) != 0 {
		t.Errorf("len(sessions) = %d, want 0", len(sessions))
	}
}

func TestInfer_AllUnknownGetsSessionTitle(t *testing.T) {
	tracks := []ParsedTrack{
		Parse("untitled-recording-one.mp3"),
		Parse("untitled-recording-two.mp3"),
	}
	sessions := Infer(tracks)
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].TitleEn != "Session 1" {
		t.Errorf("TitleEn = %q, want %q", sessions[0].TitleEn, "Session 1")
	}
}
