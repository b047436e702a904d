package trackparse

import (
	"fmt"
	"sort"
	"strconv"
)

var periodRank = map[string]int{
	string(Morning):   0,
	string(Afternoon): 1,
	string(Evening):   2,
	"unknown":         3,
}

type groupKey struct {
	date   string
	period string
	part   string
}

type trackGroup struct {
	key    groupKey
	tracks []ParsedTrack
}

// Infer groups a batch of ParsedTrack values belonging to one event into
// chronologically ordered sessions. It is pure and never fails: translations
// that cannot be matched to an original fall into an "unknown" bucket rather
// than being dropped.
func Infer(tracks []ParsedTrack) []InferredSession {
	var keyed, orphans []ParsedTrack
	for _, t := range tracks {
		if !t.IsTranslation || t.Date != nil {
			keyed = append(keyed, t)
		} else {
			orphans = append(orphans, t)
		}
	}

	groups, index := groupKeyed(keyed)
	groups = placeOrphans(orphans, groups, index)

	sort.SliceStable(groups, func(i, j int) bool {
		return lessGroupKey(groups[i].key, groups[j].key)
	})

	sessions := make([]InferredSession, 0, len(groups))
	for i, g := range groups {
		sessionNumber := i + 1
		sortedTracks := sortGroupTracks(g.tracks)
		rep := representative(sortedTracks)

		session := InferredSession{
			SessionNumber: sessionNumber,
			Date:          rep.Date,
			TimePeriod:    rep.TimePeriod,
			PartNumber:    rep.PartNumber,
			Tracks:        sortedTracks,
		}
		session.TitleEn = sessionTitle(rep, sessionNumber)
		sessions = append(sessions, session)
	}

	return sessions
}

func groupKeyed(keyed []ParsedTrack) ([]*trackGroup, map[groupKey]*trackGroup) {
	var groups []*trackGroup
	index := make(map[groupKey]*trackGroup)

	for _, t := range keyed {
		k := keyOf(t)
		g, ok := index[k]
		if !ok {
			g = &trackGroup{key: k}
			groups = append(groups, g)
			index[k] = g
		}
		g.tracks = append(g.tracks, t)
	}
	return groups, index
}

func placeOrphans(orphans []ParsedTrack, groups []*trackGroup, index map[groupKey]*trackGroup) []*trackGroup {
	for _, o := range orphans {
		placed := false
		for _, g := range groups {
			for _, t := range g.tracks {
				if !t.IsTranslation && t.TrackNumber == o.TrackNumber {
					g.tracks = append(g.tracks, o)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			unknownKey := groupKey{date: "unknown", period: "unknown", part: ""}
			g, ok := index[unknownKey]
			if !ok {
				g = &trackGroup{key: unknownKey}
				groups = append(groups, g)
				index[unknownKey] = g
			}
			g.tracks = append(g.tracks, o)
		}
	}
	return groups
}

func keyOf(t ParsedTrack) groupKey {
	k := groupKey{date: "unknown", period: "unknown", part: ""}
	if t.Date != nil {
		k.date = *t.Date
	}
	if t.TimePeriod != nil {
		k.period = string(*t.TimePeriod)
	}
	if t.PartNumber != nil {
		k.part = strconv.Itoa(*t.PartNumber)
	}
	return k
}

// lessGroupKey implements §4.2.4's ordering: date ascending by plain string
// compare, then period rank, then partNumber as a lexicographic string
// compare (empty sorts first). The string compare on date is intentional,
// not a semantic date compare — see spec.md §9's Open Question.
func lessGroupKey(a, b groupKey) bool {
	if a.date != b.date {
		return a.date < b.date
	}
	ra, rb := periodRank[a.period], periodRank[b.period]
	if ra != rb {
		return ra < rb
	}
	return a.part < b.part
}

func sortGroupTracks(tracks []ParsedTrack) []ParsedTrack {
	sorted := make([]ParsedTrack, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TrackNumber != sorted[j].TrackNumber {
			return sorted[i].TrackNumber < sorted[j].TrackNumber
		}
		return !sorted[i].IsTranslation && sorted[j].IsTranslation
	})
	return sorted
}

func representative(sortedTracks []ParsedTrack) ParsedTrack {
	for _, t := range sortedTracks {
		if !t.IsTranslation {
			return t
		}
	}
	return sortedTracks[0]
}

func sessionTitle(rep ParsedTrack, sessionNumber int) string {
	if rep.Date != nil && rep.TimePeriod != nil {
		label := capitalizePeriod(*rep.TimePeriod)
		title := fmt.Sprintf("%s - %s", *rep.Date, label)
		if rep.PartNumber != nil {
			title = fmt.Sprintf("%s (Part %d)", title, *rep.PartNumber)
		}
		return title
	}
	if rep.Date != nil {
		return *rep.Date
	}
	return fmt.Sprintf("Session %d", sessionNumber)
}

func capitalizePeriod(p Period) string {
	switch p {
	case Morning:
		return "Morning"
	case Afternoon:
		return "Afternoon"
	case Evening:
		return "Evening"
	default:
		return string(p)
	}
}
