package notam

import (
	"regexp"
	"slices"
	"strings"
)

// Notam is a single notice to air missions
type Notam struct {
	ID   string `json:"number"`
	Text string `json:"traditional_message"`
}

// Kind is what a closure NOTAM closes
type Kind string

const (
	KindNone      Kind = ""
	KindRunway    Kind = "runway"
	KindTaxiway   Kind = "taxiway"
	KindAerodrome Kind = "aerodrome"
)

// Label values used on the wire
const (
	LabelClosure       = "closure"
	LabelInformational = "informational"
)

// Classification is the result of classifying a NOTAM
type Classification struct {
	Closure bool   `json:"closure"`
	Kind    Kind   `json:"kind,omitempty"`
	Subject string `json:"subject,omitempty"` // e.g. "RWY 10L/28R"
}

// Label returns "closure" or "informational"
func (c Classification) Label() string {
	if c.Closure {
		return LabelClosure
	}
	return LabelInformational
}

var (
	reAerodromeClosed = regexp.MustCompile(`\b(?:AD|AERODROME|AIRPORT|ARPT)\s+(?:CLSD|CLOSED)\b|\bALL\s+(?:RWY|RWYS|RUNWAYS)\s+(?:CLSD|CLOSED)\b`)
	reClosed          = regexp.MustCompile(`\b(?:CLSD|CLOSED)\b`)
	reRunway          = regexp.MustCompile(`\b(?:RWY|RUNWAY)\s+\d{2}[LRC]?(?:/\d{2}[LRC]?)?\b`)
	reTaxiway         = regexp.MustCompile(`\b(?:TWY|TAXIWAY)\s+[A-Z]{1,2}\d{0,2}\b`)
	reClauseSplit     = regexp.MustCompile(`[,;]`)
)

type identifier struct {
	kind  Kind
	text  string
	start int
}

// Classify decides whether a NOTAM closes a runway, taxiway or the whole
// aerodrome. A closure keyword without an identifier is informational.
func Classify(n Notam) Classification {
	text := strings.ToUpper(strings.Join(strings.Fields(n.Text), " "))

	if m := reAerodromeClosed.FindString(text); m != "" {
		return Classification{Closure: true, Kind: KindAerodrome, Subject: m}
	}

	for _, clause := range reClauseSplit.Split(text, -1) {
		loc := reClosed.FindStringIndex(clause)
		if loc == nil {
			continue
		}

		ids := identifiers(clause)
		if len(ids) == 0 {
			continue
		}

		// Prefer the identifier nearest before the keyword
		chosen := ids[0]
		for _, id := range ids {
			if id.start < loc[0] {
				chosen = id
			}
		}
		return Classification{Closure: true, Kind: chosen.kind, Subject: chosen.text}
	}

	return Classification{}
}

func identifiers(clause string) []identifier {
	var ids []identifier
	for _, loc := range reRunway.FindAllStringIndex(clause, -1) {
		ids = append(ids, identifier{kind: KindRunway, text: clause[loc[0]:loc[1]], start: loc[0]})
	}
	for _, loc := range reTaxiway.FindAllStringIndex(clause, -1) {
		ids = append(ids, identifier{kind: KindTaxiway, text: clause[loc[0]:loc[1]], start: loc[0]})
	}

	slices.SortFunc(ids, func(a, b identifier) int { return a.start - b.start })
	return ids
}
