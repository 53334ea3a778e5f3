// Package model defines the shared data shapes of the metadata archive.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// AppRef is one entry of the identifier mirror.
type AppRef struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

// Verdict is the tri-state protection classification outcome. Only two
// states are inhabited: Affirmative serializes to JSON true, Inconclusive
// to JSON null. There is no negative state; absence of evidence is never
// proof of absence, and downstream consumers must not read null as "clean".
type Verdict int

const (
	// VerdictInconclusive covers both "not evaluated" and "evaluated, no
	// evidence found". It is the zero value.
	VerdictInconclusive Verdict = iota
	// VerdictAffirmative means protection evidence was found.
	VerdictAffirmative
)

// Affirmative reports whether the verdict is positive.
func (v Verdict) Affirmative() bool { return v == VerdictAffirmative }

func (v Verdict) String() string {
	if v == VerdictAffirmative {
		return "affirmative"
	}
	return "inconclusive"
}

// MarshalJSON encodes Affirmative as true and Inconclusive as null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	if v == VerdictAffirmative {
		return []byte("true"), nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts true and null. Any other value, including false,
// is rejected: the catalog format has no negative verdict.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = VerdictAffirmative
	case "null":
		*v = VerdictInconclusive
	default:
		return eris.Errorf("model: invalid verdict %q", string(data))
	}
	return nil
}

// Record is one archived catalog item. Field order matches the serialized
// document layout.
type Record struct {
	AppID            int       `json:"appid"`
	Title            string    `json:"title"`
	Header           string    `json:"header"`
	Media            []string  `json:"media"`
	Genre            *string   `json:"genre"`
	ShortDescription string    `json:"short_description"`
	Developers       []string  `json:"developers"`
	Publishers       []string  `json:"publishers"`
	ReleaseDate      string    `json:"release_date"`
	PriceDisplay     string    `json:"price_display"`
	PriceNormalized  int       `json:"price_normalized"`
	Protection       Verdict   `json:"protection"`
	LastUpdate       time.Time `json:"last_update"`
}

// MaxMediaCandidates caps the media candidate list per record.
const MaxMediaCandidates = 7
