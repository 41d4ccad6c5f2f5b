package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DurationLabel is the human readable session length used in notifications.
type DurationLabel struct {
	English string
	German  string
}

// Family groups service types that share a slot granularity.
type Family struct {
	Name     string
	Interval time.Duration
	Label    DurationLabel

	// contains lists lower case substrings that select the family; words
	// lists lower case whole words that select it; acronyms are matched as
	// substrings of the label as written, so "MyPS5Session" matches "PS"
	// but "upside" does not.
	contains []string
	words    []string
	acronyms []string
}

// Minutes returns the slot granularity in minutes.
func (f Family) Minutes() int { return int(f.Interval / time.Minute) }

func (f Family) matches(service string) bool {
	for _, a := range f.acronyms {
		if strings.Contains(service, a) {
			return true
		}
	}
	s := strings.ToLower(service)
	for _, c := range f.contains {
		if strings.Contains(s, c) {
			return true
		}
	}
	if len(f.words) == 0 {
		return false
	}
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		for _, want := range f.words {
			if w == want {
				return true
			}
		}
	}
	return false
}

// The granularity table.  PlayStation-family labels book by the hour,
// everything else (KAT VR sessions, group parties, unknown labels) by the
// half hour.
var (
	PlayStation = Family{
		Name:     "playstation",
		Interval: 60 * time.Minute,
		Label:    DurationLabel{English: "1 hour", German: "1 Stunde"},
		contains: []string{"playstation"},
		words:    []string{"ps", "ps4", "ps5", "psvr", "psvr2"},
		acronyms: []string{"PS"},
	}
	HalfHour = Family{
		Name:     "half-hour",
		Interval: 30 * time.Minute,
		Label:    DurationLabel{English: "30 minutes", German: "30 Minuten"},
	}
)

// families is consulted in order; the last entry is the fallback.
var families = []Family{PlayStation, HalfHour}

// FamilyFor returns the family a service label belongs to.  An empty label
// selects the half-hour family.
func FamilyFor(service string) Family {
	if strings.TrimSpace(service) == "" {
		return HalfHour
	}
	for _, f := range families[:len(families)-1] {
		if f.matches(service) {
			return f
		}
	}
	return families[len(families)-1]
}

// Offering is a service that receives a default slot grid every day.
type Offering struct {
	ServiceType string
	PriceCents  int64 // per participant, in the payment currency
}

// Family returns the offering's granularity family.
func (o Offering) Family() Family { return FamilyFor(o.ServiceType) }

// Policy is the studio's scheduling configuration: open hours (start
// inclusive, end exclusive, whole hours) and the offerings to generate.
type Policy struct {
	OpenHour  int
	CloseHour int
	Offerings []Offering
}

// DefaultPolicy is the studio's canonical policy: 12:00 to 22:00 with two
// half-hour offerings and one hourly PlayStation offering, 50 slots a day.
func DefaultPolicy() Policy {
	return Policy{
		OpenHour:  12,
		CloseHour: 22,
		Offerings: []Offering{
			{ServiceType: "KAT VR Gaming Session", PriceCents: 2500},
			{ServiceType: "Group KAT VR Party", PriceCents: 2000},
			{ServiceType: "PlayStation 5 VR Experience", PriceCents: 3500},
		},
	}
}

// Times returns the canonical "HH:MM" start times for one granularity.
func (p Policy) Times(f Family) []string {
	step := f.Minutes()
	if step <= 0 {
		return nil
	}
	var out []string
	for m := p.OpenHour * 60; m < p.CloseHour*60; m += step {
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}

// SlotsPerDay returns the size of a fully generated date.
func (p Policy) SlotsPerDay() int {
	n := 0
	for _, o := range p.Offerings {
		n += len(p.Times(o.Family()))
	}
	return n
}

// Offering looks up a generated offering by label, case-insensitively.
func (p Policy) Offering(service string) (Offering, bool) {
	for _, o := range p.Offerings {
		if strings.EqualFold(o.ServiceType, strings.TrimSpace(service)) {
			return o, true
		}
	}
	return Offering{}, false
}
