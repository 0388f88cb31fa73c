package types

import "fmt"

// Era is a coarse chronological bucket assigned to every event.
// The set is closed; adding an era is a compile-time-visible change.
type Era string

const (
	EraCreationToFlood  Era = "creation_to_flood"
	EraFloodToAbraham   Era = "flood_to_abraham"
	EraPatriarchs       Era = "patriarchs"
	EraEgyptianBondage  Era = "egyptian_bondage"
	EraExodusToJudges   Era = "exodus_to_judges"
	EraUnitedMonarchy   Era = "united_monarchy"
	EraDividedKingdom   Era = "divided_kingdom"
	EraExile            Era = "exile"
	EraPostExile        Era = "post_exile"
	EraIntertestamental Era = "intertestamental"
	EraNewTestament     Era = "new_testament"
	EraEarlyChurch      Era = "early_church"
	EraRomanEmpire      Era = "roman_empire"
	EraMedieval         Era = "medieval"
	EraReformation      Era = "reformation"
	EraColonial         Era = "colonial"
	EraModern           Era = "modern"
	EraContemporary     Era = "contemporary"
)

// Eras lists every valid era in chronological order.
func Eras() []Era {
	return []Era{
		EraCreationToFlood, EraFloodToAbraham, EraPatriarchs,
		EraEgyptianBondage, EraExodusToJudges, EraUnitedMonarchy,
		EraDividedKingdom, EraExile, EraPostExile, EraIntertestamental,
		EraNewTestament, EraEarlyChurch, EraRomanEmpire, EraMedieval,
		EraReformation, EraColonial, EraModern, EraContemporary,
	}
}

// Valid reports whether e is a recognized era.
func (e Era) Valid() bool {
	for _, known := range Eras() {
		if e == known {
			return true
		}
	}
	return false
}

// EventType classifies an event by its primary domain of impact.
type EventType string

const (
	EventTypePolitical EventType = "political"
	EventTypeEconomic  EventType = "economic"
	EventTypeReligious EventType = "religious"
	EventTypeMilitary  EventType = "military"
	EventTypeSocial    EventType = "social"
	EventTypeNatural   EventType = "natural"
	EventTypeProphetic EventType = "prophetic"
)

// EventTypes lists every valid event type.
func EventTypes() []EventType {
	return []EventType{
		EventTypePolitical, EventTypeEconomic, EventTypeReligious,
		EventTypeMilitary, EventTypeSocial, EventTypeNatural,
		EventTypeProphetic,
	}
}

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// FulfillmentType classifies how a forecast record relates to a
// historical outcome.
type FulfillmentType string

const (
	FulfillmentComplete    FulfillmentType = "complete"
	FulfillmentPartial     FulfillmentType = "partial"
	FulfillmentRepeated    FulfillmentType = "repeated"
	FulfillmentConditional FulfillmentType = "conditional"
	FulfillmentPending     FulfillmentType = "pending"
	FulfillmentSymbolic    FulfillmentType = "symbolic"
)

// ParseFulfillmentType validates a fulfillment tag coming in from the
// boundary. Unrecognized tags are an invalid-argument condition.
func ParseFulfillmentType(s string) (FulfillmentType, error) {
	switch FulfillmentType(s) {
	case FulfillmentComplete, FulfillmentPartial, FulfillmentRepeated,
		FulfillmentConditional, FulfillmentPending, FulfillmentSymbolic:
		return FulfillmentType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFulfillmentType, s)
	}
}

// RiskLevel buckets a precondition match score.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskModerate RiskLevel = "moderate"
	RiskLow      RiskLevel = "low"
)

// RiskLevelForScore maps a match score onto a risk bucket. The
// boundaries are inclusive at the lower edge of each band.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskCritical
	case score >= 0.6:
		return RiskHigh
	case score >= 0.3:
		return RiskModerate
	default:
		return RiskLow
	}
}
