package models

import (
	"slices"
	"strings"
)

// EventType is the closed enumeration of event categories.
// eventTypes is the only list of categories: filter selectors and the creation
// form both read it through EventTypes.
type EventType string

const (
	EventTypeShipwreck      EventType = "SHIPWRECK"
	EventTypePvP            EventType = "PVP"
	EventTypeResourceNode   EventType = "RESOURCE_NODE"
	EventTypePirateSighting EventType = "PIRATE_SIGHTING"
	EventTypeStorm          EventType = "STORM"
)

var eventTypes = []EventType{
	EventTypeShipwreck,
	EventTypePvP,
	EventTypeResourceNode,
	EventTypePirateSighting,
	EventTypeStorm,
}

// EventTypes returns every known category in display order.
func EventTypes() []EventType {
	return slices.Clone(eventTypes)
}

// DefaultEventType is the category a fresh draft starts with.
func DefaultEventType() EventType {
	return eventTypes[0]
}

// ParseEventType matches s against the enumeration, ignoring case and surrounding space.
func ParseEventType(s string) (EventType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range eventTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t is a member of the enumeration.
func (t EventType) Valid() bool {
	return slices.Contains(eventTypes, t)
}

// String returns the underlying string value.
func (t EventType) String() string {
	return string(t)
}
