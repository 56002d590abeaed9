package tracker

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

// Category is a filter selection: one event type or CategoryAll.
type Category string

// CategoryAll selects every event.
const CategoryAll Category = "ALL"

// CategoryOf returns the category selecting only events of type t.
func CategoryOf(t models.EventType) Category {
	return Category(t)
}

// Categories lists the selector options: CategoryAll, then every event type.
func Categories() []Category {
	types := models.EventTypes()
	out := make([]Category, 0, len(types)+1)
	out = append(out, CategoryAll)
	for _, t := range types {
		out = append(out, CategoryOf(t))
	}
	return out
}

// ParseCategory accepts "ALL" or a member of the event type enumeration, ignoring case.
func ParseCategory(s string) (Category, error) {
	if strings.EqualFold(strings.TrimSpace(s), string(CategoryAll)) {
		return CategoryAll, nil
	}
	t, ok := models.ParseEventType(s)
	if !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return CategoryOf(t), nil
}

// Select projects events onto the given category, preserving order.
// The result never shares a backing array with events.
func Select(events []models.Event, category Category) []models.Event {
	if category == CategoryAll {
		return slices.Clone(events)
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if Category(e.Type) == category {
			out = append(out, e)
		}
	}
	return out
}
