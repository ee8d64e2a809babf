package spacedrep

import "time"

// Review applies one review outcome to item and returns the updated copy.
// The input is not modified. A contract-violating item is rejected with
// ErrInvalidItem rather than repaired.
func Review(item Item, wasCorrect bool, now time.Time) (Item, error) {
	if err := item.Validate(); err != nil {
		return item, err
	}

	item.TimesReviewed++
	if wasCorrect {
		item.TimesCorrect++
	}
	item.NextReviewAt = now.AddDate(0, 0, IntervalDays(item.TimesCorrect, wasCorrect))
	return item, nil
}

// DueItems returns the items due at now, preserving input order.
func DueItems(items []Item, now time.Time) []Item {
	var due []Item
	for _, it := range items {
		if it.IsDue(now) {
			due = append(due, it)
		}
	}
	return due
}
