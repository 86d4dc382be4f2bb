// Package intervals holds the pure date-interval predicates shared by the
// manual booking path and the calendar import path.
package intervals

import "homestay/models"

// Overlaps reports whether two half-open date ranges share a night.
// Dates are ISO YYYY-MM-DD strings, so lexical order is calendar order.
// A checkout on day D and a check-in on day D do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// IsDuplicateOrOverlapping is the manual-booking gate: true when the
// candidate exactly repeats an existing reservation (dates + guest) or its
// dates overlap any existing interval regardless of guest.
func IsDuplicateOrOverlapping(candidate models.BookingInterval, existing []models.BookingInterval) bool {
	for _, iv := range existing {
		if iv.CheckIn == candidate.CheckIn &&
			iv.CheckOut == candidate.CheckOut &&
			iv.GuestName == candidate.GuestName {
			return true
		}
		if iv.CheckIn == "" || iv.CheckOut == "" {
			continue
		}
		if Overlaps(candidate.CheckIn, candidate.CheckOut, iv.CheckIn, iv.CheckOut) {
			return true
		}
	}
	return false
}

// IsSyncDuplicate is the calendar-import gate: true when the candidate
// matches an existing interval by exact dates or by external UID. Overlap
// alone is tolerated here; a re-synced feed must skip, never refuse.
func IsSyncDuplicate(candidate models.BookingInterval, existing []models.BookingInterval) bool {
	for _, iv := range existing {
		if iv.CheckIn == candidate.CheckIn && iv.CheckOut == candidate.CheckOut {
			return true
		}
		if candidate.IcalUID != "" && iv.IcalUID == candidate.IcalUID {
			return true
		}
	}
	return false
}
