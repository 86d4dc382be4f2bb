package models

import "time"

// BookingSource tags where an interval came from.
const (
	SourceManual     = "manual"
	SourceAirbnbIcal = "airbnb_ical"
	PlaceholderGuest = "Airbnb Guest"
	GenericIcalLabel = "Reserved"
)

// BookingInterval is one reservation on a room's calendar.
// CheckIn/CheckOut are ISO YYYY-MM-DD dates; string comparison orders them.
type BookingInterval struct {
	CheckIn    string    `json:"checkIn" bson:"checkIn"`
	CheckOut   string    `json:"checkOut" bson:"checkOut"`
	GuestName  string    `json:"guestName" bson:"guestName"`
	GuestPhone string    `json:"guestPhone,omitempty" bson:"guestPhone,omitempty"`
	GuestEmail string    `json:"guestEmail,omitempty" bson:"guestEmail,omitempty"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Source     string    `json:"source,omitempty" bson:"source,omitempty"`
	IcalUID    string    `json:"icalUid,omitempty" bson:"icalUid,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

type Promotion struct {
	Active        bool    `json:"active" bson:"active"`
	DiscountPrice float64 `json:"discountPrice" bson:"discountPrice"`
}

type Room struct {
	ID           string              `json:"id" bson:"_id"`
	Name         string              `json:"name" bson:"name"`
	Description  string              `json:"description" bson:"description"`
	Price        float64             `json:"price" bson:"price"`
	Capacity     int                 `json:"capacity" bson:"persons"`
	Amenities    []string            `json:"amenities" bson:"amenities"`
	Images       map[string][]string `json:"images,omitempty" bson:"images,omitempty"`
	IcalURL      string              `json:"icalUrl,omitempty" bson:"icalUrl,omitempty"`
	LastIcalSync *time.Time          `json:"lastIcalSync,omitempty" bson:"lastIcalSync,omitempty"`
	Promotion    *Promotion          `json:"promotion,omitempty" bson:"promotion,omitempty"`
	Intervals    []BookingInterval   `json:"bookedIntervals" bson:"bookedIntervals"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" bson:"updated_at"`
}

// Booked is a read-time projection, never stored.
func (r *Room) Booked() bool {
	return len(r.Intervals) > 0
}

// RoomPatch carries a partial room update; nil fields are left untouched.
type RoomPatch struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Price       *float64            `json:"price,omitempty"`
	Capacity    *int                `json:"capacity,omitempty"`
	Amenities   []string            `json:"amenities,omitempty"`
	Images      map[string][]string `json:"images,omitempty"`
	IcalURL     *string             `json:"icalUrl,omitempty"`
	Promotion   *Promotion          `json:"promotion,omitempty"`
}

// IntervalPatch updates the guest fields of one interval in place.
type IntervalPatch struct {
	GuestName  string `json:"guestName"`
	GuestPhone string `json:"guestPhone"`
	GuestEmail string `json:"guestEmail"`
	Notes      string `json:"notes"`
}

// SyncResult reports one room's calendar import.
type SyncResult struct {
	RoomID   string `json:"roomId"`
	Inserted int    `json:"insertedCount"`
	Skipped  int    `json:"skippedCount"`
	Error    string `json:"error,omitempty"`
}

// Image categories accepted by the gallery endpoints.
var ImageCategories = map[string]bool{
	"cover":    true,
	"bedroom":  true,
	"bathroom": true,
	"exterior": true,
}
