// Package storage owns room persistence behind a single RoomStore
// interface with two backends: MongoDB and a JSON-file fallback. The
// backend is chosen once at startup; nothing above this package knows
// which one is active.
package storage

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"homestay/db"
	"homestay/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("backend unavailable")
)

type RoomStore interface {
	// Kind reports the active backend: "mongodb" or "fallback_json".
	Kind() string

	List(ctx context.Context) ([]models.Room, error)
	Resolve(ctx context.Context, roomID string) (*models.Room, error)
	Create(ctx context.Context, fields models.Room, customID string) (*models.Room, error)
	Update(ctx context.Context, roomID string, patch models.RoomPatch) (*models.Room, error)
	Delete(ctx context.Context, roomID string) error

	AppendInterval(ctx context.Context, roomID string, iv models.BookingInterval) error
	RemoveInterval(ctx context.Context, roomID, checkIn, checkOut string) error
	UpdateIntervalFields(ctx context.Context, roomID, checkIn, checkOut string, patch models.IntervalPatch) error
	AppendIntervalsBatch(ctx context.Context, roomID string, candidates []models.BookingInterval) (inserted, skipped int, err error)

	AddImage(ctx context.Context, roomID, category, url string) error
	RemoveImage(ctx context.Context, roomID, filename string) (string, error)
	ReorderImages(ctx context.Context, roomID, category string, urls []string) error

	SetLastSync(ctx context.Context, roomID string, at time.Time) error
	RoomsWithIcal(ctx context.Context) ([]models.Room, error)
}

// Store is the process-wide room store, set once by Init.
var Store RoomStore

// Init connects to MongoDB and, on failure, falls back to the JSON file
// store. In Mongo mode the current rooms are exported to the fallback
// file as a backup, best-effort.
func Init(ctx context.Context) error {
	if err := db.Init(ctx); err != nil {
		log.Printf("MongoDB unavailable (%v); using fallback JSON store", err)
		fs, ferr := NewFileStore(fallbackPath())
		if ferr != nil {
			return ferr
		}
		Store = fs
		return nil
	}

	ms := NewMongoStore()
	Store = ms

	if rooms, err := ms.List(ctx); err == nil {
		if err := writeRoomsFile(fallbackPath(), rooms); err != nil {
			log.Printf("Could not export rooms to fallback file: %v", err)
		} else {
			log.Printf("Exported %d rooms to %s", len(rooms), fallbackPath())
		}
	}
	return nil
}

func fallbackPath() string {
	if p := os.Getenv("ROOMS_FALLBACK_FILE"); p != "" {
		return p
	}
	return "rooms_data.json"
}

// removeImageRef drops the first image whose URL ends in filename and
// returns the removed URL with the updated gallery map.
func removeImageRef(images map[string][]string, filename string) (string, map[string][]string) {
	for category, urls := range images {
		for i, url := range urls {
			if strings.HasSuffix(url, filename) || strings.Contains(url, filename) {
				images[category] = append(urls[:i:i], urls[i+1:]...)
				return url, images
			}
		}
	}
	return "", images
}

func applyRoomPatch(room *models.Room, patch models.RoomPatch) {
	if patch.Name != nil {
		room.Name = *patch.Name
	}
	if patch.Description != nil {
		room.Description = *patch.Description
	}
	if patch.Price != nil {
		room.Price = *patch.Price
	}
	if patch.Capacity != nil {
		room.Capacity = *patch.Capacity
	}
	if patch.Amenities != nil {
		room.Amenities = patch.Amenities
	}
	if patch.Images != nil {
		room.Images = patch.Images
	}
	if patch.IcalURL != nil {
		room.IcalURL = *patch.IcalURL
	}
	if patch.Promotion != nil {
		room.Promotion = patch.Promotion
	}
	room.UpdatedAt = time.Now().UTC()
}
