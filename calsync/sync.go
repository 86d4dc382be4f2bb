package calsync

import (
	"context"
	"errors"
	"log"
	"time"

	"homestay/models"
	"homestay/mq"
	"homestay/rdx"
	"homestay/storage"
)

var (
	ErrNotConfigured = errors.New("no ical url configured")
	ErrFetchFailed   = errors.New("fetching ical feed failed")
	ErrParseFailed   = errors.New("parsing ical feed failed")
)

// Syncer pulls a room's iCal feed and merges its events into the booking
// calendar. Imports are additive only: existing intervals are never
// modified or removed.
type Syncer struct {
	parser *Parser
}

func NewSyncer() *Syncer {
	return &Syncer{parser: NewParser()}
}

// SyncRoom imports the feed of a single room. The last-sync timestamp is
// updated even when nothing new was inserted.
func (s *Syncer) SyncRoom(ctx context.Context, roomID string) (*models.SyncResult, error) {
	room, err := storage.Store.Resolve(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.IcalURL == "" {
		return nil, ErrNotConfigured
	}

	events, err := s.parser.FetchAndParse(room.IcalURL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	today := now.Format("2006-01-02")

	var candidates []models.BookingInterval
	dropped := 0
	for _, ev := range events {
		iv := intervalFromEvent(ev, now)
		// DTEND is exclusive: a guest checking out today still counts.
		// Timed events collapsing onto a single date carry no night at all.
		if iv.CheckOut < today || iv.CheckOut <= iv.CheckIn {
			dropped++
			continue
		}
		candidates = append(candidates, iv)
	}

	inserted, skipped, err := storage.Store.AppendIntervalsBatch(ctx, room.ID, candidates)
	if err != nil {
		return nil, err
	}

	if err := storage.Store.SetLastSync(ctx, room.ID, now); err != nil {
		log.Printf("Could not record last sync for room %s: %v", room.ID, err)
	}

	result := &models.SyncResult{
		RoomID:   room.ID,
		Inserted: inserted,
		Skipped:  skipped + dropped,
	}
	if inserted > 0 {
		_ = rdx.RdxDel("rooms")
		go mq.Emit(context.Background(), "calendar-synced", room.ID, result)
	}
	return result, nil
}

// SyncAll imports every room that has a feed configured. A failing room
// never aborts the rest; its result carries the error message instead.
func (s *Syncer) SyncAll(ctx context.Context) ([]models.SyncResult, error) {
	rooms, err := storage.Store.RoomsWithIcal(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.SyncResult, 0, len(rooms))
	for _, room := range rooms {
		result, err := s.SyncRoom(ctx, room.ID)
		if err != nil {
			log.Printf("Sync failed for room %s: %v", room.ID, err)
			results = append(results, models.SyncResult{RoomID: room.ID, Error: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func intervalFromEvent(ev Event, now time.Time) models.BookingInterval {
	guest := ev.Summary
	if guest == "" || guest == models.GenericIcalLabel {
		guest = models.PlaceholderGuest
	}
	return models.BookingInterval{
		CheckIn:   ev.Start.Format("2006-01-02"),
		CheckOut:  ev.End.Format("2006-01-02"),
		GuestName: guest,
		Source:    models.SourceAirbnbIcal,
		IcalUID:   ev.UID,
		CreatedAt: now,
	}
}
