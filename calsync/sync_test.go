package calsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/models"
	"homestay/storage"
)

func newTestStore(t *testing.T) *storage.FileStore {
	t.Helper()
	fs, err := storage.NewFileStore(filepath.Join(t.TempDir(), "rooms.json"))
	require.NoError(t, err)

	prev := storage.Store
	storage.Store = fs
	t.Cleanup(func() { storage.Store = prev })
	return fs
}

func icalDate(t time.Time) string { return t.Format("20060102") }

// feedWith renders a minimal Airbnb-style feed: one future event, one
// event that already ended.
func feedWith(now time.Time) string {
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -2, 0)
	return fmt.Sprintf(`BEGIN:VCALENDAR
BEGIN:VEVENT
DTSTART;VALUE=DATE:%s
DTEND;VALUE=DATE:%s
UID:future-1@airbnb.com
SUMMARY:Reserved
END:VEVENT
BEGIN:VEVENT
DTSTART;VALUE=DATE:%s
DTEND;VALUE=DATE:%s
UID:past-1@airbnb.com
SUMMARY:Reserved
END:VEVENT
END:VCALENDAR
`, icalDate(future), icalDate(future.AddDate(0, 0, 4)),
		icalDate(past), icalDate(past.AddDate(0, 0, 3)))
}

func createRoomWithFeed(t *testing.T, url string) *models.Room {
	t.Helper()
	ctx := context.Background()
	room, err := storage.Store.Create(ctx, models.Room{Name: "Garden Room", Price: 80, Capacity: 2}, "")
	require.NoError(t, err)
	if url != "" {
		room, err = storage.Store.Update(ctx, room.ID, models.RoomPatch{IcalURL: &url})
		require.NoError(t, err)
	}
	return room
}

func TestSyncRoomImportsFutureEvents(t *testing.T) {
	newTestStore(t)

	now := time.Now().UTC()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedWith(now))
	}))
	defer feed.Close()

	room := createRoomWithFeed(t, feed.URL)

	result, err := NewSyncer().SyncRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped, "already-ended events are skipped")

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 1)
	assert.Equal(t, models.SourceAirbnbIcal, got.Intervals[0].Source)
	assert.Equal(t, models.PlaceholderGuest, got.Intervals[0].GuestName)
	assert.Equal(t, "future-1@airbnb.com", got.Intervals[0].IcalUID)
	require.NotNil(t, got.LastIcalSync)
}

func TestSyncRoomIsIdempotent(t *testing.T) {
	newTestStore(t)

	now := time.Now().UTC()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedWith(now))
	}))
	defer feed.Close()

	room := createRoomWithFeed(t, feed.URL)
	syncer := NewSyncer()

	first, err := syncer.SyncRoom(context.Background(), room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, first.Inserted)

	second, err := syncer.SyncRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Intervals, 1)
}

func TestSyncRoomKeepsCheckoutToday(t *testing.T) {
	newTestStore(t)

	// checkout today is a stay that ended this morning, not a stale event
	today := time.Now().UTC()
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `BEGIN:VCALENDAR
BEGIN:VEVENT
DTSTART;VALUE=DATE:%s
DTEND;VALUE=DATE:%s
UID:ends-today@airbnb.com
SUMMARY:Reserved
END:VEVENT
END:VCALENDAR
`, icalDate(today.AddDate(0, 0, -3)), icalDate(today))
	}))
	defer feed.Close()

	room := createRoomWithFeed(t, feed.URL)
	result, err := NewSyncer().SyncRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
}

func TestSyncRoomDropsSameDayEvents(t *testing.T) {
	newTestStore(t)

	// a timed event whose start and end truncate to one date books no night
	day := time.Now().UTC().AddDate(0, 1, 0).Format("20060102")
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `BEGIN:VCALENDAR
BEGIN:VEVENT
DTSTART:%sT140000Z
DTEND:%sT180000Z
UID:same-day@airbnb.com
SUMMARY:Reserved
END:VEVENT
END:VCALENDAR
`, day, day)
	}))
	defer feed.Close()

	room := createRoomWithFeed(t, feed.URL)
	result, err := NewSyncer().SyncRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Intervals)
}

func TestSyncRoomNotConfigured(t *testing.T) {
	newTestStore(t)
	room := createRoomWithFeed(t, "")

	_, err := NewSyncer().SyncRoom(context.Background(), room.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSyncRoomFeedErrors(t *testing.T) {
	newTestStore(t)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	room := createRoomWithFeed(t, down.URL)
	_, err := NewSyncer().SyncRoom(context.Background(), room.ID)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestSyncRoomUnknownRoom(t *testing.T) {
	newTestStore(t)
	_, err := NewSyncer().SyncRoom(context.Background(), "9999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	newTestStore(t)

	now := time.Now().UTC()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, feedWith(now))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	roomA := createRoomWithFeed(t, bad.URL)
	roomB := createRoomWithFeed(t, good.URL)

	results, err := NewSyncer().SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	byRoom := map[string]models.SyncResult{}
	for _, res := range results {
		byRoom[res.RoomID] = res
	}
	assert.NotEmpty(t, byRoom[roomA.ID].Error)
	assert.Equal(t, 1, byRoom[roomB.ID].Inserted)
	assert.Empty(t, byRoom[roomB.ID].Error)
}
