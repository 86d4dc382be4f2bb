package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"homestay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "rooms_data.json"))
	require.NoError(t, err)
	return fs
}

func mustCreate(t *testing.T, fs *FileStore, customID string) *models.Room {
	t.Helper()
	room, err := fs.Create(context.Background(), models.Room{
		Name:     "Garden View",
		Price:    45,
		Capacity: 2,
	}, customID)
	require.NoError(t, err)
	return room
}

func TestCreateAndResolveCustomID(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()

	room := mustCreate(t, fs, "0101")
	assert.Equal(t, "0101", room.ID)
	assert.NotNil(t, room.Intervals)
	assert.Empty(t, room.Intervals)

	got, err := fs.Resolve(ctx, "0101")
	require.NoError(t, err)
	assert.Equal(t, "0101", got.ID)

	_, err = fs.Create(ctx, models.Room{Name: "Dup"}, "0101")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateRejectsBadCustomID(t *testing.T) {
	fs := newTestStore(t)
	for _, id := range []string{"101", "01010", "01a1", "abcd"} {
		_, err := fs.Create(context.Background(), models.Room{Name: "x"}, id)
		assert.ErrorIs(t, err, ErrInvalidInput, "id %q", id)
	}
}

func TestCreateGeneratesSequentialIDs(t *testing.T) {
	fs := newTestStore(t)
	mustCreate(t, fs, "0203")
	room := mustCreate(t, fs, "")
	assert.Equal(t, "0204", room.ID)
}

func TestResolveUnknownRoom(t *testing.T) {
	fs := newTestStore(t)
	_, err := fs.Resolve(context.Background(), "9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIsPartial(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	newPrice := 60.0
	updated, err := fs.Update(ctx, room.ID, models.RoomPatch{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.Price)
	assert.Equal(t, "Garden View", updated.Name)
	assert.Equal(t, 2, updated.Capacity)
	assert.True(t, updated.UpdatedAt.After(room.UpdatedAt) || updated.UpdatedAt.Equal(room.UpdatedAt))
}

func TestAppendIntervalOverlapRules(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	alice := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, alice))

	// touching boundary: Alice checks out the day Bob checks in
	bob := models.BookingInterval{CheckIn: "2024-09-22", CheckOut: "2024-09-25", GuestName: "Bob"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, bob))

	carl := models.BookingInterval{CheckIn: "2024-09-21", CheckOut: "2024-09-23", GuestName: "Carl"}
	err := fs.AppendInterval(ctx, room.ID, carl)
	assert.ErrorIs(t, err, ErrConflict)

	got, err := fs.Resolve(ctx, room.ID)
	require.NoError(t, err)
	assert.Len(t, got.Intervals, 2)
}

func TestAppendIntervalRoomMissing(t *testing.T) {
	fs := newTestStore(t)
	iv := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	assert.ErrorIs(t, fs.AppendInterval(context.Background(), "0404", iv), ErrNotFound)
}

func TestRemoveInterval(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	iv := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, iv))

	assert.ErrorIs(t, fs.RemoveInterval(ctx, room.ID, "2024-09-20", "2024-09-23"), ErrNotFound)
	require.NoError(t, fs.RemoveInterval(ctx, room.ID, "2024-09-20", "2024-09-22"))

	got, _ := fs.Resolve(ctx, room.ID)
	assert.Empty(t, got.Intervals)
}

func TestUpdateIntervalFields(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	iv := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, iv))

	patch := models.IntervalPatch{GuestName: "Alice B", GuestPhone: "555-0101", Notes: "late arrival"}
	require.NoError(t, fs.UpdateIntervalFields(ctx, room.ID, "2024-09-20", "2024-09-22", patch))

	got, _ := fs.Resolve(ctx, room.ID)
	require.Len(t, got.Intervals, 1)
	assert.Equal(t, "Alice B", got.Intervals[0].GuestName)
	assert.Equal(t, "555-0101", got.Intervals[0].GuestPhone)
	assert.Equal(t, "2024-09-20", got.Intervals[0].CheckIn)

	// no matching dates: nothing changes
	err := fs.UpdateIntervalFields(ctx, room.ID, "2024-09-21", "2024-09-22", models.IntervalPatch{GuestName: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
	got, _ = fs.Resolve(ctx, room.ID)
	assert.Equal(t, "Alice B", got.Intervals[0].GuestName)
}

func TestAppendIntervalsBatchDedup(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	existing := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, existing))

	candidates := []models.BookingInterval{
		// date-duplicate of the existing manual booking
		{CheckIn: "2024-09-20", CheckOut: "2024-09-22", Source: models.SourceAirbnbIcal, IcalUID: "u1"},
		// fresh
		{CheckIn: "2024-10-01", CheckOut: "2024-10-04", Source: models.SourceAirbnbIcal, IcalUID: "u2"},
		// same UID as the previous candidate, different dates: intra-batch dup
		{CheckIn: "2024-10-10", CheckOut: "2024-10-12", Source: models.SourceAirbnbIcal, IcalUID: "u2"},
	}

	inserted, skipped, err := fs.AppendIntervalsBatch(ctx, room.ID, candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 2, skipped)

	// re-running the same batch inserts nothing
	inserted, skipped, err = fs.AppendIntervalsBatch(ctx, room.ID, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 3, skipped)

	got, _ := fs.Resolve(ctx, room.ID)
	assert.Len(t, got.Intervals, 2)
}

func TestDeleteCascadesIntervals(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")
	iv := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(ctx, room.ID, iv))

	require.NoError(t, fs.Delete(ctx, room.ID))
	_, err := fs.Resolve(ctx, room.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.Delete(ctx, room.ID), ErrNotFound)
}

func TestImagesLifecycle(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	room := mustCreate(t, fs, "0101")

	require.NoError(t, fs.AddImage(ctx, room.ID, "cover", "/static/roompic/a.jpg"))
	require.NoError(t, fs.AddImage(ctx, room.ID, "cover", "/static/roompic/b.jpg"))
	require.NoError(t, fs.AddImage(ctx, room.ID, "bedroom", "/static/roompic/c.jpg"))

	require.NoError(t, fs.ReorderImages(ctx, room.ID, "cover",
		[]string{"/static/roompic/b.jpg", "/static/roompic/a.jpg"}))

	got, _ := fs.Resolve(ctx, room.ID)
	assert.Equal(t, []string{"/static/roompic/b.jpg", "/static/roompic/a.jpg"}, got.Images["cover"])

	removed, err := fs.RemoveImage(ctx, room.ID, "a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/static/roompic/a.jpg", removed)

	_, err = fs.RemoveImage(ctx, room.ID, "zzz.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooms_data.json")

	fs, err := NewFileStore(path)
	require.NoError(t, err)
	room := mustCreate(t, fs, "0101")
	iv := models.BookingInterval{CheckIn: "2024-09-20", CheckOut: "2024-09-22", GuestName: "Alice"}
	require.NoError(t, fs.AppendInterval(context.Background(), room.ID, iv))

	// dates must land on disk as plain YYYY-MM-DD strings
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := reloaded.Resolve(context.Background(), "0101")
	require.NoError(t, err)
	require.Len(t, got.Intervals, 1)
	assert.Equal(t, "2024-09-20", got.Intervals[0].CheckIn)
	assert.Equal(t, "Alice", got.Intervals[0].GuestName)
}

func TestRoomsWithIcal(t *testing.T) {
	fs := newTestStore(t)
	ctx := context.Background()
	mustCreate(t, fs, "0101")
	room := mustCreate(t, fs, "0102")

	url := "https://calendar.example/feed.ics"
	_, err := fs.Update(ctx, room.ID, models.RoomPatch{IcalURL: &url})
	require.NoError(t, err)

	withIcal, err := fs.RoomsWithIcal(ctx)
	require.NoError(t, err)
	require.Len(t, withIcal, 1)
	assert.Equal(t, "0102", withIcal[0].ID)
}
