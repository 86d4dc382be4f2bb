package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/models"
	"homestay/storage"
)

func setupStore(t *testing.T) {
	t.Helper()
	fs, err := storage.NewFileStore(filepath.Join(t.TempDir(), "rooms.json"))
	require.NoError(t, err)

	prev := storage.Store
	storage.Store = fs
	t.Cleanup(func() { storage.Store = prev })
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateRoom(t *testing.T) {
	setupStore(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms",
		strings.NewReader(`{"name":"Sea View","description":"Top floor","price":95,"capacity":2,"amenities":["wifi"],"custom_id":"0301"}`))
	rec := httptest.NewRecorder()
	CreateRoom(rec, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data models.Room `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0301", resp.Data.ID)
	assert.Equal(t, []string{"wifi"}, resp.Data.Amenities)
}

func TestCreateRoomValidation(t *testing.T) {
	setupStore(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"description":"x","price":95,"capacity":2}`, http.StatusBadRequest},
		{"zero price", `{"name":"A","description":"x","price":0,"capacity":2}`, http.StatusBadRequest},
		{"zero capacity", `{"name":"A","description":"x","price":95,"capacity":0}`, http.StatusBadRequest},
		{"bad custom id", `{"name":"A","description":"x","price":95,"capacity":2,"custom_id":"12"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			CreateRoom(rec, req, nil)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateRoomDuplicateID(t *testing.T) {
	setupStore(t)

	body := `{"name":"A","description":"x","price":95,"capacity":2,"custom_id":"0301"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(body))
	rec := httptest.NewRecorder()
	CreateRoom(rec, req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(body))
	rec = httptest.NewRecorder()
	CreateRoom(rec, req, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRoomsEnvelope(t *testing.T) {
	setupStore(t)

	occupied, err := storage.Store.Create(context.Background(), models.Room{Name: "A", Price: 50, Capacity: 2}, "")
	require.NoError(t, err)
	_, err = storage.Store.Create(context.Background(), models.Room{Name: "B", Price: 60, Capacity: 2}, "")
	require.NoError(t, err)
	require.NoError(t, storage.Store.AppendInterval(context.Background(), occupied.ID, models.BookingInterval{
		CheckIn: "2026-09-10", CheckOut: "2026-09-14", GuestName: "Alice",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec := httptest.NewRecorder()
	GetRooms(rec, req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.JSONEq(t, `true`, string(env["success"]))
	assert.JSONEq(t, `2`, string(env["count"]))
	assert.JSONEq(t, `1`, string(env["booked"]))
	assert.JSONEq(t, `"fallback_json"`, string(env["source"]))
}

func TestGetRoomNotFound(t *testing.T) {
	setupStore(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/9999", nil)
	rec := httptest.NewRecorder()
	GetRoom(rec, req, httprouter.Params{{Key: "roomid", Value: "9999"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateRoomPartialPatch(t *testing.T) {
	setupStore(t)

	room, err := storage.Store.Create(context.Background(), models.Room{Name: "A", Description: "old", Price: 50, Capacity: 2}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+room.ID, strings.NewReader(`{"price":75}`))
	rec := httptest.NewRecorder()
	UpdateRoom(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Price)
	assert.Equal(t, "old", got.Description, "untouched fields survive a partial patch")
}

func TestUpdatePromotion(t *testing.T) {
	setupStore(t)

	room, err := storage.Store.Create(context.Background(), models.Room{Name: "A", Price: 100, Capacity: 2}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+room.ID+"/promotion",
		strings.NewReader(`{"active":true,"discountPrice":80}`))
	rec := httptest.NewRecorder()
	UpdatePromotion(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Promotion)
	assert.True(t, got.Promotion.Active)
	assert.Equal(t, 80.0, got.Promotion.DiscountPrice)

	// non-positive discount refused
	req = httptest.NewRequest(http.MethodPut, "/api/rooms/"+room.ID+"/promotion",
		strings.NewReader(`{"active":true,"discountPrice":0}`))
	rec = httptest.NewRecorder()
	UpdatePromotion(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetIcalURL(t *testing.T) {
	setupStore(t)

	room, err := storage.Store.Create(context.Background(), models.Room{Name: "A", Price: 100, Capacity: 2}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/rooms/"+room.ID+"/ical",
		strings.NewReader(`{"icalUrl":"https://airbnb.example/cal.ics"}`))
	rec := httptest.NewRecorder()
	SetIcalURL(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://airbnb.example/cal.ics", got.IcalURL)

	// clearing works too
	req = httptest.NewRequest(http.MethodPut, "/api/rooms/"+room.ID+"/ical", strings.NewReader(`{"icalUrl":""}`))
	rec = httptest.NewRecorder()
	SetIcalURL(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err = storage.Store.Resolve(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Empty(t, got.IcalURL)
}

func TestDeleteRoom(t *testing.T) {
	setupStore(t)

	room, err := storage.Store.Create(context.Background(), models.Room{Name: "A", Price: 100, Capacity: 2}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/rooms/"+room.ID, nil)
	rec := httptest.NewRecorder()
	DeleteRoom(rec, req, httprouter.Params{{Key: "roomid", Value: room.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	_, err = storage.Store.Resolve(context.Background(), room.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
