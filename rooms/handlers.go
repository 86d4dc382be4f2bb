package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"homestay/models"
	"homestay/mq"
	"homestay/rdx"
	"homestay/storage"
	"homestay/utils"
)

const listCacheKey = "rooms"

// respondStoreErr maps storage error kinds onto HTTP statuses.
func respondStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, storage.ErrConflict):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrInvalidInput):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		utils.Error(w, http.StatusServiceUnavailable, "Storage backend unavailable")
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func invalidateListCache() {
	_ = rdx.RdxDel(listCacheKey)
}

func GetRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if cached, _ := rdx.RdxGet(listCacheKey); cached != "" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cached))
		return
	}

	rooms, err := storage.Store.List(ctx)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	booked := 0
	for i := range rooms {
		if rooms[i].Booked() {
			booked++
		}
	}
	payload := utils.M{
		"success": true,
		"data":    rooms,
		"count":   len(rooms),
		"booked":  booked,
		"source":  storage.Store.Kind(),
	}
	if data, err := json.Marshal(payload); err == nil {
		_ = rdx.RdxSet(listCacheKey, string(data))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payload)
}

func GetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	room, err := storage.Store.Resolve(ctx, ps.ByName("roomid"))
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	utils.Success(w, http.StatusOK, room)
}

type createRoomRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Capacity    int      `json:"capacity"`
	Amenities   []string `json:"amenities"`
	CustomID    string   `json:"custom_id"`
}

func CreateRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.Description == "" {
		utils.Error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Price <= 0 {
		utils.Error(w, http.StatusBadRequest, "Price must be positive")
		return
	}
	if req.Capacity <= 0 {
		utils.Error(w, http.StatusBadRequest, "Capacity must be a positive integer")
		return
	}
	if req.Amenities == nil {
		req.Amenities = []string{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	room, err := storage.Store.Create(ctx, models.Room{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Amenities:   req.Amenities,
	}, req.CustomID)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	go mq.Emit(context.Background(), "room-created", room.ID, nil)
	utils.Success(w, http.StatusCreated, room)
}

func UpdateRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch models.RoomPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if patch.Price != nil && *patch.Price <= 0 {
		utils.Error(w, http.StatusBadRequest, "Price must be positive")
		return
	}
	if patch.Capacity != nil && *patch.Capacity <= 0 {
		utils.Error(w, http.StatusBadRequest, "Capacity must be a positive integer")
		return
	}
	if patch.Promotion != nil && patch.Promotion.DiscountPrice <= 0 {
		utils.Error(w, http.StatusBadRequest, "Discount price must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	room, err := storage.Store.Update(ctx, ps.ByName("roomid"), patch)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	go mq.Emit(context.Background(), "room-updated", room.ID, nil)
	utils.Success(w, http.StatusOK, room)
}

func DeleteRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roomID := ps.ByName("roomid")
	if err := storage.Store.Delete(ctx, roomID); err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	go mq.Emit(context.Background(), "room-deleted", roomID, nil)
	utils.Success(w, http.StatusOK, utils.M{"message": "Room deleted successfully"})
}

type promotionRequest struct {
	Active        bool    `json:"active"`
	DiscountPrice float64 `json:"discountPrice"`
}

func UpdatePromotion(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req promotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.DiscountPrice <= 0 {
		utils.Error(w, http.StatusBadRequest, "Discount price must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	room, err := storage.Store.Update(ctx, ps.ByName("roomid"), models.RoomPatch{
		Promotion: &models.Promotion{Active: req.Active, DiscountPrice: req.DiscountPrice},
	})
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	utils.Success(w, http.StatusOK, room)
}

type icalRequest struct {
	IcalURL string `json:"icalUrl"`
}

// SetIcalURL configures (or clears) the external calendar feed for a room.
func SetIcalURL(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req icalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	room, err := storage.Store.Update(ctx, ps.ByName("roomid"), models.RoomPatch{IcalURL: &req.IcalURL})
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	utils.Success(w, http.StatusOK, room)
}
