package booking

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

const dateLayout = "2006-01-02"

func respondStoreErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrConflict):
		utils.Error(w, http.StatusConflict, "Booking already exists or dates overlap with existing booking")
	case errors.Is(err, storage.ErrInvalidInput):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		utils.Error(w, http.StatusServiceUnavailable, "Storage backend unavailable")
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func validDateRange(checkIn, checkOut string) bool {
	in, errIn := time.Parse(dateLayout, checkIn)
	out, errOut := time.Parse(dateLayout, checkOut)
	return errIn == nil && errOut == nil && in.Before(out)
}

type bookRequest struct {
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	GuestName  string `json:"guestName"`
	GuestPhone string `json:"guestPhone"`
	GuestEmail string `json:"guestEmail"`
	Notes      string `json:"notes"`
}

// BookRoom appends a manual reservation. The overlap check and the write
// are one atomic unit inside the store.
func BookRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CheckIn == "" || req.CheckOut == "" || req.GuestName == "" {
		utils.Error(w, http.StatusBadRequest, "Missing required fields: checkIn, checkOut, guestName")
		return
	}
	if !validDateRange(req.CheckIn, req.CheckOut) {
		utils.Error(w, http.StatusBadRequest, "checkIn and checkOut must be YYYY-MM-DD dates with checkIn before checkOut")
		return
	}

	iv := models.BookingInterval{
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		GuestEmail: req.GuestEmail,
		Notes:      req.Notes,
		Source:     models.SourceManual,
		CreatedAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roomID := ps.ByName("roomid")
	if err := storage.Store.AppendInterval(ctx, roomID, iv); err != nil {
		respondStoreErr(w, err)
		return
	}

	_ = rdx.RdxDel("rooms")
	detail := utils.M{"interval": iv}
	if by := utils.GetUserIDFromRequest(r); by != "" {
		detail["by"] = by
	}
	go mq.Emit(context.Background(), "booking-created", roomID, detail)
	utils.Success(w, http.StatusOK, iv)
}

type unbookRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

func UnbookRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req unbookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CheckIn == "" || req.CheckOut == "" {
		utils.Error(w, http.StatusBadRequest, "Missing required fields: checkIn, checkOut")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roomID := ps.ByName("roomid")
	if err := storage.Store.RemoveInterval(ctx, roomID, req.CheckIn, req.CheckOut); err != nil {
		respondStoreErr(w, err)
		return
	}

	_ = rdx.RdxDel("rooms")
	go mq.Emit(context.Background(), "booking-cancelled", roomID, req)
	utils.Success(w, http.StatusOK, utils.M{"message": "Booking cancelled successfully"})
}

type updateBookingRequest struct {
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	GuestName  string `json:"guestName"`
	GuestPhone string `json:"guestPhone"`
	GuestEmail string `json:"guestEmail"`
	Notes      string `json:"notes"`
}

// UpdateBooking rewrites the guest fields of the interval matching
// (checkIn, checkOut); dates and position never change.
func UpdateBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CheckIn == "" || req.CheckOut == "" || req.GuestName == "" {
		utils.Error(w, http.StatusBadRequest, "Missing required fields: checkIn, checkOut, guestName")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roomID := ps.ByName("roomid")
	patch := models.IntervalPatch{
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		GuestEmail: req.GuestEmail,
		Notes:      req.Notes,
	}
	if err := storage.Store.UpdateIntervalFields(ctx, roomID, req.CheckIn, req.CheckOut, patch); err != nil {
		respondStoreErr(w, err)
		return
	}

	_ = rdx.RdxDel("rooms")
	utils.Success(w, http.StatusOK, utils.M{"message": "Booking updated successfully"})
}
