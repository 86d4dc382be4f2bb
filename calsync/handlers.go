package calsync

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"homestay/storage"
	"homestay/utils"
)

var syncer = NewSyncer()

func respondSyncErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		utils.Error(w, http.StatusBadRequest, "Room has no iCal URL configured")
	case errors.Is(err, ErrFetchFailed):
		utils.Error(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ErrParseFailed):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, storage.ErrUnavailable):
		utils.Error(w, http.StatusServiceUnavailable, "Storage backend unavailable")
	default:
		utils.Error(w, http.StatusInternalServerError, err.Error())
	}
}

// SyncRoom triggers an immediate import of one room's feed.
func SyncRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := syncer.SyncRoom(ctx, ps.ByName("roomid"))
	if err != nil {
		respondSyncErr(w, err)
		return
	}
	utils.Success(w, http.StatusOK, result)
}

// SyncAllRooms triggers an immediate import for every configured room.
func SyncAllRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	results, err := syncer.SyncAll(ctx)
	if err != nil {
		respondSyncErr(w, err)
		return
	}
	utils.Success(w, http.StatusOK, results)
}
