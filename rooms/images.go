package rooms

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"homestay/filemgr"
	"homestay/models"
	"homestay/storage"
	"homestay/utils"
)

// UploadRoomImage stores a multipart image under a gallery category and
// appends its URL to the room document.
func UploadRoomImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.Error(w, http.StatusBadRequest, "Unable to parse form")
		return
	}

	category := r.FormValue("category")
	if category == "" {
		category = "cover"
	}
	if !models.ImageCategories[category] {
		utils.Error(w, http.StatusBadRequest, "Unknown image category")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// resolve first so a bad room id doesn't leave an orphaned file
	roomID := ps.ByName("roomid")
	if _, err := storage.Store.Resolve(ctx, roomID); err != nil {
		respondStoreErr(w, err)
		return
	}

	url, err := filemgr.SaveRoomImage(file, header, category)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := storage.Store.AddImage(ctx, roomID, category, url); err != nil {
		filemgr.RemoveRoomImage(url)
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	utils.Success(w, http.StatusOK, utils.M{"imageUrl": url, "category": category})
}

type reorderRequest struct {
	Category string   `json:"category"`
	Images   []string `json:"images"`
}

func ReorderRoomImages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !models.ImageCategories[req.Category] {
		utils.Error(w, http.StatusBadRequest, "Unknown image category")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := storage.Store.ReorderImages(ctx, ps.ByName("roomid"), req.Category, req.Images); err != nil {
		respondStoreErr(w, err)
		return
	}

	invalidateListCache()
	utils.Success(w, http.StatusOK, utils.M{"message": "Images reordered"})
}

func DeleteRoomImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	url, err := storage.Store.RemoveImage(ctx, ps.ByName("roomid"), ps.ByName("filename"))
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	filemgr.RemoveRoomImage(url)
	invalidateListCache()
	utils.Success(w, http.StatusOK, utils.M{"message": "Image deleted"})
}
