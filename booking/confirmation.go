package booking

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"homestay/models"
	"homestay/storage"
	"homestay/utils"
)

func confirmationSecret() []byte {
	if s := os.Getenv("CONFIRMATION_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_confirmation_secret")
}

// confirmationPayload returns roomID|checkIn|checkOut|signature, so the
// QR code on the printout can be verified at the desk.
func confirmationPayload(roomID, checkIn, checkOut string) string {
	data := fmt.Sprintf("%s|%s|%s", roomID, checkIn, checkOut)
	h := hmac.New(sha256.New, confirmationSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// BookingConfirmation renders a PDF confirmation for the booking
// identified by roomid plus checkIn/checkOut query parameters.
func BookingConfirmation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	checkIn := r.URL.Query().Get("checkIn")
	checkOut := r.URL.Query().Get("checkOut")
	if checkIn == "" || checkOut == "" {
		utils.Error(w, http.StatusBadRequest, "checkIn and checkOut query parameters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	roomID := ps.ByName("roomid")
	room, err := storage.Store.Resolve(ctx, roomID)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	var booking *models.BookingInterval
	for i := range room.Intervals {
		if room.Intervals[i].CheckIn == checkIn && room.Intervals[i].CheckOut == checkOut {
			booking = &room.Intervals[i]
			break
		}
	}
	if booking == nil {
		utils.Error(w, http.StatusNotFound, "No booking for those dates")
		return
	}

	qrPNG, err := qrcode.Encode(confirmationPayload(room.ID, checkIn, checkOut), qrcode.Medium, 256)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Booking Confirmation")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Room: %s (%s)", room.Name, room.ID))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Guest: %s", booking.GuestName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Check-in: %s", booking.CheckIn))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Check-out: %s", booking.CheckOut))
	pdf.Ln(8)
	if booking.GuestPhone != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Phone: %s", booking.GuestPhone))
		pdf.Ln(8)
	}
	if booking.Notes != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Notes: %s", booking.Notes))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.Error(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=booking-"+room.ID+"-"+checkIn+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
