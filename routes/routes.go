package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"homestay/auth"
	"homestay/booking"
	"homestay/calsync"
	"homestay/live"
	"homestay/middleware"
	"homestay/ratelim"
	"homestay/rooms"
	"homestay/storage"
	"homestay/utils"
)

func RoutesWrapper(router *httprouter.Router, rl *ratelim.RateLimiter, hub *live.Hub) {
	AddAuthRoutes(router, rl)
	AddRoomRoutes(router, rl)
	AddBookingRoutes(router, rl)
	AddSyncRoutes(router, rl)
	AddLiveRoutes(router, hub)
	AddStaticRoutes(router)
	AddHealthRoutes(router)
}

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/token/refresh", rl.Limit(auth.RefreshToken))
}

func AddRoomRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/rooms", rl.Limit(rooms.GetRooms))
	router.GET("/api/rooms/:roomid", rl.Limit(rooms.GetRoom))
	router.POST("/api/rooms", rl.Limit(middleware.Authenticate(rooms.CreateRoom)))
	router.PUT("/api/rooms/:roomid", rl.Limit(middleware.Authenticate(rooms.UpdateRoom)))
	router.DELETE("/api/rooms/:roomid", rl.Limit(middleware.Authenticate(rooms.DeleteRoom)))

	router.PUT("/api/rooms/:roomid/promotion", rl.Limit(middleware.Authenticate(rooms.UpdatePromotion)))
	router.PUT("/api/rooms/:roomid/ical", rl.Limit(middleware.Authenticate(rooms.SetIcalURL)))

	router.POST("/api/rooms/:roomid/images", rl.Limit(middleware.Authenticate(rooms.UploadRoomImage)))
	router.PUT("/api/rooms/:roomid/images/reorder", rl.Limit(middleware.Authenticate(rooms.ReorderRoomImages)))
	router.DELETE("/api/rooms/:roomid/images/:filename", rl.Limit(middleware.Authenticate(rooms.DeleteRoomImage)))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/rooms/:roomid/book", rl.Limit(middleware.Authenticate(booking.BookRoom)))
	router.POST("/api/rooms/:roomid/unbook", rl.Limit(middleware.Authenticate(booking.UnbookRoom)))
	router.PUT("/api/rooms/:roomid/booking", rl.Limit(middleware.Authenticate(booking.UpdateBooking)))
	router.GET("/api/rooms/:roomid/booking/confirmation", rl.Limit(middleware.Authenticate(booking.BookingConfirmation)))
}

func AddSyncRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/rooms/:roomid/sync", rl.Limit(middleware.Authenticate(calsync.SyncRoom)))
	router.POST("/api/sync", rl.Limit(middleware.Authenticate(calsync.SyncAllRooms)))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/admin", hub.HandleWS)
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/roompic/*filepath", http.Dir("static/roompic"))
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		roomCount := -1
		if list, err := storage.Store.List(ctx); err == nil {
			roomCount = len(list)
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"status":  "ok",
			"backend": storage.Store.Kind(),
			"rooms":   roomCount,
		})
	})
}
