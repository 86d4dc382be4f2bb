package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"homestay/db"
	"homestay/intervals"
	"homestay/models"
	"homestay/utils"
)

// MongoStore keeps each room as one document in the rooms collection,
// keyed by a string _id (4-digit custom id or ObjectID hex). Documents
// imported from older deployments may still carry a real ObjectID key;
// Resolve handles both encodings.
type MongoStore struct{}

func NewMongoStore() *MongoStore { return &MongoStore{} }

func (s *MongoStore) Kind() string { return "mongodb" }

// find returns the room plus the filter that matched it, so mutations can
// address legacy ObjectID-keyed documents too. ObjectID parse failures
// are swallowed into NotFound, never surfaced as a different error.
func (s *MongoStore) find(ctx context.Context, roomID string) (bson.M, *models.Room, error) {
	var raw bson.M
	err := db.RoomsCollection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&raw)
	if err == nil {
		room, derr := roomFromRaw(raw)
		return bson.M{"_id": roomID}, room, derr
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	oid, oerr := primitive.ObjectIDFromHex(roomID)
	if oerr != nil {
		return nil, nil, ErrNotFound
	}
	err = db.RoomsCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	room, derr := roomFromRaw(raw)
	return bson.M{"_id": oid}, room, derr
}

// roomFromRaw stringifies an ObjectID key before decoding into the model.
func roomFromRaw(raw bson.M) (*models.Room, error) {
	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		raw["_id"] = oid.Hex()
	}
	data, err := bson.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var room models.Room
	if err := bson.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Room, error) {
	cur, err := db.RoomsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer cur.Close(ctx)

	rooms := []models.Room{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		room, err := roomFromRaw(raw)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, cur.Err()
}

func (s *MongoStore) Resolve(ctx context.Context, roomID string) (*models.Room, error) {
	_, room, err := s.find(ctx, roomID)
	return room, err
}

func (s *MongoStore) Create(ctx context.Context, fields models.Room, customID string) (*models.Room, error) {
	room := fields
	if customID != "" {
		if !utils.IsFourDigitID(customID) {
			return nil, fmt.Errorf("%w: room id must be exactly 4 digits", ErrInvalidInput)
		}
		room.ID = customID
	} else {
		room.ID = primitive.NewObjectID().Hex()
	}

	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	room.Intervals = []models.BookingInterval{}

	if _, err := db.RoomsCollection.InsertOne(ctx, room); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: room %s already exists", ErrConflict, room.ID)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &room, nil
}

func (s *MongoStore) Update(ctx context.Context, roomID string, patch models.RoomPatch) (*models.Room, error) {
	filter, room, err := s.find(ctx, roomID)
	if err != nil {
		return nil, err
	}
	applyRoomPatch(room, patch)

	set := bson.M{
		"name":        room.Name,
		"description": room.Description,
		"price":       room.Price,
		"persons":     room.Capacity,
		"amenities":   room.Amenities,
		"updated_at":  room.UpdatedAt,
	}
	if patch.Images != nil {
		set["images"] = room.Images
	}
	if patch.IcalURL != nil {
		set["icalUrl"] = room.IcalURL
	}
	if patch.Promotion != nil {
		set["promotion"] = room.Promotion
	}

	res, err := db.RoomsCollection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return room, nil
}

func (s *MongoStore) Delete(ctx context.Context, roomID string) error {
	res, err := db.RoomsCollection.DeleteOne(ctx, bson.M{"_id": roomID})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.DeletedCount > 0 {
		return nil
	}
	if oid, oerr := primitive.ObjectIDFromHex(roomID); oerr == nil {
		res, err = db.RoomsCollection.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if res.DeletedCount > 0 {
			return nil
		}
	}
	return ErrNotFound
}

// withIntervalMatch extends a room filter so it only matches when one
// element of bookedIntervals carries exactly these dates.
func withIntervalMatch(filter bson.M, checkIn, checkOut string) bson.M {
	matched := bson.M{}
	for k, v := range filter {
		matched[k] = v
	}
	matched["bookedIntervals"] = bson.M{"$elemMatch": bson.M{
		"checkIn":  checkIn,
		"checkOut": checkOut,
	}}
	return matched
}

// AppendInterval pushes the interval with the overlap check folded into
// the update filter, so check and write are a single conditional round
// trip; two racing bookings for the same nights cannot both match.
func (s *MongoStore) AppendInterval(ctx context.Context, roomID string, iv models.BookingInterval) error {
	filter, _, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}

	guarded := bson.M{}
	for k, v := range filter {
		guarded[k] = v
	}
	guarded["bookedIntervals"] = bson.M{"$not": bson.M{"$elemMatch": bson.M{
		"checkIn":  bson.M{"$lt": iv.CheckOut},
		"checkOut": bson.M{"$gt": iv.CheckIn},
	}}}

	res, err := db.RoomsCollection.UpdateOne(ctx, guarded, bson.M{
		"$push": bson.M{"bookedIntervals": iv},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		// The room was there a moment ago; the guard rejected the write.
		return fmt.Errorf("%w: booking already exists or dates overlap", ErrConflict)
	}
	return nil
}

func (s *MongoStore) RemoveInterval(ctx context.Context, roomID, checkIn, checkOut string) error {
	filter, _, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}

	// The booking must be in the match filter: the $set alone would dirty
	// the document and make ModifiedCount useless as an existence signal.
	matched := withIntervalMatch(filter, checkIn, checkOut)

	res, err := db.RoomsCollection.UpdateOne(ctx, matched, bson.M{
		"$pull": bson.M{"bookedIntervals": bson.M{"checkIn": checkIn, "checkOut": checkOut}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) UpdateIntervalFields(ctx context.Context, roomID, checkIn, checkOut string, patch models.IntervalPatch) error {
	filter, _, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}

	matched := bson.M{}
	for k, v := range filter {
		matched[k] = v
	}
	matched["bookedIntervals.checkIn"] = checkIn
	matched["bookedIntervals.checkOut"] = checkOut

	now := time.Now().UTC()
	res, err := db.RoomsCollection.UpdateOne(ctx, matched, bson.M{"$set": bson.M{
		"bookedIntervals.$.guestName":  patch.GuestName,
		"bookedIntervals.$.guestPhone": patch.GuestPhone,
		"bookedIntervals.$.guestEmail": patch.GuestEmail,
		"bookedIntervals.$.notes":      patch.Notes,
		"bookedIntervals.$.updatedAt":  now,
		"updated_at":                   now,
	}})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// matched, not modified: an identical patch still means the booking exists
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: booking not found", ErrNotFound)
	}
	return nil
}

func (s *MongoStore) AppendIntervalsBatch(ctx context.Context, roomID string, candidates []models.BookingInterval) (int, int, error) {
	filter, room, err := s.find(ctx, roomID)
	if err != nil {
		return 0, 0, err
	}

	existing := room.Intervals
	accepted := []models.BookingInterval{}
	skipped := 0
	for _, c := range candidates {
		if intervals.IsSyncDuplicate(c, existing) {
			skipped++
			continue
		}
		accepted = append(accepted, c)
		existing = append(existing, c)
	}

	if len(accepted) > 0 {
		_, err = db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
			"$push": bson.M{"bookedIntervals": bson.M{"$each": accepted}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
		if err != nil {
			return 0, skipped, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return len(accepted), skipped, nil
}

func (s *MongoStore) AddImage(ctx context.Context, roomID, category, url string) error {
	filter, room, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Images == nil {
		if _, err := db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
			"$set": bson.M{"images": map[string][]string{}},
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	_, err = db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
		"$push": bson.M{"images." + category: url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) RemoveImage(ctx context.Context, roomID, filename string) (string, error) {
	filter, room, err := s.find(ctx, roomID)
	if err != nil {
		return "", err
	}
	removed, images := removeImageRef(room.Images, filename)
	if removed == "" {
		return "", fmt.Errorf("%w: image not found", ErrNotFound)
	}
	_, err = db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"images": images, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return removed, nil
}

func (s *MongoStore) ReorderImages(ctx context.Context, roomID, category string, urls []string) error {
	filter, _, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}
	_, err = db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"images." + category: urls, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) SetLastSync(ctx context.Context, roomID string, at time.Time) error {
	filter, _, err := s.find(ctx, roomID)
	if err != nil {
		return err
	}
	_, err = db.RoomsCollection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"lastIcalSync": at, "updated_at": at},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) RoomsWithIcal(ctx context.Context) ([]models.Room, error) {
	cur, err := db.RoomsCollection.Find(ctx, bson.M{"icalUrl": bson.M{"$exists": true, "$ne": ""}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer cur.Close(ctx)

	rooms := []models.Room{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		room, err := roomFromRaw(raw)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, cur.Err()
}
