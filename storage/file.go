package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"homestay/intervals"
	"homestay/models"
	"homestay/utils"
)

// FileStore holds every room in memory and rewrites the whole JSON file
// on each mutation. A single mutex spans every read-modify-write so the
// fallback keeps the atomicity Mongo's conditional updates give for free.
type FileStore struct {
	mu    sync.Mutex
	path  string
	rooms []models.Room
}

// NewFileStore loads the fallback file; a missing file starts empty.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, rooms: []models.Room{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, &fs.rooms); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fs, nil
}

func (s *FileStore) Kind() string { return "fallback_json" }

func writeRoomsFile(path string, rooms []models.Room) error {
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// persist rewrites the file; caller holds the mutex.
func (s *FileStore) persist() error {
	if err := writeRoomsFile(s.path, s.rooms); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// indexOf returns the position of a room; caller holds the mutex.
func (s *FileStore) indexOf(roomID string) int {
	for i := range s.rooms {
		if s.rooms[i].ID == roomID {
			return i
		}
	}
	return -1
}

func (s *FileStore) List(_ context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

func (s *FileStore) Resolve(_ context.Context, roomID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(roomID)
	if i < 0 {
		return nil, ErrNotFound
	}
	room := s.rooms[i]
	return &room, nil
}

func (s *FileStore) Create(_ context.Context, fields models.Room, customID string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := fields
	if customID != "" {
		if !utils.IsFourDigitID(customID) {
			return nil, fmt.Errorf("%w: room id must be exactly 4 digits", ErrInvalidInput)
		}
		if s.indexOf(customID) >= 0 {
			return nil, fmt.Errorf("%w: room %s already exists", ErrConflict, customID)
		}
		room.ID = customID
	} else {
		room.ID = s.nextNumericID()
	}

	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	room.Intervals = []models.BookingInterval{}

	s.rooms = append(s.rooms, room)
	if err := s.persist(); err != nil {
		s.rooms = s.rooms[:len(s.rooms)-1]
		return nil, err
	}
	return &room, nil
}

// nextNumericID continues the 4-digit sequence past the highest numeric id.
func (s *FileStore) nextNumericID() string {
	max := 0
	for i := range s.rooms {
		if n, err := strconv.Atoi(s.rooms[i].ID); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%04d", max+1)
}

func (s *FileStore) Update(_ context.Context, roomID string, patch models.RoomPatch) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return nil, ErrNotFound
	}
	before := s.rooms[i]
	applyRoomPatch(&s.rooms[i], patch)
	if err := s.persist(); err != nil {
		s.rooms[i] = before
		return nil, err
	}
	room := s.rooms[i]
	return &room, nil
}

func (s *FileStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
	return s.persist()
}

func (s *FileStore) AppendInterval(_ context.Context, roomID string, iv models.BookingInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	if intervals.IsDuplicateOrOverlapping(iv, s.rooms[i].Intervals) {
		return fmt.Errorf("%w: booking already exists or dates overlap", ErrConflict)
	}
	s.rooms[i].Intervals = append(s.rooms[i].Intervals, iv)
	s.rooms[i].UpdatedAt = time.Now().UTC()
	if err := s.persist(); err != nil {
		s.rooms[i].Intervals = s.rooms[i].Intervals[:len(s.rooms[i].Intervals)-1]
		return err
	}
	return nil
}

func (s *FileStore) RemoveInterval(_ context.Context, roomID, checkIn, checkOut string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	ivs := s.rooms[i].Intervals
	for j := range ivs {
		if ivs[j].CheckIn == checkIn && ivs[j].CheckOut == checkOut {
			s.rooms[i].Intervals = append(ivs[:j:j], ivs[j+1:]...)
			s.rooms[i].UpdatedAt = time.Now().UTC()
			return s.persist()
		}
	}
	return fmt.Errorf("%w: booking not found", ErrNotFound)
}

func (s *FileStore) UpdateIntervalFields(_ context.Context, roomID, checkIn, checkOut string, patch models.IntervalPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	for j := range s.rooms[i].Intervals {
		iv := &s.rooms[i].Intervals[j]
		if iv.CheckIn == checkIn && iv.CheckOut == checkOut {
			iv.GuestName = patch.GuestName
			iv.GuestPhone = patch.GuestPhone
			iv.GuestEmail = patch.GuestEmail
			iv.Notes = patch.Notes
			iv.UpdatedAt = time.Now().UTC()
			s.rooms[i].UpdatedAt = iv.UpdatedAt
			return s.persist()
		}
	}
	return fmt.Errorf("%w: booking not found", ErrNotFound)
}

func (s *FileStore) AppendIntervalsBatch(_ context.Context, roomID string, candidates []models.BookingInterval) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return 0, 0, ErrNotFound
	}

	inserted, skipped := 0, 0
	for _, c := range candidates {
		if intervals.IsSyncDuplicate(c, s.rooms[i].Intervals) {
			skipped++
			continue
		}
		s.rooms[i].Intervals = append(s.rooms[i].Intervals, c)
		inserted++
	}
	if inserted > 0 {
		s.rooms[i].UpdatedAt = time.Now().UTC()
		if err := s.persist(); err != nil {
			return inserted, skipped, err
		}
	}
	return inserted, skipped, nil
}

func (s *FileStore) AddImage(_ context.Context, roomID, category, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	if s.rooms[i].Images == nil {
		s.rooms[i].Images = map[string][]string{}
	}
	s.rooms[i].Images[category] = append(s.rooms[i].Images[category], url)
	s.rooms[i].UpdatedAt = time.Now().UTC()
	return s.persist()
}

func (s *FileStore) RemoveImage(_ context.Context, roomID, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return "", ErrNotFound
	}
	removed, images := removeImageRef(s.rooms[i].Images, filename)
	if removed == "" {
		return "", fmt.Errorf("%w: image not found", ErrNotFound)
	}
	s.rooms[i].Images = images
	s.rooms[i].UpdatedAt = time.Now().UTC()
	return removed, s.persist()
}

func (s *FileStore) ReorderImages(_ context.Context, roomID, category string, urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	if s.rooms[i].Images == nil {
		s.rooms[i].Images = map[string][]string{}
	}
	s.rooms[i].Images[category] = urls
	s.rooms[i].UpdatedAt = time.Now().UTC()
	return s.persist()
}

func (s *FileStore) SetLastSync(_ context.Context, roomID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(roomID)
	if i < 0 {
		return ErrNotFound
	}
	s.rooms[i].LastIcalSync = &at
	s.rooms[i].UpdatedAt = at
	return s.persist()
}

func (s *FileStore) RoomsWithIcal(_ context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Room{}
	for i := range s.rooms {
		if s.rooms[i].IcalURL != "" {
			out = append(out, s.rooms[i])
		}
	}
	return out, nil
}
