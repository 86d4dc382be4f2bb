package calsync

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a full-inventory sync on a fixed interval. The interval
// comes from SYNC_INTERVAL_MIN; zero or unset disables scheduling.
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
}

func NewScheduler(syncer *Syncer) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		syncer: syncer,
	}
}

func syncIntervalMinutes() int {
	raw := os.Getenv("SYNC_INTERVAL_MIN")
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		log.Printf("Ignoring invalid SYNC_INTERVAL_MIN %q", raw)
		return 0
	}
	return minutes
}

// Start schedules the periodic sync job. Returns false when scheduling
// is disabled.
func (s *Scheduler) Start() bool {
	minutes := syncIntervalMinutes()
	if minutes == 0 {
		log.Println("Periodic calendar sync disabled")
		return false
	}

	spec := fmt.Sprintf("@every %s", time.Duration(minutes)*time.Minute)
	if _, err := s.cron.AddFunc(spec, s.runSyncAll); err != nil {
		log.Printf("Could not schedule calendar sync: %v", err)
		return false
	}

	s.cron.Start()
	log.Printf("Calendar sync scheduled every %d minutes", minutes)
	return true
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSyncAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := s.syncer.SyncAll(ctx)
	if err != nil {
		log.Printf("Scheduled calendar sync failed: %v", err)
		return
	}
	for _, res := range results {
		if res.Error != "" {
			log.Printf("Room %s sync error: %s", res.RoomID, res.Error)
			continue
		}
		log.Printf("Room %s synced: %d inserted, %d skipped", res.RoomID, res.Inserted, res.Skipped)
	}
}
