package background

import (
	"context"
	"log"
	"time"

	"saasbase/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

const (
	// Pending invitations older than this are reaped; the inviter can
	// simply re-invite.
	staleInvitationAge = 30 * 24 * time.Hour
	// Soft-deleted tenants are kept around this long before the
	// administrative purge removes them and their memberships for good.
	purgeRetention = 90 * 24 * time.Hour
)

// JobScheduler runs the scheduled collaborators: invitation expiry and the
// administrative purge of soft-deleted tenants.
type JobScheduler struct {
	scheduler gocron.Scheduler
	store     repositories.Store
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(store repositories.Store) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		store:     store,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.reapStaleInvitations),
		gocron.WithName("reap-stale-invitations"),
	); err != nil {
		return err
	}

	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.purgeDeletedTenants),
		gocron.WithName("purge-deleted-tenants"),
	); err != nil {
		return err
	}

	return nil
}

func (js *JobScheduler) reapStaleInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-staleInvitationAge)
	removed, err := js.store.Memberships().DeleteStaleInvitations(ctx, cutoff)
	if err != nil {
		log.Printf("stale invitation reaper failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("reaped %d stale invitations", removed)
	}
}

func (js *JobScheduler) purgeDeletedTenants() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-purgeRetention)
	purged, err := js.store.Tenants().PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("tenant purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("purged %d soft-deleted tenants", purged)
	}
}
