// Package jobs runs the scheduled background work: the day-before
// reservation reminder sweep.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/phone"
	"github.com/mesafacil/reservas-backend/internal/services"
	"github.com/mesafacil/reservas-backend/internal/session"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

// SweepResult summarizes one reminder pass.
type SweepResult struct {
	Date   string   `json:"date"`
	Found  int      `json:"found"`
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// ReminderJob sends WhatsApp reminders for tomorrow's reservations once
// a day at the configured local time.
type ReminderJob struct {
	store     storage.Store
	sessions  session.Store
	tenants   *services.TenantResolver
	messenger services.Messenger

	hour   int
	minute int
	loc    *time.Location
	now    func() time.Time

	stopChan chan struct{}
	running  bool
}

// NewReminderJob wires the sweep. hour/minute are the daily fire time in
// Argentina local time.
func NewReminderJob(store storage.Store, sessions session.Store, tenants *services.TenantResolver, messenger services.Messenger, hour, minute int) *ReminderJob {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		loc = time.FixedZone("ART", -3*60*60)
	}
	return &ReminderJob{
		store:     store,
		sessions:  sessions,
		tenants:   tenants,
		messenger: messenger,
		hour:      hour,
		minute:    minute,
		loc:       loc,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the daily loop.
func (j *ReminderJob) Start() {
	if j.running {
		return
	}
	j.running = true
	log.Printf("🔔 Reminder job started (daily at %02d:%02d)", j.hour, j.minute)
	go j.loop()
}

// Stop ends the loop.
func (j *ReminderJob) Stop() {
	if !j.running {
		return
	}
	j.running = false
	close(j.stopChan)
	log.Println("🔕 Reminder job stopped")
}

func (j *ReminderJob) loop() {
	for {
		next := j.nextRun()
		select {
		case <-time.After(time.Until(next)):
			result := j.RunSweep(context.Background(), "")
			log.Printf("🔔 Reminder sweep for %s: %d found, %d sent, %d failed",
				result.Date, result.Found, result.Sent, result.Failed)
		case <-j.stopChan:
			return
		}
	}
}

func (j *ReminderJob) nextRun() time.Time {
	now := j.now().In(j.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hour, j.minute, 0, 0, j.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunSweep sends reminders for every active reservation of tomorrow that
// has none yet, scoped to one restaurant when restaurantID is set. One
// broken reservation never stops the rest of the batch.
func (j *ReminderJob) RunSweep(ctx context.Context, restaurantID string) SweepResult {
	tomorrow := j.now().In(j.loc).AddDate(0, 0, 1).Format("2006-01-02")
	result := SweepResult{Date: tomorrow}

	pending, err := j.store.ReservationsNeedingReminder(tomorrow)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list reservations: %v", err))
		return result
	}
	if restaurantID != "" {
		kept := pending[:0]
		for _, res := range pending {
			if res.RestaurantID == restaurantID {
				kept = append(kept, res)
			}
		}
		pending = kept
	}
	result.Found = len(pending)

	for i := range pending {
		res := pending[i]
		if err := j.sendOne(ctx, &res); err != nil {
			log.Printf("❌ reminder for reservation %s failed: %v", res.ID, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", res.ID, err))
			continue
		}
		result.Sent++
	}
	return result
}

func (j *ReminderJob) sendOne(ctx context.Context, res *models.Reservation) error {
	r, err := j.tenants.ResolveByID(res.RestaurantID)
	if err != nil {
		return fmt.Errorf("resolve restaurant: %w", err)
	}

	body := services.BuildReminderMessage(r, res)
	if err := j.messenger.SendWhatsApp(r, res.Phone, body); err != nil {
		return err
	}

	sentAt := j.now()
	if err := j.store.MarkReminderSent(res.ID, sentAt); err != nil {
		// The message went out; log and keep the flag attempt out of
		// the failure count.
		log.Printf("⚠️ reminder sent flag for %s not set: %v", res.ID, err)
	}

	rem := services.NewReminderContext(res, sentAt)
	for _, variant := range phone.Variants(res.Phone) {
		s := models.NewSession(variant, res.RestaurantID)
		s.Reminder = rem
		if err := j.sessions.Save(ctx, s); err != nil {
			log.Printf("⚠️ reminder session for %s not saved: %v", variant, err)
		}
	}
	return nil
}
