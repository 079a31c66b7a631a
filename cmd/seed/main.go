package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/barberbook/barberbook/internal/availability"
	"github.com/barberbook/barberbook/internal/config"
	"github.com/barberbook/barberbook/internal/db"
	redisclient "github.com/barberbook/barberbook/internal/redis"
	"github.com/barberbook/barberbook/internal/schedule"
	"github.com/barberbook/barberbook/internal/scheduling"
)

const (
	calendarDays     = 14
	seedAppointments = 10
)

// seed publishes a full open calendar for the provider of record covering
// the next two weeks, then books a handful of demo appointments through
// the engine so the availability and appointment records stay consistent.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	grid := schedule.DefaultGrid()
	provider := schedule.ProviderID(cfg.ProviderID)

	availStore := availability.NewPgStore(pool, grid)
	apptStore := scheduling.NewPgStore(pool)
	engine := scheduling.NewEngine(provider, grid, availStore, apptStore, redisclient.NewLocalLocker())

	cal, days := upcomingCalendar(grid, calendarDays)
	if err := engine.PublishHours(ctx, provider, provider, cal); err != nil {
		log.Fatalf("publish hours: %v", err)
	}
	log.Printf("published %d days of availability", len(cal))

	booked := 0
	for _, day := range days {
		if booked >= seedAppointments {
			break
		}
		open, err := engine.ListAvailability(ctx, provider, day)
		if err != nil {
			log.Fatalf("list availability: %v", err)
		}
		if len(open) == 0 {
			continue
		}

		slot := open[gofakeit.Number(0, len(open)-1)]
		customer := fmt.Sprintf("%s-%d", gofakeit.Username(), gofakeit.Number(100, 999))
		notes := gofakeit.Sentence(4)

		conf, err := engine.Book(ctx, provider, customer, slot.Day, slot.Time, notes)
		if err != nil {
			log.Printf("seed booking for %s failed: %v", slot, err)
			continue
		}
		log.Printf("booked %s for customer=%s", conf.AppointmentID, customer)
		booked++
	}

	log.Printf("seed complete appointments=%d", booked)
}

// upcomingCalendar opens every grid slot for the next n calendar dates.
func upcomingCalendar(grid *schedule.Grid, n int) (availability.Calendar, []schedule.Day) {
	cal := make(availability.Calendar, n)
	days := make([]schedule.Day, 0, n)

	today := time.Now()
	for i := 0; i < n; i++ {
		date := today.AddDate(0, 0, i)
		day := schedule.Day(date.Format("2006-01-02"))

		slots, err := grid.SlotsFor(day)
		if err != nil {
			continue
		}
		times := make([]schedule.TimeOfDay, 0, len(slots))
		for _, slot := range slots {
			times = append(times, slot.Time)
		}
		cal[day] = times
		days = append(days, day)
	}
	return cal, days
}
