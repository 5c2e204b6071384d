package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/allandev/salon-booking/internal/db"
	"github.com/allandev/salon-booking/internal/schedule"
	"github.com/allandev/salon-booking/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	clientID := os.Getenv("CLIENT_ID")
	if clientID == "" {
		clientID = "la-barbiere-sintra"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	repo := store.NewPgStore(pool, clientID)
	seedCtx := context.Background()

	if err := seedWorkingHours(seedCtx, repo); err != nil {
		log.Fatalf("seed working hours: %v", err)
	}

	services, err := seedServices(seedCtx, repo)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}

	if err := seedBlackouts(seedCtx, repo); err != nil {
		log.Fatalf("seed blackouts: %v", err)
	}

	if err := seedAppointments(seedCtx, repo, services, 14); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedWorkingHours(ctx context.Context, repo *store.PgStore) error {
	hours := schedule.WorkingHours{
		Start:          9 * 60,
		End:            20 * 60,
		BreakStart:     14 * 60,
		BreakEnd:       15 * 60,
		ClosedWeekdays: []time.Weekday{time.Sunday},
	}
	if err := repo.SaveWorkingHours(ctx, hours); err != nil {
		return err
	}
	log.Println("working hours seeded")
	return nil
}

func seedServices(ctx context.Context, repo *store.PgStore) ([]schedule.Service, error) {
	catalogue := []schedule.Service{
		{Name: "Corte de Cabelo", Description: "Corte clássico ou moderno com acabamento premium.", Price: "12€", Duration: 30},
		{Name: "Barba Completa", Description: "Design de barba com toalha quente e produtos específicos.", Price: "10€", Duration: 30},
		{Name: "Corte & Barba", Description: "Pacote completo para renovar o visual masculino.", Price: "20€", Duration: 60},
	}

	var created []schedule.Service
	for _, svc := range catalogue {
		s, err := repo.CreateService(ctx, svc)
		if err != nil {
			return nil, err
		}
		created = append(created, *s)
	}

	log.Printf("services seeded: %d", len(created))
	return created, nil
}

func seedBlackouts(ctx context.Context, repo *store.PgStore) error {
	today := schedule.DateOf(time.Now())

	rules := []schedule.BlackoutRule{
		{
			Title:       "Formação da equipa",
			Anchor:      nextWeekday(today, time.Monday),
			Start:       9 * 60,
			End:         11 * 60,
			Recurrence:  schedule.RecurWeekly,
			RepeatCount: 4,
		},
		{
			Title:      "Manutenção do espaço",
			Anchor:     today.AddDate(0, 0, 10),
			Start:      16 * 60,
			End:        18 * 60,
			Recurrence: schedule.RecurNone,
		},
	}

	for _, rule := range rules {
		if _, err := repo.CreateBlackoutRule(ctx, rule); err != nil {
			return err
		}
	}

	log.Printf("blackout rules seeded: %d", len(rules))
	return nil
}

// seedAppointments books a random subset of free slots for the next days,
// going through the same admission path as real traffic so the seeded data
// can never violate the overlap invariant.
func seedAppointments(ctx context.Context, repo *store.PgStore, services []schedule.Service, days int) error {
	hours, err := repo.GetWorkingHours(ctx)
	if err != nil {
		return err
	}
	rules, err := repo.ListBlackoutRules(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	total := 0

	for d := 1; d <= days; d++ {
		day := schedule.DateOf(now).AddDate(0, 0, d)
		existing, err := repo.ListAppointmentsByDate(ctx, day)
		if err != nil {
			return err
		}

		for i := 0; i < gofakeit.Number(2, 6); i++ {
			svc := services[gofakeit.Number(0, len(services)-1)]

			free := schedule.FilterAvailable(
				schedule.GenerateSlots(day, svc.Duration, hours, schedule.ExpandAll(rules, day, day)),
				existing,
			)
			if len(free) == 0 {
				break
			}
			slot := free[gofakeit.Number(0, len(free)-1)]

			appt, err := schedule.Admit(schedule.BookingRequest{
				Date:        day,
				Start:       slot.Start,
				ServiceID:   svc.ID,
				ServiceName: svc.Name,
				Duration:    svc.Duration,
				ClientName:  gofakeit.Name(),
				ClientPhone: fmt.Sprintf("+351 9%d", gofakeit.Number(10000000, 99999999)),
			}, now, hours, rules, existing)
			if err != nil {
				continue
			}

			created, err := repo.CommitAppointment(ctx, *appt)
			if err != nil {
				return err
			}
			existing = append(existing, *created)
			total++
		}
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}

func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	d := from
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
