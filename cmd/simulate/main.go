// simulate hammers the booking endpoint with concurrent workers and then
// audits the day: if any two committed appointments overlap, the race
// guards failed and the run exits non-zero.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Attempts   int // booking attempts per worker
	TargetDate string
}

type Metrics struct {
	Total    int64
	Booked   int64
	Rejected int64
	Errors   int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (m *Metrics) Record(latency time.Duration, status int, err error) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case err != nil || status >= 500:
		atomic.AddInt64(&m.Errors, 1)
	case status == http.StatusCreated:
		atomic.AddInt64(&m.Booked, 1)
	default:
		atomic.AddInt64(&m.Rejected, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *Metrics) Stats() (avg, p50, p95 time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

type serviceJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration_minutes"`
}

type slotJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityJSON struct {
	Slots []slotJSON `json:"slots"`
}

type appointmentJSON struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	gofakeit.Seed(time.Now().UnixNano())

	client := &http.Client{Timeout: 10 * time.Second}

	services, err := fetchServices(client, cfg.APIBaseURL)
	if err != nil {
		log.Fatalf("fetch services: %v", err)
	}
	if len(services) == 0 {
		log.Fatal("no services available, run the seeder first")
	}
	log.Printf("loaded %d services, target date %s, %d workers x %d attempts",
		len(services), cfg.TargetDate, cfg.Workers, cfg.Attempts)

	var metrics Metrics
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runWorker(client, cfg, services, &metrics)
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	avg, p50, p95 := metrics.Stats()
	log.Printf("done in %s: total=%d booked=%d rejected=%d errors=%d",
		elapsed, metrics.Total, metrics.Booked, metrics.Rejected, metrics.Errors)
	log.Printf("latency avg=%s p50=%s p95=%s", avg, p50, p95)

	if err := auditDay(client, cfg); err != nil {
		log.Fatalf("AUDIT FAILED: %v", err)
	}
	log.Println("audit passed: no overlapping appointments committed")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Workers:    getEnvInt("SIM_WORKERS", 20),
		Attempts:   getEnvInt("SIM_ATTEMPTS", 25),
		TargetDate: os.Getenv("SIM_DATE"),
	}
	if cfg.TargetDate == "" {
		cfg.TargetDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	return cfg
}

func runWorker(client *http.Client, cfg SimConfig, services []serviceJSON, metrics *Metrics) {
	for i := 0; i < cfg.Attempts; i++ {
		svc := services[rand.Intn(len(services))]

		slots, err := fetchAvailability(client, cfg.APIBaseURL, cfg.TargetDate, svc.ID)
		if err != nil || len(slots) == 0 {
			continue
		}

		// Everyone aims at the first few slots to force collisions.
		slot := slots[rand.Intn(min(3, len(slots)))]

		body, _ := json.Marshal(map[string]string{
			"date":         cfg.TargetDate,
			"start_time":   slot.Start,
			"service_id":   svc.ID,
			"client_name":  gofakeit.Name(),
			"client_phone": fmt.Sprintf("+351 9%d", gofakeit.Number(10000000, 99999999)),
		})

		t0 := time.Now()
		resp, err := client.Post(cfg.APIBaseURL+"/appointments", "application/json", bytes.NewReader(body))
		latency := time.Since(t0)

		status := 0
		if resp != nil {
			status = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		metrics.Record(latency, status, err)
	}
}

func fetchServices(client *http.Client, baseURL string) ([]serviceJSON, error) {
	resp, err := client.Get(baseURL + "/services")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var services []serviceJSON
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		return nil, err
	}
	return services, nil
}

func fetchAvailability(client *http.Client, baseURL, date, serviceID string) ([]slotJSON, error) {
	resp, err := client.Get(fmt.Sprintf("%s/availability?date=%s&service_id=%s", baseURL, date, serviceID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var avail availabilityJSON
	if err := json.NewDecoder(resp.Body).Decode(&avail); err != nil {
		return nil, err
	}
	return avail.Slots, nil
}

// auditDay re-reads everything committed for the target date and checks
// every pair for overlap, the invariant the whole system exists to hold.
func auditDay(client *http.Client, cfg SimConfig) error {
	resp, err := client.Get(fmt.Sprintf("%s/appointments?date=%s", cfg.APIBaseURL, cfg.TargetDate))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var appts []appointmentJSON
	if err := json.NewDecoder(resp.Body).Decode(&appts); err != nil {
		return err
	}
	log.Printf("audit: %d appointments committed for %s", len(appts), cfg.TargetDate)

	for i := range appts {
		for j := i + 1; j < len(appts); j++ {
			si, ei := clockMinutes(appts[i].StartTime), clockMinutes(appts[i].EndTime)
			sj, ej := clockMinutes(appts[j].StartTime), clockMinutes(appts[j].EndTime)
			if si < ej && sj < ei {
				return fmt.Errorf("appointments %s and %s overlap (%s-%s vs %s-%s)",
					appts[i].ID, appts[j].ID,
					appts[i].StartTime, appts[i].EndTime,
					appts[j].StartTime, appts[j].EndTime)
			}
		}
	}
	return nil
}

func clockMinutes(s string) int {
	var h, m int
	fmt.Sscanf(s, "%d:%d", &h, &m)
	return h*60 + m
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
