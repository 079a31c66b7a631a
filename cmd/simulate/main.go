package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// simulate hammers a running api-server with concurrent Book, Cancel and
// Reschedule calls and reports latency and conflict rates. Conflicts are
// the expected outcome of races, so they are counted separately from
// errors.

type SimConfig struct {
	APIBaseURL      string
	ProviderID      string
	Duration        time.Duration
	Workers         int
	BookRatio       float64
	CancelRatio     float64
	RescheduleRatio float64
	Days            int
}

type bookedAppointment struct {
	ID         string
	CustomerID string
}

// DataPool tracks the appointments the simulator has created so other
// workers can cancel or move them.
type DataPool struct {
	Days []string

	mu           sync.Mutex
	appointments []bookedAppointment
}

func (dp *DataPool) Add(appt bookedAppointment) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, appt)
}

func (dp *DataPool) TakeRandom(rng *rand.Rand) (bookedAppointment, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return bookedAppointment{}, false
	}
	idx := rng.Intn(len(dp.appointments))
	appt := dp.appointments[idx]
	dp.appointments[idx] = dp.appointments[len(dp.appointments)-1]
	dp.appointments = dp.appointments[:len(dp.appointments)-1]
	return appt, true
}

func (dp *DataPool) RandomDay(rng *rand.Rand) string {
	return dp.Days[rng.Intn(len(dp.Days))]
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[len(latencies)*50/100]
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]
	return avg, min, max, p50, p95
}

type Metrics struct {
	Book       OperationMetrics
	Cancel     OperationMetrics
	Reschedule OperationMetrics
	ListOpen   OperationMetrics
}

type Simulator struct {
	cfg     SimConfig
	client  *http.Client
	pool    *DataPool
	metrics *Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	days := make([]string, 0, cfg.Days)
	today := time.Now()
	for i := 0; i < cfg.Days; i++ {
		days = append(days, today.AddDate(0, 0, i).Format("2006-01-02"))
	}

	sim := &Simulator{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		pool:    &DataPool{Days: days},
		metrics: &Metrics{},
	}

	log.Printf("simulating against %s provider=%s workers=%d duration=%s",
		cfg.APIBaseURL, cfg.ProviderID, cfg.Workers, cfg.Duration)

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://127.0.0.1:8080"),
		ProviderID:      getEnv("PROVIDER_ID", "barber"),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 16),
		BookRatio:       getFloat("SIM_BOOK_RATIO", 0.5),
		CancelRatio:     getFloat("SIM_CANCEL_RATIO", 0.15),
		RescheduleRatio: getFloat("SIM_RESCHEDULE_RATIO", 0.15),
		Days:            getInt("SIM_DAYS", 7),
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be positive")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be positive")
	}
	total := cfg.BookRatio + cfg.CancelRatio + cfg.RescheduleRatio
	if total > 1.0 {
		return fmt.Errorf("operation ratios sum to %.2f, must be <= 1.0", total)
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		roll := rng.Float64()
		switch {
		case roll < s.cfg.BookRatio:
			s.doBook(ctx, rng)
		case roll < s.cfg.BookRatio+s.cfg.CancelRatio:
			s.doCancel(ctx, rng)
		case roll < s.cfg.BookRatio+s.cfg.CancelRatio+s.cfg.RescheduleRatio:
			s.doReschedule(ctx, rng)
		default:
			s.doListOpen(ctx, rng)
		}
	}
}

func (s *Simulator) openSlots(ctx context.Context, day string) ([]string, error) {
	url := fmt.Sprintf("%s/providers/%s/availability?day=%s", s.cfg.APIBaseURL, s.cfg.ProviderID, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability status %d", resp.StatusCode)
	}

	var body struct {
		Slots []string `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Slots, nil
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	day := s.pool.RandomDay(rng)

	slots, err := s.openSlots(ctx, day)
	if err != nil || len(slots) == 0 {
		return
	}
	slot := slots[rng.Intn(len(slots))]

	payload, _ := json.Marshal(map[string]string{
		"customer_id": "sim-" + uuid.NewString(),
		"day":         day,
		"time":        slot,
	})

	start := time.Now()
	url := fmt.Sprintf("%s/providers/%s/appointments", s.cfg.APIBaseURL, s.cfg.ProviderID)
	resp, err := s.post(ctx, url, payload)
	latency := time.Since(start)
	if err != nil {
		s.metrics.Book.Record(latency, false, false)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		var body struct {
			AppointmentID string `json:"appointment_id"`
			CustomerID    string `json:"customer_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			s.pool.Add(bookedAppointment{ID: body.AppointmentID, CustomerID: body.CustomerID})
		}
		s.metrics.Book.Record(latency, true, false)
	case http.StatusConflict:
		s.metrics.Book.Record(latency, false, true)
	default:
		s.metrics.Book.Record(latency, false, false)
	}
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.pool.TakeRandom(rng)
	if !ok {
		return
	}

	url := fmt.Sprintf("%s/providers/%s/appointments/%s", s.cfg.APIBaseURL, s.cfg.ProviderID, appt.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.metrics.Cancel.Record(latency, false, false)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusNoContent:
		s.metrics.Cancel.Record(latency, true, false)
	case http.StatusNotFound, http.StatusConflict:
		s.metrics.Cancel.Record(latency, false, true)
	default:
		s.metrics.Cancel.Record(latency, false, false)
	}
}

func (s *Simulator) doReschedule(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.pool.TakeRandom(rng)
	if !ok {
		return
	}

	day := s.pool.RandomDay(rng)
	slots, err := s.openSlots(ctx, day)
	if err != nil || len(slots) == 0 {
		s.pool.Add(appt)
		return
	}
	slot := slots[rng.Intn(len(slots))]

	payload, _ := json.Marshal(map[string]string{
		"day":  day,
		"time": slot,
	})

	url := fmt.Sprintf("%s/providers/%s/appointments/%s", s.cfg.APIBaseURL, s.cfg.ProviderID, appt.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		s.pool.Add(appt)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.pool.Add(appt)
		s.metrics.Reschedule.Record(latency, false, false)
		return
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			AppointmentID string `json:"appointment_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			s.pool.Add(bookedAppointment{ID: body.AppointmentID, CustomerID: appt.CustomerID})
		}
		s.metrics.Reschedule.Record(latency, true, false)
	case http.StatusConflict:
		// The original appointment survives a conflicted reschedule.
		s.pool.Add(appt)
		s.metrics.Reschedule.Record(latency, false, true)
	case http.StatusNotFound:
		s.metrics.Reschedule.Record(latency, false, true)
	default:
		s.pool.Add(appt)
		s.metrics.Reschedule.Record(latency, false, false)
	}
}

func (s *Simulator) doListOpen(ctx context.Context, rng *rand.Rand) {
	day := s.pool.RandomDay(rng)

	start := time.Now()
	_, err := s.openSlots(ctx, day)
	latency := time.Since(start)
	s.metrics.ListOpen.Record(latency, err == nil, false)
}

func (s *Simulator) post(ctx context.Context, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.client.Do(req)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 64))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 64))

	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Reschedule", &s.metrics.Reschedule)
	printOperationReport("ListOpen", &s.metrics.ListOpen)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		fmt.Printf("\n%s: no operations\n", name)
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errs := atomic.LoadInt64(&om.Error)
	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("\n%s:\n", name)
	fmt.Printf("  total=%d success=%d conflict=%d error=%d\n", total, success, conflict, errs)
	fmt.Printf("  success_rate=%.1f%% conflict_rate=%.1f%%\n",
		float64(success)/float64(total)*100, float64(conflict)/float64(total)*100)
	fmt.Printf("  latency avg=%s min=%s max=%s p50=%s p95=%s\n", avg, min, max, p50, p95)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
