// Command admission-storm floods a ward server with websocket admissions
// to measure how the hospital behaves under pressure.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ecshospital/internal/domain/patient"
	"github.com/MRamiBalles/ecshospital/internal/engine"
	"github.com/MRamiBalles/ecshospital/internal/network"
)

// Config for the storm.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	RecoveringPct  int
}

// Stats tracks what the server answered.
type Stats struct {
	Sent        int64
	Admitted    int64
	Rejected    int64
	RateLimited int64
	Events      int64
	Errors      int64
	Latencies   []time.Duration
	mu          sync.Mutex
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent clients")
	interval := flag.Duration("interval", 250*time.Millisecond, "Admission interval per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	recovering := flag.Int("recovering", 20, "Percentage of patients that arrive already recovering")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		RecoveringPct:  *recovering,
	}

	fmt.Println("=========================================")
	fmt.Println("ADMISSION STORM")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runStorm(ctx, config)
	printResults(stats, config)
}

func runStorm(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%d admitted=%d rejected=%d limited=%d errors=%d\n",
					atomic.LoadInt64(&stats.Sent), atomic.LoadInt64(&stats.Admitted),
					atomic.LoadInt64(&stats.Rejected), atomic.LoadInt64(&stats.RateLimited),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	pending := make(chan time.Time, 64)
	go func() {
		for {
			var env network.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Type {
			case "EVENT":
				atomic.AddInt64(&stats.Events, 1)
				continue
			case "ADMITTED":
				atomic.AddInt64(&stats.Admitted, 1)
			case "ERROR":
				if env.Error == "rate limited" {
					atomic.AddInt64(&stats.RateLimited, 1)
				} else {
					atomic.AddInt64(&stats.Rejected, 1)
				}
			}
			select {
			case sent := <-pending:
				stats.mu.Lock()
				stats.Latencies = append(stats.Latencies, time.Since(sent))
				stats.mu.Unlock()
			default:
			}
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			rec := randomPatient(config.RecoveringPct)
			if err := conn.WriteJSON(network.Command{Type: "ADMIT", Patient: &rec}); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.Sent, 1)
			select {
			case pending <- time.Now():
			default:
			}
		}
	}
}

func randomPatient(recoveringPct int) engine.PatientRecord {
	genders := []string{"M", "F"}
	rec := engine.PatientRecord{
		Gender:   genders[rand.IntN(len(genders))],
		Age:      1 + rand.IntN(99),
		Illness:  1 + rand.IntN(8),
		Recovery: patient.NeedsTreatment,
	}
	if rand.IntN(100) < recoveringPct {
		rec.Recovery = 1 + rand.IntN(5)
	}
	return rec
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("STORM RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.Sent)
	admitted := atomic.LoadInt64(&stats.Admitted)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Admissions Sent:   %d\n", sent)
	fmt.Printf("Queued:            %d\n", admitted)
	fmt.Printf("Rejected:          %d\n", atomic.LoadInt64(&stats.Rejected))
	fmt.Printf("Rate Limited:      %d\n", atomic.LoadInt64(&stats.RateLimited))
	fmt.Printf("Events Received:   %d\n", atomic.LoadInt64(&stats.Events))
	fmt.Printf("Errors:            %d\n", errs)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f admissions/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		lo, hi := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			lo = min(lo, l)
			hi = max(hi, l)
		}
		fmt.Printf("\nReply latency:\n")
		fmt.Printf("  Min: %v\n", lo)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("  Max: %v\n", hi)
	}

	results := map[string]interface{}{
		"admissions_sent":    sent,
		"admissions_queued":  admitted,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile("admission_storm_results.json", jsonData, 0644); err != nil {
		log.Printf("failed to save results: %v", err)
		return
	}
	fmt.Println("\nResults saved to admission_storm_results.json")
}
