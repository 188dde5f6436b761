// pushbench drives the async transfer client directly: it schedules a batch
// of POSTs against a target and reports latency percentiles and failure
// kinds. Useful for sizing the worker pool against a real upstream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"pushrelay/internal/engine"
	"pushrelay/internal/poster"
	"pushrelay/internal/transfer"
	"pushrelay/internal/worker"
)

type result struct {
	latency time.Duration
	err     error
}

func main() {
	var (
		targetURL     string
		requests      int
		workers       int
		queueSize     int
		connectSec    int
		timeoutSec    int
		payloadFile   string
		payloadString string
		allowHTTP     bool
	)
	flag.StringVar(&targetURL, "url", "https://localhost:8443/v1/push", "Target URL")
	flag.IntVar(&requests, "requests", 10000, "Total number of transfers to schedule")
	flag.IntVar(&workers, "workers", 0, "Worker pool size (0 = auto-detect)")
	flag.IntVar(&queueSize, "queue", 10000, "Job queue size")
	flag.IntVar(&connectSec, "connect-timeout", 10, "Connect timeout seconds")
	flag.IntVar(&timeoutSec, "timeout", 60, "Whole-transfer timeout seconds")
	flag.StringVar(&payloadFile, "payload-file", "", "Payload file path")
	flag.StringVar(&payloadString, "payload", "bench", "Inline payload string")
	flag.BoolVar(&allowHTTP, "allow-http", false, "Permit plain http targets (test mode)")

	flag.Parse()

	if requests <= 0 {
		fmt.Println("requests must be > 0")
		os.Exit(1)
	}

	payload := []byte(payloadString)
	if payloadFile != "" {
		var err error
		payload, err = os.ReadFile(payloadFile)
		if err != nil {
			fmt.Println("read payload file error:", err)
			os.Exit(1)
		}
	}

	eng := engine.NewManager(engine.Config{
		ConnectTimeout: time.Duration(connectSec) * time.Second,
		RequestTimeout: time.Duration(timeoutSec) * time.Second,
	})
	if err := eng.Initialize(); err != nil {
		fmt.Println("engine initialization error:", err)
		os.Exit(1)
	}
	defer eng.Close()

	orc := transfer.NewOrchestrator(eng, allowHTTP, 0)
	pool := worker.NewPool(orc, workers, queueSize, 30*time.Second)
	p := poster.NewPoolPoster(pool)
	p.Start()
	defer p.Stop()

	results := make(chan result, requests)
	testStart := time.Now()

	scheduled := 0
	rejected := 0
	for i := 0; i < requests; i++ {
		future, err := p.PostAsync(targetURL, payload)
		if err != nil {
			// Queue full: count it and keep going rather than blocking.
			rejected++
			continue
		}
		scheduled++
		go func(start time.Time, f *transfer.Future) {
			_, err := f.Wait(context.Background())
			results <- result{latency: time.Since(start), err: err}
		}(time.Now(), future)
	}

	var (
		latencies    []time.Duration
		successCount int
		errorCount   int
		errorKinds   = make(map[string]int)
	)
	for i := 0; i < scheduled; i++ {
		r := <-results
		latencies = append(latencies, r.latency)
		if r.err != nil {
			errorCount++
			errorKinds[truncateForPrint(r.err.Error(), 120)]++
		} else {
			successCount++
		}
	}
	totalElapsed := time.Since(testStart)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	pct := func(percent float64) time.Duration {
		if len(latencies) == 0 {
			return 0
		}
		idx := int(percent*float64(len(latencies))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	var avg time.Duration
	for _, d := range latencies {
		avg += d
	}
	if len(latencies) > 0 {
		avg /= time.Duration(len(latencies))
	}

	fmt.Println("=== Push Bench Summary ===")
	fmt.Printf("URL:            %s\n", targetURL)
	fmt.Printf("Scheduled:      %d\n", scheduled)
	fmt.Printf("Rejected:       %d\n", rejected)
	fmt.Printf("Success:        %d\n", successCount)
	fmt.Printf("Errors:         %d\n", errorCount)
	fmt.Printf("Total Elapsed:  %v\n", totalElapsed)
	if len(latencies) > 0 {
		fmt.Printf("Avg Latency:    %v\n", avg)
		fmt.Printf("P50 Latency:    %v\n", pct(0.50))
		fmt.Printf("P90 Latency:    %v\n", pct(0.90))
		fmt.Printf("P95 Latency:    %v\n", pct(0.95))
		fmt.Printf("P99 Latency:    %v\n", pct(0.99))
	}

	if len(errorKinds) > 0 {
		type kv struct {
			k string
			v int
		}
		var arr []kv
		for k, v := range errorKinds {
			arr = append(arr, kv{k, v})
		}
		sort.Slice(arr, func(i, j int) bool { return arr[i].v > arr[j].v })
		maxShow := 10
		if len(arr) < maxShow {
			maxShow = len(arr)
		}
		fmt.Println("Top Error Kinds:")
		for i := 0; i < maxShow; i++ {
			fmt.Printf("  %d) %s  (count=%d)\n", i+1, arr[i].k, arr[i].v)
		}
	}
}

func truncateForPrint(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
