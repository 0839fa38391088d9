package ctl

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// benchResult aggregates per-request outcomes from a bench run.
type benchResult struct {
	latencies []time.Duration
	rejected  int // 503s: pool saturation or timeout
	failed    int // transport errors and non-200/503 statuses
	elapsed   time.Duration
}

// percentile returns the p-th percentile of sorted latencies (nearest-rank).
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p/100*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// runBench fires n predict requests with the given concurrency and prints a
// latency summary. 503 responses count as rejections, not failures: they are
// the expected behavior under saturation.
func runBench(cfg *Config, imagePath string, n, concurrency int, confidence float64) error {
	if n <= 0 {
		n = 1
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	payload, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	body, contentType, err := multipartImage(imagePath, payload)
	if err != nil {
		return err
	}
	url := cfg.predictURL(confidence)
	client := cfg.httpClient()

	var (
		mu  sync.Mutex
		res benchResult
		wg  sync.WaitGroup
	)
	jobs := make(chan struct{})
	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				t0 := time.Now()
				resp, err := client.Post(url, contentType, bytes.NewReader(body))
				lat := time.Since(t0)
				mu.Lock()
				switch {
				case err != nil:
					res.failed++
				case resp.StatusCode == http.StatusOK:
					res.latencies = append(res.latencies, lat)
				case resp.StatusCode == http.StatusServiceUnavailable:
					res.rejected++
				default:
					res.failed++
				}
				mu.Unlock()
				if err == nil {
					resp.Body.Close()
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	res.elapsed = time.Since(start)

	sort.Slice(res.latencies, func(i, j int) bool { return res.latencies[i] < res.latencies[j] })
	ok := len(res.latencies)
	fmt.Printf("requests: %d  ok: %d  rejected(503): %d  failed: %d\n", n, ok, res.rejected, res.failed)
	fmt.Printf("wall time: %s  throughput: %.1f req/s\n", res.elapsed.Round(time.Millisecond), float64(ok)/res.elapsed.Seconds())
	if ok > 0 {
		fmt.Printf("latency p50: %s  p90: %s  p99: %s  max: %s\n",
			percentile(res.latencies, 50).Round(time.Millisecond),
			percentile(res.latencies, 90).Round(time.Millisecond),
			percentile(res.latencies, 99).Round(time.Millisecond),
			res.latencies[ok-1].Round(time.Millisecond))
	}
	return nil
}
