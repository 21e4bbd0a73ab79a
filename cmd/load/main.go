// Simple HTTP load generator for the matching engine API. It floods
// the orders endpoint with randomized limit and IOC orders around a
// midpoint and reports throughput and latency percentiles.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

type orderReq struct {
	Side   string `json:"side"`
	Type   string `json:"type"`
	Price  string `json:"price"`
	Volume string `json:"volume"`
	Owner  string `json:"owner"`
}

func main() {
	var (
		urlFlag = flag.String("url", "http://127.0.0.1:8080/api/v1/orders", "orders endpoint")
		conns   = flag.Int("c", 50, "concurrency (goroutines)")
		total   = flag.Int("n", 10000, "total requests")
		mid     = flag.Int("mid", 100, "midpoint price")
		spread  = flag.Int("spread", 5, "half-width of the price band")
	)
	flag.Parse()

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: *conns,
			MaxConnsPerHost:     *conns,
		},
		Timeout: 10 * time.Second,
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		latencies []time.Duration
		errors    int
	)
	perWorker := *total / *conns
	start := time.Now()

	for w := 0; w < *conns; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(worker) + time.Now().UnixNano()))
			for i := 0; i < perWorker; i++ {
				req := orderReq{
					Side:   "buy",
					Type:   "limit",
					Price:  fmt.Sprintf("%d", *mid-rng.Intn(*spread+1)),
					Volume: fmt.Sprintf("%d", rng.Intn(9)+1),
					Owner:  fmt.Sprintf("load-%d", worker),
				}
				if rng.Intn(2) == 0 {
					req.Side = "sell"
					req.Price = fmt.Sprintf("%d", *mid+rng.Intn(*spread+1))
				}
				if rng.Intn(5) == 0 {
					req.Type = "ioc"
				}

				body, _ := json.Marshal(req)
				t0 := time.Now()
				resp, err := client.Post(*urlFlag, "application/json", bytes.NewReader(body))
				took := time.Since(t0)

				mu.Lock()
				if err != nil {
					errors++
				} else {
					resp.Body.Close()
					latencies = append(latencies, took)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if len(latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no successful requests")
		os.Exit(1)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	pct := func(p float64) time.Duration {
		return latencies[int(float64(len(latencies)-1)*p)]
	}
	fmt.Printf("requests: %d  errors: %d  elapsed: %.2fs  rps: %.0f\n",
		len(latencies), errors, elapsed.Seconds(), float64(len(latencies))/elapsed.Seconds())
	fmt.Printf("latency p50: %v  p90: %v  p99: %v  max: %v\n",
		pct(0.50), pct(0.90), pct(0.99), latencies[len(latencies)-1])
}
