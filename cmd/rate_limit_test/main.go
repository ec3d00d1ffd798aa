package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// result records the outcome of one request
type result struct {
	status  int
	latency time.Duration
	err     error
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "Dashboard API base URL")
	requests := flag.Int("n", 50, "Number of requests to send")
	concurrency := flag.Int("c", 10, "Number of concurrent senders")
	flag.Parse()

	fmt.Println("=== Running Rate Limit Test ===")
	fmt.Printf("Sending %d requests to %s/snapshot with %d senders\n\n", *requests, *baseURL, *concurrency)

	client := &http.Client{Timeout: 5 * time.Second}
	jobs := make(chan int)
	results := make(chan result, *requests)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				start := time.Now()
				resp, err := client.Get(*baseURL + "/snapshot")
				r := result{latency: time.Since(start), err: err}
				if err == nil {
					r.status = resp.StatusCode
					resp.Body.Close()
				}
				fmt.Printf("%s - request #%d: status %d in %v\n", start.Format("15:04:05.000"), n, r.status, r.latency.Round(time.Millisecond))
				results <- r
			}
		}()
	}

	start := time.Now()
	for n := 1; n <= *requests; n++ {
		jobs <- n
	}
	close(jobs)
	wg.Wait()
	close(results)
	elapsed := time.Since(start)

	counts := make(map[int]int)
	failures := 0
	for r := range results {
		if r.err != nil {
			failures++
			continue
		}
		counts[r.status]++
	}

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Total time:    %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Accepted:      %d\n", counts[http.StatusOK])
	fmt.Printf("Rate limited:  %d\n", counts[http.StatusTooManyRequests])
	fmt.Printf("Failed:        %d\n", failures)
	if failures == *requests {
		log.Fatal("No request reached the server; is it running?")
	}
}
