package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Drives traffic at a gated endpoint to observe tier-based throttling from
// the outside: how many requests pass, how many hit the rate limiter (429)
// and how many hit a quota wall (403).
func main() {
	targetURL := flag.String("url", "http://localhost:8080/api/mentorship/cases", "Target URL")
	token := flag.String("token", "", "Bearer token for the test account")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	duration := flag.Duration("d", 30*time.Second, "Duration of the load test")
	rps := flag.Int("rps", 100, "Requests per second limit")
	flag.Parse()

	if *token == "" {
		log.Fatal("a -token is required; obtain one from POST /api/auth/token")
	}

	log.Printf("Starting load test on %s", *targetURL)
	log.Printf("Concurrency: %d, Duration: %s, RPS: %d", *concurrency, *duration, *rps)

	var wg sync.WaitGroup
	var allowedCount, rateLimitedCount, quotaDeniedCount, errorCount atomic.Int64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(*rps), 100) // Allow bursts up to 100

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			client := &http.Client{
				Timeout: 5 * time.Second,
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
					limiter.Wait(ctx) // Wait for token from rate limiter

					payload := fmt.Sprintf(`{"title": "load test case from worker %d", "created_at": "%s"}`,
						workerID, time.Now().Format(time.RFC3339Nano))

					req, err := http.NewRequestWithContext(ctx, http.MethodPost, *targetURL, bytes.NewBufferString(payload))
					if err != nil {
						continue // Should not happen
					}
					req.Header.Set("Content-Type", "application/json")
					req.Header.Set("Authorization", "Bearer "+*token)

					resp, err := client.Do(req)
					if err != nil {
						errorCount.Add(1)
						continue
					}

					switch {
					case resp.StatusCode >= 200 && resp.StatusCode < 300:
						allowedCount.Add(1)
					case resp.StatusCode == http.StatusTooManyRequests:
						rateLimitedCount.Add(1)
					case resp.StatusCode == http.StatusForbidden:
						quotaDeniedCount.Add(1)
					default:
						errorCount.Add(1)
					}
					resp.Body.Close()
				}
			}
		}(i)
	}

	wg.Wait()

	totalRequests := allowedCount.Load() + rateLimitedCount.Load() + quotaDeniedCount.Load() + errorCount.Load()
	actualRPS := float64(totalRequests) / duration.Seconds()

	log.Println("Load test finished.")
	log.Printf("Total Requests: %d", totalRequests)
	log.Printf("Allowed: %d", allowedCount.Load())
	log.Printf("Rate Limited (429): %d", rateLimitedCount.Load())
	log.Printf("Quota Denied (403): %d", quotaDeniedCount.Load())
	log.Printf("Errors: %d", errorCount.Load())
	log.Printf("Actual RPS: %.2f", actualRPS)
}
