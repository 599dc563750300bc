// aterm-bench measures two scenarios from the term pool's concurrency
// contract: how shared-access throughput scales with reader count, and
// how long a writer waits to acquire exclusive access while readers are
// continuously active (the busy-forbidden lock's fairness guarantee).
package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/mcrl2/aterm/pkg/aterm"
)

func main() {
	duration := pflag.DurationP("duration", "d", time.Second, "duration to run each scenario")
	maxReaders := pflag.IntP("max-readers", "r", runtime.GOMAXPROCS(0), "maximum reader goroutine count to test")
	pflag.Parse()

	pool, err := aterm.Init(aterm.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Shutdown()

	fmt.Println("## Concurrent-reader scaling")
	scanScaling(pool, *duration, *maxReaders)

	fmt.Println()
	fmt.Println("## Writer fairness under continuous reader load")
	writerFairness(pool, *duration)
}

// scanScaling runs an increasing number of goroutines that each
// repeatedly acquire and release shared access and read an already
// -interned term, reporting total operations per second at each
// reader count. A lock with real per-reader contention would plateau
// or regress as reader count grows; busy-forbidden's whole point is
// that it should not.
func scanScaling(pool *aterm.Pool, duration time.Duration, maxReaders int) {
	th := pool.RegisterThread()
	defer pool.UnregisterThread(th)

	sym := pool.Intern(th, "Bench", 0)
	defer pool.ReleaseSymbol(th, sym)

	seed, err := pool.MakeApplication(th, sym, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup error: %v\n", err)
		return
	}
	defer seed.Drop()

	for readers := 1; readers <= maxReaders; readers *= 2 {
		var ops atomic.Int64
		var wg sync.WaitGroup

		stop := make(chan struct{})

		for i := 0; i < readers; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				readerTh := pool.RegisterThread()
				defer pool.UnregisterThread(readerTh)

				for {
					select {
					case <-stop:
						return
					default:
					}

					pool.LockShared(readerTh)
					_ = seed.Symbol()
					pool.UnlockShared(readerTh)

					ops.Add(1)
				}
			}()
		}

		time.Sleep(duration)
		close(stop)
		wg.Wait()

		rate := float64(ops.Load()) / duration.Seconds()
		fmt.Printf("readers=%-4d  ops/sec=%.0f\n", readers, rate)
	}
}

// writerFairness runs a fixed pool of reader goroutines continuously
// acquiring shared access while a single writer goroutine repeatedly
// acquires exclusive access, reporting the mean and max latency the
// writer observed. The busy-forbidden protocol guarantees this
// latency is bounded by at most one in-flight critical section per
// reader, not unbounded reader starvation.
func writerFairness(pool *aterm.Pool, duration time.Duration) {
	const readerCount = 8

	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < readerCount; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			th := pool.RegisterThread()
			defer pool.UnregisterThread(th)

			for {
				select {
				case <-stop:
					return
				default:
				}

				pool.LockShared(th)
				pool.UnlockShared(th)
			}
		}()
	}

	writerTh := pool.RegisterThread()
	defer pool.UnregisterThread(writerTh)

	var count int
	var total, max time.Duration

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		start := time.Now()
		pool.CollectNow(writerTh)
		elapsed := time.Since(start)

		total += elapsed
		if elapsed > max {
			max = elapsed
		}
		count++
	}

	close(stop)
	wg.Wait()

	fmt.Printf("writer acquisitions=%d  mean=%s  max=%s\n", count, total/time.Duration(count), max)
}
