package aterm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Concurrent_Readers_Can_Intern_And_Build_Terms_Without_Corrupting_The_Pool(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.InitialCapacity = 64

	pool, err := Init(cfg)
	require.NoError(t, err)
	defer pool.Shutdown()

	const goroutines = 16
	const perGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()

			th := pool.RegisterThread()
			defer pool.UnregisterThread(th)

			sym := pool.Intern(th, "shared", 1)
			defer pool.ReleaseSymbol(th, sym)

			for i := 0; i < perGoroutine; i++ {
				arg := pool.MakeInt(th, uint64(i%32))
				owned, err := pool.MakeApplication(th, sym, []TermRef{arg.Ref()})
				require.NoError(t, err)

				arg.Drop()
				owned.Drop()
			}
		}()
	}

	wg.Wait()
}

func Test_Writer_Eventually_Acquires_Exclusive_Access_Under_Continuous_Reader_Load(t *testing.T) {
	t.Parallel()

	pool, err := Init(DefaultConfig())
	require.NoError(t, err)
	defer pool.Shutdown()

	stop := make(chan struct{})
	var readersWg sync.WaitGroup

	for i := 0; i < 4; i++ {
		readersWg.Add(1)

		go func() {
			defer readersWg.Done()

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

	done := make(chan struct{})
	go func() {
		defer close(done)
		pool.CollectNow(writerTh)
	}()

	<-done
	close(stop)
	readersWg.Wait()
}
