package cn

import "sync"

// forEachIndex calls fn for every index in [0, n) using a worker pool.
//
// Each call must write only to its own output slot (a slice element or a
// disjoint range of raster cells); inputs are shared read-only. With one
// worker, or a single job, calls run serially on the caller's goroutine.
// progress, if non-nil, is called from the caller's goroutine after each job.
func forEachIndex(n, workers int, fn func(i int), progress func(done, total int)) {
	if n == 0 {
		return
	}

	// Don't create more workers than jobs
	if workers > n {
		workers = n
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
			if progress != nil {
				progress(i+1, n)
			}
		}
		return
	}

	jobs := make(chan int, n)
	done := make(chan struct{}, n)

	// Start worker pool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
				done <- struct{}{}
			}
		}()
	}

	// Send jobs to workers
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	// Wait for workers to finish in a separate goroutine
	go func() {
		wg.Wait()
		close(done)
	}()

	finished := 0
	for range done {
		finished++
		if progress != nil {
			progress(finished, n)
		}
	}
}

// bands splits [0, n) into at most parts contiguous half-open ranges.
func bands(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	out := make([][2]int, 0, parts)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
