// Package parallel contains the bounded fan-out primitives used by the layer kernels.
package parallel

import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}
	if limit == 1 {
		for i := 0; i < length; i++ {
			body(i)
		}
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// ForRange splits [0, length) into at most limit contiguous chunks and runs
// body once per chunk, at most limit chunks at a time.
func ForRange(length, limit int, body func(lo, hi int)) {
	if length <= 0 {
		return
	}
	if limit <= 1 || length == 1 {
		body(0, length)
		return
	}
	if limit > length {
		limit = length
	}
	chunk := (length + limit - 1) / limit
	ForEach(limit, limit, func(i int) {
		lo := i * chunk
		hi := lo + chunk
		if hi > length {
			hi = length
		}
		if lo < hi {
			body(lo, hi)
		}
	})
}
