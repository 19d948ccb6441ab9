package systems

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/twintank/components"
)

// parallelThreshold is the minimum particle count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 256

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
}

// ParallelSearch shards neighbor list construction by particle index range
// across a pool of persistent workers. Grid and homes are only read during a
// build and every list is written by one worker, so the result matches
// NeighborSearch.Build exactly.
type ParallelSearch struct {
	search     *NeighborSearch
	numWorkers int

	// Current job, set before chunks are dispatched
	lists *NeighborLists
	grid  *DualGrid
	homes []components.Home

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewParallelSearch wraps search with a worker pool. workers <= 0 uses GOMAXPROCS.
func NewParallelSearch(search *NeighborSearch, workers int) *ParallelSearch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelSearch{search: search, numWorkers: workers}
}

// Workers returns the pool size.
func (p *ParallelSearch) Workers() int {
	return p.numWorkers
}

// startWorkers launches persistent worker goroutines.
func (p *ParallelSearch) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them.
func (p *ParallelSearch) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *ParallelSearch) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.search.buildRange(p.lists, p.grid, p.homes, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// Build fills lists for every particle, in parallel when the population is
// large enough.
func (p *ParallelSearch) Build(lists *NeighborLists, grid *DualGrid, homes []components.Home) {
	n := len(homes)
	lists.resize(n)

	if n < parallelThreshold || p.numWorkers < 2 {
		p.search.buildRange(lists, grid, homes, 0, n)
		return
	}

	// Ensure workers are running
	if !p.running {
		p.startWorkers()
	}

	p.lists, p.grid, p.homes = lists, grid, homes

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}

	p.lists, p.grid, p.homes = nil, nil, nil
}
