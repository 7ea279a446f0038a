package fluid

import (
	"runtime"
	"sync"
)

// DefaultParallelThreshold is the minimum particle count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	candidates   []int
	degenerate   int // densities below Params.MinDensity seen by this worker
	boundaryHits int // axis clamps applied by this worker
}

// passFunc processes particles [i0, i1) of one pass.
type passFunc func(i0, i1 int, scratch *workerScratch)

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	start, end int
	pass       passFunc
}

// workerPool runs data-parallel passes as fork-join over contiguous chunks.
type workerPool struct {
	scratches  []workerScratch // one per worker, plus one for the caller
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers, threshold int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	scratches := make([]workerScratch, numWorkers+1)
	for i := range scratches {
		scratches[i].candidates = make([]int, 0, 64)
	}
	return &workerPool{
		numWorkers: numWorkers,
		threshold:  threshold,
		scratches:  scratches,
	}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
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
func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.pass(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// collect sums and resets the per-worker counters.
func (p *workerPool) collect() (degenerate, boundaryHits int) {
	for i := range p.scratches {
		degenerate += p.scratches[i].degenerate
		boundaryHits += p.scratches[i].boundaryHits
		p.scratches[i].degenerate = 0
		p.scratches[i].boundaryHits = 0
	}
	return degenerate, boundaryHits
}

// run applies pass to particles [0, n) and returns once every chunk is done.
func (p *workerPool) run(n int, pass passFunc) {
	if n == 0 {
		return
	}

	if n < p.threshold || p.numWorkers == 1 {
		pass(0, n, &p.scratches[p.numWorkers])
		return
	}

	// Ensure workers are running
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, pass: pass}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
