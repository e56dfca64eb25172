package worker

// Worker returns the i-th worker of the pool.
func (p *Pool) Worker(i int) *InMemoryWorker { return p.workers[i] }
