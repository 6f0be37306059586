package cpu

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// groupTask computes workgroups [gs, ge) of one dispatch.
type groupTask struct {
	k      *kernel
	gs, ge int
	abort  *atomic.Bool
	done   chan error
}

// groupPool is a fixed set of worker goroutines, each owning scratch space
// that plays the role of workgroup shared memory.
type groupPool struct {
	size  int
	tasks chan groupTask
}

func newGroupPool(workers int, scratchElems int) *groupPool {
	size := max(workers, 1)
	p := &groupPool{
		size:  size,
		tasks: make(chan groupTask, size*2),
	}
	for range size {
		scratch := make([]float32, scratchElems)
		go func(scratch []float32) {
			for task := range p.tasks {
				task.done <- runGroups(task, scratch)
			}
		}(scratch)
	}
	return p
}

func runGroups(task groupTask, scratch []float32) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("cpu kernel panicked: %v", rec)
		}
	}()
	for g := task.gs; g < task.ge; g++ {
		if task.abort.Load() {
			return nil
		}
		task.k.group(g, scratch)
	}
	return nil
}

// dispatch runs every workgroup of k across the pool and waits for all of
// them to finish.
func (p *groupPool) dispatch(k *kernel, abort *atomic.Bool) error {
	total := k.groups()
	if total == 0 {
		return nil
	}
	workers := min(p.size, total)
	chunk := (total + workers - 1) / workers
	done := make(chan error, workers)

	sent := 0
	for w := range workers {
		gs := w * chunk
		ge := min(gs+chunk, total)
		if gs >= ge {
			break
		}
		p.tasks <- groupTask{k: k, gs: gs, ge: ge, abort: abort, done: done}
		sent++
	}

	var firstErr error
	for range sent {
		if err := <-done; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *groupPool) close() {
	close(p.tasks)
}

func defaultWorkers() int {
	return max(runtime.GOMAXPROCS(0), 1)
}
