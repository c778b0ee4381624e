// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workers provides a bounded worker pool for the long-blocking
// engine executions. Offloading the engine run keeps request handling
// goroutines free to accept other sessions while a job's control flow
// suspends until its task completes. The pool is sized from the
// application's thread_pool_size setting.
package workers

import "sync"

// Pool executes submitted tasks on a fixed number of worker goroutines.
// The submission queue is bounded; Submit blocks once every worker is busy
// and the queue is full.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts a pool with the given number of workers. A non-positive
// size falls back to a single worker.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task for execution, blocking when the pool is saturated.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
