package pool

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// work is the loop of one worker goroutine.
func (p *Fixed) work(id int) {
	defer p.workersWG.Done()

	p.logger.Debug("worker started", zap.Int("worker", id))
	for {
		u, ok := p.next()
		if !ok {
			p.logger.Debug("worker exited", zap.Int("worker", id))
			return
		}
		p.run(u)
	}
}

// next parks until a unit is queued. It returns false once the pool is closed
// and the queue is empty.
func (p *Fixed) next() (*Unit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.Len() == 0 {
		if p.closed {
			return nil, false
		}
		p.cond.Wait()
	}
	u := p.queue.PopFront()
	p.queueDepth.Add(-1)
	return u, true
}

func (p *Fixed) run(u *Unit) {
	start := time.Now()
	if !u.execute(context.WithValue(u.ctx, workerKey{}, p)) {
		return
	}
	p.execTime.Record(time.Since(start).Seconds())
	p.executed.Add(1)
	if u.Status() == Faulted {
		p.faulted.Add(1)
	}
}
