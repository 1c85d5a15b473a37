package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/solace/internal/concurrency"

	"github.com/robfig/cron/v3"
)

// PingFunc is one liveness call.
type PingFunc func(ctx context.Context) error

// Pinger tells the backend the employee is still in the chat. Start pings at
// once and then every interval; Stop cancels any in-flight ping and returns
// only once no ping is running.
type Pinger struct {
	ping     PingFunc
	interval time.Duration

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewPinger(ping PingFunc, interval time.Duration) (*Pinger, error) {
	if ping == nil {
		return nil, fmt.Errorf("ping func is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("ping interval must be positive, got %s", interval)
	}
	return &Pinger{ping: ping, interval: interval}, nil
}

func (p *Pinger) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	// The first ping and the scheduled ones share one wrapped job, so a slow
	// ping is never overlapped by the next.
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(func() { p.run(runCtx) }))
	c := cron.New()
	c.Schedule(cron.Every(p.interval), job)

	p.cron = c
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	concurrency.SafeGo("pinger", func() {
		defer p.wg.Done()
		job.Run()
	}, nil)
	c.Start()

	slog.Debug("Pinger started", "interval", p.interval)
}

// Stop is safe to call repeatedly.
func (p *Pinger) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	p.wg.Wait()

	slog.Debug("Pinger stopped")
}

func (p *Pinger) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pinger) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.ping(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("Liveness ping failed", "error", err)
	}
}
