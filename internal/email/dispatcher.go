package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

var ErrQueueFull = errors.New("email queue full")

type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Dispatcher queues outbound email and delivers it from a fixed pool of workers.
// Enqueueing never blocks the caller; delivery failures are logged and retried,
// never reported back.
type Dispatcher struct {
	cfg    DispatcherConfig
	sender Sender
	ids    *utilities.IDSource
	logger *zap.SugaredLogger

	queue chan Message

	mu      sync.RWMutex
	closed  bool
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(cfg DispatcherConfig, sender Sender, ids *utilities.IDSource, logger *zap.SugaredLogger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Dispatcher{
		cfg:    cfg,
		sender: sender,
		ids:    ids,
		logger: logger,
		queue:  make(chan Message, cfg.QueueSize),
	}
}

// SendVerification queues a verification email for to.
func (d *Dispatcher) SendVerification(to, token string) {
	m := Message{ID: d.ids.Next(), Kind: KindVerification, To: to, Token: token}
	if err := d.enqueue(m); err != nil {
		d.logger.Warnw("verification email dropped", "id", m.ID, "to", to, "err", err)
	}
}

func (d *Dispatcher) enqueue(m Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errors.New("email dispatcher stopped")
	}
	select {
	case d.queue <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
	d.logger.Debugw("email dispatcher started", "workers", d.cfg.Workers, "queue", d.cfg.QueueSize)
}

// Stop closes the queue and waits for the workers to deliver what is already queued.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
		d.cancel()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for m := range d.queue {
		d.deliver(ctx, m)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, m Message) {
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		m.Attempt = attempt
		err := d.sender.Send(ctx, m)
		if err == nil {
			return
		}
		d.logger.Warnw("email delivery failed", "id", m.ID, "kind", m.Kind, "attempt", attempt, "err", err)
		if attempt == d.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			d.logger.Warnw("email delivery abandoned", "id", m.ID, "err", ctx.Err())
			return
		case <-time.After(d.cfg.RetryDelay * time.Duration(attempt)):
		}
	}
	d.logger.Errorw("email dropped after retries", "id", m.ID, "kind", m.Kind, "to", m.To)
}
