package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Command Queue
// ============================================================

var ErrClosed = errors.New("editor is closed")

// resultFunc получает итог каждой команды; idle=true, если очередь после нее пуста.
type resultFunc func(ctx context.Context, cmd Command, err error, idle bool)

// queue выполняет команды строго по очереди в одной горутине.
type queue struct {
	mu      sync.Mutex
	pending []Command
	busy    bool
	idle    chan struct{}
	closed  bool

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	persister Persister
	onResult  resultFunc
}

func newQueue(p Persister, onResult resultFunc) *queue {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	q := &queue{
		idle:      idle,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		persister: p,
		onResult:  onResult,
	}
	go q.run()
	return q
}

func (q *queue) enqueue(cmds ...Command) error {
	if len(cmds) == 0 {
		return nil
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, cmds...)
	if !q.busy {
		q.busy = true
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// len число команд, еще не взятых в работу.
func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// flush ждет, пока очередь не опустеет и последняя команда не будет обработана.
func (q *queue) flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close дожидается выполнения оставшихся команд; по истечении ctx
// отменяет текущий запрос и отбрасывает остаток.
func (q *queue) close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *queue) run() {
	defer close(q.done)

	for {
		cmd, ok := q.next()
		if !ok {
			return
		}

		err := execute(q.ctx, q.persister, cmd)
		if err != nil {
			log.Warnf("[QUEUE] %s failed: %v", cmd, err)
		}

		q.mu.Lock()
		idle := len(q.pending) == 0
		q.mu.Unlock()

		q.onResult(q.ctx, cmd, err, idle)

		q.mu.Lock()
		if len(q.pending) == 0 && q.busy {
			q.busy = false
			close(q.idle)
		}
		q.mu.Unlock()
	}
}

// next блокируется до появления команды; ok=false после закрытия пустой очереди или отмены.
func (q *queue) next() (Command, bool) {
	for {
		q.mu.Lock()
		if q.ctx.Err() != nil {
			dropped := len(q.pending)
			q.pending = nil
			q.markIdle()
			q.mu.Unlock()
			if dropped > 0 {
				log.Warnf("[QUEUE] dropped %d pending commands", dropped)
			}
			return Command{}, false
		}
		if len(q.pending) > 0 {
			cmd := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return cmd, true
		}
		if q.closed {
			q.markIdle()
			q.mu.Unlock()
			return Command{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.ctx.Done():
		}
	}
}

// markIdle вызывается под q.mu.
func (q *queue) markIdle() {
	if q.busy {
		q.busy = false
		close(q.idle)
	}
}
