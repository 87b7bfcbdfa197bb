// Package poller периодически перезапрашивает открытую переписку.
// Одновременно у клиента активен только один цикл опроса.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/lostfound-backend/internal/goroutine"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
)

const DefaultInterval = 3 * time.Second

// FetchFunc загружает актуальное состояние открытого экрана.
type FetchFunc func(ctx context.Context) error

type Option func(*Coordinator)

// WithOnError задаёт обработчик ошибок fetch. Ошибка не останавливает опрос.
func WithOnError(fn func(view string, err error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

// Coordinator управляет единственным активным циклом опроса.
type Coordinator struct {
	interval time.Duration
	onError  func(view string, err error)

	mu     sync.Mutex
	active *loop
}

type loop struct {
	view   string
	cancel context.CancelFunc
}

func New(interval time.Duration, opts ...Option) *Coordinator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := &Coordinator{
		interval: interval,
		onError: func(view string, err error) {
			logger.Log.WithError(err).WithField("view", view).Warn("poller: не удалось обновить данные")
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open запускает опрос view: fetch вызывается сразу и затем каждые interval.
// Предыдущий цикл отменяется, его выполняющийся запрос доводится до конца.
// ctx ограничивает время жизни цикла и передаётся в fetch.
// Open и Close не ждут завершения fetch, поэтому их можно вызывать из самого fetch.
func (c *Coordinator) Open(ctx context.Context, view string, fetch FetchFunc) {
	loopCtx, cancel := context.WithCancel(ctx)
	l := &loop{view: view, cancel: cancel}

	c.mu.Lock()
	prev := c.active
	c.active = l
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	goroutine.DefaultRecoveryHandler.Go("poller "+view, func() {
		c.run(ctx, loopCtx, l.view, fetch)
	})
}

// Close останавливает текущий цикл. Запрос, который уже выполняется,
// доводится до конца, следующий тик не планируется.
func (c *Coordinator) Close() {
	c.mu.Lock()
	prev := c.active
	c.active = nil
	c.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
}

// Active возвращает view текущего цикла.
func (c *Coordinator) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return "", false
	}
	return c.active.view, true
}

// run выполняет fetch с родительским ctx: отмена цикла не прерывает запрос.
func (c *Coordinator) run(ctx, loopCtx context.Context, view string, fetch FetchFunc) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if loopCtx.Err() != nil {
			return
		}
		if err := fetch(ctx); err != nil {
			c.onError(view, err)
		}

		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
		}
	}
}
