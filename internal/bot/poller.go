package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudsupply/storebot/internal/telegram"
)

// Run long-polls for updates until ctx is canceled. Updates for one
// conversation are handled in arrival order; conversations proceed
// independently so one slow chat never stalls the rest.
func (b *Bot) Run(ctx context.Context, pollTimeout time.Duration) {
	d := newDispatcher(b.HandleUpdate)
	var offset int64
	for {
		updates, err := b.tg.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.log.Error("get updates", "error", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			d.enqueue(ctx, update)
		}
	}
}

// dispatcher serializes update handling per conversation. Each chat gets
// at most one worker goroutine, started lazily and exiting once the
// chat's queue drains.
type dispatcher struct {
	handle func(context.Context, telegram.Update)

	mu      sync.Mutex
	pending map[int64][]telegram.Update
	active  map[int64]bool
	wg      sync.WaitGroup
}

func newDispatcher(handle func(context.Context, telegram.Update)) *dispatcher {
	return &dispatcher{
		handle:  handle,
		pending: make(map[int64][]telegram.Update),
		active:  make(map[int64]bool),
	}
}

func (d *dispatcher) enqueue(ctx context.Context, update telegram.Update) {
	key := conversationKey(update)

	d.mu.Lock()
	d.pending[key] = append(d.pending[key], update)
	if d.active[key] {
		d.mu.Unlock()
		return
	}
	d.active[key] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.drain(ctx, key)
}

func (d *dispatcher) drain(ctx context.Context, key int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.pending[key]
		if len(queue) == 0 {
			delete(d.pending, key)
			delete(d.active, key)
			d.mu.Unlock()
			return
		}
		update := queue[0]
		d.pending[key] = queue[1:]
		d.mu.Unlock()

		d.handle(ctx, update)
	}
}

func conversationKey(update telegram.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil {
			return update.CallbackQuery.Message.Chat.ID
		}
		return update.CallbackQuery.From.ID
	}
	return 0
}
