package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudsupply/storebot/internal/telegram"
)

func messageUpdate(id, chatID int64) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message:  &telegram.Message{Chat: telegram.Chat{ID: chatID}},
	}
}

func TestDispatcher_SerializesPerConversation(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64][]int64)

	d := newDispatcher(func(_ context.Context, u telegram.Update) {
		// Make reordering observable if a chat ever gets two workers.
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		chatID := u.Message.Chat.ID
		seen[chatID] = append(seen[chatID], u.UpdateID)
		mu.Unlock()
	})

	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		d.enqueue(ctx, messageUpdate(i, 100))
		d.enqueue(ctx, messageUpdate(i+10, 200))
	}
	d.wg.Wait()

	require.Len(t, seen[100], 5)
	require.Len(t, seen[200], 5)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seen[100])
	assert.Equal(t, []int64{11, 12, 13, 14, 15}, seen[200])
}

func TestDispatcher_NewWorkerAfterDrain(t *testing.T) {
	var mu sync.Mutex
	var order []int64

	d := newDispatcher(func(_ context.Context, u telegram.Update) {
		mu.Lock()
		order = append(order, u.UpdateID)
		mu.Unlock()
	})

	ctx := context.Background()
	d.enqueue(ctx, messageUpdate(1, 100))
	d.wg.Wait()
	d.enqueue(ctx, messageUpdate(2, 100))
	d.wg.Wait()

	assert.Equal(t, []int64{1, 2}, order)
}

func TestConversationKey(t *testing.T) {
	msg := messageUpdate(1, 42)
	assert.Equal(t, int64(42), conversationKey(msg))

	withMessage := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		From:    telegram.User{ID: 7},
		Message: &telegram.Message{Chat: telegram.Chat{ID: 42}},
	}}
	assert.Equal(t, int64(42), conversationKey(withMessage))

	inline := telegram.Update{CallbackQuery: &telegram.CallbackQuery{From: telegram.User{ID: 7}}}
	assert.Equal(t, int64(7), conversationKey(inline))
}
