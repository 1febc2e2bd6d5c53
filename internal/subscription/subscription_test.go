package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription(t *testing.T) {
	t.Run("close_delivers_pending_values", func(t *testing.T) {
		ctx := context.Background()
		ch := make(chan int)
		sub := NewSubscription(ch)
		client := sub.Client()

		for i := 0; i < 3; i++ {
			require.NoError(t, sub.Send(ctx, i))
		}
		sub.Close()

		var got []int
		for {
			select {
			case v := <-ch:
				got = append(got, v)
				continue
			case <-client.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("timeout")
			}
			break
		}
		assert.Equal(t, []int{0, 1, 2}, got)
		assert.True(t, client.IsClosed())
	})
	t.Run("send_after_unsubscribe", func(t *testing.T) {
		ch := make(chan int)
		sub := NewSubscription(ch)
		sub.Client().Unsubscribe()

		// the buffer may still accept values, so fill it first
		var err error
		for i := 0; i <= SubscriptionBufferSize && err == nil; i++ {
			err = sub.Send(context.Background(), i)
		}
		assert.ErrorIs(t, err, errs.Closed)
	})
	t.Run("unsubscribe_after_close", func(t *testing.T) {
		sub := NewSubscription(make(chan int))
		sub.Close()
		<-sub.Done()

		done := make(chan struct{})
		go func() {
			sub.Unsubscribe()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("unsubscribe blocked after close")
		}
	})
}
