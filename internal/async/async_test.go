package async

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccess(t *testing.T) {
	var got []int
	finally := false
	results := Run(context.Background(), func(context.Context) ([]int, error) {
		return []int{1, 2}, nil
	}, Callbacks[[]int]{
		OnSuccess: func(v []int) { got = v },
		OnError:   func(error) { t.Errorf("unexpected error callback") },
		OnFinally: func() { finally = true },
	})

	data, err := Wait(results)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, data)

	// the channel closes only after every callback has run
	_, open := <-results
	assert.False(t, open)
	assert.Equal(t, []int{1, 2}, got)
	assert.True(t, finally)
}

func TestRunError(t *testing.T) {
	boom := errors.New("boom")
	var gotErr error
	results := Run(context.Background(), func(context.Context) (string, error) {
		return "", boom
	}, Callbacks[string]{
		OnSuccess: func(string) { t.Errorf("unexpected success callback") },
		OnError:   func(err error) { gotErr = err },
	})

	_, err := Wait(results)
	assert.ErrorIs(t, err, boom)
	<-results
	assert.ErrorIs(t, gotErr, boom)
}

func TestRunSkipsCallbacksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	finally := false
	results := Run(ctx, func(ctx context.Context) (int, error) {
		cancel()
		return 7, nil
	}, Callbacks[int]{
		OnSuccess: func(int) { t.Errorf("success after cancel") },
		OnFinally: func() { finally = true },
	})

	data, err := Wait(results)
	require.NoError(t, err)
	assert.Equal(t, 7, data)
	<-results
	assert.True(t, finally)
}
