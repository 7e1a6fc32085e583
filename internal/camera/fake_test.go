package camera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeReplaysInOrder(t *testing.T) {
	f := NewFake(0, []byte("a"), []byte("b"))
	dev, err := f.Open(context.Background(), Settings{})
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		fr, err := dev.NextFrame(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), fr.Seq)
		got = append(got, string(fr.Data))
	}
	assert.Equal(t, []string{"a", "b", "a"}, got)

	require.NoError(t, dev.Close())
	opens, closes := f.Counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)
}

func TestFakeHonorsCancel(t *testing.T) {
	f := NewFake(time.Hour, []byte("a"))
	dev, err := f.Open(context.Background(), Settings{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = dev.NextFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFakeOpenError(t *testing.T) {
	f := NewFake(0)
	f.OpenErr = errors.New("unplugged")
	_, err := f.Open(context.Background(), Settings{})
	assert.Error(t, err)
}
