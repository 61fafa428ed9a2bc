package util

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("junction 9")
	err := WrapErrorf(orig, ErrNotFound, "route %d -> %d", 1, 9)

	assert.Equal(t, "route 1 -> 9: junction 9", err.Error())
	assert.ErrorIs(t, err, orig)

	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, ErrNotFound, uerr.Code())
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("a b\r\nc\nlast"))
	for _, want := range []string{"a b", "c", "last"} {
		line, err := ReadLine(br)
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := ReadLine(br)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReverseG(t *testing.T) {
	in := []int{1, 2, 3}
	assert.Equal(t, []int{3, 2, 1}, ReverseG(in))
	assert.Equal(t, []int{1, 2, 3}, in)
	assert.Empty(t, ReverseG([]int{}))
}

func TestStopConcurrentOperation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, StopConcurrentOperation(ctx))
	cancel()
	assert.True(t, StopConcurrentOperation(ctx))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 2.667, RoundFloat(8.0/3.0, 3))
	assert.Equal(t, 2.0, RoundFloat(2.0, 3))
}
