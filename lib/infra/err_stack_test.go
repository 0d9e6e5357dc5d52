package infra

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFrameFormat_Unknown(t *testing.T) {
	testcases := []struct {
		format string
		want   string
	}{
		{"%s", "unknownFile"},
		{"%n", "unknownFunc"},
		{"%d", "0"},
		{"%v", "unknownFile:0"},
	}
	for _, tc := range testcases {
		require.Equal(t, tc.want, fmt.Sprintf(tc.format, Frame(0)))
	}

	text, err := Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))

	_bytes, err := json.Marshal(Frame(0))
	require.NoError(t, err)
	require.Equal(t, "{\"frame\":\"unknownFrame\"}", string(_bytes))
}

func TestErrorStack(t *testing.T) {
	err := NewErrorStack("broken link")
	require.Error(t, err)
	require.Equal(t, "broken link", err.Error())

	var es ErrorStack
	require.True(t, errors.As(err, &es))
	require.NotEmpty(t, es.Frames())
	require.True(t, strings.HasSuffix(fmt.Sprintf("%s", es.Frames()[0]), ".go"))
	require.Nil(t, es.Unwrap())
}

func TestWrapErrorStack(t *testing.T) {
	require.NoError(t, WrapErrorStack(nil))
	require.NoError(t, WrapErrorStackWithMessage(nil, "ignored"))

	cause := errors.New("cause")
	err := WrapErrorStack(cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "cause", err.Error())
	require.Same(t, err, WrapErrorStack(err))

	err = WrapErrorStackWithMessage(cause, "wrapped")
	require.ErrorIs(t, err, cause)
	require.Equal(t, "wrapped: cause", err.Error())
}

func TestErrorStack_MarshalLogObject(t *testing.T) {
	err := WrapErrorStackWithMessage(errors.New("cause"), "wrapped")
	var es ErrorStack
	require.True(t, errors.As(err, &es))

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "wrapped: cause", enc.Fields["error"])
	frames, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.Len(t, frames, len(es.Frames()))
}
