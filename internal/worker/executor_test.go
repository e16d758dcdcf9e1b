package worker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomvoet/imgconv/internal/codec"
	"github.com/tomvoet/imgconv/internal/protocol"
)

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

func TestExecuteSuccess(t *testing.T) {
	e := NewExecutor(&fakeCodec{}, WithLogger(quietLogger()))
	assert.Equal(t, Idle, e.State())

	envs := collect(e, request("j1", "abc"))
	require.NoError(t, checkSequence("j1", envs))
	require.Len(t, envs, 3)
	assert.Equal(t, protocol.MessageProgress, envs[0].Type)
	assert.Equal(t, protocol.MessageDone, envs[2].Type)
	assert.Equal(t, []byte("cba"), envs[2].Response.Data)
	assert.Equal(t, Succeeded, e.State())
}

func TestExecuteInitFailureIsRetried(t *testing.T) {
	fc := &fakeCodec{initErrs: []error{errors.New("module missing")}}
	e := NewExecutor(fc, WithLogger(quietLogger()))

	envs := collect(e, request("j1", "abc"))
	require.Len(t, envs, 1)
	err := envs[0].Err()
	require.NotNil(t, err)
	assert.Equal(t, protocol.KindInit, err.Kind)
	assert.Contains(t, err.Detail, "module missing")
	assert.True(t, err.Retryable())
	assert.Equal(t, Failed, e.State())
	assert.False(t, e.Initialized())

	envs = collect(e, request("j2", "abc"))
	require.NoError(t, checkSequence("j2", envs))
	assert.Equal(t, protocol.MessageDone, envs[len(envs)-1].Type)
	assert.Equal(t, 2, fc.InitCalls())

	collect(e, request("j3", "abc"))
	assert.Equal(t, 2, fc.InitCalls(), "successful init is memoized")
}

func TestExecuteConversionFailure(t *testing.T) {
	fc := &fakeCodec{}
	e := NewExecutor(fc, WithLogger(quietLogger()))
	envs := collect(e, request("j1", "fail"))
	require.NoError(t, checkSequence("j1", envs))

	last := envs[len(envs)-1]
	assert.Equal(t, protocol.MessageError, last.Type)
	assert.False(t, last.Response.Success)
	assert.Equal(t, "cannot convert", last.Response.Error)
	assert.Equal(t, Failed, e.State())

	// A failed conversion leaves the executor usable.
	envs = collect(e, request("j2", "abc"))
	require.NoError(t, checkSequence("j2", envs))
	last = envs[len(envs)-1]
	require.Equal(t, protocol.MessageDone, last.Type)
	assert.Equal(t, []byte("cba"), last.Response.Data)
	assert.Equal(t, Succeeded, e.State())
	assert.Equal(t, 1, fc.InitCalls())
}

func TestExecuteRecoversPanic(t *testing.T) {
	fc := &fakeCodec{}
	fc.convert = func(input []byte, progress codec.ProgressFunc) ([]byte, error) {
		if string(input) == "boom" {
			progress(10, "Starting conversion")
			panic("index out of range")
		}
		return input, nil
	}
	e := NewExecutor(fc, WithLogger(quietLogger()))

	envs := collect(e, request("j1", "boom"))
	require.NoError(t, checkSequence("j1", envs))
	last := envs[len(envs)-1]
	require.NotNil(t, last.Err())
	assert.Equal(t, protocol.KindInternal, last.Err().Kind)
	assert.Contains(t, last.Err().Detail, "index out of range")

	envs = collect(e, request("j2", "ok"))
	require.NoError(t, checkSequence("j2", envs))
	assert.Equal(t, protocol.MessageDone, envs[len(envs)-1].Type)
	assert.Equal(t, 1, fc.InitCalls())
}

func TestExecuteInvalidRequest(t *testing.T) {
	fc := &fakeCodec{}
	e := NewExecutor(fc, WithLogger(quietLogger()))

	req := request("j1", "")
	envs := collect(e, req)
	require.Len(t, envs, 1)
	assert.Equal(t, protocol.KindInvalidRequest, envs[0].Err().Kind)
	assert.Equal(t, 0, fc.InitCalls())
}

func TestExecuteDropsLateProgress(t *testing.T) {
	var stash codec.ProgressFunc
	fc := &fakeCodec{}
	fc.convert = func(input []byte, progress codec.ProgressFunc) ([]byte, error) {
		stash = progress
		return input, nil
	}
	e := NewExecutor(fc, WithLogger(quietLogger()))

	var envs []protocol.Envelope
	e.Execute(request("j1", "x"), func(env protocol.Envelope) { envs = append(envs, env) })
	require.Len(t, envs, 1)

	stash(90, "too late")
	assert.Len(t, envs, 1)
}

func TestExecuteClassifiesCodecErrors(t *testing.T) {
	tests := []struct {
		err  error
		want protocol.Kind
	}{
		{fmt.Errorf("%w: output type %q", codec.ErrUnsupported, "image/x-foo"), protocol.KindUnsupported},
		{fmt.Errorf("%w: truncated", codec.ErrDecode), protocol.KindDecode},
		{codec.ErrUnknownFileType, protocol.KindDecode},
		{fmt.Errorf("%w: too large", codec.ErrEncode), protocol.KindEncode},
		{errors.New("something else"), protocol.KindInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			fc := &fakeCodec{}
			fc.convert = func([]byte, codec.ProgressFunc) ([]byte, error) { return nil, tt.err }
			e := NewExecutor(fc, WithLogger(quietLogger()), WithClassifiers(codec.Classify))

			envs := collect(e, request("j", "x"))
			require.Len(t, envs, 1)
			assert.Equal(t, tt.want, envs[0].Err().Kind)
		})
	}
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExecuteRealCodec(t *testing.T) {
	e := NewExecutor(codec.New(codec.Options{Logger: quietLogger()}),
		WithLogger(quietLogger()), WithClassifiers(codec.Classify))

	t.Run("png to jpeg", func(t *testing.T) {
		req := protocol.NewRequest(pngFixture(t), "image/png", "image/jpeg", nil)
		envs := collect(e, req)
		require.NoError(t, checkSequence(req.JobID, envs))

		var done int
		for _, env := range envs {
			if env.Type == protocol.MessageDone {
				done++
				assert.NotEmpty(t, env.Response.Data)
			}
			assert.NotEqual(t, protocol.MessageError, env.Type)
		}
		assert.Equal(t, 1, done)
	})

	t.Run("unsupported output", func(t *testing.T) {
		req := protocol.NewRequest(pngFixture(t), "image/png", "image/x-nope", nil)
		envs := collect(e, req)
		require.NoError(t, checkSequence(req.JobID, envs))

		var errs int
		for _, env := range envs {
			assert.NotEqual(t, protocol.MessageDone, env.Type)
			if env.Type == protocol.MessageError {
				errs++
				assert.NotEmpty(t, env.Response.Error)
				assert.Equal(t, protocol.KindUnsupported, env.Response.Kind)
			}
		}
		assert.Equal(t, 1, errs)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "initializing", Initializing.String())
	assert.Equal(t, "State(9)", State(9).String())
}
