package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	var errs Errors
	require.NoError(t, errs.Aggregate())

	errs.Add(nil)
	require.NoError(t, errs.Aggregate())

	e1, e2 := errors.New("first"), errors.New("second")
	errs.Add(e1, nil, e2)
	err := errs.Aggregate()
	require.Error(t, err)
	require.Equal(t, []error{e1, e2}, err.(*Errors).Errors)
	require.Contains(t, err.Error(), "first")
	require.Contains(t, err.Error(), "second")
}

func TestRunnerWait(t *testing.T) {
	boom := errors.New("boom")
	err := NewRunner().Go(
		RunFunc(func(ctx context.Context) error { return nil }),
		RunFunc(func(ctx context.Context) error { return boom }),
	).Wait()
	require.Error(t, err)
	require.Equal(t, []error{boom}, err.(*Errors).Errors)
}

func TestRunnerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	time.AfterFunc(10*time.Millisecond, cancel)
	// context.Canceled is a clean stop, not an error
	require.NoError(t, runner.Wait())
}
