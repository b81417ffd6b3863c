package frame

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/xlator"
	"github.com/volgraph/volgraph/internal/xlatorerr"
)

type fakeXlator struct {
	xlator.Base
}

func newFake(name string) *fakeXlator {
	x := &fakeXlator{Base: xlator.NewBase(name, "fake", logrus.New())}
	return x
}

func (f *fakeXlator) FOps() *xlator.FileOps           { return &xlator.FileOps{} }
func (f *fakeXlator) MOps() *xlator.ManagementOps      { return &xlator.ManagementOps{} }
func (f *fakeXlator) Init() error                      { return nil }
func (f *fakeXlator) Notify(xlator.Event, any) error   { return nil }
func (f *fakeXlator) Fini() error                      { return nil }

func TestWindUnwindRoundTrip(t *testing.T) {
	// For any wind/unwind sequence S, the multiset of live frames returns
	// to its pre-operation state after S completes.
	logger := logrus.New()
	ctx := NewContext(logger)
	top := newFake("top")
	leaf := newFake("leaf")

	root := NewRoot(0, 0, 1)
	rootFrame := NewCallFrame(ctx, root, top)
	before := ctx.Pool().Live()

	var wg sync.WaitGroup
	wg.Add(1)
	var gotResult xlator.Result
	Wind(ctx, rootFrame, func(parent *Frame, cookie any, child xlator.Translator, result xlator.Result) {
		gotResult = result
		wg.Done()
	}, leaf, xlator.OpStat, "cookie-1", func() xlator.Result {
		return xlator.Result{Stat: &xlator.Stat{Ino: 42}}
	})
	wg.Wait()

	assert.True(t, gotResult.OK())
	assert.EqualValues(t, 42, gotResult.Stat.Ino)

	Release(ctx, rootFrame)
	assert.Equal(t, before-1, ctx.Pool().Live())
}

func TestDoubleUnwindPanics(t *testing.T) {
	logger := logrus.New()
	ctx := NewContext(logger)
	top := newFake("top")
	root := NewRoot(0, 0, 1)
	rootFrame := NewCallFrame(ctx, root, top)
	child := ctx.Pool().Get()
	child.Parent = rootFrame
	child.Root = root
	child.This = top

	Unwind(ctx, child, xlator.Result{})
	assert.Panics(t, func() {
		Unwind(ctx, child, xlator.Result{})
	})
}

func TestErrorResultCarriesErrno(t *testing.T) {
	logger := logrus.New()
	ctx := NewContext(logger)
	top := newFake("top")
	leaf := newFake("leaf")
	root := NewRoot(0, 0, 1)
	rootFrame := NewCallFrame(ctx, root, top)

	done := make(chan xlator.Result, 1)
	Wind(ctx, rootFrame, func(parent *Frame, cookie any, child xlator.Translator, result xlator.Result) {
		done <- result
	}, leaf, xlator.OpUnlink, nil, func() xlator.Result {
		return xlator.ErrResult(xlatorerr.ENOENT)
	})
	result := <-done
	require.False(t, result.OK())
	assert.Equal(t, xlatorerr.ENOENT, result.Err)
}
