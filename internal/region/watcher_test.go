package region

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakePicker struct {
	rect  Rect
	ok    bool
	err   error
	block bool
}

func (p *fakePicker) Select(ctx context.Context) (Rect, bool, error) {
	if p.block {
		<-ctx.Done()
		return Rect{}, false, ctx.Err()
	}
	return p.rect, p.ok, p.err
}

type fakeCapturer struct{}

func (fakeCapturer) Grab(_ context.Context, r Rect) (image.Image, error) {
	return image.NewGray(r.Image()), nil
}

// scriptedOCR returns texts in order and then repeats the last one.
type scriptedOCR struct {
	mu    sync.Mutex
	texts []string
	errs  map[int]error
	calls int
	panic int
}

func (o *scriptedOCR) Recognize(context.Context, image.Image) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.calls
	o.calls++
	if o.panic > 0 && i == o.panic {
		panic("ocr crashed")
	}
	if err := o.errs[i]; err != nil {
		return "", err
	}
	if i >= len(o.texts) {
		i = len(o.texts) - 1
	}
	return o.texts[i], nil
}

func (o *scriptedOCR) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type fakeBorder struct {
	mu      sync.Mutex
	started []Rect
	stops   int
}

func (b *fakeBorder) Start(r Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = append(b.started, r)
	return nil
}

func (b *fakeBorder) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
	return nil
}

// recorder collects OnChange calls.
type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) add(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, text)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

var testRect = Rect{X1: 10, Y1: 10, X2: 210, Y2: 110}

func newTestWatcher(t *testing.T, ocr *scriptedOCR) (*Watcher, *fakeBorder, *recorder) {
	t.Helper()
	border := &fakeBorder{}
	rec := &recorder{}
	w, err := NewWatcher(Config{
		Picker:       &fakePicker{rect: testRect, ok: true},
		Capturer:     fakeCapturer{},
		Recognizer:   ocr,
		Border:       border,
		PollInterval: 10 * time.Millisecond,
		OnChange:     rec.add,
	})
	require.NoError(t, err)
	t.Cleanup(w.Deactivate)
	return w, border, rec
}

func TestNewWatcher_Defaults(t *testing.T) {
	_, err := NewWatcher(Config{})
	assert.ErrorIs(t, err, ErrNoCapturer)

	w, err := NewWatcher(Config{Capturer: fakeCapturer{}, Recognizer: &scriptedOCR{}, ChangeThreshold: 3})
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, w.cfg.PollInterval)
	assert.Equal(t, DefaultChangeThreshold, w.cfg.ChangeThreshold)
	assert.Equal(t, DefaultMinTextLength, w.cfg.MinTextLength)
	assert.Equal(t, DefaultSelectTimeout, w.cfg.SelectTimeout)
}

func TestActivate(t *testing.T) {
	w, border, _ := newTestWatcher(t, &scriptedOCR{texts: []string{"x"}})

	require.True(t, w.Activate(context.Background()))
	r, ok := w.Region()
	assert.True(t, ok)
	assert.Equal(t, testRect, r)
	assert.Equal(t, []Rect{testRect}, border.started)

	w.Deactivate()
	assert.False(t, w.Active())
	assert.Equal(t, 1, border.stops)

	w.Deactivate()
	assert.Equal(t, 1, border.stops, "second deactivate is a no-op")
}

func TestActivate_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		picker *fakePicker
	}{
		{"cancelled", &fakePicker{ok: false}},
		{"error", &fakePicker{err: errors.New("no display")}},
		{"too small", &fakePicker{rect: Rect{0, 0, 5, 5}, ok: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			border := &fakeBorder{}
			w, err := NewWatcher(Config{
				Picker: tt.picker, Capturer: fakeCapturer{}, Recognizer: &scriptedOCR{}, Border: border,
			})
			require.NoError(t, err)

			assert.False(t, w.Activate(context.Background()))
			assert.False(t, w.Active())
			assert.Empty(t, border.started)
		})
	}
}

func TestActivate_Timeout(t *testing.T) {
	w, err := NewWatcher(Config{
		Picker:        &fakePicker{block: true},
		Capturer:      fakeCapturer{},
		Recognizer:    &scriptedOCR{},
		SelectTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	assert.False(t, w.Activate(context.Background()))
	assert.Less(t, time.Since(start), waitFor)
	assert.False(t, w.Active())
}

func TestToggle(t *testing.T) {
	w, _, _ := newTestWatcher(t, &scriptedOCR{texts: []string{"x"}})

	assert.True(t, w.Toggle(context.Background()))
	assert.False(t, w.Toggle(context.Background()))
	assert.False(t, w.Active())
}

func TestReadNow(t *testing.T) {
	w, _, _ := newTestWatcher(t, &scriptedOCR{texts: []string{"  Some text  "}})

	_, ok := w.ReadNow(context.Background())
	assert.False(t, ok, "no region yet")

	require.True(t, w.Activate(context.Background()))
	text, ok := w.ReadNow(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Some text", text)
	assert.Equal(t, "Some text", w.Snapshot())
}

func TestSetAutoRead_NeedsRegion(t *testing.T) {
	w, _, _ := newTestWatcher(t, &scriptedOCR{texts: []string{"x"}})
	assert.False(t, w.SetAutoRead(true))
	assert.False(t, w.AutoRead())
}

func TestAutoRead_ChangeDetection(t *testing.T) {
	first := "The quick brown fox jumps over the lazy dog"
	other := "ZZZZZZZZZZ QQQQQQQQQQ 0000000000"
	ocr := &scriptedOCR{texts: []string{first, first, first, other}}
	w, _, rec := newTestWatcher(t, ocr)

	require.True(t, w.Activate(context.Background()))
	require.True(t, w.SetAutoRead(true))

	require.Eventually(t, func() bool { return ocr.count() >= 8 }, waitFor, tick)
	assert.Equal(t, []string{first, other}, rec.got(),
		"identical text never fires, a large change fires once")
}

func TestAutoRead_FirstPollAlwaysFires(t *testing.T) {
	text := "Unchanged caption text"
	ocr := &scriptedOCR{texts: []string{text}}
	w, _, rec := newTestWatcher(t, ocr)

	require.True(t, w.Activate(context.Background()))
	_, ok := w.ReadNow(context.Background())
	require.True(t, ok)

	require.True(t, w.SetAutoRead(true))
	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, waitFor, tick)

	w.SetAutoRead(false)
	require.True(t, w.SetAutoRead(true))
	require.Eventually(t, func() bool { return len(rec.got()) == 2 }, waitFor, tick,
		"restart resets the snapshot")
}

func TestAutoRead_SmallChangeIgnored(t *testing.T) {
	ocr := &scriptedOCR{texts: []string{"Chapter one of the story", "Chapter one of the story."}}
	w, _, rec := newTestWatcher(t, ocr)

	require.True(t, w.Activate(context.Background()))
	require.True(t, w.SetAutoRead(true))

	require.Eventually(t, func() bool { return ocr.count() >= 4 }, waitFor, tick)
	assert.Equal(t, []string{"Chapter one of the story"}, rec.got())
}

func TestAutoRead_SurvivesErrors(t *testing.T) {
	ocr := &scriptedOCR{
		texts: []string{"", "ab", "", "Real words at last"},
		errs:  map[int]error{0: errors.New("tesseract crashed")},
		panic: 2,
	}
	w, _, rec := newTestWatcher(t, ocr)

	require.True(t, w.Activate(context.Background()))
	require.True(t, w.SetAutoRead(true))

	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, waitFor, tick)
	assert.Equal(t, "Real words at last", rec.got()[0], "short results are noise")
	assert.True(t, w.AutoRead())
}

func TestDeactivate_StopsLoop(t *testing.T) {
	ocr := &scriptedOCR{texts: []string{"Some stable text"}}
	w, _, _ := newTestWatcher(t, ocr)

	require.True(t, w.Activate(context.Background()))
	require.True(t, w.SetAutoRead(true))
	require.Eventually(t, func() bool { return ocr.count() >= 1 }, waitFor, tick)

	start := time.Now()
	w.Deactivate()
	assert.Less(t, time.Since(start), stopWait)
	assert.False(t, w.AutoRead())

	n := ocr.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, ocr.count(), "no polls after deactivate")
}
