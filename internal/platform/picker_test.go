package platform

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ityeti/herald/internal/region"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    region.Rect
		ok      bool
		wantErr bool
	}{
		{"region", `{"region": [10, 20, 300, 400]}`, region.Rect{X1: 10, Y1: 20, X2: 300, Y2: 400}, true, false},
		{"negative origin", `{"region":[-1920,-10,-100,500]}`, region.Rect{X1: -1920, Y1: -10, X2: -100, Y2: 500}, true, false},
		{"cancelled", `{"region": null}`, region.Rect{}, false, false},
		{"no output", "  \n", region.Rect{}, false, false},
		{"diagnostics first", "Tk 8.6 loaded\n{\"region\":[1,2,30,40]}\n", region.Rect{X1: 1, Y1: 2, X2: 30, Y2: 40}, true, false},
		{"garbage", "Traceback (most recent call last)", region.Rect{}, false, true},
		{"short array", `{"region":[1,2]}`, region.Rect{X1: 1, Y1: 2}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parseSelection([]byte(tt.out))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHelperPicker_Select(t *testing.T) {
	p := NewHelperPicker([]string{"python3", "selector.py"})
	var gotName string
	var gotArgs []string
	p.run = func(_ context.Context, _ io.Reader, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(`{"region":[0,0,50,50]}`), nil
	}

	r, ok, err := p.Select(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, region.Rect{X2: 50, Y2: 50}, r)
	assert.Equal(t, "python3", gotName)
	assert.Equal(t, []string{"selector.py"}, gotArgs)
}

func TestHelperPicker_Failures(t *testing.T) {
	_, _, err := NewHelperPicker(nil).Select(context.Background())
	assert.Error(t, err, "no helper configured")

	p := NewHelperPicker([]string{"selector"})
	p.run = func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	_, ok, err := p.Select(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.run = func(ctx context.Context, _ io.Reader, _ string, _ ...string) ([]byte, error) {
		return nil, ctx.Err()
	}
	_, ok, err = p.Select(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
