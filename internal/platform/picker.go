package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ityeti/herald/internal/region"
)

// HelperPicker runs an external selection overlay. The helper prints one
// JSON object on stdout: {"region":[x1,y1,x2,y2]} or {"region":null} when
// the user cancelled.
type HelperPicker struct {
	command []string
	run     runner
}

// NewHelperPicker creates a picker for command and its arguments.
func NewHelperPicker(command []string) *HelperPicker {
	return &HelperPicker{command: command, run: run}
}

// Select runs the helper until it prints a result or ctx ends.
func (p *HelperPicker) Select(ctx context.Context) (region.Rect, bool, error) {
	if len(p.command) == 0 {
		return region.Rect{}, false, errors.New("no region picker helper configured")
	}

	out, err := p.run(ctx, nil, p.command[0], p.command[1:]...)
	if ctx.Err() != nil {
		return region.Rect{}, false, ctx.Err()
	}
	if len(bytes.TrimSpace(out)) == 0 && err != nil {
		return region.Rect{}, false, err
	}
	return parseSelection(out)
}

type selection struct {
	Region *[4]int `json:"region"`
}

func parseSelection(out []byte) (region.Rect, bool, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return region.Rect{}, false, nil
	}
	// Only the last line is the result; helpers may print diagnostics first.
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}

	var sel selection
	if err := json.Unmarshal(out, &sel); err != nil {
		return region.Rect{}, false, fmt.Errorf("unable to parse picker output: %w", err)
	}
	if sel.Region == nil {
		return region.Rect{}, false, nil
	}
	r := sel.Region
	return region.Rect{X1: r[0], Y1: r[1], X2: r[2], Y2: r[3]}, true, nil
}

var _ region.Picker = (*HelperPicker)(nil)
