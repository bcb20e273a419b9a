package platform

import (
	"context"
	"image"
	"io"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ityeti/herald/internal/region"
)

func TestCopyCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		ok   bool
	}{
		{"windows", "powershell", true},
		{"darwin", "osascript", true},
		{"linux", "xdotool", true},
		{"plan9", "", false},
	}
	for _, tt := range tests {
		name, args, ok := copyCommand(tt.goos)
		assert.Equal(t, tt.ok, ok, tt.goos)
		assert.Equal(t, tt.name, name, tt.goos)
		if ok {
			assert.NotEmpty(t, args, tt.goos)
		}
	}
}

func TestCopyTrigger_UnknownOS(t *testing.T) {
	c := &CopyTrigger{goos: "plan9", timeout: time.Second, run: run}
	assert.Error(t, c.Copy(context.Background()))
}

func TestTesseract(t *testing.T) {
	ocr := NewTesseract("", "eng")
	var imgPath string
	ocr.run = func(_ context.Context, _ io.Reader, name string, args ...string) ([]byte, error) {
		assert.Equal(t, DefaultTesseractBinary, name)
		require.Len(t, args, 4)
		assert.Equal(t, []string{"stdout", "-l", "eng"}, args[1:])
		imgPath = args[0]
		_, err := os.Stat(imgPath)
		assert.NoError(t, err, "image exists while tesseract runs")
		return []byte("  Hello from the screen\n\n"), nil
	}

	text, err := ocr.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 20, 20)))
	require.NoError(t, err)
	assert.Equal(t, "Hello from the screen", text)

	_, err = os.Stat(imgPath)
	assert.True(t, os.IsNotExist(err), "temporary image is removed")
}

func TestTesseract_EmptyImage(t *testing.T) {
	ocr := NewTesseract("tess", "")
	ocr.run = func(context.Context, io.Reader, string, ...string) ([]byte, error) {
		t.Fatal("tesseract must not run for an empty image")
		return nil, nil
	}
	text, err := ocr.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.NoError(t, err)
	assert.Empty(t, text)
	assert.Equal(t, []string{"x.png", "stdout"}, ocr.args("x.png"))
}

func TestIsCI(t *testing.T) {
	for _, v := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI",
		"JENKINS_URL", "TRAVIS", "CIRCLECI", "BUILDKITE", "DRONE"} {
		t.Setenv(v, "")
	}
	assert.False(t, IsCI())

	t.Setenv("CI", "false")
	assert.False(t, IsCI())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.True(t, IsCI())
	assert.True(t, Audio{IsCI: true, HasDevice: true, Subsystem: "alsa"}.Silent())
}

func TestAudioSilent(t *testing.T) {
	assert.False(t, Audio{Subsystem: "pulseaudio", HasDevice: true}.Silent())
	assert.True(t, Audio{Subsystem: "none", HasDevice: true}.Silent())
	assert.True(t, Audio{Subsystem: "alsa"}.Silent())
}

func TestHelperBorder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	// The helper waits for a line or EOF on stdin, like the real overlay.
	b := NewHelperBorder([]string{sh, "-c", "read -r line"})
	require.NoError(t, b.Start(region.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}))
	assert.True(t, b.Running())

	start := time.Now()
	require.NoError(t, b.Stop())
	assert.Less(t, time.Since(start), 3*borderStopWait)
	assert.False(t, b.Running())
	assert.NoError(t, b.Stop(), "second stop is a no-op")

	assert.Error(t, NewHelperBorder(nil).Start(region.Rect{}))
}
