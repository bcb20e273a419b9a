package platform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/atotto/clipboard"
	imageclip "golang.design/x/clipboard"
)

// ErrNoImage is returned when the clipboard holds no image.
var ErrNoImage = errors.New("clipboard has no image")

var (
	imageClipOnce sync.Once
	imageClipErr  error
)

// Clipboard reads the system clipboard.
type Clipboard struct{}

// Text returns the clipboard text.
func (Clipboard) Text() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("clipboard is not supported on this system")
	}
	return clipboard.ReadAll()
}

// Image returns the image on the clipboard, or ErrNoImage.
func (Clipboard) Image() (image.Image, error) {
	imageClipOnce.Do(func() {
		imageClipErr = imageclip.Init()
	})
	if imageClipErr != nil {
		return nil, fmt.Errorf("image clipboard unavailable: %w", imageClipErr)
	}
	return decodeClipboardImage(imageclip.Read(imageclip.FmtImage))
}

// The image format is always PNG encoded.
func decodeClipboardImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode clipboard image: %w", err)
	}
	return img, nil
}
