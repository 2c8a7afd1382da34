package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"path"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/Faultbox/scenery/internal/logger"
)

// Uploader creates a GPU texture from RGBA pixels and returns its handle.
type Uploader interface {
	UploadTexture(img *image.RGBA) (uint32, error)
}

// Source provides raw file contents by name.
type Source interface {
	Load(name string) ([]byte, error)
}

// Loader decodes texture files from a source and uploads them.
type Loader struct {
	src      Source
	uploader Uploader
	log      *zap.Logger
}

// NewLoader creates a loader reading from src and uploading through up.
func NewLoader(src Source, up Uploader) *Loader {
	return &Loader{src: src, uploader: up, log: logger.Named("texture")}
}

// Decode reads and decodes name without uploading it.
func (l *Loader) Decode(name string) (image.Image, error) {
	data, err := l.src.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading texture %s: %w", name, err)
	}
	return Decode(name, data)
}

// Load decodes name and uploads it. The caller owns the returned texture.
func (l *Loader) Load(name string) (uint32, error) {
	img, err := l.Decode(name)
	if err != nil {
		return 0, err
	}
	tex, err := l.uploader.UploadTexture(ToRGBA(img, true))
	if err != nil {
		return 0, fmt.Errorf("uploading texture %s: %w", name, err)
	}
	b := img.Bounds()
	l.log.Debug("texture loaded", zap.String("file", name), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return tex, nil
}

// Decode decodes image data, choosing the TGA decoder by extension and the
// registered image decoders otherwise.
func Decode(name string, data []byte) (image.Image, error) {
	if strings.EqualFold(path.Ext(name), ".tga") {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return img, nil
}
