// Package texture decodes image files and uploads them as GPU textures.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2
	TGATypeRLE          = 10
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes uncompressed (type 2) and RLE compressed (type 10)
// true-color TGA data with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("tga: header too short (%d bytes)", len(data))
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	r := &tgaReader{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		bpp:         bpp / 8,
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = r.readRaw()
	} else {
		err = r.readRLE()
	}
	if err != nil {
		return nil, err
	}
	return r.img, nil
}

type tgaReader struct {
	img         *image.RGBA
	src         []byte
	pos         int
	bpp         int
	width       int
	height      int
	topToBottom bool
	pixel       int
}

// next reads one BGR(A) pixel.
func (r *tgaReader) next() (color.RGBA, bool) {
	if r.pos+r.bpp > len(r.src) {
		return color.RGBA{}, false
	}
	p := r.src[r.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if r.bpp == 4 {
		c.A = p[3]
	}
	r.pos += r.bpp
	return c, true
}

// put stores c at the current pixel and advances.
func (r *tgaReader) put(c color.RGBA) {
	x := r.pixel % r.width
	y := r.pixel / r.width
	if !r.topToBottom {
		y = r.height - 1 - y
	}
	r.img.SetRGBA(x, y, c)
	r.pixel++
}

func (r *tgaReader) readRaw() error {
	total := r.width * r.height
	if len(r.src) < total*r.bpp {
		return errTGATruncated
	}
	for r.pixel < total {
		c, _ := r.next()
		r.put(c)
	}
	return nil
}

// readRLE decodes packets until the image is full. Truncated input leaves the
// remaining pixels transparent.
func (r *tgaReader) readRLE() error {
	total := r.width * r.height
	for r.pixel < total && r.pos < len(r.src) {
		header := r.src[r.pos]
		r.pos++
		count := int(header&0x7f) + 1

		if header&0x80 != 0 {
			c, ok := r.next()
			if !ok {
				return nil
			}
			for i := 0; i < count && r.pixel < total; i++ {
				r.put(c)
			}
			continue
		}
		for i := 0; i < count && r.pixel < total; i++ {
			c, ok := r.next()
			if !ok {
				return nil
			}
			r.put(c)
		}
	}
	return nil
}

// ToRGBA converts img to tightly packed RGBA. With flipY the rows are stored
// bottom-up, which is what OpenGL expects for texture uploads.
func ToRGBA(img image.Image, flipY bool) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		dy := y
		if flipY {
			dy = b.Dy() - 1 - y
		}
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
