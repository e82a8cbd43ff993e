package rescale

import (
	"fmt"

	"github.com/esimov/rescale/utils"
	"github.com/pkg/errors"
)

// Bound constrains one axis of a resize request. The zero value is Auto.
type Bound struct {
	n     int
	valid bool
}

// Auto leaves the axis unconstrained: its size follows from the other
// axis so that the source aspect ratio is preserved.
var Auto = Bound{}

// Dim constrains the axis to at most n pixels.
func Dim(n int) Bound {
	return Bound{n: n, valid: true}
}

// BoundFromInt maps the command line convention, where 0 means "unconstrained", onto a Bound.
func BoundFromInt(n int) Bound {
	if n == 0 {
		return Auto
	}
	return Dim(n)
}

// Get returns the constrained value and whether the axis is constrained at all.
func (b Bound) Get() (int, bool) {
	return b.n, b.valid
}

func (b Bound) String() string {
	if !b.valid {
		return "auto"
	}
	return fmt.Sprintf("%d", b.n)
}

// Request is the bounding box an image is resized into.
type Request struct {
	Width  Bound
	Height Bound
}

// Size is a width and height pair in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Fit computes the largest size which fits into the requested bounding box
// and keeps the aspect ratio of a srcW x srcH image.
//
// The axis with the smaller requested-to-source ratio is binding and gets
// exactly the requested value; the other axis is scaled by the same ratio,
// truncated towards zero and capped by its own bound. An unconstrained axis
// never binds.
//
// If truncation yields a zero dimension the computed size is returned
// together with ErrDegenerateSize.
func Fit(srcW, srcH int, req Request) (Size, error) {
	if srcW <= 0 || srcH <= 0 {
		return Size{}, errors.Wrapf(ErrInvalidSourceDimension, "%dx%d", srcW, srcH)
	}

	w, hasW := req.Width.Get()
	h, hasH := req.Height.Get()

	if !hasW && !hasH {
		return Size{}, errors.Wrap(ErrInvalidRequest, "width and height are both unconstrained")
	}
	if (hasW && w <= 0) || (hasH && h <= 0) {
		return Size{}, errors.Wrapf(ErrInvalidRequest, "bounds %vx%v", req.Width, req.Height)
	}

	var size Size
	if widthBinds(srcW, srcH, w, h, hasW, hasH) {
		size.Width = w
		size.Height = scale(srcH, w, srcW)
		if hasH {
			size.Height = utils.Min(size.Height, h)
		}
	} else {
		size.Height = h
		size.Width = scale(srcW, h, srcH)
		if hasW {
			size.Width = utils.Min(size.Width, w)
		}
	}

	if size.Width == 0 || size.Height == 0 {
		return size, errors.Wrapf(ErrDegenerateSize, "%dx%d fitted into %vx%v gives %s",
			srcW, srcH, req.Width, req.Height, size)
	}
	return size, nil
}

// FitInts is Fit with 0 standing for an unconstrained axis.
func FitInts(srcW, srcH, w, h int) (Size, error) {
	return Fit(srcW, srcH, Request{Width: BoundFromInt(w), Height: BoundFromInt(h)})
}

// widthBinds reports whether w/srcW <= h/srcH. The ratios are compared by
// cross multiplication so the decision is exact.
func widthBinds(srcW, srcH, w, h int, hasW, hasH bool) bool {
	switch {
	case !hasH:
		return true
	case !hasW:
		return false
	}
	return int64(w)*int64(srcH) <= int64(h)*int64(srcW)
}

// scale returns floor(n * num / den) for positive operands.
func scale(n, num, den int) int {
	return int(int64(n) * int64(num) / int64(den))
}
