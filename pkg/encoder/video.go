package encoder

import (
	"filtergraph-box/pkg/encoder/filtergraph"
	"fmt"
)

// SquarePixels How non square pixels are resized to a 1:1 aspect ratio
type SquarePixels string

const (
	SquareUpscale       SquarePixels = "upscale"
	SquareDownscale     SquarePixels = "downscale"
	SquareUpscaleEven   SquarePixels = "upscale_even"
	SquareDownscaleEven SquarePixels = "downscale_even"
)

// Flip Mirror axis
type Flip uint8

const (
	NoFlip Flip = iota
	FlipHorizontal
	FlipVertical
	FlipBoth
)

// VideoOptions Basic video transformations. Zero values are skipped
type VideoOptions struct {
	// Flatten the alpha channel over FillColor (white by default)
	RemoveAlpha bool
	FillColor   string
	// Resize to square pixels
	SquarePixels SquarePixels
	// Options of the crop, transpose and scale filters
	Crop      []filtergraph.Arg
	Flip      Flip
	Transpose []filtergraph.Arg
	Scale     []filtergraph.Arg
}

// Width and height expressions of each square pixels mode
var squareSizes = map[SquarePixels][2]string{
	SquareUpscale:       {"max(iw,ih*dar)", "max(iw/dar,ih)"},
	SquareDownscale:     {"min(iw,ih*dar)", "min(iw/dar,ih)"},
	SquareUpscaleEven:   {"trunc(max(iw,ih*dar)/2)*2", "trunc(max(iw/dar,ih)/2)*2"},
	SquareDownscaleEven: {"trunc(min(iw,ih*dar)/2)*2", "trunc(min(iw/dar,ih)/2)*2"},
}

// VideoBasic A single input, single output video fragment applying, in order : alpha removal, square pixels,
// crop, flip, transpose and scale
func VideoBasic(opts VideoOptions) (filtergraph.Fragment, error) {
	var steps []filtergraph.Fragment
	if opts.RemoveAlpha {
		fill := opts.FillColor
		if fill == "" {
			fill = "white"
		}
		background, err := alphaBackground(fill)
		if err != nil {
			return nil, err
		}
		steps = append(steps, background)
	}
	if opts.SquarePixels != "" {
		size, ok := squareSizes[opts.SquarePixels]
		if !ok {
			return nil, fmt.Errorf("unknown square pixels mode %q", opts.SquarePixels)
		}
		steps = append(steps,
			filtergraph.NewFilter("scale", filtergraph.Pos(size[0]), filtergraph.Pos(size[1]), filtergraph.KV("eval", "init")),
			filtergraph.NewFilter("setsar", filtergraph.Pos("1/1")))
	}
	if len(opts.Crop) > 0 {
		steps = append(steps, filtergraph.NewFilter("crop", opts.Crop...))
	}
	switch opts.Flip {
	case NoFlip:
	case FlipHorizontal:
		steps = append(steps, filtergraph.NewFilter("hflip"))
	case FlipVertical:
		steps = append(steps, filtergraph.NewFilter("vflip"))
	case FlipBoth:
		steps = append(steps, filtergraph.NewFilter("hflip"), filtergraph.NewFilter("vflip"))
	default:
		return nil, fmt.Errorf("unknown flip %d", opts.Flip)
	}
	if len(opts.Transpose) > 0 {
		steps = append(steps, filtergraph.NewFilter("transpose", opts.Transpose...))
	}
	if len(opts.Scale) > 0 {
		steps = append(steps, filtergraph.NewFilter("scale", opts.Scale...))
	}
	return filtergraph.JoinAll(steps...)
}

// alphaBackground Overlay the input over a plain color canvas scaled to its size. The free input of scale2ref
// receives the video :
//
//	color=c=white[bg];[bg][in]scale2ref[canvas][ref];[canvas][ref]overlay=shortest=1
func alphaBackground(fill string) (*filtergraph.Graph, error) {
	g := filtergraph.Stack(
		filtergraph.NewFilter("color", filtergraph.KV("c", fill)),
		filtergraph.NewFilter("scale2ref"),
		filtergraph.NewFilter("overlay", filtergraph.KV("shortest", "1")))
	links := [][2]filtergraph.PadAddress{
		{{Chain: 0, Filter: 0, Pad: 0}, {Chain: 1, Filter: 0, Pad: 0}},
		{{Chain: 1, Filter: 0, Pad: 0}, {Chain: 2, Filter: 0, Pad: 0}},
		{{Chain: 1, Filter: 0, Pad: 1}, {Chain: 2, Filter: 0, Pad: 1}},
	}
	for _, l := range links {
		if err := g.Link(l[0], l[1]); err != nil {
			return nil, err
		}
	}
	return g, nil
}
