package ffmpeg

import "fmt"

// ScaleFilter is an ffmpeg scale filter. A dimension of -2 keeps the aspect
// ratio and rounds to an even value, which h264 requires.
type ScaleFilter struct {
	Width  int
	Height int
	Flags  string
}

func (s ScaleFilter) String() string {
	if s.Flags == "" {
		return fmt.Sprintf("scale=%d:%d", s.Width, s.Height)
	}
	return fmt.Sprintf("scale=%d:%d:flags=%s", s.Width, s.Height, s.Flags)
}

// ScaleHeight scales to height lines with an even, aspect-preserving width.
func ScaleHeight(height int, flags string) Option {
	return Filter(ScaleFilter{Width: -2, Height: height, Flags: flags}.String())
}
