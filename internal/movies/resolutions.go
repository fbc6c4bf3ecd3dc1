package movies

import "slices"

// standardHeights is the resolution ladder, tallest first.
var standardHeights = []int{2160, 1440, 1080, 720}

// TargetHeights returns the derived resolutions to transcode for a source of
// the given height. Sources outside the canonical container get the nearest
// ladder rung at or below their height (below 720, their own height rounded
// down to even, which yuv420p requires). Any source taller than 1080 gets
// 1080 and any taller than 720 gets 720.
func TargetHeights(height int, class MimeClass) []int {
	var heights []int
	add := func(h int) {
		if h > 0 && !slices.Contains(heights, h) {
			heights = append(heights, h)
		}
	}

	if class != MimeCanonical {
		rung := height &^ 1
		for _, h := range standardHeights {
			if height >= h {
				rung = h
				break
			}
		}
		add(rung)
	}
	if height > 1080 {
		add(1080)
	}
	if height > 720 {
		add(720)
	}
	return heights
}
