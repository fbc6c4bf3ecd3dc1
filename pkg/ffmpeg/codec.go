package ffmpeg

// Bitrate is a video bitrate ceiling and its VBV buffer size.
type Bitrate struct {
	MaxRate string
	BufSize string
}

// bitrateLadder maps standard heights to bitrate ceilings.
var bitrateLadder = map[int]Bitrate{
	2160: {"12M", "24M"},
	1440: {"8M", "16M"},
	1080: {"4M", "8M"},
	720:  {"2M", "4M"},
	480:  {"1M", "2M"},
}

var defaultBitrate = Bitrate{"2M", "4M"}

// BitrateFor returns the bitrate ceiling for a target height. Heights off the
// ladder get the default.
func BitrateFor(height int) Bitrate {
	if b, ok := bitrateLadder[height]; ok {
		return b
	}
	return defaultBitrate
}

// PresetStreamingH264 returns options for progressive-download h264 at the
// given target height.
func PresetStreamingH264(height int) []Option {
	b := BitrateFor(height)
	return []Option{
		VideoCodec("libx264"),
		Preset("veryfast"),
		CRF(20),
		MaxRate(b.MaxRate, b.BufSize),
		PixelFormat("yuv420p"),
	}
}

// PresetStreamingAAC returns options for the fixed AAC audio track.
func PresetStreamingAAC() []Option {
	return []Option{
		AudioCodec("aac"),
		AudioBitrate("128k"),
	}
}
