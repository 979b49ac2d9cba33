package ffmpeg

import "time"

const (
	name = "ffmpeg"
	// Large lossless files can take a while to demux; mirrors ffprobe's timeout.
	timeout = 60 * time.Second
	codec   = "pcm_s32le"
)
