package ffmpeg

import (
	"strconv"

	"github.com/galewave/loudgate/internal/pcm"
)

func bitDepthToSpec(bitDepth pcm.BitDepth) string {
	// BitDepth 32 = s32le, 24 = s24le, 16 = s16le
	//nolint:gosec // we fine, gosec
	return "s" + strconv.Itoa(int(bitDepth)) + "le"
}
