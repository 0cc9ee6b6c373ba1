// ABOUTME: ffmpeg argument construction for capture, probe and assembly
// ABOUTME: Pure functions so device wiring is testable without a subprocess

package capture

import (
	"strconv"
)

// captureArgs builds the ffmpeg invocation for a segmented screen
// capture. The screen is always grabbed with the cursor drawn; display
// audio is always requested; the microphone input and the mix filter
// are only present when the probe succeeded.
func captureArgs(cfg Config, withMic bool, outPattern string) []string {
	args := []string{
		"-y",
		"-f", "x11grab",
		"-framerate", strconv.Itoa(cfg.FrameRate),
		"-draw_mouse", "1",
		"-i", cfg.Display,
		"-f", "pulse",
		"-i", cfg.DisplayAudio,
	}
	if withMic {
		args = append(args,
			"-f", "pulse",
			"-i", cfg.Microphone,
			"-filter_complex", "amix=inputs=2:duration=longest",
		)
	}
	args = append(args,
		"-c:v", "libvpx",
		"-c:a", "libvorbis",
		"-f", "segment",
		"-segment_time", strconv.Itoa(cfg.SegmentSecs),
		"-reset_timestamps", "1",
		outPattern,
	)
	return args
}

// probeArgs builds a short throwaway capture that fails fast when the
// microphone source is missing or permission-denied.
func probeArgs(source string) []string {
	return []string{
		"-f", "pulse",
		"-i", source,
		"-t", "0.1",
		"-f", "null",
		"-",
	}
}

// assembleArgs builds the concat-demuxer invocation that joins the
// captured segments into one blob without re-encoding.
func assembleArgs(listPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}
