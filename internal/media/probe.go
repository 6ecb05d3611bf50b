// Package media extracts technical metadata from uploaded media files.
// Video slides derive their rotation duration from here instead of manual
// input.
package media

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ProbeDuration reads a media file's duration in seconds using ffprobe.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "quiet", "-print_format", "json", "-show_format", path)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	return parseProbeDuration(out)
}

func parseProbeDuration(out []byte) (float64, error) {
	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, err
	}
	if data.Format.Duration == "" {
		return 0, fmt.Errorf("no duration in probe output")
	}

	d, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", data.Format.Duration, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("non-positive duration %f", d)
	}
	return d, nil
}
