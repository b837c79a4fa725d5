package audio

import (
	"context"
	"os"
	"path/filepath"
)

// FileSink writes each clip to <Dir>/<word>.mp3.
type FileSink struct {
	Dir string
}

func (s FileSink) Path(word string) string {
	return filepath.Join(s.Dir, filepath.Base(word)+".mp3")
}

func (s FileSink) Play(_ context.Context, clip Clip) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path(clip.Word), clip.Data, 0o644)
}
