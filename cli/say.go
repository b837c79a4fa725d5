package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"story_vocab/audio"
)

func init() {
	cmd := &cobra.Command{
		Use:   "say <word>",
		Short: "Download the pronunciation of a word",
		Args:  cobra.ExactArgs(1),
		Run:   runSay,
	}

	cmd.Flags().StringP("out", "o", ".", "Directory to write <word>.mp3 into")

	RootCmd.AddCommand(cmd)
}

func runSay(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")
	cfg := loadConfig()

	sink := audio.FileSink{Dir: out}
	player := audio.NewPlayer(audio.NewFetcher(audio.Resolver{BaseURL: cfg.Audio.BaseURL}, nil), sink, logger())
	say(player, sink, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// say 下载发音并打印文件路径；结果以 Play 返回的错误为准。
func say(player *audio.Player, sink audio.FileSink, word string, stdout, stderr io.Writer) bool {
	word = strings.TrimSpace(word)
	if err := <-player.Play(word); err != nil {
		fmt.Fprintln(stderr, "pronunciation unavailable (run with -v for details)")
		return false
	}
	fmt.Fprintln(stdout, sink.Path(word))
	return true
}
