package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"story_vocab/generator"
	"story_vocab/history"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate [words...]",
		Short: "Generate a story and definitions for the given words",
		Long:  "Words may be separated by spaces or commas. The story call runs first, then the definitions call.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runGenerate,
	}

	cmd.Flags().Bool("save", false, "Append the result to history")
	cmd.Flags().String("show", "both", "What to print: story, definitions or both")

	RootCmd.AddCommand(cmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	save, _ := cmd.Flags().GetBool("save")
	show, _ := cmd.Flags().GetString("show")

	ctx := cmd.Context()
	cfg := loadConfig()
	sess := generator.NewSession("cli", buildAgent(ctx, cfg))
	sess.SetInput(strings.Join(args, " "))

	logger().Printf("[cli] generating words=%v", sess.Snapshot().Words)
	res, err := sess.Generate(ctx)
	if err != nil {
		// 故事已生成但释义失败时，仍然输出故事。
		if res.Story != "" {
			printResult(cmd.OutOrStdout(), res, "story")
		}
		exitErr("generate", fmt.Errorf("%s", generator.UserMessage(err)))
	}

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(sess.Snapshot(), "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	} else {
		printResult(cmd.OutOrStdout(), res, show)
	}

	if !save {
		return
	}
	store, rec, entries := openHistory(ctx, cfg)
	defer store.Close()
	entries, err = rec.Append(ctx, entries, history.Draft{
		Story:       res.Story,
		Definitions: res.Definitions,
		Words:       res.Words,
	})
	if err != nil {
		exitErr("save", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "保存成功 id=%d\n", entries[0].ID)
}

func printResult(w io.Writer, res generator.Result, show string) {
	if show != "definitions" {
		fmt.Fprintln(w, res.Story)
	}
	if show == "story" || res.Definitions == "" {
		return
	}
	if show != "definitions" {
		fmt.Fprintln(w)
	}
	for _, line := range generator.ParseDefinitions(res.Definitions) {
		if line.Word != "" {
			fmt.Fprintf(w, "🔊 %s\n", line.Text)
			continue
		}
		fmt.Fprintln(w, line.Text)
	}
}
