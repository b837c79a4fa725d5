package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"story_vocab/history"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and edit saved generations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved entries, newest first",
		Args:  cobra.NoArgs,
		Run:   runHistoryList,
	}
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one saved entry",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}
	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved entry",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryRm,
	}

	cmd.AddCommand(list, show, rm)
	RootCmd.AddCommand(cmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	store, _, entries := openHistory(cmd.Context(), loadConfig())
	defer store.Close()

	if formatFlag == "json" {
		b, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "暂无历史记录")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t单词：%s\n", e.ID, e.CreatedAt, strings.Join(e.Words, ", "))
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	id := parseEntryID(args[0])
	store, _, entries := openHistory(cmd.Context(), loadConfig())
	defer store.Close()

	e, err := entries.Get(id)
	if err != nil {
		exitErr("show", err)
	}
	if formatFlag == "json" {
		b, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return
	}
	printEntry(cmd, e)
}

func runHistoryRm(cmd *cobra.Command, args []string) {
	id := parseEntryID(args[0])
	ctx := cmd.Context()
	store, rec, entries := openHistory(ctx, loadConfig())
	defer store.Close()

	if _, err := entries.Get(id); err != nil {
		exitErr("rm", err)
	}
	if _, err := rec.Remove(ctx, entries, id); err != nil {
		exitErr("rm", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%d}`+"\n", id)
}

func printEntry(cmd *cobra.Command, e history.Entry) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  单词：%s\n\n", e.CreatedAt, strings.Join(e.Words, ", "))
	fmt.Fprintln(w, e.Story)
	if e.Definitions != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, e.Definitions)
	}
}

func parseEntryID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		exitErr("parse id", err)
	}
	return id
}
