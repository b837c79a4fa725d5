package cli

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"story_vocab/audio"
	"story_vocab/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		Args:  cobra.NoArgs,
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "http listen address (overrides config.server_addr)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	ctx := cmd.Context()
	cfg := loadConfig()

	agent := buildAgent(ctx, cfg)
	store, rec, entries := openHistory(ctx, cfg)
	defer store.Close()

	srv, err := server.New(server.Deps{
		Agent:    agent,
		Recorder: rec,
		History:  entries,
		Fetcher:  audio.NewFetcher(audio.Resolver{BaseURL: cfg.Audio.BaseURL}, nil),
		Logger:   log.Default(),
	})
	if err != nil {
		exitErr("build server", err)
	}

	listen := cfg.ServerAddr
	if addr != "" {
		listen = addr
	}
	if listen == "" {
		listen = ":8080"
	}
	log.Printf("Starting web server on %s (%d history entries)", listen, len(entries))
	if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
		exitErr("serve", err)
	}
}
