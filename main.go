package main

import (
	"log"
	"os"

	"story_vocab/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
