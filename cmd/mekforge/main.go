package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mekforgecmd "github.com/mekforge/mekforge/internal/cmd/mekforge"
)

func main() {
	cfg, err := mekforgecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[MEKFORGE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mekforgecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("run game: %v", err)
	}
}
