// Command vocab-migrate applies the remote store schema.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/config"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote"
)

func main() {

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.RemoteDSN == "" {
		log.Fatal("remote DSN is required (-r or remote_dsn in the config file)")
	}

	store, err := remote.Open(cfg.RemoteDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()

	if err := remote.RunMigrations(context.Background(), store.Conn()); err != nil {
		log.Printf("%v", err)
		return
	}
	log.Println("migrations applied")

}
