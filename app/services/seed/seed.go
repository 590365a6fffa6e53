// Package seed implements the HashLine seed daemon: a stateless rendezvous
// a node points at to discover its first peers. A seed holds no chain state
// and never forwards blocks or transactions. Run is invoked by
// cmd/hashline's `seed` subcommand.
package seed

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"

	"github.com/hashline/powchain/foundation/blockchain/seed"
	"github.com/hashline/powchain/foundation/logger"
)

var build = "develop"

// Config is the seed daemon's flag/env surface: a listen address and the
// TTL after which an unseen peer address is evicted.
type Config struct {
	conf.Version
	Seed struct {
		ListenHost string        `conf:"default:0.0.0.0:9090"`
		PeerTTL    time.Duration `conf:"default:5m"`
	}
}

// Run parses flags from the process's current os.Args, wires the registry
// and its listener, and blocks until an interrupt signal arrives.
func Run() error {
	log, err := logger.New("SEED")
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync()

	cfg := Config{
		Version: conf.Version{Build: build, Desc: "HashLine seed"},
	}

	const prefix = "SEED"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Infow("starting service", "version", cfg.Build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	registry := seed.NewRegistry(cfg.Seed.PeerTTL)

	server := seed.NewServer(cfg.Seed.ListenHost, registry, ev)
	if err := server.Listen(); err != nil {
		return fmt.Errorf("starting seed listener: %w", err)
	}
	defer server.Close()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	log.Infow("shutdown", "status", "shutdown started", "signal", sig)
	defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

	return nil
}
