// Package node implements the HashLine node daemon: it mines against the
// pending pool, validates and gossips blocks and transactions with its
// peers, and exposes a debug endpoint for observability. Run is invoked by
// cmd/hashline's `node` subcommand; os.Args at the time of the call is
// whatever remains after the subcommand token is stripped, so conf.Parse
// sees only this service's own flags.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"

	"github.com/hashline/powchain/app/services/node/handlers"
	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/genesis"
	"github.com/hashline/powchain/foundation/blockchain/p2p"
	"github.com/hashline/powchain/foundation/blockchain/peer"
	"github.com/hashline/powchain/foundation/blockchain/state"
	"github.com/hashline/powchain/foundation/blockchain/worker"
	"github.com/hashline/powchain/foundation/events"
	"github.com/hashline/powchain/foundation/logger"
)

var build = "develop"

// Config is the node daemon's flag/env surface: listen port, optional seed
// address, optional direct peer, difficulty, miner address, and toggles for
// mining and genesis creation.
type Config struct {
	conf.Version
	Web struct {
		DebugHost string `conf:"default:0.0.0.0:7080"`
	}
	Node struct {
		ListenHost    string   `conf:"default:0.0.0.0:9080"`
		SeedHost      string   `conf:"default:"`
		DirectPeer    string   `conf:"default:"`
		Difficulty    uint     `conf:"default:2"`
		MinerAddress  string   `conf:"required"`
		Mine          bool     `conf:"default:true"`
		CreateGenesis bool     `conf:"default:false"`
		KnownPeers    []string `conf:"default:"`
	}
}

// Run parses flags from the process's current os.Args, wires a full node,
// and blocks until an interrupt signal arrives.
func Run() error {
	log, err := logger.New("NODE")
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync()

	cfg := Config{
		Version: conf.Version{Build: build, Desc: "HashLine node"},
	}

	const prefix = "NODE"
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

	minerAccount, err := database.ToAccountID(cfg.Node.MinerAddress)
	if err != nil {
		return fmt.Errorf("invalid miner address: %w", err)
	}

	// =========================================================================
	// Known peers

	peerSet := peer.NewPeerSet()
	for _, host := range cfg.Node.KnownPeers {
		peerSet.Add(peer.New(host))
	}
	if cfg.Node.DirectPeer != "" {
		peerSet.Add(peer.New(cfg.Node.DirectPeer))
	}

	// =========================================================================
	// Event fan-out: every state/worker/p2p log line also reaches the debug
	// websocket.

	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s)
		evts.Send(s)
	}

	// =========================================================================
	// Blockchain core

	st, err := state.New(state.Config{
		MinerAccount: minerAccount,
		Host:         cfg.Node.ListenHost,
		Genesis:      genesis.Genesis{Difficulty: cfg.Node.Difficulty},
		KnownPeers:   peerSet,
		EvHandler:    ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// =========================================================================
	// P2P transport

	server := p2p.NewServer(cfg.Node.ListenHost, st, ev)
	if err := server.Listen(); err != nil {
		return fmt.Errorf("starting p2p listener: %w", err)
	}
	defer server.Close()
	st.Network = server

	if cfg.Node.SeedHost != "" {
		if err := p2p.RegisterWithSeed(cfg.Node.SeedHost, cfg.Node.ListenHost); err != nil {
			log.Errorw("startup", "status", "register with seed failed", "ERROR", err)
		} else if peers, err := p2p.RequestPeersFromSeed(cfg.Node.SeedHost, cfg.Node.ListenHost); err != nil {
			log.Errorw("startup", "status", "request peers from seed failed", "ERROR", err)
		} else {
			for _, p := range peers {
				peerSet.Add(p)
			}
		}
	}

	// worker.Run always starts peer discovery and the startup chain sync
	// (Sync runs synchronously before Run returns); cfg.Node.Mine only gates
	// whether the miner ever proposes a block, so a non-mining node still
	// stays caught up with the network.
	w := worker.Run(st, server, minerAccount, cfg.Node.Mine, ev)

	// --node-create-genesis is a fallback, not a first move: only mine a genesis
	// block if the seed/peer sync above found no usable chain to adopt.
	// Creating it up front would race the sync and, once seeded, could
	// never be replaced by the real network's chain (replace_chain only
	// accepts a strictly longer candidate).
	if cfg.Node.CreateGenesis && st.RetrieveLatestBlock().Hash == "" {
		if _, err := st.CreateGenesis(); err != nil {
			return fmt.Errorf("creating genesis block: %w", err)
		}
	}

	// The miner loop only ever runs in response to a signal; without this
	// kick a solo node that already has a tip (from CreateGenesis above or
	// from the startup chain sync inside worker.Run) would sit idle forever
	// instead of continuously attempting mine_pending.
	if st.RetrieveLatestBlock().Hash != "" {
		w.SignalStartMining()
	}

	// =========================================================================
	// Debug service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	debugMux := handlers.DebugMux(handlers.MuxConfig{
		Build: cfg.Build,
		Log:   log,
		State: st,
		Evts:  evts,
	})

	debugServer := http.Server{
		Addr:    cfg.Web.DebugHost,
		Handler: debugMux,
	}

	go func() {
		if err := debugServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("shutdown", "status", "debug router closed", "ERROR", err)
		}
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdown
	log.Infow("shutdown", "status", "shutdown started", "signal", sig)
	defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	debugServer.Shutdown(shutdownCtx)

	evts.Shutdown()

	return nil
}
