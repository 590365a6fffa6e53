// Package handlers wires the node's debug HTTP surface: standard library
// profiling endpoints, readiness/liveness checks, and a websocket stream of
// the node's own activity log.
package handlers

import (
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hashline/powchain/foundation/blockchain/database"
	"github.com/hashline/powchain/foundation/blockchain/state"
	"github.com/hashline/powchain/foundation/events"
)

// MuxConfig contains the systems the debug mux needs.
type MuxConfig struct {
	Build string
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// DebugMux registers the standard library debug endpoints plus the node's
// own readiness/liveness/events endpoints, bypassing http.DefaultServeMux
// so a dependency can't smuggle a handler into the process without this
// package knowing about it.
func DebugMux(cfg MuxConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	h := handlers{cfg: cfg}
	mux.HandleFunc("/debug/readiness", h.readiness)
	mux.HandleFunc("/debug/liveness", h.liveness)
	mux.HandleFunc("/debug/events", h.events)
	mux.HandleFunc("/debug/block/latest", h.latestBlock)

	return mux
}

type handlers struct {
	cfg MuxConfig
}

func (h handlers) readiness(w http.ResponseWriter, r *http.Request) {
	if h.cfg.State.RetrieveLatestBlock().Hash == "" {
		http.Error(w, "chain has no genesis block yet", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h handlers) liveness(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Build  string `json:"build"`
		Host   string `json:"host"`
		Height int    `json:"height"`
	}{
		Build:  h.cfg.Build,
		Host:   h.cfg.State.RetrieveHost(),
		Height: len(h.cfg.State.RetrieveChain()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// latestBlock reports the chain tip along with its diagnostic merkle root.
// The root plays no role in consensus; it's here purely for operators to
// eyeball whether a block's transaction list looks tampered with.
func (h handlers) latestBlock(w http.ResponseWriter, r *http.Request) {
	block := h.cfg.State.RetrieveLatestBlock()

	root, err := block.MerkleRoot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := struct {
		Block      database.Block `json:"block"`
		MerkleRoot string         `json:"merkle_root"`
	}{
		Block:      block,
		MerkleRoot: root,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// events streams the node's activity log to a websocket client until the
// connection drops.
func (h handlers) events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.cfg.Log.Errorw("debug: events: upgrade", "ERROR", err)
		return
	}
	defer conn.Close()

	id := r.RemoteAddr
	ch := h.cfg.Evts.Acquire(id)
	defer h.cfg.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
