package discovery

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const browseTimeout = 2 * time.Second

type peerResponse struct {
	Instance string `json:"instance"`
	Addr     string `json:"addr"`
	Version  string `json:"version,omitempty"`
}

// PeersHandler handles GET /api/peers with a one-shot mDNS query.
func PeersHandler(w http.ResponseWriter, r *http.Request) {
	peers, err := Browse(r.Context(), browseTimeout)
	if err != nil {
		slog.Warn("mdns browse failed", "error", err)
	}

	out := make([]peerResponse, len(peers))
	for i, p := range peers {
		out[i] = peerResponse{Instance: p.Instance, Addr: p.Addr, Version: p.Version}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}
