package rpc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/logger"
	"github.com/tokengate-org/tokengate/types"
)

type (
	infoResponse struct {
		CoreID   string       `json:"core_id"`   // hex encoded core identifier
		Owner    string       `json:"owner"`     // hex encoded owner address
		LedgerID string       `json:"ledger_id"` // hex encoded bound ledger identifier, empty when unbound
		Modules  []moduleInfo `json:"modules"`
	}

	moduleInfo struct {
		Name        string `json:"name"`
		PlugAndPlay bool   `json:"plug_and_play"`
	}

	checkRequest struct {
		From   types.Address `json:"from"`
		To     types.Address `json:"to"`
		Amount uint64        `json:"amount"`
	}

	checkResponse struct {
		Approved bool `json:"approved"`
	}
)

func InfoEndpoints(core *compliance.Core, log *slog.Logger) RegistrarFunc {
	return func(r *mux.Router) {
		r.HandleFunc("/info", infoHandler(core, log)).Methods(http.MethodGet, http.MethodOptions)
	}
}

func infoHandler(core *compliance.Core, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsp := infoResponse{
			CoreID: core.ID().String(),
			Owner:  core.Owner().String(),
		}
		if !core.LedgerID().IsZero() {
			rsp.LedgerID = core.LedgerID().String()
		}
		for _, module := range core.Modules() {
			rsp.Modules = append(rsp.Modules, moduleInfo{
				Name:        module.Name(),
				PlugAndPlay: module.PlugAndPlay(),
			})
		}
		w.Header().Set(headerContentType, applicationJson)
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rsp); err != nil {
			log.WarnContext(r.Context(), "failed to write info message", logger.Error(err))
		}
	}
}

// CheckEndpoints exposes the dry-run transfer check. The issuance and
// redemption forms are expressed by leaving from resp. to empty.
func CheckEndpoints(adapter *ledger.Adapter, log *slog.Logger) RegistrarFunc {
	return func(r *mux.Router) {
		r.HandleFunc("/check", checkHandler(adapter, log)).Methods(http.MethodPost, http.MethodOptions)
	}
}

func checkHandler(adapter *ledger.Adapter, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "failed to parse check request: %v", err)
			return
		}
		rsp := checkResponse{Approved: adapter.CheckTransfer(req.From, req.To, req.Amount)}
		w.Header().Set(headerContentType, applicationJson)
		if err := json.NewEncoder(w).Encode(rsp); err != nil {
			log.WarnContext(r.Context(), "failed to write check response", logger.Error(err))
		}
	}
}
