package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokengate-org/tokengate/compliance"
	"github.com/tokengate-org/tokengate/compliance/modules"
	testobs "github.com/tokengate-org/tokengate/internal/testutils/observability"
	"github.com/tokengate-org/tokengate/ledger"
	"github.com/tokengate-org/tokengate/types"
)

var (
	owner = types.Address{0xAA}
	alice = types.Address{0x01}
	bob   = types.Address{0x02}
)

func newTestEngine(t *testing.T) (*compliance.Core, *ledger.Adapter) {
	t.Helper()
	ledgerID := types.LedgerID{0xF0}
	l := ledger.NewMemoryLedger(ledgerID)

	core, err := compliance.NewCore(types.CoreID{0xC0}, owner, testobs.Default(t))
	require.NoError(t, err)
	require.NoError(t, core.BindLedger(owner, ledgerID))

	restrict, err := modules.NewTransferRestrictModule()
	require.NoError(t, err)
	require.NoError(t, core.AddModule(owner, restrict))

	adapter, err := ledger.NewAdapter(core, l, func() uint64 { return 1000 })
	require.NoError(t, err)
	return core, adapter
}

func TestRESTServer_RequestInfo(t *testing.T) {
	core, _ := newTestEngine(t)
	observe := testobs.NOP()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", bytes.NewReader([]byte{}))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()

	NewRESTServer("", 10, observe, InfoEndpoints(core, observe.Logger())).Handler.ServeHTTP(recorder, req)
	response := &infoResponse{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(response))
	require.Equal(t, "c0", response.CoreID)
	require.Equal(t, "0xaa", response.Owner)
	require.Equal(t, "f0", response.LedgerID)
	require.Equal(t, []moduleInfo{{Name: modules.TransferRestrictModuleName, PlugAndPlay: true}}, response.Modules)
}

func TestRESTServer_CheckTransfer(t *testing.T) {
	_, adapter := newTestEngine(t)
	observe := testobs.NOP()
	server := NewRESTServer("", 1<<10, observe, CheckEndpoints(adapter, observe.Logger()))

	check := func(t *testing.T, body checkRequest) checkResponse {
		t.Helper()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		server.Handler.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code)
		var response checkResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		return response
	}

	// wallet restriction with an empty allow-list: regular transfers are
	// refused, issuance passes
	require.False(t, check(t, checkRequest{From: alice, To: bob, Amount: 100}).Approved)
	require.True(t, check(t, checkRequest{To: bob, Amount: 100}).Approved)
}

func TestRESTServer_CheckTransferBadRequest(t *testing.T) {
	_, adapter := newTestEngine(t)
	observe := testobs.NOP()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/check", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()

	NewRESTServer("", 1<<10, observe, CheckEndpoints(adapter, observe.Logger())).Handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
