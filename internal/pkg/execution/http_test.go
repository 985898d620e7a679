package execution_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/execution"
	"github.com/vreid/gambit/internal/pkg/transaction"
)

func newServer() (*echo.Echo, *execution.ExecutionService) {
	s := newService()

	e := echo.New()
	s.RegisterRoutes(e)

	return e, s
}

func call(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var payload string

	if body != nil {
		raw, _ := json.Marshal(body)
		payload = string(raw)
	}

	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestGenesisInfoHandler(t *testing.T) {
	t.Parallel()

	e, _ := newServer()

	rec := call(e, http.MethodGet, "/api/execution/genesis-info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var info execution.GenesisInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, execution.DefaultGenesisInfo(), info)
}

func TestGetBlockHandler(t *testing.T) {
	t.Parallel()

	e, _ := newServer()

	height := uint32(0)
	rec := call(e, http.MethodPost, "/api/execution/get-block",
		execution.GetBlockRequest{Identifier: &execution.BlockIdentifier{Height: &height}})
	require.Equal(t, http.StatusOK, rec.Code)

	var block blockstore.Block
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &block))
	assert.Equal(t, blockstore.GenesisHash, block.Hash)

	rec = call(e, http.MethodPost, "/api/execution/get-block",
		execution.GetBlockRequest{Identifier: &execution.BlockIdentifier{Hash: blockstore.GenesisHash}})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = call(e, http.MethodPost, "/api/execution/get-block", execution.GetBlockRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := uint32(3)
	rec = call(e, http.MethodPost, "/api/execution/get-block",
		execution.GetBlockRequest{Identifier: &execution.BlockIdentifier{Height: &missing}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchGetBlocksHandler(t *testing.T) {
	t.Parallel()

	e, _ := newServer()

	rec := call(e, http.MethodPost, "/api/execution/batch-get-blocks", execution.BatchGetBlocksRequest{
		Identifiers: []execution.BlockIdentifier{execution.ByHeight(0)},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp execution.BatchGetBlocksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Blocks, 1)

	rec = call(e, http.MethodPost, "/api/execution/batch-get-blocks", execution.BatchGetBlocksRequest{
		Identifiers: []execution.BlockIdentifier{execution.ByHeight(0), execution.ByHash([]byte{1})},
	})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestExecuteAndCommitHandlers(t *testing.T) {
	t.Parallel()

	e, s := newServer()

	rec := call(e, http.MethodPost, "/api/execution/execute-block", execution.ExecuteBlockRequest{
		ParentHash:   blockstore.GenesisHash,
		Transactions: sequenced(transaction.StartGame{GameID: 1}),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var block blockstore.Block
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &block))
	assert.Equal(t, uint32(1), block.Height)

	forged := block
	forged.Hash = []byte("forged")

	rec = call(e, http.MethodPost, "/api/execution/update-commitment-state", execution.UpdateCommitmentStateRequest{
		CommitmentState: &execution.CommitmentState{Soft: forged, Firm: forged},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uint32(0), s.CommitmentState().Firm.Height)

	rec = call(e, http.MethodPost, "/api/execution/update-commitment-state", execution.UpdateCommitmentStateRequest{
		CommitmentState: &execution.CommitmentState{Soft: block, Firm: block, BaseSettlementHeight: 4},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/api/execution/commitment-state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state execution.CommitmentState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, uint32(1), state.Soft.Height)
	assert.Equal(t, uint32(1), state.Firm.Height)
	assert.Equal(t, block.Hash, state.Firm.Hash)
	assert.Equal(t, uint64(4), state.BaseSettlementHeight)

	rec = call(e, http.MethodPost, "/api/execution/update-commitment-state", execution.UpdateCommitmentStateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
