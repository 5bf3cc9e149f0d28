package http

import (
	"bytes"
	"encoding/json"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lotto-treasury/internal/adapters/ledger"
	"github.com/hxuan190/lotto-treasury/internal/adapters/persistence"
	"github.com/hxuan190/lotto-treasury/internal/domain"
	"github.com/hxuan190/lotto-treasury/internal/http/middlewares"
	"github.com/hxuan190/lotto-treasury/internal/services/allocator"
	"github.com/hxuan190/lotto-treasury/internal/services/converter"
)

const testAdminToken = "admin-secret"

type apiFixture struct {
	router *gin.Engine
	ledger *ledger.MemoryLedger
	vault  solana.PublicKey
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := persistence.NewMemoryStore()
	fees, err := allocator.NewFeeAllocator(allocator.DefaultSplitTable())
	require.NoError(t, err)
	rounds := allocator.NewService(fees, store, 2_000_000)

	registry, err := converter.NewAssetRegistry(nil,
		domain.Asset{Symbol: "SOL", Mint: solana.SolMint, Decimals: 9},
		domain.Asset{Symbol: "TOKEN1", Mint: solana.NewWallet().PublicKey(), Decimals: 6},
	)
	require.NoError(t, err)
	vault := solana.NewWallet().PublicKey()
	mem := ledger.NewMemoryLedger()
	mem.Fund(vault, 1_000_000)

	exchange := converter.NewService(
		converter.NewRateConverter(converter.DefaultMaxQuoteAge, false),
		converter.NewFixedPriceSource(map[string]decimal.Decimal{
			"SOL":    decimal.RequireFromString("0.0065"),
			"TOKEN1": decimal.RequireFromString("12.17"),
		}),
		registry,
		mem,
		store,
		converter.Pair{InputSymbol: "SOL", OutputSymbol: "TOKEN1", Vault: vault},
	)

	router := NewRouter(testAdminToken, nil, NewRoundHandler(rounds), NewExchangeHandler(exchange))
	return &apiFixture{router: router, ledger: mem, vault: vault}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, admin bool) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(middlewares.AdminTokenHeader, testAdminToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(gohttp.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, gohttp.StatusOK, w.Code)
}

func TestRoundLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(t, gohttp.MethodPost, "/api/v1/admin/rounds", CreateRoundRequest{ID: 7}, false)
	require.Equal(t, gohttp.StatusUnauthorized, code)

	code, env := f.do(t, gohttp.MethodPost, "/api/v1/admin/rounds", CreateRoundRequest{ID: 7}, true)
	require.Equal(t, gohttp.StatusCreated, code, env.Error)

	code, env = f.do(t, gohttp.MethodPost, "/api/v1/admin/rounds", CreateRoundRequest{ID: 7}, true)
	require.Equal(t, gohttp.StatusConflict, code)
	require.Equal(t, "RESOURCE_CONFLICT", env.Code)

	code, env = f.do(t, gohttp.MethodPost, "/api/v1/admin/rounds/7/tickets", nil, true)
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var ticket TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	require.Equal(t, uint64(1), ticket.Round.TicketsSold)
	require.Equal(t, "2000000", ticket.Round.Total)
	require.Equal(t, "1080000", ticket.Split.Shares[domain.PoolFiveBall.String()])

	code, env = f.do(t, gohttp.MethodGet, "/api/v1/rounds/7", nil, false)
	require.Equal(t, gohttp.StatusOK, code)
	var round RoundResponse
	require.NoError(t, json.Unmarshal(env.Data, &round))
	require.Equal(t, "200000", round.Pools[domain.PoolOperations.String()])

	code, _ = f.do(t, gohttp.MethodGet, "/api/v1/rounds/8", nil, false)
	require.Equal(t, gohttp.StatusNotFound, code)

	code, _ = f.do(t, gohttp.MethodGet, "/api/v1/rounds/abc", nil, false)
	require.Equal(t, gohttp.StatusBadRequest, code)
}

func TestSplitPreview(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, gohttp.MethodGet, "/api/v1/rounds/split", nil, false)
	require.Equal(t, gohttp.StatusOK, code)
	var split SplitResponse
	require.NoError(t, json.Unmarshal(env.Data, &split))
	require.Equal(t, "2000000", split.TicketPrice)
	require.Equal(t, "360000", split.Shares[domain.PoolReferral.String()])

	code, env = f.do(t, gohttp.MethodGet, "/api/v1/rounds/split?price=2000001", nil, false)
	require.Equal(t, gohttp.StatusUnprocessableEntity, code)
	require.Equal(t, "UNPROCESSABLE_ENTITY", env.Code)

	code, _ = f.do(t, gohttp.MethodGet, "/api/v1/rounds/split?price=0", nil, false)
	require.Equal(t, gohttp.StatusBadRequest, code)
}

func TestExchangeEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, gohttp.MethodGet, "/api/v1/exchange/quote?amount=100", nil, false)
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var quote QuoteResponse
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	require.Equal(t, "187230", quote.AmountOut)
	require.Equal(t, "0.0065", quote.InputRate)

	code, _ = f.do(t, gohttp.MethodGet, "/api/v1/exchange/quote?amount=-1", nil, false)
	require.Equal(t, gohttp.StatusBadRequest, code)

	recipient := solana.NewWallet().PublicKey().String()
	code, env = f.do(t, gohttp.MethodPost, "/api/v1/admin/exchange", ExchangeRequest{Recipient: recipient, Amount: "100"}, true)
	require.Equal(t, gohttp.StatusOK, code, env.Error)
	var conv ConversionResponse
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	require.Equal(t, "187230", conv.AmountOut)
	require.Equal(t, recipient, conv.Recipient)
	require.NotEmpty(t, conv.ID)
	require.Equal(t, uint64(1_000_000-187230), f.ledger.Balance(f.vault))

	// 10_000 units need more than the vault holds.
	code, env = f.do(t, gohttp.MethodPost, "/api/v1/admin/exchange", ExchangeRequest{Recipient: recipient, Amount: "10000"}, true)
	require.Equal(t, gohttp.StatusBadGateway, code)
	require.Equal(t, "BAD_GATEWAY", env.Code)

	code, _ = f.do(t, gohttp.MethodPost, "/api/v1/admin/exchange", ExchangeRequest{Recipient: "not-a-key", Amount: "100"}, true)
	require.Equal(t, gohttp.StatusBadRequest, code)

	code, env = f.do(t, gohttp.MethodGet, "/api/v1/admin/exchange/history", nil, true)
	require.Equal(t, gohttp.StatusOK, code)
	var history []ConversionResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	require.Equal(t, conv.ID, history[0].ID)
}
