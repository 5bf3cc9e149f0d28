package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/lotto-treasury/internal/domain"
	"github.com/hxuan190/lotto-treasury/internal/http/httputil"
)

type ExchangeService interface {
	Quote(ctx context.Context, amount uint64) (*domain.ConversionResult, error)
	Exchange(ctx context.Context, recipient solana.PublicKey, amount uint64) (*domain.ConversionResult, error)
	Rates(ctx context.Context) (map[string]decimal.Decimal, error)
	History(ctx context.Context) ([]*domain.ConversionResult, error)
}

type ExchangeHandler struct {
	exchange ExchangeService
}

func NewExchangeHandler(exchange ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchange}
}

func (h *ExchangeHandler) Root() string {
	return "/exchange"
}

func (h *ExchangeHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/quote", h.getQuote)
	pub.GET("/rates", h.getRates)
	admin.POST("", h.postExchange)
	admin.GET("/history", h.getHistory)
}

type ExchangeRequest struct {
	// Recipient wallet (base58). Tokens land in its associated token account.
	Recipient string `json:"recipient" binding:"required" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
	// Input amount in smallest units.
	Amount string `json:"amount" binding:"required" example:"100"`
}

type QuoteResponse struct {
	AmountIn  string `json:"amountIn" example:"100"`
	AmountOut string `json:"amountOut" example:"187230"`
	// Factor is output units per input unit before truncation.
	Factor     string    `json:"factor" example:"1872.3076923076923077"`
	InputFeed  string    `json:"inputFeed" example:"fixed:SOL"`
	InputRate  string    `json:"inputRate" example:"0.0065"`
	OutputFeed string    `json:"outputFeed" example:"fixed:TOKEN1"`
	OutputRate string    `json:"outputRate" example:"12.17"`
	QuotedAt   time.Time `json:"quotedAt"`
}

type ConversionResponse struct {
	QuoteResponse
	ID         string    `json:"id" example:"5f0c6f5e-6d1b-4ad6-9a59-5cc3cfa2d0a1"`
	Recipient  string    `json:"recipient"`
	Signature  string    `json:"signature"`
	ExecutedAt time.Time `json:"executedAt"`
}

func toQuoteResponse(r *domain.ConversionResult) QuoteResponse {
	quotedAt := r.InputQuote.PublishTime
	if r.OutputQuote.PublishTime.Before(quotedAt) {
		quotedAt = r.OutputQuote.PublishTime
	}
	return QuoteResponse{
		AmountIn:   strconv.FormatUint(r.AmountIn, 10),
		AmountOut:  strconv.FormatUint(r.AmountOut, 10),
		Factor:     r.Factor.String(),
		InputFeed:  r.InputQuote.Feed,
		InputRate:  r.InputQuote.Value.String(),
		OutputFeed: r.OutputQuote.Feed,
		OutputRate: r.OutputQuote.Value.String(),
		QuotedAt:   quotedAt,
	}
}

func toConversionResponse(r *domain.ConversionResult) ConversionResponse {
	return ConversionResponse{
		QuoteResponse: toQuoteResponse(r),
		ID:            r.ID,
		Recipient:     r.Recipient.String(),
		Signature:     r.Signature.String(),
		ExecutedAt:    r.ExecutedAt,
	}
}

func parseAmount(c *gin.Context, raw string) (uint64, bool) {
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || amount == 0 {
		httputil.BadRequest(c, "invalid amount: must be a positive integer")
		return 0, false
	}
	return amount, true
}

// @Summary Quote a conversion
// @Description Price an input amount with fresh rates. Nothing is transferred.
// @Tags exchange
// @Produce json
// @Param amount query string true "Input amount in smallest units" example("100")
// @Success 200 {object} QuoteResponse
// @Failure 400 {object} httputil.Response "Invalid amount"
// @Failure 422 {object} httputil.Response "Output does not fit in uint64"
// @Failure 503 {object} httputil.Response "Stale or invalid price"
// @Router /api/v1/exchange/quote [get]
func (h *ExchangeHandler) getQuote(c *gin.Context) {
	amount, ok := parseAmount(c, c.Query("amount"))
	if !ok {
		return
	}
	res, err := h.exchange.Quote(c.Request.Context(), amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, toQuoteResponse(res))
}

// @Summary Current rates
// @Tags exchange
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} httputil.Response "Price source unavailable"
// @Router /api/v1/exchange/rates [get]
func (h *ExchangeHandler) getRates(c *gin.Context) {
	rates, err := h.exchange.Rates(c.Request.Context())
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	out := make(map[string]string, len(rates))
	for symbol, rate := range rates {
		out[symbol] = rate.String()
	}
	httputil.Success(c, out)
}

// @Summary Execute a conversion
// @Description Converts the input amount and transfers the output from the custody vault.
// @Description The conversion is recorded only when the transfer succeeds.
// @Tags exchange
// @Accept json
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Param request body ExchangeRequest true "Conversion to execute"
// @Success 200 {object} ConversionResponse
// @Failure 400 {object} httputil.Response "Invalid recipient or amount"
// @Failure 422 {object} httputil.Response "Output does not fit in uint64"
// @Failure 502 {object} httputil.Response "Custody transfer failed"
// @Failure 503 {object} httputil.Response "Stale or invalid price"
// @Router /api/v1/admin/exchange [post]
func (h *ExchangeHandler) postExchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		httputil.BadRequest(c, "invalid recipient address")
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	res, err := h.exchange.Exchange(c.Request.Context(), recipient, amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, toConversionResponse(res))
}

// @Summary Conversion history
// @Tags exchange
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Success 200 {array} ConversionResponse
// @Router /api/v1/admin/exchange/history [get]
func (h *ExchangeHandler) getHistory(c *gin.Context) {
	history, err := h.exchange.History(c.Request.Context())
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	out := make([]ConversionResponse, 0, len(history))
	for _, r := range history {
		out = append(out, toConversionResponse(r))
	}
	httputil.Success(c, out)
}
