package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lotto-treasury/internal/domain"
	"github.com/hxuan190/lotto-treasury/internal/http/httputil"
	"github.com/hxuan190/lotto-treasury/internal/services/allocator"
)

type RoundService interface {
	TicketPrice() uint64
	Preview(price uint64) (*domain.AllocationBreakdown, error)
	CreateRound(ctx context.Context, id uint64) (*domain.Round, error)
	GetRound(ctx context.Context, id uint64) (*domain.Round, error)
	BuyTicket(ctx context.Context, roundID uint64) (*allocator.TicketReceipt, error)
}

type RoundHandler struct {
	rounds RoundService
}

func NewRoundHandler(rounds RoundService) *RoundHandler {
	return &RoundHandler{rounds: rounds}
}

func (h *RoundHandler) Root() string {
	return "/rounds"
}

func (h *RoundHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/split", h.getSplit)
	pub.GET("/:id", h.getRound)
	admin.POST("", h.createRound)
	admin.POST("/:id/tickets", h.buyTicket)
}

// RoundResponse is a round with every pool balance in smallest token units.
// Amounts are decimal strings so they survive JSON number precision.
type RoundResponse struct {
	ID          uint64            `json:"id" example:"1"`
	TicketsSold uint64            `json:"ticketsSold" example:"3"`
	Pools       map[string]string `json:"pools"`
	Total       string            `json:"total" example:"6000000"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SplitResponse is the per-pool split of one ticket price.
type SplitResponse struct {
	TicketPrice string            `json:"ticketPrice" example:"2000000"`
	Shares      map[string]string `json:"shares"`
}

type TicketResponse struct {
	Round RoundResponse `json:"round"`
	Split SplitResponse `json:"split"`
}

type CreateRoundRequest struct {
	ID uint64 `json:"id" binding:"required" example:"1"`
}

func toAmountMap(pools domain.PoolState) map[string]string {
	out := make(map[string]string, domain.NumPools)
	for k, v := range pools.Map() {
		out[k] = strconv.FormatUint(v, 10)
	}
	return out
}

func toRoundResponse(round *domain.Round) RoundResponse {
	resp := RoundResponse{
		ID:          round.ID,
		TicketsSold: round.TicketsSold,
		Pools:       toAmountMap(round.Pools),
		CreatedAt:   round.CreatedAt,
		UpdatedAt:   round.UpdatedAt,
	}
	// Total stays empty if the pools no longer sum within uint64.
	if total, err := round.Pools.Total(); err == nil {
		resp.Total = strconv.FormatUint(total, 10)
	}
	return resp
}

func toSplitResponse(b *domain.AllocationBreakdown) SplitResponse {
	return SplitResponse{
		TicketPrice: strconv.FormatUint(b.TicketPrice, 10),
		Shares:      toAmountMap(b.Shares),
	}
}

func parseRoundID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid round id")
		return 0, false
	}
	return id, true
}

// @Summary Preview a ticket split
// @Description Split a ticket price into the eleven pools without touching any round.
// @Description Omit price to preview the configured ticket price.
// @Tags rounds
// @Produce json
// @Param price query string false "Ticket price in smallest token units" example("2000000")
// @Success 200 {object} SplitResponse
// @Failure 400 {object} httputil.Response "Invalid price"
// @Failure 422 {object} httputil.Response "Price cannot be split exactly"
// @Router /api/v1/rounds/split [get]
func (h *RoundHandler) getSplit(c *gin.Context) {
	var price uint64
	if raw := c.Query("price"); raw != "" {
		p, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || p == 0 {
			httputil.BadRequest(c, "invalid price: must be a positive integer")
			return
		}
		price = p
	}

	breakdown, err := h.rounds.Preview(price)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, toSplitResponse(breakdown))
}

// @Summary Get a round
// @Tags rounds
// @Produce json
// @Param id path int true "Round id"
// @Success 200 {object} RoundResponse
// @Failure 404 {object} httputil.Response "Round not found"
// @Router /api/v1/rounds/{id} [get]
func (h *RoundHandler) getRound(c *gin.Context) {
	id, ok := parseRoundID(c)
	if !ok {
		return
	}
	round, err := h.rounds.GetRound(c.Request.Context(), id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, toRoundResponse(round))
}

// @Summary Open a round
// @Tags rounds
// @Accept json
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Param request body CreateRoundRequest true "Round to open"
// @Success 201 {object} RoundResponse
// @Failure 409 {object} httputil.Response "Round already exists"
// @Router /api/v1/admin/rounds [post]
func (h *RoundHandler) createRound(c *gin.Context) {
	var req CreateRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	round, err := h.rounds.CreateRound(c.Request.Context(), req.ID)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Created(c, toRoundResponse(round))
}

// @Summary Record a ticket sale
// @Description Splits the configured ticket price into the round's pools. Either every pool
// @Description is credited or the round is left unchanged.
// @Tags rounds
// @Produce json
// @Param X-Admin-Token header string true "Admin token"
// @Param id path int true "Round id"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} httputil.Response "Round not found"
// @Failure 422 {object} httputil.Response "Overflow or distribution mismatch"
// @Router /api/v1/admin/rounds/{id}/tickets [post]
func (h *RoundHandler) buyTicket(c *gin.Context) {
	id, ok := parseRoundID(c)
	if !ok {
		return
	}
	receipt, err := h.rounds.BuyTicket(c.Request.Context(), id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, TicketResponse{
		Round: toRoundResponse(receipt.Round),
		Split: toSplitResponse(receipt.Breakdown),
	})
}
