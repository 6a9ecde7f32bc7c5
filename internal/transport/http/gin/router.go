package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skyfare/skyfare/internal/domain"
	redisrepo "github.com/skyfare/skyfare/internal/repository/redis"
	"github.com/skyfare/skyfare/internal/service"
	"github.com/skyfare/skyfare/internal/service/booking"
	"github.com/skyfare/skyfare/internal/service/flights"
	"github.com/skyfare/skyfare/internal/service/ledger"
	"github.com/skyfare/skyfare/internal/service/query"
)

// Business result codes carried in every error envelope alongside the
// HTTP status. Clients switch on these, not on message text.
const (
	codeBadRequest     = 40000
	codeUnauthorized   = 40100
	codeForbidden      = 40300
	codeNotFound       = 40400
	codeConflict       = 40900
	codeHoldExpired    = 40901
	codePNRUsed        = 40902
	codeStateConflict  = 40903
	codeNotEnoughSeats = 40904
	codeCannotSplit    = 40905
	codePassengerAge   = 42200
	codeCountMismatch  = 42201
	codeBadItinerary   = 42202
	codeNoFunds        = 40220
	codeNoRate         = 42404
	codeRateLimited    = 42900
	codeInternal       = 50000
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		LoggingMiddleware(logger),
		RequestIDMiddleware(),
		CORS(),
		AgentMiddleware(svcs.Ledger),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/flights", handleListFlights(svcs))
	r.GET("/flights/:id", handleGetFlight(svcs))
	r.GET("/flights/:id/classes", handleListClasses(svcs))
	r.GET("/classes/:id/availability", handleGetAvailability(svcs))
	r.GET("/rates", handleListRates(svcs))
	r.GET("/itinerary/:pnr", handleItineraryLookup(svcs))

	// Agent API
	r.POST("/preorders", handleCreatePreOrder(svcs, idem))
	r.GET("/preorders", handleListPreOrders(svcs))
	r.DELETE("/preorders/:pnr", handleCancelPreOrder(svcs))
	r.POST("/preorders/:pnr/confirm", handleConfirmOrder(svcs))

	r.GET("/orders", handleListOrders(svcs))
	r.GET("/orders/:pnr", handleGetOrder(svcs))
	r.POST("/orders/:pnr/cancel", handleCancelOrder(svcs))
	r.POST("/orders/:pnr/promote", handlePromoteOrder(svcs))
	r.PATCH("/orders/:pnr", handleEditOrder(svcs))

	r.GET("/balance", handleGetBalance(svcs))
	r.GET("/balance/history", handleBalanceHistory(svcs))

	// Admin API
	adm := r.Group("/admin")
	{
		adm.POST("/flights", handleCreateFlight(svcs))
		adm.PUT("/flights/:id", handleEditFlight(svcs))
		adm.DELETE("/flights/:id", handleRemoveFlight(svcs))

		adm.POST("/flights/:id/classes", handleCreateClass(svcs))
		adm.PUT("/classes/:id", handleEditClass(svcs))
		adm.DELETE("/classes/:id", handleRemoveClass(svcs))

		adm.POST("/orders/:pnr/refund", handleRefundOrder(svcs))
		adm.POST("/orders/:pnr/split", handleSplitOrder(svcs))

		adm.PUT("/rates", handleUpsertRate(svcs))

		adm.PUT("/agents/:id/credit-limit", handleSetCreditLimit(svcs))
		adm.POST("/agents/:id/balance", handleIncreaseBalance(svcs))
		adm.GET("/agents/:id/history", handleAgentHistory(svcs))
	}

	return r
}

// --- Public handlers ---

func handleListFlights(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := time.Now()
		if s := c.Query("from"); s != "" {
			t, err := parseDate(s)
			if err != nil {
				badRequest(c, "invalid from (YYYY-MM-DD)")
				return
			}
			from = t
		}
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		list, err := svcs.Query.Flights(
			c.Request.Context(),
			c.Query("origin"),
			c.Query("destination"),
			from,
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, list, "public, max-age=15", true)
	}
}

func handleGetFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		f, err := svcs.Query.Flight(c.Request.Context(), flightID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, f, "public, max-age=60", true)
	}
}

func handleListClasses(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		includeAdminOnly := false
		if v, exists := c.Get(agentCtxKey); exists {
			if agent, ok := v.(*domain.Agent); ok && agent.IsAdmin() {
				includeAdminOnly = true
			}
		}

		classes, err := svcs.Query.Classes(c.Request.Context(), flightID, includeAdminOnly)
		if err != nil {
			respondErr(c, err)
			return
		}
		if includeAdminOnly {
			c.JSON(http.StatusOK, classes)
			return
		}
		writeJSONWithCache(c, http.StatusOK, classes, "public, max-age=30", true)
	}
}

func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		classID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		n, err := svcs.Query.Availability(c.Request.Context(), classID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(
			c,
			http.StatusOK,
			AvailabilityResponse{ClassID: classID, Available: n},
			"public, max-age=15",
			true,
		)
	}
}

func handleListRates(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := time.Now().UTC().Truncate(24 * time.Hour)
		to := from
		if s := c.Query("from"); s != "" {
			t, err := parseDate(s)
			if err != nil {
				badRequest(c, "invalid from (YYYY-MM-DD)")
				return
			}
			from = t
		}
		if s := c.Query("to"); s != "" {
			t, err := parseDate(s)
			if err != nil {
				badRequest(c, "invalid to (YYYY-MM-DD)")
				return
			}
			to = t
		}

		rates, err := svcs.Query.RatesByRange(c.Request.Context(), from, to)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, rates, "public, max-age=60", true)
	}
}

func handleItineraryLookup(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		surname := strings.TrimSpace(c.Query("surname"))
		if surname == "" {
			badRequest(c, "surname query parameter required")
			return
		}
		o, err := svcs.Query.OrderByPNRAndSurname(c.Request.Context(), c.Param("pnr"), surname)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// --- Agent handlers ---

func handleCreatePreOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}

		var req CreatePreOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPreOrder(agent.ID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{
					Code:    codeConflict,
					Status:  "error",
					Message: "idempotency key in progress",
				})
				return
			}
		}

		legs := make([]booking.LegInput, 0, len(req.Legs))
		for _, l := range req.Legs {
			legs = append(legs, booking.LegInput{FlightID: l.FlightID, ClassID: l.ClassID})
		}

		rlKey := "agent:" + strconv.FormatInt(agent.ID, 10)

		po, err := svcs.Booking.PreOrder(c.Request.Context(), booking.PreOrderInput{
			AgentID:    agent.ID,
			TravelType: domain.TravelType(req.TravelType),
			Adults:     req.Adults,
			Children:   req.Children,
			Infants:    req.Infants,
			Legs:       legs,
		}, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(po)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, po)
	}
}

func handleListPreOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		list, err := svcs.Query.PreOrders(c.Request.Context(), agent)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func handleCancelPreOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		if err := svcs.Booking.CancelPreOrder(c.Request.Context(), agent, c.Param("pnr")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleConfirmOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}

		var req ConfirmOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		passengers := make([]booking.PassengerInput, 0, len(req.Passengers))
		for _, p := range req.Passengers {
			in, err := p.toInput()
			if err != nil {
				badRequest(c, "invalid date_of_birth (YYYY-MM-DD)")
				return
			}
			passengers = append(passengers, in)
		}

		order, err := svcs.Booking.Confirm(c.Request.Context(), agent, booking.ConfirmInput{
			PNR:         c.Param("pnr"),
			Passengers:  passengers,
			Contact:     req.Contact.toDomain(),
			PayNow:      req.PayNow,
			PaymentType: req.PaymentType,
			Comment:     req.Comment,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

func handleListOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)
		status := domain.TicketStatus(c.Query("status"))

		orders, err := svcs.Query.Orders(c.Request.Context(), agent, status, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		o, err := svcs.Query.OrderByPNR(c.Request.Context(), agent, c.Param("pnr"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func handleCancelOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		if err := svcs.Booking.CancelOrder(c.Request.Context(), agent, c.Param("pnr")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handlePromoteOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}

		var req PromoteOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Booking.BookingToTicketing(
			c.Request.Context(),
			agent,
			c.Param("pnr"),
			req.PaymentType,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleEditOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}

		var req EditOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		in := booking.EditInput{Comment: req.Comment}
		if req.Contact != nil {
			contact := req.Contact.toDomain()
			in.Contact = &contact
		}
		for _, p := range req.Passengers {
			in.Passengers = append(in.Passengers, booking.PassengerEdit{
				TicketNumber:   p.TicketNumber,
				FirstName:      p.FirstName,
				LastName:       p.LastName,
				Gender:         p.Gender,
				DocumentNumber: p.DocumentNumber,
			})
		}

		o, err := svcs.Booking.EditOrder(c.Request.Context(), agent, c.Param("pnr"), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

func handleGetBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"balance":         agent.Balance,
			"credit":          agent.Credit,
			"credit_limit":    agent.CreditLimit,
			"available_funds": agent.AvailableFunds(),
		})
	}
}

func handleBalanceHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := currentAgent(c)
		if !ok {
			return
		}
		from, to, ok := parseRangeQuery(c)
		if !ok {
			return
		}
		entries, err := svcs.Ledger.History(c.Request.Context(), agent.ID, from, to)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// --- Admin handlers ---

func handleCreateFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req FlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		f, ok := flightFromRequest(c, req)
		if !ok {
			return
		}

		id, err := svcs.Flights.CreateFlight(c.Request.Context(), agent, f)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateFlightResponse{FlightID: id})
	}
}

func handleEditFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req FlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		f, ok := flightFromRequest(c, req)
		if !ok {
			return
		}
		f.ID = flightID

		if err := svcs.Flights.EditFlight(c.Request.Context(), agent, f); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleRemoveFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Flights.RemoveFlight(c.Request.Context(), agent, flightID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleCreateClass(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}
		flightID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req ClassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		cls := classFromRequest(req)
		cls.FlightID = flightID

		id, err := svcs.Flights.CreateClass(c.Request.Context(), agent, cls)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateClassResponse{ClassID: id})
	}
}

func handleEditClass(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}
		classID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req ClassRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		cls := classFromRequest(req)
		cls.ID = classID

		if err := svcs.Flights.EditClass(c.Request.Context(), agent, cls); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleRemoveClass(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}
		classID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Flights.RemoveClass(c.Request.Context(), agent, classID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleRefundOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req RefundOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Booking.Refund(
			c.Request.Context(),
			agent,
			c.Param("pnr"),
			req.ReplacementClassIDs,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSplitOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req SplitOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		splitPNR, mainPNR, err := svcs.Booking.Split(
			c.Request.Context(),
			agent,
			c.Param("pnr"),
			req.TicketNumber,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, SplitOrderResponse{SplitPNR: splitPNR, MainPNR: mainPNR})
	}
}

func handleUpsertRate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, ok := requireAdmin(c)
		if !ok {
			return
		}

		var req UpsertRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		day, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, "invalid date (YYYY-MM-DD)")
			return
		}

		if err := svcs.Query.UpsertRate(
			c.Request.Context(),
			agent,
			day,
			strings.ToUpper(req.Currency),
			req.Rate,
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSetCreditLimit(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		agentID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req SetCreditLimitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Ledger.SetCreditLimit(c.Request.Context(), agentID, req.Limit); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleIncreaseBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		agentID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}

		var req IncreaseBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Ledger.Increase(
			c.Request.Context(),
			nil,
			agentID,
			req.Amount,
			ledger.Entry{PaymentType: "deposit", Description: req.Description},
		); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleAgentHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireAdmin(c); !ok {
			return
		}
		agentID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		from, to, ok := parseRangeQuery(c)
		if !ok {
			return
		}
		entries, err := svcs.Ledger.History(c.Request.Context(), agentID, from, to)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// --- Helpers ---

func flightFromRequest(c *gin.Context, req FlightRequest) (*domain.Flight, bool) {
	starts, err := parseRFC3339(req.StartsAt)
	if err != nil {
		badRequest(c, "invalid starts_at (RFC3339)")
		return nil, false
	}
	ends, err := parseRFC3339(req.EndsAt)
	if err != nil {
		badRequest(c, "invalid ends_at (RFC3339)")
		return nil, false
	}
	if !ends.After(starts) {
		badRequest(c, "ends_at must be after starts_at")
		return nil, false
	}
	return &domain.Flight{
		Origin:      strings.ToUpper(req.Origin),
		Destination: strings.ToUpper(req.Destination),
		StartsAt:    starts,
		EndsAt:      ends,
		Airline:     req.Airline,
		AirlineCode: strings.ToUpper(req.AirlineCode),
		Seats:       req.Seats,
		Currency:    strings.ToUpper(req.Currency),
		Status:      domain.FlightUpcoming,
	}, true
}

func classFromRequest(req ClassRequest) *domain.Class {
	return &domain.Class{
		Name:           req.Name,
		TravelType:     domain.TravelType(req.TravelType),
		AdminOnly:      req.AdminOnly,
		Seats:          req.Seats,
		FareAdult:      req.FareAdult,
		FareChild:      req.FareChild,
		FareInfant:     req.FareInfant,
		TaxAdult:       req.TaxAdult,
		TaxChild:       req.TaxChild,
		CatFee:         req.CatFee,
		SurchargeShort: req.SurchargeShort,
		SurchargeLong:  req.SurchargeLong,
		SurchargeMulti: req.SurchargeMulti,
		CommAdult:      req.CommAdult,
		CommChild:      req.CommChild,
		FareRules:      req.FareRules,
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseRangeQuery(c *gin.Context) (from, to time.Time, ok bool) {
	to = time.Now()
	from = to.AddDate(0, -1, 0)
	if s := c.Query("from"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			badRequest(c, "invalid from (YYYY-MM-DD)")
			return from, to, false
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			badRequest(c, "invalid to (YYYY-MM-DD)")
			return from, to, false
		}
		// inclusive day bound
		to = t.AddDate(0, 0, 1)
	}
	return from, to, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    codeBadRequest,
		Status:  "error",
		Message: msg,
	})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	write := func(httpStatus, code int, msg string) {
		c.JSON(httpStatus, ErrorResponse{Code: code, Status: "error", Message: msg})
	}

	switch {
	// not found
	case errors.Is(err, booking.ErrPreOrderNotFound),
		errors.Is(err, query.ErrPreOrderNotFound):
		write(http.StatusNotFound, codeNotFound, "pre-order not found")
	case errors.Is(err, booking.ErrOrderNotFound),
		errors.Is(err, query.ErrOrderNotFound):
		write(http.StatusNotFound, codeNotFound, "order not found")
	case errors.Is(err, booking.ErrFlightNotFound),
		errors.Is(err, flights.ErrFlightNotFound),
		errors.Is(err, query.ErrFlightNotFound):
		write(http.StatusNotFound, codeNotFound, "flight not found")
	case errors.Is(err, booking.ErrClassNotFound),
		errors.Is(err, flights.ErrClassNotFound),
		errors.Is(err, query.ErrClassNotFound):
		write(http.StatusNotFound, codeNotFound, "class not found")
	case errors.Is(err, booking.ErrAgentNotFound),
		errors.Is(err, ledger.ErrAgentNotFound):
		write(http.StatusNotFound, codeNotFound, "agent not found")
	case errors.Is(err, booking.ErrPassengerNotFound):
		write(http.StatusNotFound, codeNotFound, "passenger not found")

	// authz
	case errors.Is(err, booking.ErrForbidden),
		errors.Is(err, query.ErrForbidden),
		errors.Is(err, flights.ErrAdminOnly):
		write(http.StatusForbidden, codeForbidden, "operation not allowed")
	case errors.Is(err, booking.ErrAgentNotApproved):
		write(http.StatusForbidden, codeForbidden, "agent is not approved")

	// booking conflicts
	case errors.Is(err, booking.ErrHoldExpired):
		write(http.StatusConflict, codeHoldExpired, "seat hold expired")
	case errors.Is(err, booking.ErrPNRUsed):
		write(http.StatusConflict, codePNRUsed, "pnr already confirmed")
	case errors.Is(err, booking.ErrStateConflict):
		write(http.StatusConflict, codeStateConflict, "order state does not allow this transition")
	case errors.Is(err, booking.ErrNotEnoughSeats),
		errors.Is(err, flights.ErrSeatsBelowInUse):
		write(http.StatusConflict, codeNotEnoughSeats, "not enough seats")
	case errors.Is(err, booking.ErrCannotSplit):
		write(http.StatusConflict, codeCannotSplit, "order cannot be split")
	case errors.Is(err, booking.ErrClassMismatch):
		write(http.StatusConflict, codeConflict, "class does not belong to the flight")
	case errors.Is(err, booking.ErrCommissionExceedsTotal):
		write(http.StatusConflict, codeConflict, "commission exceeds the refundable total")
	case errors.Is(err, flights.ErrClassNameTaken):
		write(http.StatusConflict, codeConflict, "class name already used on this flight")
	case errors.Is(err, flights.ErrCapacityExceeded):
		write(http.StatusConflict, codeConflict, "class seats exceed flight capacity")
	case errors.Is(err, ledger.ErrCreditLimitTooLow):
		write(http.StatusConflict, codeConflict, "credit limit below drawn credit")

	// validation
	case errors.Is(err, booking.ErrInvalidItinerary),
		errors.Is(err, booking.ErrInvalidTravelType),
		errors.Is(err, flights.ErrInvalidTravelType):
		write(http.StatusUnprocessableEntity, codeBadItinerary, "invalid itinerary")
	case errors.Is(err, booking.ErrTooManyPassengers):
		write(http.StatusUnprocessableEntity, codeBadItinerary, "too many passengers")
	case errors.Is(err, booking.ErrPassengerCountMismatch):
		write(http.StatusUnprocessableEntity, codeCountMismatch, "passenger counts do not match the pre-order")
	case errors.Is(err, booking.ErrPassengerAge):
		write(http.StatusUnprocessableEntity, codePassengerAge, "passenger age does not fit its type")
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		write(http.StatusUnprocessableEntity, codeBadRequest, "amount must be positive")

	// money
	case errors.Is(err, booking.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientFunds):
		write(http.StatusPaymentRequired, codeNoFunds, "insufficient funds")
	case errors.Is(err, booking.ErrRateUnavailable),
		errors.Is(err, query.ErrRateUnavailable):
		write(http.StatusUnprocessableEntity, codeNoRate, "exchange rate unavailable")

	// throttling
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		write(http.StatusTooManyRequests, codeRateLimited, "rate limited")

	default:
		write(http.StatusInternalServerError, codeInternal, "internal error")
	}
}
