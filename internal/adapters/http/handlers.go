package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type handlers struct {
	orch  *orch.Orchestrator
	users core.UserStore
}

func idParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// POST /api/users
func (h *handlers) createUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	u, err := domain.NewUser(req.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.users.CreateUser(c.Request.Context(), u); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// GET /api/users/:id
func (h *handlers) getUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	u, err := h.users.FindUser(c.Request.Context(), domain.UserID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// POST /api/cars
func (h *handlers) createCar(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	car, err := h.orch.Seats.CreateCar(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, car)
}

// GET /api/cars
func (h *handlers) listCars(c *gin.Context) {
	cars, err := h.orch.Seats.ListCars(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	c.JSON(http.StatusOK, gin.H{"cars": cars})
}

// GET /api/cars/:id/seats
func (h *handlers) listSeats(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	seats, err := h.orch.Seats.ListSeats(c.Request.Context(), domain.CarID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	if seats == nil {
		seats = []domain.Seat{}
	}
	c.JSON(http.StatusOK, gin.H{"seats": seats})
}

// POST /api/cars/:id/seats
func (h *handlers) createSeat(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Number uint32 `json:"number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	seat, err := h.orch.Seats.CreateSeat(c.Request.Context(), domain.CarID(id), req.Number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seat)
}

// POST /api/seats/:id/claim
func (h *handlers) claimSeat(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	uid, _ := currentUser(c)
	seat, err := h.orch.ClaimSeat(c.Request.Context(), uid, domain.SeatID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// POST /api/seats/:id/release
func (h *handlers) releaseSeat(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	seat, err := h.orch.ReleaseSeat(c.Request.Context(), domain.SeatID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// POST /api/calls
func (h *handlers) initiateCall(c *gin.Context) {
	var req struct {
		ReceiverID domain.UserID `json:"receiverId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ReceiverID == 0 {
		badRequest(c, "receiverId required")
		return
	}
	uid, _ := currentUser(c)
	call, err := h.orch.Calls.Initiate(c.Request.Context(), uid, req.ReceiverID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

// GET /api/calls
func (h *handlers) listCalls(c *gin.Context) {
	uid, _ := currentUser(c)
	calls, err := h.orch.Calls.List(c.Request.Context(), uid, limitQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if calls == nil {
		calls = []domain.Call{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// GET /api/calls/:id
func (h *handlers) getCall(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	call, err := h.orch.Calls.Get(c.Request.Context(), domain.CallID(id))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// PATCH /api/calls/:id
func (h *handlers) updateCall(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req struct {
		Status domain.CallStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body")
		return
	}
	call, err := h.orch.Calls.Transition(c.Request.Context(), domain.CallID(id), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// GET /api/messages
func (h *handlers) listMessages(c *gin.Context) {
	msgs, err := h.orch.Messages.History(c.Request.Context(), limitQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
