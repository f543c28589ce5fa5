package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taskmarket/internal/model"
	"taskmarket/internal/notify"
	"taskmarket/internal/service"
)

type createUserReq struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user := model.User{Username: req.Username, DisplayName: req.DisplayName}
	if err := s.users.Create(c.Request.Context(), &user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type linkTelegramReq struct {
	ChatID int64 `json:"chatId" binding:"required"`
}

func (s *Server) handleLinkTelegram(c *gin.Context) {
	var req linkTelegramReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.users.LinkTelegram(c.Request.Context(), currentUser(c), req.ChatID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createTaskReq struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	Budget          *string    `json:"budget"`
	BiddingDeadline *time.Time `json:"biddingDeadline"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	budget, err := parseAmount(req.Budget)
	if err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.tasks.CreateTask(c.Request.Context(), currentUser(c), service.TaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Budget:          budget,
		BiddingDeadline: req.BiddingDeadline,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.tasks.ListByOwner(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := s.tasks.GetTask(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type openBiddingReq struct {
	Deadline *time.Time `json:"deadline"`
	Budget   *string    `json:"budget"`
}

func (s *Server) handleOpenBidding(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	// Both fields are optional; an empty body opens with no deadline or budget.
	var req openBiddingReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	budget, err := parseAmount(req.Budget)
	if err != nil {
		badRequest(c, err)
		return
	}
	task, err := s.bids.OpenForBidding(c.Request.Context(), currentUser(c), taskID, service.OpenInput{
		Deadline: req.Deadline,
		Budget:   budget,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type submitBidReq struct {
	Amount        string `json:"amount" binding:"required"`
	Proposal      string `json:"proposal"`
	EstimatedTime string `json:"estimatedTime"`
}

func (s *Server) handleSubmitBid(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req submitBidReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid amount: %w", err))
		return
	}
	bid, err := s.bids.SubmitBid(c.Request.Context(), currentUser(c), taskID, service.BidInput{
		Amount:        amount,
		Proposal:      req.Proposal,
		EstimatedTime: req.EstimatedTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

func (s *Server) handleAcceptBid(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bidID, ok := pathID(c, "bidID")
	if !ok {
		return
	}
	bid, err := s.bids.AcceptBid(c.Request.Context(), currentUser(c), taskID, bidID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (s *Server) handleRejectBid(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bidID, ok := pathID(c, "bidID")
	if !ok {
		return
	}
	bid, err := s.bids.RejectBid(c.Request.Context(), currentUser(c), taskID, bidID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (s *Server) handleInitiatePayment(c *gin.Context) {
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	intent, err := s.bids.InitiatePayment(c.Request.Context(), currentUser(c), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"intentId":     intent.ID,
		"clientSecret": intent.ClientSecret,
	})
}

type confirmPaymentReq struct {
	IntentID string `json:"intentId" binding:"required"`
}

func (s *Server) handleConfirmPayment(c *gin.Context) {
	var req confirmPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bid, err := s.bids.ConfirmPayment(c.Request.Context(), req.IntentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (s *Server) handleBidsReceived(c *gin.Context) {
	listings, err := s.bids.BidsReceived(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidViews(listings))
}

func (s *Server) handleBidsPlaced(c *gin.Context) {
	listings, err := s.bids.BidsPlaced(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidViews(listings))
}

type bidView struct {
	Bid             model.Bid `json:"bid"`
	TaskTitle       string    `json:"taskTitle"`
	CounterpartID   uint      `json:"counterpartId"`
	CounterpartName string    `json:"counterpartName"`
}

func toBidViews(listings []service.BidListing) []bidView {
	views := make([]bidView, 0, len(listings))
	for _, l := range listings {
		views = append(views, bidView{
			Bid:             l.Bid,
			TaskTitle:       l.TaskTitle,
			CounterpartID:   l.CounterpartID,
			CounterpartName: l.CounterpartName,
		})
	}
	return views
}

func (s *Server) handleListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)
	msgs, err := s.messages.ListForReceiver(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	unread, err := s.messages.UnreadCount(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "unread": unread})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	msgID, ok := pathID(c, "id")
	if !ok {
		return
	}
	marked, err := s.messages.MarkRead(c.Request.Context(), currentUser(c), msgID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !marked {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "message not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleEvents serves the live push channel as a server-sent event stream.
// The handle lives exactly as long as the request: client disconnect tears it
// down and unregisters it.
func (s *Server) handleEvents(c *gin.Context) {
	userID := currentUser(c)
	handle := notify.NewStreamHandle(16)
	key := s.registry.Register(userID, handle)
	defer func() {
		s.registry.Unregister(userID, key)
		handle.Close()
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-handle.Done():
			return
		case ev := <-handle.Events():
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
			c.Writer.Flush()
		}
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
}

// writeError maps service rejections onto HTTP statuses: forbidden 403,
// invalid_state 409, not_found 404, dependency failures 502.
func writeError(c *gin.Context, err error) {
	if rej, ok := service.AsRejection(err); ok {
		status := http.StatusInternalServerError
		switch rej.Code {
		case service.CodeForbidden:
			status = http.StatusForbidden
		case service.CodeInvalidState:
			status = http.StatusConflict
		case service.CodeNotFound:
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"code": rej.Code, "message": rej.Message})
		return
	}
	if errors.Is(err, service.ErrDependency) {
		c.JSON(http.StatusBadGateway, gin.H{"code": "dependency_failure", "message": "temporarily unavailable, retry later"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": "internal error"})
}

func parseAmount(raw *string) (*decimal.Decimal, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	return &d, nil
}
