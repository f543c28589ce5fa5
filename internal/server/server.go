package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskmarket/internal/model"
	"taskmarket/internal/notify"
	"taskmarket/internal/payment"
	"taskmarket/internal/repository"
	"taskmarket/internal/service"
)

// BidLifecycle is the slice of the bid service the HTTP layer drives.
type BidLifecycle interface {
	OpenForBidding(ctx context.Context, actorID, taskID uint, in service.OpenInput) (*model.Task, error)
	SubmitBid(ctx context.Context, bidderID, taskID uint, in service.BidInput) (*model.Bid, error)
	AcceptBid(ctx context.Context, actorID, taskID, bidID uint) (*model.Bid, error)
	RejectBid(ctx context.Context, actorID, taskID, bidID uint) (*model.Bid, error)
	InitiatePayment(ctx context.Context, actorID, taskID uint) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*model.Bid, error)
	BidsReceived(ctx context.Context, ownerID uint) ([]service.BidListing, error)
	BidsPlaced(ctx context.Context, bidderID uint) ([]service.BidListing, error)
}

// Server is the taskmarket HTTP server.
type Server struct {
	router   *gin.Engine
	bids     BidLifecycle
	tasks    *service.TaskService
	users    *repository.UserRepository
	messages *repository.MessageRepository
	registry *notify.Registry
}

// NewServer wires the routes. Identity comes from the auth collaborator in
// front of this service and is trusted as the X-User-ID header.
func NewServer(bids BidLifecycle, tasks *service.TaskService, users *repository.UserRepository, messages *repository.MessageRepository, registry *notify.Registry) *Server {
	router := gin.Default()

	s := &Server{
		router:   router,
		bids:     bids,
		tasks:    tasks,
		users:    users,
		messages: messages,
		registry: registry,
	}

	api := router.Group("/api")
	{
		api.POST("/users", s.handleCreateUser)
		// Processor callback carries no user identity.
		api.POST("/payments/confirm", s.handleConfirmPayment)

		authed := api.Group("", identity())
		{
			authed.POST("/users/telegram-link", s.handleLinkTelegram)

			authed.POST("/tasks", s.handleCreateTask)
			authed.GET("/tasks", s.handleListTasks)
			authed.GET("/tasks/:id", s.handleGetTask)
			authed.POST("/tasks/:id/open", s.handleOpenBidding)
			authed.POST("/tasks/:id/bids", s.handleSubmitBid)
			authed.POST("/tasks/:id/bids/:bidID/accept", s.handleAcceptBid)
			authed.POST("/tasks/:id/bids/:bidID/reject", s.handleRejectBid)
			authed.POST("/tasks/:id/payment", s.handleInitiatePayment)

			authed.GET("/bids/received", s.handleBidsReceived)
			authed.GET("/bids/placed", s.handleBidsPlaced)

			authed.GET("/messages", s.handleListMessages)
			authed.POST("/messages/:id/read", s.handleMarkRead)

			authed.GET("/events", s.handleEvents)
		}
	}

	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

const userKey = "userID"

// identity trusts the verified caller id supplied by the auth layer.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthenticated",
				"message": "missing or invalid X-User-ID",
			})
			return
		}
		c.Set(userKey, uint(id))
		c.Next()
	}
}

func currentUser(c *gin.Context) uint {
	return c.GetUint(userKey)
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
