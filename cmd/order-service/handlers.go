package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/tienda-ecom/internal/docs"
	"github.com/MikeMC777/tienda-ecom/internal/httpx"
	"github.com/MikeMC777/tienda-ecom/internal/order"
)

// orderService is what the HTTP layer needs from order.Service.
type orderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	CancelOrder(ctx context.Context, id int64) (*order.Order, error)
	GetOrder(ctx context.Context, id int64) (*order.Order, error)
	UserOrders(ctx context.Context, userID int64) ([]order.Order, error)
	AllOrders(ctx context.Context) ([]order.Order, error)
}

// StockErrorResponse is returned when a line cannot be covered by stock.
// swagger:model
type StockErrorResponse struct {
	Error       string `json:"error"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func newRouter(svc orderService, ping func(context.Context) error) *gin.Engine {
	r := httpx.New()

	r.GET("/healthz", healthHandler(ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.OrderInfo.InstanceName())))

	api := r.Group("/api/orders")
	api.POST("", createOrderHandler(svc))
	api.GET("", listOrdersHandler(svc))
	api.GET("/user/:userId", listOrdersByUserHandler(svc))
	api.GET("/:id", getOrderHandler(svc))
	api.POST("/:id/cancel", cancelOrderHandler(svc))
	return r
}

func healthHandler(ping func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				log.WithError(err).WithField("rid", httpx.RID(c)).Warn("health check failed")
				httpx.Error(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}

// createOrderHandler places an order.
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      order.PlaceOrderRequest  true  "order"
// @Success      201   {object}  order.OrderResponse
// @Failure      400   {object}  httpx.HTTPError
// @Failure      404   {object}  httpx.HTTPError
// @Failure      409   {object}  StockErrorResponse
// @Failure      500   {object}  httpx.HTTPError
// @Router       /api/orders [post]
func createOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}

		o, err := svc.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order.NewOrderResponse(o))
	}
}

// listOrdersHandler lists every order.
// @Summary      List all orders, newest first
// @Tags         orders
// @Produce      json
// @Success      200  {array}   order.OrderResponse
// @Failure      500  {object}  httpx.HTTPError
// @Router       /api/orders [get]
func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.AllOrders(c.Request.Context())
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewOrderResponses(orders))
	}
}

// listOrdersByUserHandler returns a user's order history.
// @Summary      Order history of a user, newest first
// @Tags         orders
// @Produce      json
// @Param        userId  path      int  true  "user id"
// @Success      200     {array}   order.OrderResponse
// @Failure      400     {object}  httpx.HTTPError
// @Router       /api/orders/user/{userId} [get]
func listOrdersByUserHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.ParamID(c, "userId")
		if !ok {
			httpx.Error(c, http.StatusBadRequest, "invalid user id")
			return
		}
		orders, err := svc.UserOrders(c.Request.Context(), userID)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewOrderResponses(orders))
	}
}

// getOrderHandler returns one order.
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "order id"
// @Success      200  {object}  order.OrderResponse
// @Failure      404  {object}  httpx.HTTPError
// @Router       /api/orders/{id} [get]
func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			httpx.Error(c, http.StatusBadRequest, "invalid id")
			return
		}
		o, err := svc.GetOrder(c.Request.Context(), id)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewOrderResponse(o))
	}
}

// cancelOrderHandler cancels a pending order.
// @Summary      Cancel a pending order and restock its items
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "order id"
// @Success      200  {object}  order.OrderResponse
// @Failure      404  {object}  httpx.HTTPError
// @Failure      409  {object}  httpx.HTTPError
// @Router       /api/orders/{id}/cancel [post]
func cancelOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			httpx.Error(c, http.StatusBadRequest, "invalid id")
			return
		}
		o, err := svc.CancelOrder(c.Request.Context(), id)
		if err != nil {
			writeOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.NewOrderResponse(o))
	}
}

func writeOrderError(c *gin.Context, err error) {
	var stockErr *order.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.AbortWithStatusJSON(http.StatusConflict, StockErrorResponse{
			Error:       "insufficient stock",
			ProductID:   stockErr.ProductID,
			ProductName: stockErr.ProductName,
			Available:   stockErr.Available,
			Requested:   stockErr.Requested,
		})
	case errors.Is(err, order.ErrInvalidRequest):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrUserNotFound),
		errors.Is(err, order.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrConcurrencyConflict):
		c.Header("Retry-After", "1")
		httpx.Error(c, http.StatusConflict, order.ErrConcurrencyConflict.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		httpx.Error(c, http.StatusConflict, err.Error())
	default:
		log.WithError(err).WithField("rid", httpx.RID(c)).Error("order request failed")
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}
