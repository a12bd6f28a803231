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
	"github.com/MikeMC777/tienda-ecom/internal/product"
)

func newRouter(repo product.Repository, ping func(context.Context) error) *gin.Engine {
	r := httpx.New()

	r.GET("/healthz", func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				httpx.Error(c, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.ProductInfo.InstanceName())))

	r.GET("/products", listHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.POST("/products", createProductHandler(repo))
	r.PUT("/products/:id", updateProductHandler(repo))
	r.DELETE("/products/:id", deleteProductHandler(repo))
	return r
}

// listHandler paginates the catalog.
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        limit   query     int  false  "page size (max 100)"  default(20)
// @Param        offset  query     int  false  "offset"               default(0)
// @Success      200     {object}  product.ListResponse
// @Router       /products [get]
func listHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Limit:  httpx.QueryInt(c, "limit", 20),
			Offset: httpx.QueryInt(c, "offset", 0),
		}
		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, product.ListResponse{Limit: q.Limit, Offset: q.Offset, Items: items})
	}
}

// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "product id"
// @Success      200  {object}  product.Product
// @Failure      404  {object}  httpx.HTTPError
// @Router       /products/{id} [get]
func getProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		p, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			writeProductError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      product.CreateProductRequest  true  "product"
// @Success      201   {object}  product.Product
// @Failure      400   {object}  httpx.HTTPError
// @Router       /products [post]
func createProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req product.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := req.ToProduct()
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			writeProductError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary      Partially update a product
// @Description  Absent fields are left unchanged. Placed orders keep their unit price.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      int                           true  "product id"
// @Param        body  body      product.UpdateProductRequest  true  "fields to change"
// @Success      200   {object}  product.Product
// @Failure      400   {object}  httpx.HTTPError
// @Failure      404   {object}  httpx.HTTPError
// @Router       /products/{id} [put]
func updateProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		var req product.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := repo.Update(c.Request.Context(), id, req.Apply)
		if err != nil {
			writeProductError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Delete a product
// @Tags         products
// @Param        id   path  int  true  "product id"
// @Success      204
// @Failure      404  {object}  httpx.HTTPError
// @Failure      409  {object}  httpx.HTTPError
// @Router       /products/{id} [delete]
func deleteProductHandler(repo product.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		deleted, err := repo.Delete(c.Request.Context(), id)
		if err != nil {
			writeProductError(c, err)
			return
		}
		if !deleted {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrInvalid):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		httpx.Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, product.ErrInUse):
		httpx.Error(c, http.StatusConflict, err.Error())
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	log.WithError(err).WithField("rid", httpx.RID(c)).Error("product request failed")
	httpx.Error(c, http.StatusInternalServerError, "internal error")
}
