// Package docs holds the Swagger specs of the HTTP services in the form
// swaggo/swag generates them. Regenerate with:
//
//	swag init -g cmd/order-service/handlers.go --instanceName order -o internal/docs
//	swag init -g cmd/product-service/handlers.go --instanceName product -o internal/docs
package docs

import "github.com/swaggo/swag"

const orderTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List all orders, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.OrderResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Place an order",
                "parameters": [
                    {"description": "order", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/order.PlaceOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/order.OrderResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.HTTPError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/main.StockErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}
                }
            }
        },
        "/api/orders/user/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Order history of a user, newest first",
                "parameters": [
                    {"type": "integer", "description": "user id", "name": "userId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/order.OrderResponse"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}
                }
            }
        },
        "/api/orders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get an order",
                "parameters": [
                    {"type": "integer", "description": "order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.OrderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}
                }
            }
        },
        "/api/orders/{id}/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Cancel a pending order and restock its items",
                "parameters": [
                    {"type": "integer", "description": "order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/order.OrderResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.HTTPError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpx.HTTPError"}}
                }
            }
        }
    },
    "definitions": {
        "httpx.HTTPError": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "not found"}}
        },
        "main.StockErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "productId": {"type": "integer"},
                "productName": {"type": "string"},
                "available": {"type": "integer"},
                "requested": {"type": "integer"}
            }
        },
        "order.OrderLine": {
            "type": "object",
            "properties": {
                "productId": {"type": "integer", "example": 12},
                "quantity": {"type": "integer", "example": 2}
            }
        },
        "order.PlaceOrderRequest": {
            "type": "object",
            "properties": {
                "userId": {"type": "integer", "example": 7},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.OrderLine"}}
            }
        },
        "order.ItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "productId": {"type": "integer"},
                "quantity": {"type": "integer"},
                "unitPrice": {"type": "string", "example": "19.99"},
                "subtotal": {"type": "string", "example": "39.98"}
            }
        },
        "order.OrderResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "userId": {"type": "integer"},
                "status": {"type": "string", "example": "PENDING"},
                "orderDate": {"type": "string"},
                "totalAmount": {"type": "string", "example": "39.98"},
                "currency": {"type": "string", "example": "USD"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/order.ItemResponse"}}
            }
        }
    }
}`

// OrderInfo holds exported Swagger Info so clients can modify it
var OrderInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Order Service API",
	Description:      "Order placement and order history.",
	InfoInstanceName: "order",
	SwaggerTemplate:  orderTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(OrderInfo.InstanceName(), OrderInfo)
}
