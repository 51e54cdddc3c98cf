// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.livenessResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/map/route": {
            "get": {
                "produces": ["application/json"],
                "tags": ["map"],
                "summary": "Driving route between two points",
                "parameters": [
                    {"type": "number", "description": "Origin latitude", "name": "from_lat", "in": "query", "required": true},
                    {"type": "number", "description": "Origin longitude", "name": "from_lng", "in": "query", "required": true},
                    {"type": "number", "description": "Destination latitude", "name": "to_lat", "in": "query", "required": true},
                    {"type": "number", "description": "Destination longitude", "name": "to_lng", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RouteQuote"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/tracking/location": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Publish a driver position",
                "parameters": [
                    {"description": "Position sample", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.locationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ingestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/tracking/delivery/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Latest position and trail of a delivery",
                "parameters": [
                    {"type": "string", "description": "Delivery id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.DeliveryTracking"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tracking"],
                "summary": "Drop a completed delivery's tracking state",
                "parameters": [
                    {"type": "string", "description": "Delivery id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/tracking/delivery/{id}/eta": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Remaining route and ETA of a delivery",
                "parameters": [
                    {"type": "string", "description": "Delivery id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/tracking/order/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tracking"],
                "summary": "Latest position of the delivery serving an order",
                "parameters": [
                    {"type": "string", "description": "Order id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.orderTrackingResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["realtime"],
                "summary": "Realtime tracking channel (websocket)",
                "parameters": [
                    {"type": "string", "description": "Optional token. Only authenticated callers may publish driver_location when publisher authorization is enabled", "name": "access_token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.RouteQuote": {
            "type": "object",
            "properties": {
                "distance_km": {"type": "number"},
                "eta_minutes": {"type": "integer"},
                "polyline": {"type": "array", "items": {"type": "array", "items": {"type": "number"}}}
            }
        },
        "domain.TrackingState": {
            "type": "object",
            "properties": {
                "delivery_id": {"type": "string"},
                "order_id": {"type": "string"},
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "heading": {"type": "number"},
                "speed": {"type": "number"},
                "status": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.HistoryPoint": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lng": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "ports.DeliveryTracking": {
            "type": "object",
            "properties": {
                "tracking": {"$ref": "#/definitions/domain.TrackingState"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/domain.HistoryPoint"}}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handler.ingestResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "tracking": {"$ref": "#/definitions/domain.TrackingState"}
            }
        },
        "handler.livenessResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "service": {"type": "string"},
                "realtime": {"type": "boolean"}
            }
        },
        "handler.locationRequest": {
            "type": "object",
            "properties": {
                "delivery_id": {"type": "string", "example": "D1"},
                "order_id": {"type": "string", "example": "42"},
                "lat": {"type": "number", "example": 12.97},
                "lng": {"type": "number", "example": 77.59},
                "heading": {"type": "number", "example": 90},
                "speed": {"type": "number", "example": 8.5},
                "status": {"type": "string", "example": "on_the_way"}
            }
        },
        "handler.orderTrackingResponse": {
            "type": "object",
            "properties": {
                "tracking": {"$ref": "#/definitions/domain.TrackingState"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Delivery Service API",
	Description:      "Live delivery tracking, realtime fan-out and route brokering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
