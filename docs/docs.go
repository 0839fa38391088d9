// Package docs holds the generated OpenAPI document. Regenerate with
// `swag init -g cmd/shelfwatchd/docs.go -o docs` after changing annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "shelfwatchd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Readiness probe: 200 once the model session pool is initialized",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.HealthResponse"}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/types.HealthResponse"}
                    }
                }
            }
        },
        "/predict": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "summary": "Detect products in a shelf photo",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Shelf photo (JPEG, PNG or WebP)",
                        "name": "image",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Confidence threshold override (0.01-1.0)",
                        "name": "confidence",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.PredictResponse"}
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {"$ref": "#/definitions/types.ErrorResponse"}
                    }
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Service snapshot: pool occupancy, totals, uptime",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.StatusResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "types.Detection": {
            "type": "object",
            "properties": {
                "bbox": {
                    "type": "array",
                    "items": {"type": "number"}
                },
                "class": {"type": "string"},
                "confidence": {"type": "number"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string"},
                "model_loaded": {"type": "boolean"},
                "runtime": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "types.ImageSize": {
            "type": "object",
            "properties": {
                "height": {"type": "integer"},
                "width": {"type": "integer"}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "detections": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/types.Detection"}
                },
                "image_size": {"$ref": "#/definitions/types.ImageSize"},
                "inference_ms": {"type": "number"},
                "model": {"type": "string"},
                "runtime": {"type": "string"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "in_flight": {"type": "integer"},
                "model": {"type": "string"},
                "pool_size": {"type": "integer"},
                "ready": {"type": "boolean"},
                "requests_total": {
                    "type": "object",
                    "additionalProperties": {"type": "integer"}
                },
                "runtime": {"type": "string"},
                "server_time_unix": {"type": "integer"},
                "uptime_seconds": {"type": "number"},
                "weights_path": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "shelfwatchd API",
	Description:      "HTTP API for counting products in shelf photographs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
