// Package docs holds the OpenAPI description served at /swagger/*.
// It follows the layout produced by swag init; regenerate with
// `swag init -g cmd/server/main.go` after changing handler annotations.
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
        "/v1/sessions/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials and actor kind", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too Many Requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/sessions/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Refresh session",
                "parameters": [
                    {"description": "Refresh token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.refreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/sessions": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Logout",
                "parameters": [
                    {"type": "boolean", "description": "Invalidate all sessions", "name": "all", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.logoutResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/operatives": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Register operative user",
                "parameters": [
                    {"description": "New operative user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/admins": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Register administrator",
                "parameters": [
                    {"description": "New administrator", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/actors/{kind}/{id}/disable": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Disable actor",
                "parameters": [
                    {"type": "string", "description": "admin or operative", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "description": "Actor id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.actorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/v1/actors/{kind}/{id}/enable": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Enable actor",
                "parameters": [
                    {"type": "string", "description": "admin or operative", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "description": "Actor id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.actorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "handler.loginRequest": {
            "type": "object",
            "required": ["actor_kind", "email", "password"],
            "properties": {
                "actor_kind": {"type": "string", "enum": ["admin", "operative"]},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.refreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "actor_kind": {"type": "string", "enum": ["admin", "operative"]},
                "refresh_token": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "maxLength": 254},
                "password": {"type": "string", "maxLength": 72, "minLength": 8},
                "username": {"type": "string", "maxLength": 32, "minLength": 3}
            }
        },
        "handler.actorResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "enabled": {"type": "boolean"},
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.tokensResponse": {
            "type": "object",
            "properties": {
                "access_expires_at": {"type": "string"},
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "refresh_expires_at": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "actor": {"$ref": "#/definitions/handler.actorResponse"},
                "tokens": {"$ref": "#/definitions/handler.tokensResponse"}
            }
        },
        "handler.logoutResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "sessions_invalidated": {"type": "integer"}
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
	Title:            "Console Auth API",
	Description:      "Session and credential lifecycle for administrators and operative users.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
