package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/guides": {
            "get": {
                "tags": ["guides"],
                "summary": "List guides",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/entities.GuideSummary"}}
                    }
                }
            },
            "post": {
                "tags": ["guides"],
                "summary": "Create a new guide",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.CreateGuideRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.Guide"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/guides/{id}": {
            "get": {
                "tags": ["guides"],
                "summary": "Get guide by ID",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Guide"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["guides"],
                "summary": "Update a guide",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/entities.GuidePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Guide"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/guides/{id}/sections/{sectionId}/move": {
            "post": {
                "tags": ["guides"],
                "summary": "Move a section",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "path", "name": "sectionId", "type": "string", "required": true},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/ports.MoveSectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Guide"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/guides/{id}/uploads": {
            "post": {
                "tags": ["uploads"],
                "summary": "Upload an image into a guide section",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "formData", "name": "file", "type": "file", "required": true},
                    {"in": "formData", "name": "sectionId", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ports.GuideUploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "413": {"description": "Too Large", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/upload": {
            "post": {
                "tags": ["uploads"],
                "summary": "Upload a standalone image",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "formData", "name": "image", "type": "file", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "413": {"description": "Too Large", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.GuideSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "hero": {"type": "string"}
            }
        },
        "entities.Guide": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "hero": {"type": "string"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/entities.Section"}}
            }
        },
        "entities.Section": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "open": {"type": "boolean"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/entities.Item"}}
            }
        },
        "entities.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "type": {"type": "string", "enum": ["image"]},
                "open": {"type": "boolean"}
            }
        },
        "entities.GuidePatch": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "hero": {"type": "string"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/entities.Section"}}
            }
        },
        "ports.CreateGuideRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "hero": {"type": "string"},
                "sections": {"type": "array", "items": {"$ref": "#/definitions/entities.Section"}}
            }
        },
        "ports.MoveSectionRequest": {
            "type": "object",
            "properties": {
                "beforeId": {"type": "string"}
            }
        },
        "ports.GuideUploadResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "sectionId": {"type": "string"}
            }
        },
        "ports.UploadResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string"}
            }
        },
        "ports.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "EditorAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and an editor token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Guidebook API",
	Description:      "Character guide documents and image uploads",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
