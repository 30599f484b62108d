// Package docs holds the OpenAPI description of the HTTP transport,
// registered with swag for the /swagger/ UI.
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
        "/command": {
            "post": {
                "description": "Accepts a JSON body {\"text\": \"...\"} or a text/plain body. The command is added to the\nconversation history and evaluated exactly like a spoken one.",
                "consumes": ["application/json", "text/plain"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Run a text command",
                "parameters": [
                    {
                        "description": "Command text",
                        "name": "command",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.CommandRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "What was done",
                        "schema": {"$ref": "#/definitions/message.Result"}
                    },
                    "400": {
                        "description": "Invalid or empty body",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Conversation history",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/presentation.Entry"}}
                    }
                }
            }
        },
        "/notes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Saved notes, oldest first",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/notes.Note"}}
                    },
                    "500": {
                        "description": "Store error",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["state"],
                "summary": "Session state and presentation snapshot",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.StatusResponse"}
                    }
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket. The first frame is {\"kind\":\"snapshot\",\"view\":{...}}; later frames are updates.",
                "tags": ["state"],
                "summary": "Presentation update stream",
                "responses": {}
            }
        }
    },
    "definitions": {
        "http.CommandRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "ভলিউম ৮০"}
            }
        },
        "http.StatusResponse": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/session.Snapshot"},
                "view": {"$ref": "#/definitions/presentation.View"}
            }
        },
        "message.Result": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "intents": {"type": "array", "items": {"type": "string"}},
                "message_id": {"type": "string"},
                "responses": {"type": "array", "items": {"type": "string"}},
                "transcript": {"type": "string"},
                "urls": {"type": "array", "items": {"type": "string"}}
            }
        },
        "notes.Note": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "presentation.Banner": {
            "type": "object",
            "properties": {
                "fading": {"type": "boolean"},
                "id": {"type": "integer"},
                "kind": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "presentation.Entry": {
            "type": "object",
            "properties": {
                "sender": {"type": "string"},
                "text": {"type": "string"},
                "time": {"type": "string"}
            }
        },
        "presentation.Status": {
            "type": "object",
            "properties": {
                "percent": {"type": "integer"},
                "text": {"type": "string"}
            }
        },
        "presentation.View": {
            "type": "object",
            "properties": {
                "banners": {"type": "array", "items": {"$ref": "#/definitions/presentation.Banner"}},
                "history": {"type": "array", "items": {"$ref": "#/definitions/presentation.Entry"}},
                "levels": {"type": "object", "additionalProperties": {"type": "integer"}},
                "partial": {"type": "string"},
                "status": {"$ref": "#/definitions/presentation.Status"}
            }
        },
        "session.Snapshot": {
            "type": "object",
            "properties": {
                "changed": {"type": "string"},
                "degraded": {"type": "boolean"},
                "restarts": {"type": "integer"},
                "session": {"type": "integer"},
                "state": {"type": "string"},
                "utterance": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "mira API",
	Description:      "Text command entry and state surfaces for the mira voice assistant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
