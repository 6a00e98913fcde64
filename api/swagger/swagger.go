package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Casefile Gateway API",
        "description": "Review-workflow gateway in front of the legacy expedientes API",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Expedientes", "description": "Case-file listings, edits and activation"},
        {"name": "Revision", "description": "Coordinator review transitions"},
        {"name": "Exportes", "description": "Review-board exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/expedientes": {
            "get": {
                "tags": ["Expedientes"],
                "summary": "List case files",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/expedientes/revision": {
            "get": {
                "tags": ["Revision"],
                "summary": "List case files joined with evidence for the review board",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Coordinator role required"}
                }
            }
        },
        "/expedientes/{codigo}": {
            "put": {
                "tags": ["Expedientes"],
                "summary": "Edit code and description of a case file",
                "parameters": [
                    {"name": "codigo", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditCaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown code"},
                    "409": {"description": "Case inactive or busy"}
                }
            }
        },
        "/expedientes/{codigo}/activo": {
            "patch": {
                "tags": ["Expedientes"],
                "summary": "Toggle the activation flag",
                "parameters": [
                    {"name": "codigo", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetActiveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Deactivation not confirmed"},
                    "409": {"description": "Another operation in progress"}
                }
            }
        },
        "/expedientes/{codigo}/aprobar": {
            "post": {
                "tags": ["Revision"],
                "summary": "Approve a case file",
                "parameters": [
                    {"name": "codigo", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApproveCaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "No reviewer identity"},
                    "409": {"description": "Another operation in progress"}
                }
            }
        },
        "/expedientes/{codigo}/rechazar": {
            "post": {
                "tags": ["Revision"],
                "summary": "Reject a case file with a justification",
                "parameters": [
                    {"name": "codigo", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectCaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing justification"},
                    "401": {"description": "No reviewer identity"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exportes"],
                "summary": "Export the review board as CSV or PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{file}": {
            "get": {
                "tags": ["Exportes"],
                "summary": "Download a generated export",
                "parameters": [
                    {"name": "file", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "EditCaseRequest": {
            "type": "object",
            "required": ["codigo", "descripcion"],
            "properties": {
                "codigo": {"type": "string"},
                "descripcion": {"type": "string"}
            }
        },
        "SetActiveRequest": {
            "type": "object",
            "properties": {
                "activo": {"type": "boolean"},
                "confirmado": {"type": "boolean"}
            }
        },
        "ApproveCaseRequest": {
            "type": "object",
            "properties": {
                "confirmado": {"type": "boolean"}
            }
        },
        "RejectCaseRequest": {
            "type": "object",
            "required": ["justificacion"],
            "properties": {
                "justificacion": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["formato"],
            "properties": {
                "formato": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
