package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Olive & Embers Back Office API",
        "description": "Config synchronization and change approval service for the catering back office.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Variables", "description": "Business config variables"},
        {"name": "Sync", "description": "Baseline synchronization"},
        {"name": "Approvals", "description": "Change approval workflow"},
        {"name": "Cache", "description": "Cache operations"},
        {"name": "Reports", "description": "Downloadable reports"}
    ],
    "paths": {
        "/variables": {
            "get": {
                "tags": ["Variables"],
                "summary": "List config variables",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/variables/{category}/{key}": {
            "get": {
                "tags": ["Variables"],
                "summary": "Get a config variable",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"},
                    {"name": "key", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Variables"],
                "summary": "Update a config variable",
                "description": "Critical and high priority categories return a pending approval request instead of a committed value.",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string"},
                    {"name": "key", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateVariableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Routed to approval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Type mismatch or validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "tags": ["Sync"],
                "summary": "Last sync per source",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/diff": {
            "get": {
                "tags": ["Sync"],
                "summary": "Show pending differences",
                "parameters": [
                    {"name": "source", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Baseline source unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/auto": {
            "post": {
                "tags": ["Sync"],
                "summary": "Run auto sync",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-source results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/force": {
            "post": {
                "tags": ["Sync"],
                "summary": "Run force sync",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-source results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/history": {
            "get": {
                "tags": ["Sync"],
                "summary": "List past sync runs",
                "parameters": [
                    {"name": "source", "in": "query", "type": "string"},
                    {"name": "sync_type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sync/health": {
            "get": {
                "tags": ["Sync"],
                "summary": "Sync engine health",
                "responses": {
                    "200": {"description": "Healthy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Unhealthy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approvals": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Propose a config change",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateApprovalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Pending request created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate pending request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approvals/pending": {
            "get": {
                "tags": ["Approvals"],
                "summary": "List pending approval requests",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "requester_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approvals/{id}/approve": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Approve a pending change",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ResolveApprovalRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved and committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/approvals/{id}/reject": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Reject a pending change",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveApprovalRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/sync-history": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate a sync history report",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "source", "in": "query", "type": "string"},
                    {"name": "sync_type", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/variables": {
            "get": {
                "tags": ["Reports"],
                "summary": "Generate a config snapshot report",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cache/invalidate": {
            "post": {
                "tags": ["Cache"],
                "summary": "Invalidate cached config",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/InvalidateCacheRequest"}}
                ],
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        }
    },
    "definitions": {
        "UpdateVariableRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {
                "value": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "CreateApprovalRequest": {
            "type": "object",
            "required": ["category", "key", "proposed_value", "reason"],
            "properties": {
                "category": {"type": "string"},
                "key": {"type": "string"},
                "proposed_value": {"type": "string"},
                "type": {"type": "string", "enum": ["STRING", "NUMBER", "BOOLEAN"]},
                "reason": {"type": "string"}
            }
        },
        "ResolveApprovalRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "SyncRequest": {
            "type": "object",
            "properties": {
                "sources": {"type": "array", "items": {"type": "string"}},
                "dry_run": {"type": "boolean"}
            }
        },
        "InvalidateCacheRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "key": {"type": "string"}
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
