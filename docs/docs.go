// Package docs holds the OpenAPI description served under /swagger.
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
        "/entities": {
            "get": {
                "description": "Configured list pages with their searchable fields, columns and metrics",
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "List entities",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.EntityInfo"}}}
                }
            }
        },
        "/entities/{entity}/query": {
            "post": {
                "description": "Filter, sort and paginate an entity's records. Metrics are computed over the whole filtered set.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Query a list view",
                "parameters": [
                    {"type": "string", "example": "leads", "description": "Entity name", "name": "entity", "in": "path", "required": true},
                    {"description": "View state", "name": "view", "in": "body", "schema": {"$ref": "#/definitions/model.ViewState"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.QueryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/entities/{entity}/export": {
            "post": {
                "description": "Export every record matching the view's criteria, in view sort order. Pagination is ignored.",
                "consumes": ["application/json"],
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/json"],
                "tags": ["exports"],
                "summary": "Export a list view",
                "parameters": [
                    {"type": "string", "description": "Entity name", "name": "entity", "in": "path", "required": true},
                    {"type": "string", "description": "csv (default), xlsx or json", "name": "format", "in": "query"},
                    {"description": "View state", "name": "view", "in": "body", "schema": {"$ref": "#/definitions/model.ViewState"}}
                ],
                "responses": {
                    "200": {"description": "Export file named {entity}_export_{YYYY-MM-DD}.{ext}", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/entities/{entity}/breakdown": {
            "get": {
                "description": "Count filtered records per value of a categorical field, largest first",
                "produces": ["application/json"],
                "tags": ["entities"],
                "summary": "Value distribution",
                "parameters": [
                    {"type": "string", "description": "Entity name", "name": "entity", "in": "path", "required": true},
                    {"type": "string", "description": "Field to group by", "name": "field", "in": "query", "required": true},
                    {"type": "string", "description": "Comma-separated search terms", "name": "search", "in": "query"},
                    {"type": "string", "description": "Category filter", "name": "category", "in": "query"},
                    {"type": "string", "description": "Status filter", "name": "status", "in": "query"},
                    {"type": "string", "description": "all, today, yesterday, lastWeek, lastMonth, thisMonth or custom", "name": "dateFilter", "in": "query"},
                    {"type": "string", "description": "Custom range start", "name": "start", "in": "query"},
                    {"type": "string", "description": "Custom range end", "name": "end", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.BreakdownResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/datasets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "List datasets",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.DatasetInfo"}}}
                }
            }
        },
        "/datasets/{entity}": {
            "put": {
                "description": "Replace the records of a store-backed entity. Accepts a JSON array (or {\"data\": [...]}) or CSV with a header row.",
                "consumes": ["application/json", "text/csv"],
                "produces": ["application/json"],
                "tags": ["datasets"],
                "summary": "Upload a dataset",
                "parameters": [
                    {"type": "string", "description": "Entity name", "name": "entity", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.DatasetInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/views": {
            "get": {
                "produces": ["application/json"],
                "tags": ["views"],
                "summary": "List saved views",
                "parameters": [
                    {"type": "string", "description": "Only this entity", "name": "entity", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.SavedView"}}}
                }
            },
            "post": {
                "description": "Persist a named view state. Sending an existing id updates it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["views"],
                "summary": "Save a view",
                "parameters": [
                    {"description": "Saved view", "name": "view", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.SavedView"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.SavedView"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/views/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["views"],
                "summary": "Get a saved view",
                "parameters": [
                    {"type": "string", "description": "View ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.SavedView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["views"],
                "summary": "Delete a saved view",
                "parameters": [
                    {"type": "string", "description": "View ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/exports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["exports"],
                "summary": "Export history",
                "parameters": [
                    {"type": "string", "description": "Only this entity", "name": "entity", "in": "query"},
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.ExportResult"}}}
                }
            }
        },
        "/exports/files/{entity}/{filename}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["exports"],
                "summary": "Download export file",
                "parameters": [
                    {"type": "string", "description": "Entity name", "name": "entity", "in": "path", "required": true},
                    {"type": "string", "description": "File name", "name": "filename", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "File download", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.EntityInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "title": {"type": "string"},
                "searchFields": {"type": "array", "items": {"type": "string"}},
                "categoryField": {"type": "string"},
                "statusField": {"type": "string"},
                "dateField": {"type": "string"},
                "defaultSort": {"$ref": "#/definitions/model.SortSpec"},
                "columns": {"type": "array", "items": {"$ref": "#/definitions/model.Column"}},
                "metrics": {"type": "array", "items": {"$ref": "#/definitions/model.MetricSpec"}}
            }
        },
        "handler.QueryResponse": {
            "type": "object",
            "properties": {
                "entity": {"type": "string"},
                "pageItems": {"type": "array", "items": {"type": "object", "additionalProperties": true}},
                "totalCount": {"type": "integer"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "metrics": {"type": "object", "additionalProperties": {"type": "number"}},
                "sort": {"$ref": "#/definitions/model.SortSpec"}
            }
        },
        "handler.BreakdownResponse": {
            "type": "object",
            "properties": {
                "entity": {"type": "string"},
                "field": {"type": "string"},
                "total": {"type": "integer"},
                "groups": {"type": "array", "items": {"$ref": "#/definitions/model.GroupCount"}}
            }
        },
        "model.Column": {
            "type": "object",
            "properties": {"header": {"type": "string"}, "field": {"type": "string"}}
        },
        "model.DateRange": {
            "type": "object",
            "properties": {"start": {"type": "string"}, "end": {"type": "string"}}
        },
        "model.FilterCriteria": {
            "type": "object",
            "properties": {
                "searchTerm": {"type": "string"},
                "fields": {"type": "array", "items": {"type": "string"}},
                "categoryFilter": {"type": "string"},
                "categoryField": {"type": "string"},
                "statusFilter": {"type": "string"},
                "statusField": {"type": "string"},
                "dateFilter": {"type": "string", "enum": ["all", "today", "yesterday", "lastWeek", "lastMonth", "thisMonth", "custom"]},
                "dateField": {"type": "string"},
                "customRange": {"$ref": "#/definitions/model.DateRange"}
            }
        },
        "model.SortSpec": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "direction": {"type": "string", "enum": ["asc", "desc"]},
                "type": {"type": "string", "enum": ["date", "string", "number"]}
            }
        },
        "model.PageSpec": {
            "type": "object",
            "properties": {"page": {"type": "integer"}, "pageSize": {"type": "integer"}}
        },
        "model.ViewState": {
            "type": "object",
            "properties": {
                "criteria": {"$ref": "#/definitions/model.FilterCriteria"},
                "sort": {"$ref": "#/definitions/model.SortSpec"},
                "page": {"$ref": "#/definitions/model.PageSpec"}
            }
        },
        "model.MetricSpec": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "kind": {"type": "string", "enum": ["count", "sum", "avg", "min", "max", "percentage"]},
                "field": {"type": "string"},
                "where": {"$ref": "#/definitions/model.FilterCriteria"}
            }
        },
        "model.GroupCount": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "value": {"type": "integer"}}
        },
        "model.DatasetInfo": {
            "type": "object",
            "properties": {
                "entity": {"type": "string"},
                "recordCount": {"type": "integer"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.SavedView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entity": {"type": "string"},
                "name": {"type": "string"},
                "state": {"$ref": "#/definitions/model.ViewState"},
                "isDefault": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.ExportResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entity": {"type": "string"},
                "format": {"type": "string"},
                "fileName": {"type": "string"},
                "location": {"type": "string"},
                "recordCount": {"type": "integer"},
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "exportedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CRM List Pipeline API",
	Description:      "Filter, sort, paginate, summarize and export CRM list views.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
