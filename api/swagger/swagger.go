package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SourceHire Talent API",
        "description": "Recruiter talent sourcing: credit-gated resume unlocks, buckets, search history and trends",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Credits", "description": "Credit account balance and period rollover"},
        {"name": "Unlocks", "description": "Credit-gated resume reveal"},
        {"name": "Buckets", "description": "Ordered resume collections"},
        {"name": "Search", "description": "Resume search, history and trends"}
    ],
    "paths": {
        "/credits": {
            "get": {
                "tags": ["Credits"],
                "summary": "Get the caller's credit balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/credits/rollover": {
            "post": {
                "tags": ["Credits"],
                "summary": "Reset period usage for accounts whose billing period ended (admin)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/unlocks": {
            "post": {
                "tags": ["Unlocks"],
                "summary": "Unlock one resume, spending a credit unless already unlocked",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "402": {"description": "Insufficient credits"}
                }
            }
        },
        "/unlocks/bulk": {
            "post": {
                "tags": ["Unlocks"],
                "summary": "Unlock several resumes in one request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUnlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "402": {"description": "Insufficient credits"}
                }
            }
        },
        "/resumes/{resumeId}/status": {
            "get": {
                "tags": ["Unlocks"],
                "summary": "Check whether a resume is unlocked for the caller",
                "parameters": [
                    {"name": "resumeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/resumes/{resumeId}/reveal": {
            "get": {
                "tags": ["Unlocks"],
                "summary": "Get the private data snapshotted on the caller's active grant",
                "parameters": [
                    {"name": "resumeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Resume locked"}
                }
            }
        },
        "/buckets": {
            "get": {
                "tags": ["Buckets"],
                "summary": "List the caller's buckets in display order",
                "parameters": [
                    {"name": "includeArchived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Buckets"],
                "summary": "Create a bucket",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBucketRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate name"}
                }
            }
        },
        "/buckets/{bucketId}": {
            "get": {
                "tags": ["Buckets"],
                "summary": "Get one bucket",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Buckets"],
                "summary": "Update bucket metadata (rename, recolor, archive)",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBucketRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict or duplicate name"}
                }
            },
            "delete": {
                "tags": ["Buckets"],
                "summary": "Delete a bucket with its items and activity",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/buckets/{bucketId}/items": {
            "get": {
                "tags": ["Buckets"],
                "summary": "List a bucket's items with unlock status",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"},
                    {"name": "sortBy", "in": "query", "type": "string"},
                    {"name": "sortOrder", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Buckets"],
                "summary": "Add resumes to a bucket",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddItemsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buckets/{bucketId}/items/{itemId}": {
            "patch": {
                "tags": ["Buckets"],
                "summary": "Update notes, rating or status on a bucket item",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buckets/{bucketId}/items/order": {
            "put": {
                "tags": ["Buckets"],
                "summary": "Replace the bucket's item ordering",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReorderRequest"}}
                ],
                "responses": {
                    "204": {"description": "Reordered"},
                    "409": {"description": "Stale version"}
                }
            }
        },
        "/buckets/{bucketId}/items/bulk-remove": {
            "post": {
                "tags": ["Buckets"],
                "summary": "Remove several items from a bucket",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkRemoveRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buckets/{bucketId}/transfer": {
            "post": {
                "tags": ["Buckets"],
                "summary": "Move or copy items into another bucket",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buckets/{bucketId}/activity": {
            "get": {
                "tags": ["Buckets"],
                "summary": "List the bucket's newest activity entries",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/buckets/{bucketId}/export": {
            "get": {
                "tags": ["Buckets"],
                "summary": "Download the bucket's items as CSV or PDF",
                "parameters": [
                    {"name": "bucketId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/search": {
            "post": {
                "tags": ["Search"],
                "summary": "Search resumes and record the execution in history",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/search/history": {
            "get": {
                "tags": ["Search"],
                "summary": "List the caller's saved searches",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/search/history/{searchId}": {
            "delete": {
                "tags": ["Search"],
                "summary": "Delete a saved search and its samples",
                "parameters": [
                    {"name": "searchId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/search/history/{searchId}/rerun": {
            "post": {
                "tags": ["Search"],
                "summary": "Replay a saved search with its stored filters",
                "parameters": [
                    {"name": "searchId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/search/history/{searchId}/trend": {
            "get": {
                "tags": ["Search"],
                "summary": "Get the result-count series for a saved search",
                "parameters": [
                    {"name": "searchId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "UnlockRequest": {
            "type": "object",
            "required": ["resumeId", "source"],
            "properties": {
                "resumeId": {"type": "string"},
                "source": {"type": "string", "enum": ["search", "bucket"]}
            }
        },
        "BulkUnlockRequest": {
            "type": "object",
            "required": ["resumeIds", "source"],
            "properties": {
                "resumeIds": {"type": "array", "items": {"type": "string"}},
                "source": {"type": "string", "enum": ["search", "bucket"]}
            }
        },
        "CreateBucketRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "UpdateBucketRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "color": {"type": "string"},
                "archived": {"type": "boolean"},
                "version": {"type": "integer"}
            }
        },
        "AddItemsRequest": {
            "type": "object",
            "required": ["resumeIds"],
            "properties": {
                "resumeIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "UpdateItemRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"},
                "rating": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "ReorderRequest": {
            "type": "object",
            "required": ["itemIds"],
            "properties": {
                "itemIds": {"type": "array", "items": {"type": "string"}},
                "version": {"type": "integer"}
            }
        },
        "BulkRemoveRequest": {
            "type": "object",
            "required": ["itemIds"],
            "properties": {
                "itemIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "TransferRequest": {
            "type": "object",
            "required": ["targetBucketId", "itemIds"],
            "properties": {
                "targetBucketId": {"type": "string"},
                "itemIds": {"type": "array", "items": {"type": "string"}},
                "keepInSource": {"type": "boolean"}
            }
        },
        "SearchRequest": {
            "type": "object",
            "properties": {
                "filters": {"type": "object"},
                "searchName": {"type": "string"},
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"}
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
