// Package docs holds the OpenAPI description served under /swagger.
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
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "Server is up"}}
            }
        },
        "/libraries/{libraryId}/games": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "List Library Games",
                "description": "Re-reads the library file and returns its games. Optional repeated filter parameters (path operator value, joined by and/or) and sort_by/order.",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "libraryId", "in": "path", "required": true},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "multi", "name": "filter", "in": "query"},
                    {"type": "string", "enum": ["title", "year", "stars"], "name": "sort_by", "in": "query"},
                    {"type": "string", "enum": ["asc", "desc"], "name": "order", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.GamesResponse"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/games/{gameId}": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "Get Game",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "gameId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Game"}},
                    "404": {"description": "Game not found", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            },
            "put": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "Update Game",
                "description": "Merges title, summary, year, month, day, stars, genre and command into the stored record. command null unlinks the launch script.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "gameId", "in": "path", "required": true},
                    {"name": "game", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Game"}},
                    "400": {"description": "No valid fields to update", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "404": {"description": "Game not found", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/games/{gameId}/reload": {
            "post": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "Reload Game",
                "parameters": [{"type": "string", "name": "gameId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Game"}},
                    "404": {"description": "Game not found", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/games/{gameId}/upload-executable": {
            "post": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "Upload Launch Script",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"type": "string", "name": "gameId", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Game"}},
                    "400": {"description": "Only .sh and .bat files are allowed", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/reload-games": {
            "post": {
                "security": [{"ApiToken": []}],
                "tags": ["Games"],
                "summary": "Reload All Games",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ReloadResponse"}}}
            }
        },
        "/launcher": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Launcher"],
                "summary": "Launch Game",
                "parameters": [{"type": "string", "name": "gameId", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.LaunchResponse"}},
                    "400": {"description": "Missing gameId", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "403": {"description": "Command outside allowed directory", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "404": {"description": "Game not found", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/recommended": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Recommended"],
                "summary": "Recommended Games",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SectionsResponse"}}}
            }
        },
        "/categories": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Categories"],
                "summary": "List Categories",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Category"}}}}
            },
            "post": {
                "security": [{"ApiToken": []}],
                "tags": ["Categories"],
                "summary": "Create Category",
                "parameters": [{"name": "category", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreateCategoryRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Category"}},
                    "409": {"description": "Category already exists", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/categories/{id}": {
            "delete": {
                "security": [{"ApiToken": []}],
                "tags": ["Categories"],
                "summary": "Delete Category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Category not found", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "409": {"description": "Category is in use by one or more games", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/collections": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Collections"],
                "summary": "List Collections",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Collection"}}}}
            }
        },
        "/collections/{id}": {
            "put": {
                "security": [{"ApiToken": []}],
                "tags": ["Collections"],
                "summary": "Update Collection",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "collection", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Collection"}},
                    "400": {"description": "No valid fields to update", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/collections/{id}/games": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Collections"],
                "summary": "Collection Games",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.GamesResponse"}}}
            }
        },
        "/collections/{id}/games/order": {
            "put": {
                "security": [{"ApiToken": []}],
                "tags": ["Collections"],
                "summary": "Reorder Collection",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "order", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ReorderRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Collection"}}}
            }
        },
        "/settings": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Settings"],
                "summary": "Get Settings",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            },
            "put": {
                "security": [{"ApiToken": []}],
                "tags": ["Settings"],
                "summary": "Update Settings",
                "parameters": [{"name": "settings", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/covers/{gameId}": {
            "get": {
                "tags": ["Images"],
                "summary": "Game Cover",
                "produces": ["image/webp"],
                "parameters": [{"type": "string", "name": "gameId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Cover not found", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/backgrounds/{gameId}": {
            "get": {
                "tags": ["Images"],
                "summary": "Game Background",
                "produces": ["image/webp"],
                "parameters": [{"type": "string", "name": "gameId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/category-covers/{id}": {
            "get": {
                "tags": ["Images"],
                "summary": "Category Cover",
                "produces": ["image/webp"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/collection-covers/{id}": {
            "get": {
                "tags": ["Images"],
                "summary": "Collection Cover",
                "produces": ["image/webp"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/igdb/search": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["IGDB"],
                "summary": "Search IGDB",
                "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SearchResponse"}},
                    "400": {"description": "Missing search query", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "502": {"description": "IGDB search failed", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "503": {"description": "IGDB is not configured", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/auth/twitch": {
            "get": {
                "tags": ["Auth"],
                "summary": "Start Twitch Login",
                "responses": {"302": {"description": "Found"}, "503": {"description": "Twitch login is not configured", "schema": {"$ref": "#/definitions/utils.APIError"}}}
            }
        },
        "/auth/twitch/callback": {
            "get": {
                "tags": ["Auth"],
                "summary": "Twitch Login Callback",
                "parameters": [
                    {"type": "string", "name": "code", "in": "query", "required": true},
                    {"type": "string", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.LoginResponse"}},
                    "302": {"description": "Found"},
                    "400": {"description": "Invalid state", "schema": {"$ref": "#/definitions/utils.APIError"}},
                    "502": {"description": "Twitch authentication failed", "schema": {"$ref": "#/definitions/utils.APIError"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"ApiToken": []}],
                "tags": ["Auth"],
                "summary": "Current Identity",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.MeResponse"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"ApiToken": []}],
                "tags": ["Auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "utils.APIError": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "Game not found"}}
        },
        "models.Game": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "summary": {"type": "string"},
                "cover": {"type": "string", "example": "/covers/g1"},
                "day": {"type": "integer"},
                "month": {"type": "integer"},
                "year": {"type": "integer"},
                "stars": {"type": "integer"},
                "genre": {"type": "array", "items": {"type": "string"}},
                "criticratings": {"type": "integer"},
                "userratings": {"type": "integer"},
                "command": {"type": "string", "enum": ["sh", "bat"]}
            }
        },
        "models.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "genre_rpg"},
                "title": {"type": "string", "example": "rpg"},
                "cover": {"type": "string"}
            }
        },
        "models.Collection": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "summary": {"type": "string"},
                "cover": {"type": "string"},
                "games": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.RecommendedSection": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "games": {"type": "array", "items": {"$ref": "#/definitions/models.Game"}}
            }
        },
        "api.GamesResponse": {
            "type": "object",
            "properties": {"games": {"type": "array", "items": {"$ref": "#/definitions/models.Game"}}}
        },
        "api.SectionsResponse": {
            "type": "object",
            "properties": {"sections": {"type": "array", "items": {"$ref": "#/definitions/models.RecommendedSection"}}}
        },
        "api.ReloadResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "reloaded"}, "count": {"type": "integer", "example": 42}}
        },
        "api.LaunchResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "launched"}, "pid": {"type": "integer", "example": 12345}}
        },
        "api.CreateCategoryRequest": {
            "type": "object",
            "properties": {"title": {"type": "string", "example": "Point and Click"}}
        },
        "api.ReorderRequest": {
            "type": "object",
            "properties": {"games": {"type": "array", "items": {"type": "string"}}}
        },
        "api.SearchResponse": {
            "type": "object",
            "properties": {"games": {"type": "array", "items": {"type": "object"}}}
        },
        "api.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user_id": {"type": "string"},
                "login": {"type": "string"},
                "display_name": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "api.MeResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "example": "twitch"},
                "user_id": {"type": "string"},
                "login": {"type": "string"},
                "display_name": {"type": "string"},
                "expires_at": {"type": "string"},
                "expired": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "ApiToken": {
            "type": "apiKey",
            "name": "X-Auth-Token",
            "in": "header",
            "description": "The API token, or the access token of a Twitch login. Also accepted as 'Authorization: Bearer <token>' or the token query parameter."
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "GameLib API",
	Description:      "Backend of a personal game library: games, collections, categories, covers, launching and IGDB lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
