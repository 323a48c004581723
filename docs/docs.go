// Package docs holds the OpenAPI description served under /swagger/.
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
        "/batch/generate": {
            "post": {
                "description": "Starts a batch that creates count wallets, stores each one and claims the faucet for it",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "batch"
                ],
                "summary": "Generate wallets and claim the faucet",
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.GenerateRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/model.BatchResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/batch/claim": {
            "post": {
                "description": "Claims for every stored wallet when all is true, otherwise for the wallet at index",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "batch"
                ],
                "summary": "Claim the faucet for stored wallets",
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.ClaimRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/model.BatchResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/batch/send": {
            "post": {
                "description": "With all=true sends amount from every wallet holding at least amount (confirm must be true), otherwise from the wallet at index",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "batch"
                ],
                "summary": "Send tokens to a recipient",
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/model.SendRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/model.BatchResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/batch/cancel": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "batch"
                ],
                "summary": "Cancel the running batch",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.CancelResponse"
                        }
                    }
                }
            }
        },
        "/batch/status": {
            "get": {
                "description": "Current state and the report of the last finished batch",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "batch"
                ],
                "summary": "Batch state",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.BatchStatus"
                        }
                    }
                }
            }
        },
        "/proxy": {
            "get": {
                "description": "GET lists the pool and the active proxy, POST pins one (empty clears)",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "proxy"
                ],
                "summary": "List or pin egress proxies",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.ProxyResponse"
                        }
                    }
                }
            },
            "post": {
                "description": "GET lists the pool and the active proxy, POST pins one (empty clears)",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "proxy"
                ],
                "summary": "List or pin egress proxies",
                "parameters": [
                    {
                        "description": "Request body",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/model.ProxyRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.ProxyResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/summary": {
            "get": {
                "description": "Wallet count, total balance and active proxy. refresh=true re-reads every balance",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "wallets"
                ],
                "summary": "Wallet summary",
                "parameters": [
                    {
                        "type": "boolean",
                        "description": "Recompute balances",
                        "name": "refresh",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/model.Summary"
                        }
                    }
                }
            }
        },
        "/logs": {
            "get": {
                "description": "GET returns the bounded event log, DELETE clears it",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "logs"
                ],
                "summary": "Event log",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.LogEntry"
                            }
                        }
                    }
                }
            },
            "delete": {
                "description": "GET returns the bounded event log, DELETE clears it",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "logs"
                ],
                "summary": "Event log",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.LogEntry"
                            }
                        }
                    }
                }
            }
        },
        "/accounts": {
            "get": {
                "description": "Addresses and balances of every stored wallet, without secrets",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "wallets"
                ],
                "summary": "Stored wallets",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.AccountBalance"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/accounts/qr": {
            "get": {
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "wallets"
                ],
                "summary": "Wallet address QR code",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Wallet index",
                        "name": "index",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/model.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "model.AccountBalance": {
            "type": "object",
            "properties": {
                "address": {
                    "type": "string"
                },
                "balance": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                }
            }
        },
        "model.BatchResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "workflow": {
                    "type": "string"
                }
            }
        },
        "model.BatchStatus": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "last": {
                    "$ref": "#/definitions/model.Report"
                },
                "state": {
                    "type": "string"
                },
                "workflow": {
                    "type": "string"
                }
            }
        },
        "model.CancelResponse": {
            "type": "object",
            "properties": {
                "cancelled": {
                    "type": "boolean"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "model.ClaimRequest": {
            "type": "object",
            "properties": {
                "all": {
                    "type": "boolean"
                },
                "index": {
                    "type": "integer"
                }
            }
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "error": {
                    "type": "string"
                }
            }
        },
        "model.GenerateRequest": {
            "type": "object",
            "properties": {
                "count": {
                    "type": "integer"
                }
            }
        },
        "model.LogEntry": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "severity": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "model.ProxyRequest": {
            "type": "object",
            "properties": {
                "proxy": {
                    "type": "string"
                }
            }
        },
        "model.ProxyResponse": {
            "type": "object",
            "properties": {
                "active": {
                    "type": "string"
                },
                "proxies": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "model.Report": {
            "type": "object",
            "properties": {
                "cancelled": {
                    "type": "boolean"
                },
                "error": {
                    "type": "string"
                },
                "failed": {
                    "type": "integer"
                },
                "id": {
                    "type": "string"
                },
                "processed": {
                    "type": "integer"
                },
                "skipped": {
                    "type": "integer"
                },
                "succeeded": {
                    "type": "integer"
                },
                "workflow": {
                    "type": "string"
                }
            }
        },
        "model.SendRequest": {
            "type": "object",
            "properties": {
                "all": {
                    "type": "boolean"
                },
                "amount": {
                    "type": "string"
                },
                "confirm": {
                    "type": "boolean"
                },
                "index": {
                    "type": "integer"
                },
                "toAddress": {
                    "type": "string"
                }
            }
        },
        "model.Summary": {
            "type": "object",
            "properties": {
                "activeProxy": {
                    "type": "string"
                },
                "symbol": {
                    "type": "string"
                },
                "totalBalance": {
                    "type": "string"
                },
                "totalWallets": {
                    "type": "integer"
                },
                "updatedAt": {
                    "type": "string"
                }
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
	Title:            "faucetbot API",
	Description:      "Batch faucet claims, wallet generation and transfers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
