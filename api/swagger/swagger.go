package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Admin API",
        "description": "Subject allocation, section staffing and classroom membership API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Allocations", "description": "Subject allocation per department and semester"},
        {"name": "Sections", "description": "Section staffing and lifecycle"},
        {"name": "Classrooms", "description": "Classroom membership and invitations"},
        {"name": "Dashboard", "description": "Department head views"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        },
        "/allocations": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Allocate subjects",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AllocateSubjectsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure"}
                }
            }
        },
        "/allocations/subjects": {
            "get": {
                "tags": ["Allocations"],
                "summary": "Get allocated subjects",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "query", "type": "string", "required": true},
                    {"name": "subject_type", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "integer", "required": true},
                    {"name": "semester_type", "in": "query", "type": "string", "required": true},
                    {"name": "regulation", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/hod-dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Department head dashboard",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "query", "type": "string", "required": true},
                    {"name": "subject_type", "in": "query", "type": "string", "required": true},
                    {"name": "semester", "in": "query", "type": "integer", "required": true},
                    {"name": "semester_type", "in": "query", "type": "string", "required": true},
                    {"name": "regulation", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/staff": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Assign staff to a section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignStaffRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Faculty, allocation or subject not found"}
                }
            }
        },
        "/sections/{id}/staff": {
            "patch": {
                "tags": ["Sections"],
                "summary": "Update section staff",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"staff_id": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section or faculty not found"}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Remove section staff",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/sections/{id}": {
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete a section",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/sections/{id}/staff/refresh": {
            "post": {
                "tags": ["Sections"],
                "summary": "Refresh staff snapshot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Section has no assigned staff"}
                }
            }
        },
        "/classrooms/{id}/members": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classroom members",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/classrooms/{id}/members/{userId}": {
            "delete": {
                "tags": ["Classrooms"],
                "summary": "Remove a classroom member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "userId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "403": {"description": "Removal not permitted"},
                    "404": {"description": "Membership not found"}
                }
            }
        },
        "/classrooms/join": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Join a classroom by code",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JoinByCodeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Joined", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Invalid classroom code"},
                    "409": {"description": "Already a member"}
                }
            }
        },
        "/classrooms/{id}/invitations": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Send classroom invitations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendInvitationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/classrooms/invitations/respond": {
            "post": {
                "tags": ["Classrooms"],
                "summary": "Respond to an invitation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondInvitationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Email or role mismatch"},
                    "410": {"description": "Invitation expired"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "AllocateSubjectsRequest": {
            "type": "object",
            "required": ["department", "subject_type", "semester", "semester_type", "regulation", "subjects"],
            "properties": {
                "department": {"type": "string"},
                "subject_type": {"type": "string"},
                "semester": {"type": "integer"},
                "semester_type": {"type": "string"},
                "regulation": {"type": "string"},
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string"},
                            "subject": {"type": "string"},
                            "subject_id": {"type": "string"},
                            "credits": {"type": "integer"}
                        }
                    }
                }
            }
        },
        "AssignStaffRequest": {
            "type": "object",
            "required": ["department", "subject_type", "semester", "semester_type", "regulation", "subject_id", "section_name", "staff_id"],
            "properties": {
                "department": {"type": "string"},
                "subject_type": {"type": "string"},
                "semester": {"type": "integer"},
                "semester_type": {"type": "string"},
                "regulation": {"type": "string"},
                "subject_id": {"type": "string"},
                "section_name": {"type": "string"},
                "staff_id": {"type": "string"}
            }
        },
        "JoinByCodeRequest": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "code": {"type": "string"}
            }
        },
        "SendInvitationsRequest": {
            "type": "object",
            "required": ["emails", "role"],
            "properties": {
                "emails": {"type": "array", "items": {"type": "string"}},
                "role": {"type": "string", "enum": ["student", "faculty"]}
            }
        },
        "RespondInvitationRequest": {
            "type": "object",
            "required": ["token", "action"],
            "properties": {
                "token": {"type": "string"},
                "action": {"type": "string", "enum": ["accept", "reject"]}
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
