package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Admissions API",
        "description": "Student admission, verification and document desk for the campus back office",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Admin login and session checks"},
        {"name": "Registration", "description": "Public student registration wizard"},
        {"name": "OTP", "description": "Phone verification codes"},
        {"name": "Students", "description": "Roster, status and photo management"},
        {"name": "Documents", "description": "Document verification and admission slips"},
        {"name": "Attendance", "description": "Admission-day attendance desk"},
        {"name": "Admin", "description": "Statistics, exports and audit trail"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/admin/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AdminLoginResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/verify-token": {
            "get": {
                "tags": ["Auth"],
                "summary": "Verify session token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VerifyTokenResponse"}},
                    "401": {"description": "Expired or missing session", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/admin/department-stats/{department}": {
            "get": {
                "tags": ["Admin"],
                "summary": "Department statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DepartmentStatsResponse"}}
                }
            }
        },
        "/api/admin/audit-logs": {
            "get": {
                "tags": ["Admin"],
                "summary": "Recent audit trail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuditLogsResponse"}}
                }
            }
        },
        "/api/departments": {
            "get": {
                "tags": ["Registration"],
                "summary": "List open departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DepartmentsResponse"}}
                }
            }
        },
        "/api/students/register": {
            "post": {
                "tags": ["Registration"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/RegistrationResponse"}},
                    "409": {"description": "Duplicate email or phone", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students/status": {
            "post": {
                "tags": ["Registration"],
                "summary": "Check application status by student ID",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StatusCheckResponse"}},
                    "404": {"description": "Unknown student ID", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/send-otp": {
            "post": {
                "tags": ["OTP"],
                "summary": "Send a phone verification code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SendOTPResponse"}},
                    "429": {"description": "Cooldown active", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "503": {"description": "SMS provider unavailable", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/verify-otp": {
            "post": {
                "tags": ["OTP"],
                "summary": "Verify a phone code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VerifyOTPResponse"}},
                    "400": {"description": "Wrong or expired code", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentsResponse"}}
                }
            }
        },
        "/api/students/department/{department}/pending-verification": {
            "get": {
                "tags": ["Students"],
                "summary": "Students awaiting document verification",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentsResponse"}},
                    "403": {"description": "Department belongs to another admin", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students/{id}/status": {
            "put": {
                "tags": ["Students"],
                "summary": "Change a student's admission status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StatusUpdateResponse"}},
                    "409": {"description": "Transition not allowed", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students/{id}/photo": {
            "post": {
                "tags": ["Students"],
                "summary": "Upload a student photo",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentResponse"}}
                }
            }
        },
        "/api/students/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "Document checklist for a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DocumentsResponse"}}
                }
            },
            "put": {
                "tags": ["Documents"],
                "summary": "Save a student's document checklist",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveDocumentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SaveDocumentsResponse"}}
                }
            }
        },
        "/api/students/bulk-verify-documents": {
            "post": {
                "tags": ["Documents"],
                "summary": "Verify all documents for many students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkVerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkVerifyResponse"}}
                }
            }
        },
        "/api/students/{id}/print-document": {
            "get": {
                "tags": ["Documents"],
                "summary": "Generate or reuse an admission slip",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PrintDocumentResponse"}},
                    "409": {"description": "Student not verified yet", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/documents/{token}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a generated slip by signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Bad or expired token", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/api/students/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the roster as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "department", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        },
        "/api/attendance/mark": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a student present",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendanceMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AttendanceMarkResponse"}}
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["username", "password"]
        },
        "AdminLoginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "token": {"type": "string"},
                "expiresIn": {"type": "integer"},
                "admin": {"type": "object"}
            }
        },
        "VerifyTokenResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "admin": {"type": "object"}
            }
        },
        "RegistrationRequest": {
            "type": "object",
            "properties": {
                "personal": {"type": "object"},
                "contact": {"type": "object"},
                "guardian": {"type": "object"},
                "academic": {"type": "object"},
                "department": {"type": "string"}
            },
            "required": ["personal", "contact", "department"]
        },
        "RegistrationResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "receipt": {"type": "object"}
            }
        },
        "StatusCheckRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "StatusCheckResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "student": {"type": "object"}
            }
        },
        "SendOTPRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"}
            },
            "required": ["phone"]
        },
        "SendOTPResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "expiresInSeconds": {"type": "integer"}
            }
        },
        "VerifyOTPRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "code": {"type": "string"}
            },
            "required": ["phone", "code"]
        },
        "VerifyOTPResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "verified": {"type": "boolean"}
            }
        },
        "StudentsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "students": {"type": "array", "items": {"type": "object"}},
                "count": {"type": "integer"}
            }
        },
        "StudentResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "student": {"type": "object"}
            }
        },
        "StatusUpdateRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "StatusUpdateResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "DocumentsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "links": {"type": "object"}
            }
        },
        "SaveDocumentsRequest": {
            "type": "object",
            "properties": {
                "documents": {"type": "object"},
                "departmentAdmin": {"type": "string"}
            },
            "required": ["documents"]
        },
        "SaveDocumentsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "allRequiredDocumentsVerified": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "BulkVerifyRequest": {
            "type": "object",
            "properties": {
                "studentIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["studentIds"]
        },
        "BulkVerifyResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "verified": {"type": "integer"},
                "skipped": {"type": "integer"}
            }
        },
        "PrintDocumentResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "action": {"type": "string"},
                "downloadUrl": {"type": "string"},
                "fileName": {"type": "string"}
            }
        },
        "AttendanceMarkRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"}
            },
            "required": ["studentId"]
        },
        "AttendanceMarkResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "alreadyPresent": {"type": "boolean"},
                "student": {"type": "object"}
            }
        },
        "DepartmentsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "departments": {"type": "array", "items": {"type": "object"}}
            }
        },
        "DepartmentStatsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "stats": {"type": "array", "items": {"type": "object"}},
                "system": {"type": "object"}
            }
        },
        "AuditLogsResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "logs": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"},
                "code": {"type": "string"}
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
