// Package docs registra el documento OpenAPI que sirve /swagger.
// Se regenera con: swag init -g cmd/api/main.go -o docs
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
        "/medications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Listar medicamentos",
                "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["medications"],
                "summary": "Crear medicamento",
                "parameters": [
                    {"description": "Medicamento", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createMedicationRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "datos inválidos o sin tomas futuras"}, "500": {"description": "error al guardar las tomas"}}
            }
        },
        "/medications/{medicationID}": {
            "get": {
                "tags": ["medications"],
                "summary": "Detalle de medicamento",
                "parameters": [{"type": "string", "name": "medicationID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "medication not found"}}
            },
            "patch": {
                "tags": ["medications"],
                "summary": "Editar medicamento",
                "parameters": [{"type": "string", "name": "medicationID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "datos inválidos"}, "404": {"description": "medication not found"}}
            },
            "delete": {
                "tags": ["medications"],
                "summary": "Borrar medicamento",
                "parameters": [{"type": "string", "name": "medicationID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "medication not found"}}
            }
        },
        "/medications/{medicationID}/compliance": {
            "get": {
                "tags": ["medications"],
                "summary": "Adherencia de un medicamento",
                "parameters": [
                    {"type": "string", "name": "medicationID", "in": "path", "required": true},
                    {"type": "string", "description": "today|all (default today)", "name": "scope", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/compliance.Stats"}}}
            }
        },
        "/medications/{medicationID}/doses": {
            "get": {
                "tags": ["medications"],
                "summary": "Tomas de un medicamento",
                "parameters": [
                    {"type": "string", "name": "medicationID", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/doses": {
            "get": {
                "tags": ["doses"],
                "summary": "Listar dosis del paciente",
                "responses": {"200": {"description": "OK"}, "400": {"description": "filtros inválidos"}}
            }
        },
        "/me/compliance": {
            "get": {
                "tags": ["medications"],
                "summary": "Resumen de adherencia de hoy",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/compliance.Stats"}}}
            }
        },
        "/me/alarm": {
            "get": {
                "tags": ["alarm"],
                "summary": "Estado de la alarma",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/alarm/decision": {
            "post": {
                "tags": ["alarm"],
                "summary": "Registrar decisión",
                "parameters": [
                    {"description": "taken|missed", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/decisionRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "sin alarma activa o ya resuelta"}, "503": {"description": "no se pudo guardar; la alarma sigue activa"}}
            }
        },
        "/me/alarm/audio": {
            "put": {
                "tags": ["alarm"],
                "summary": "Habilitar o silenciar el sonido",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/session": {
            "delete": {
                "tags": ["alarm"],
                "summary": "Cerrar sesión de alarmas",
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "createMedicationRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "dosage": {"type": "string"},
                "frequency_count": {"type": "integer", "minimum": 1, "maximum": 24},
                "first_dose_time": {"type": "string", "example": "08:00"},
                "start_date": {"type": "string", "example": "2024-06-01"},
                "end_date": {"type": "string", "example": "2024-06-30"},
                "notes": {"type": "string"}
            }
        },
        "decisionRequest": {
            "type": "object",
            "properties": {"status": {"type": "string", "enum": ["taken", "missed"]}}
        },
        "compliance.Stats": {
            "type": "object",
            "properties": {
                "taken": {"type": "integer"},
                "missed": {"type": "integer"},
                "goal": {"type": "integer"},
                "rate": {"type": "integer"}
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
	Title:            "Dose Tracker API",
	Description:      "Horarios de medicación, tomas programadas, adherencia y alarmas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
