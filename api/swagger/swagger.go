package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "StudyHall Tutoring API",
        "description": "Smart scheduling and slot reservation for the tutoring marketplace",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduling", "description": "Smart slot recommendation and swap alternatives"},
        {"name": "Reservations", "description": "Time-bounded slot holds and checkout finalization"},
        {"name": "Availability", "description": "Recurring weekly tutor availability"},
        {"name": "Auth", "description": "Login, refresh and session management"}
    ],
    "paths": {
        "/scheduling/slots/smart": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Compute a recommended schedule for a set of subject selections",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SmartSlotsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recommended schedule with coverage summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No eligible tutor for a subject", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/slots/alternatives": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List replacement slots for a swap",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string", "required": true},
                    {"name": "subjectId", "in": "query", "type": "string", "required": true},
                    {"name": "teachingType", "in": "query", "type": "string", "required": true},
                    {"name": "academicTermId", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string", "required": true},
                    {"name": "endDate", "in": "query", "type": "string", "required": true},
                    {"name": "excludeSlotIds", "in": "query", "type": "string"},
                    {"name": "sessionToken", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Candidate slots, possibly empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduling/drafts": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Load the caller's saved booking draft",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No saved draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Scheduling"],
                "summary": "Save the caller's in-progress booking draft",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scheduling"],
                "summary": "Discard the caller's saved booking draft",
                "responses": {
                    "204": {"description": "Discarded"}
                }
            }
        },
        "/reservations": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Hold a set of slots for checkout",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReserveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Hold outcome; conflicts are reported as data", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations/check": {
            "get": {
                "tags": ["Reservations"],
                "summary": "Probe whether a tutor's slot is free at a given time",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string", "required": true},
                    {"name": "dateTime", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations/{token}": {
            "delete": {
                "tags": ["Reservations"],
                "summary": "Cancel a reservation and release its holds",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations/{token}/extend": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Extend a reservation's expiry",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExtendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reservations/{token}/consume": {
            "post": {
                "tags": ["Reservations"],
                "summary": "Finalize a reservation into confirmed bookings",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConsumeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List active availability slots",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "subjectId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Register a recurring weekly availability slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAvailabilityRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/{id}": {
            "get": {
                "tags": ["Availability"],
                "summary": "Get an availability slot by id",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Availability"],
                "summary": "Update an availability slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete an availability slot",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive a token pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SmartSlotsRequest": {
            "type": "object",
            "required": ["selections", "startDate", "endDate"],
            "properties": {
                "selections": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/SubjectSelection"}
                },
                "startDate": {"type": "string", "example": "2026-01-05"},
                "endDate": {"type": "string", "example": "2026-03-27"},
                "preferredDays": {
                    "type": "array",
                    "items": {"type": "integer", "minimum": 0, "maximum": 6}
                },
                "preferredTimeRange": {"$ref": "#/definitions/PreferredTimeRange"}
            }
        },
        "PreferredTimeRange": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string", "example": "08:00"},
                "end": {"type": "string", "example": "12:00"}
            }
        },
        "SubjectSelection": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teachingType": {"type": "string", "enum": ["ONE_TO_ONE", "GROUP", "BOOKING_FIRST"]},
                "hours": {"type": "integer"}
            }
        },
        "ReserveRequest": {
            "type": "object",
            "required": ["slots"],
            "properties": {
                "slots": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ReserveSlot"}
                },
                "expirationMinutes": {"type": "integer", "minimum": 1, "maximum": 60}
            }
        },
        "ReserveSlot": {
            "type": "object",
            "properties": {
                "availabilityId": {"type": "string"},
                "teacherId": {"type": "string"},
                "subjectId": {"type": "string"},
                "studentId": {"type": "string"},
                "startsAt": {"type": "string", "format": "date-time"}
            }
        },
        "ExtendRequest": {
            "type": "object",
            "required": ["additionalMinutes"],
            "properties": {
                "additionalMinutes": {"type": "integer", "minimum": 1, "maximum": 60}
            }
        },
        "ConsumeRequest": {
            "type": "object",
            "required": ["orderId"],
            "properties": {
                "orderId": {"type": "string"}
            }
        },
        "CreateAvailabilityRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 0, "maximum": 6},
                "startTime": {"type": "string", "example": "14:00"},
                "endTime": {"type": "string", "example": "15:00"},
                "sessionType": {"type": "string", "enum": ["ONE_TO_ONE", "GROUP", "BOOKING_FIRST"]},
                "maxStudents": {"type": "integer"},
                "subjectId": {"type": "string"}
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
