// Package docs registra la especificación OpenAPI que sirve /swagger.
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
        "/health": {"get": {"tags": ["ops"], "summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Listar mascotas publicadas", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["pets"], "summary": "Publicar mascota", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "validación"}, "401": {"description": "unauthorized"}}}
        },
        "/pets/{petID}": {"get": {"tags": ["pets"], "summary": "Obtener mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "pet not found"}}}},
        "/pets/{petID}/status": {"post": {"tags": ["pets"], "summary": "Cambiar estado de la mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "409": {"description": "invalid transition"}}}},
        "/pets/{petID}/events": {"get": {"tags": ["events"], "summary": "Timeline de una mascota", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}}},
        "/pets/{petID}/apply": {"post": {"tags": ["adoptions"], "summary": "Solicitar adopción", "parameters": [{"type": "string", "name": "petID", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "409": {"description": "pet not adoptable"}}}},
        "/adoptions/{adoptionID}": {"patch": {"tags": ["adoptions"], "summary": "Revisar solicitud", "parameters": [{"type": "string", "name": "adoptionID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "409": {"description": "conflict"}}}},
        "/donations": {
            "get": {"tags": ["donations"], "summary": "Listar donaciones", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["donations"], "summary": "Ofrecer una mascota en donación", "consumes": ["application/json", "multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/donations/{donationID}/approve": {"post": {"tags": ["donations"], "summary": "Aprobar donación y crear la mascota", "parameters": [{"type": "string", "name": "donationID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}}}},
        "/lost": {
            "get": {"tags": ["lost"], "summary": "Listar reportes de pérdida", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["lost"], "summary": "Reportar mascota perdida", "consumes": ["application/json", "multipart/form-data"], "responses": {"201": {"description": "Created"}}}
        },
        "/lost/geo": {"get": {"tags": ["lost"], "summary": "Reportes con coordenadas (mapa)", "responses": {"200": {"description": "OK"}}}},
        "/lost/{lostID}/status": {"post": {"tags": ["lost"], "summary": "Cambiar estado del reporte", "parameters": [{"type": "string", "name": "lostID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "invalid transition"}}}},
        "/shelters": {
            "get": {"tags": ["shelters"], "summary": "Listar refugios", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["shelters"], "summary": "Crear refugio", "responses": {"201": {"description": "Created"}, "409": {"description": "name taken"}}}
        },
        "/fosters": {
            "get": {"tags": ["fosters"], "summary": "Listar postulaciones", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["fosters"], "summary": "Postularse como familia de acogida", "responses": {"201": {"description": "Created"}, "409": {"description": "a pending application already exists"}}}
        },
        "/fosters/{applicationID}/approve": {"post": {"tags": ["fosters"], "summary": "Aprobar postulación (staff)", "parameters": [{"type": "string", "name": "applicationID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "application already rejected"}}}},
        "/fosters/{applicationID}/reject": {"post": {"tags": ["fosters"], "summary": "Rechazar postulación (staff)", "parameters": [{"type": "string", "name": "applicationID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "application already approved"}}}},
        "/users/{userID}/foster": {"get": {"tags": ["fosters"], "summary": "Perfil de familia de acogida de un usuario", "parameters": [{"type": "string", "name": "userID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}}},
        "/geo/countries": {"get": {"tags": ["geo"], "summary": "Listar países", "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "StrayPet API",
	Description:      "Adopciones, donaciones y mascotas perdidas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
