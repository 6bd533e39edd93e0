// Package docs registra la especificación Swagger del API (generada a partir de las anotaciones
// godoc de los handlers).
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

// SwaggerJSON especificación Swagger 2.0 servida en /docs.
//
//go:embed swagger.json
var SwaggerJSON []byte

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Kardex API",
	Description:      "Kardex de inventario, motor de precios y ofertas, y checkout con reservas.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  string(SwaggerJSON),
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
