package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwagger_RegistradoYValido(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var spec struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	assert.Equal(t, "2.0", spec.Swagger)

	for _, p := range []string{
		"/api/products/{id}/movements",
		"/api/products/{id}/kardex.pdf",
		"/api/cart/evaluate",
		"/api/orders/{id}/commit",
	} {
		assert.Contains(t, spec.Paths, p)
	}
	assert.Contains(t, spec.Paths["/api/offers/{id}/status"], "patch")
}
