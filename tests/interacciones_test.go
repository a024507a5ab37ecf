package tests

import (
	"testing"

	"farmapos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteraccionConocida(t *testing.T) {
	svc := service.NewInteraccionesService()

	alertas := svc.Verificar([]string{"ibuprofeno", "warfarina"})
	require.Len(t, alertas, 1)
	assert.Equal(t, "alta", alertas[0].Severidad)
	assert.Equal(t, "ibuprofeno", alertas[0].PrincipioA)
	assert.Equal(t, "warfarina", alertas[0].PrincipioB)
}

func TestInteraccionNormalizaYDeduplica(t *testing.T) {
	svc := service.NewInteraccionesService()

	// Mayúsculas, espacios y repetidos no cambian el resultado.
	alertas := svc.Verificar([]string{"  Warfarina ", "IBUPROFENO", "warfarina", ""})
	require.Len(t, alertas, 1)
	assert.Equal(t, "alta", alertas[0].Severidad)
}

func TestInteraccionesMultiplesPares(t *testing.T) {
	svc := service.NewInteraccionesService()

	// warfarina interactúa con ibuprofeno Y con aspirina; además
	// ibuprofeno+aspirina entre sí: tres pares en total.
	alertas := svc.Verificar([]string{"ibuprofeno", "aspirina", "warfarina"})
	assert.Len(t, alertas, 3)
}

func TestSinInteraccion(t *testing.T) {
	svc := service.NewInteraccionesService()

	alertas := svc.Verificar([]string{"paracetamol", "loratadina"})
	assert.Empty(t, alertas)
}
