package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre     string  `json:"nombre"      validate:"required,min=2"`
	Documento  string  `json:"documento"   validate:"required,min=6"`
	Telefono   *string `json:"telefono"`
	Email      *string `json:"email" validate:"omitempty,email"`
	ObraSocial *string `json:"obra_social"`
}

type ActualizarClienteRequest struct {
	Nombre     string  `json:"nombre"`
	Telefono   *string `json:"telefono"`
	Email      *string `json:"email" validate:"omitempty,email"`
	ObraSocial *string `json:"obra_social"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID         string  `json:"id"`
	Nombre     string  `json:"nombre"`
	Documento  string  `json:"documento"`
	Telefono   *string `json:"telefono"`
	Email      *string `json:"email"`
	ObraSocial *string `json:"obra_social"`
	Activo     bool    `json:"activo"`
}
