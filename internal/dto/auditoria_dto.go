package dto

// AuditoriaRequest filters the append-only audit log.
type AuditoriaRequest struct {
	EntityType *string `form:"entity_type"`
	EntityID   *string `form:"entity_id"`
	UsuarioID  *string `form:"usuario_id"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}

type AuditoriaRecord struct {
	ID            string  `json:"id"`
	UsuarioID     string  `json:"usuario_id"`
	Usuario       string  `json:"usuario"`
	Accion        string  `json:"accion"`
	EntityType    string  `json:"entity_type"`
	EntityID      string  `json:"entity_id"`
	OldValues     string  `json:"old_values"`
	NewValues     string  `json:"new_values"`
	Justificacion string  `json:"justificacion"`
	IPAddress     *string `json:"ip_address"`
	CreatedAt     string  `json:"created_at"`
}

type AuditoriaResponse struct {
	Records  []AuditoriaRecord `json:"records"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
