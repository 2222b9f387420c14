package dtos

// StageInput is one stage of a pipeline creation request. Order is assigned
// by array position, not by the payload.
type StageInput struct {
	Name       string `json:"name" binding:"required"`
	Color      string `json:"color"`
	SLADays    *int   `json:"sla_days"`
	IsTerminal bool   `json:"is_terminal"`
}

type PipelineCreationRequest struct {
	TenantID    uint         `json:"tenant_id" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	IsDefault   bool         `json:"is_default"`
	Stages      []StageInput `json:"stages" binding:"required,min=1,dive"`
}

type StageReorderRequest struct {
	StageIDs []uint `json:"stage_ids" binding:"required,min=1"`
}
