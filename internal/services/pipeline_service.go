package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/justsurfingit/hiretrack/internal/dtos"
	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/gorm"
)

// PipelineService owns pipelines and their ordered stages. Other services
// treat stage definitions as read-only.
type PipelineService struct {
	DB *gorm.DB
}

func NewPipelineService(db *gorm.DB) *PipelineService {
	return &PipelineService{DB: db}
}

// defaultStageTemplate is the fixed pipeline synthesized for a tenant that has
// none yet. SLA days are nil on terminal stages: once hired or rejected there
// is nothing left to track.
var defaultStageTemplate = []struct {
	name       string
	color      string
	slaDays    *int
	isTerminal bool
}{
	{"Applied", "#6366F1", intPtr(7), false},
	{"Screening", "#8B5CF6", intPtr(5), false},
	{"Phone Screen", "#EC4899", intPtr(7), false},
	{"Interview", "#F59E0B", intPtr(10), false},
	{"Offer", "#10B981", intPtr(5), false},
	{"Hired", "#22C55E", nil, true},
	{"Rejected", "#EF4444", nil, true},
}

func intPtr(n int) *int { return &n }

// CreatePipeline inserts a pipeline and its stages, order assigned by array
// position. When the new pipeline is default, clearing the tenant's previous
// default happens in the same transaction so two concurrent creates cannot
// both end up default.
func (s *PipelineService) CreatePipeline(req *dtos.PipelineCreationRequest) (*models.Pipeline, error) {
	pipeline := &models.Pipeline{
		TenantID:    req.TenantID,
		Name:        req.Name,
		Description: req.Description,
		IsDefault:   req.IsDefault,
	}
	for i, st := range req.Stages {
		pipeline.Stages = append(pipeline.Stages, models.PipelineStage{
			Name:       st.Name,
			StageOrder: i,
			Color:      st.Color,
			SLADays:    st.SLADays,
			IsTerminal: st.IsTerminal,
		})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.Pipeline{}).
				Where("tenant_id = ? AND is_default = ?", req.TenantID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(pipeline).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	return pipeline, nil
}

// CreateDefaultPipeline seeds the fixed 7-stage template for a tenant.
func (s *PipelineService) CreateDefaultPipeline(tenantID uint) (*models.Pipeline, error) {
	req := &dtos.PipelineCreationRequest{
		TenantID:    tenantID,
		Name:        "Default Hiring Pipeline",
		Description: "Standard hiring stages",
		IsDefault:   true,
	}
	for _, st := range defaultStageTemplate {
		req.Stages = append(req.Stages, dtos.StageInput{
			Name:       st.name,
			Color:      st.color,
			SLADays:    st.slaDays,
			IsTerminal: st.isTerminal,
		})
	}
	log.Printf("Seeding default pipeline for tenant %d", tenantID)
	return s.CreatePipeline(req)
}

// ListPipelines returns a tenant's pipelines with ordered stages, synthesizing
// the default pipeline on first access when the tenant has none.
func (s *PipelineService) ListPipelines(tenantID uint) ([]models.Pipeline, error) {
	var pipelines []models.Pipeline
	err := s.DB.
		Where("tenant_id = ?", tenantID).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("stage_order ASC") }).
		Find(&pipelines).Error
	if err != nil {
		return nil, err
	}
	if len(pipelines) > 0 {
		return pipelines, nil
	}

	created, err := s.CreateDefaultPipeline(tenantID)
	if err != nil {
		return nil, err
	}
	return []models.Pipeline{*created}, nil
}

// GetPipeline returns one pipeline with its stages in order.
func (s *PipelineService) GetPipeline(id uint) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	err := s.DB.
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("stage_order ASC") }).
		First(&pipeline, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("pipeline %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// SetDefault marks a pipeline as its tenant's default, clearing the previous
// default inside the same transaction.
func (s *PipelineService) SetDefault(pipelineID uint) (*models.Pipeline, error) {
	pipeline, err := s.GetPipeline(pipelineID)
	if err != nil {
		return nil, err
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Pipeline{}).
			Where("tenant_id = ? AND is_default = ? AND id <> ?", pipeline.TenantID, true, pipeline.ID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Pipeline{}).
			Where("id = ?", pipeline.ID).
			Update("is_default", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("set default pipeline: %w", err)
	}
	pipeline.IsDefault = true
	return pipeline, nil
}

// ReorderStages rewrites stage order to match the given id list. The id set
// must be exactly the pipeline's current stage set: no partial reorders, no
// foreign ids. All order updates commit together or not at all.
func (s *PipelineService) ReorderStages(pipelineID uint, orderedStageIDs []uint) error {
	if _, err := s.GetPipeline(pipelineID); err != nil {
		return err
	}

	var current []models.PipelineStage
	if err := s.DB.Where("pipeline_id = ?", pipelineID).Find(&current).Error; err != nil {
		return err
	}

	if len(orderedStageIDs) != len(current) {
		return fmt.Errorf("reorder needs all %d stages, got %d: %w", len(current), len(orderedStageIDs), ErrInvalidInput)
	}
	existing := make(map[uint]bool, len(current))
	for _, st := range current {
		existing[st.ID] = true
	}
	seen := make(map[uint]bool, len(orderedStageIDs))
	for _, id := range orderedStageIDs {
		if !existing[id] {
			return fmt.Errorf("stage %d does not belong to pipeline %d: %w", id, pipelineID, ErrInvalidInput)
		}
		if seen[id] {
			return fmt.Errorf("stage %d listed twice: %w", id, ErrInvalidInput)
		}
		seen[id] = true
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedStageIDs {
			if err := tx.Model(&models.PipelineStage{}).
				Where("id = ?", id).
				Update("stage_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveStage deletes a stage unless an application currently sits in it.
// The surviving orders may keep a gap; contiguity is not auto-repaired here.
func (s *PipelineService) RemoveStage(stageID uint) error {
	var stage models.PipelineStage
	err := s.DB.First(&stage, stageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("stage %d: %w", stageID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	var count int64
	if err := s.DB.Model(&models.Application{}).
		Where("current_stage_id = ?", stageID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("stage %d has %d active applications: %w", stageID, count, ErrConflict)
	}

	return s.DB.Delete(&stage).Error
}
