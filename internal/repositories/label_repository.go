package repositories

import (
	"fmt"

	"github.com/fleetlab/ota-server/internal/models"
	"github.com/fleetlab/ota-server/internal/validators"
	"gorm.io/gorm"
)

// LabelRepository handles database operations for labels
type LabelRepository struct {
	db *gorm.DB
}

// NewLabelRepository creates a new label repository instance
func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// EnsureLabels resolves label names to Label rows, creating any that do not
// exist yet. Names are trimmed and deduplicated; empties are dropped. Labels
// are never deleted here.
func (r *LabelRepository) EnsureLabels(names []string) ([]models.Label, error) {
	normalized := validators.NormalizeLabelNames(names)
	if len(normalized) == 0 {
		return nil, nil
	}

	var existing []models.Label
	if err := r.db.Where("name IN ?", normalized).Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to look up labels: %w", err)
	}

	byName := make(map[string]models.Label, len(existing))
	for _, label := range existing {
		byName[label.Name] = label
	}

	labels := make([]models.Label, 0, len(normalized))
	for _, name := range normalized {
		label, ok := byName[name]
		if !ok {
			label = models.Label{Name: name}
			if err := r.db.Create(&label).Error; err != nil {
				return nil, fmt.Errorf("failed to create label %q: %w", name, err)
			}
		}
		labels = append(labels, label)
	}

	return labels, nil
}

// FindByName retrieves a label by its unique name
func (r *LabelRepository) FindByName(name string) (*models.Label, error) {
	if name == "" {
		return nil, fmt.Errorf("label name is required")
	}

	var label models.Label
	if err := r.db.Where("name = ?", name).First(&label).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("label %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find label: %w", err)
	}

	return &label, nil
}

// List retrieves all labels ordered by name
func (r *LabelRepository) List() ([]models.Label, error) {
	var labels []models.Label
	if err := r.db.Order("name ASC").Find(&labels).Error; err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}
