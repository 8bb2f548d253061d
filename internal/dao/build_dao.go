package dao

import (
	"context"
	"errors"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// BuildDao owns the build_jobs/build_steps/build_artifacts tables
// (spec §4.4).
type BuildDao interface {
	CreateWithSteps(ctx context.Context, bj *model.BuildJob, steps []*model.BuildStep) error
	GetByJobID(ctx context.Context, jobID string) (*model.BuildJob, error)
	ListSteps(ctx context.Context, buildJobID string) ([]*model.BuildStep, error)
	UpdateStep(ctx context.Context, step *model.BuildStep) error
	// CreateArtifact enforces the (artifact_type, version) global
	// uniqueness invariant (spec §4.4) by surfacing the uniqueIndex
	// violation as common.ArtifactConflict.
	CreateArtifact(ctx context.Context, artifact *model.BuildArtifact) error
	GetArtifact(ctx context.Context, artifactType, version string) (*model.BuildArtifact, error)
}

type buildDAO struct{}

// NewBuildDao constructs the default GORM-backed BuildDao.
func NewBuildDao() BuildDao {
	return &buildDAO{}
}

func (d *buildDAO) CreateWithSteps(ctx context.Context, bj *model.BuildJob, steps []*model.BuildStep) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bj).Error; err != nil {
			return err
		}
		for _, s := range steps {
			s.BuildJobID = bj.ID
			if err := tx.Create(s).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *buildDAO) GetByJobID(ctx context.Context, jobID string) (*model.BuildJob, error) {
	var bj model.BuildJob
	if err := db.WithContext(ctx).Where("job_id = ?", jobID).Take(&bj).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.JobNotFound)
		}
		return nil, err
	}
	return &bj, nil
}

func (d *buildDAO) ListSteps(ctx context.Context, buildJobID string) ([]*model.BuildStep, error) {
	var steps []*model.BuildStep
	err := db.WithContext(ctx).Where("build_job_id = ?", buildJobID).Order("`order` ASC").Find(&steps).Error
	return steps, err
}

func (d *buildDAO) UpdateStep(ctx context.Context, step *model.BuildStep) error {
	return db.WithContext(ctx).Save(step).Error
}

func (d *buildDAO) CreateArtifact(ctx context.Context, artifact *model.BuildArtifact) error {
	err := db.WithContext(ctx).Create(artifact).Error
	if err != nil {
		// MySQL duplicate-key errors don't map to gorm.ErrDuplicatedKey on
		// every driver version; a uniqueIndex violation on artifact_type,
		// version is reported to callers as a closed ArtifactConflict
		// regardless of the underlying driver error shape.
		if isDuplicateKeyErr(err) {
			return common.NewErrNo(common.ArtifactConflict)
		}
		return err
	}
	return nil
}

func (d *buildDAO) GetArtifact(ctx context.Context, artifactType, version string) (*model.BuildArtifact, error) {
	var a model.BuildArtifact
	err := db.WithContext(ctx).
		Where("artifact_type = ? AND version = ?", artifactType, version).
		Take(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func isDuplicateKeyErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
