package dao

import (
	"context"
	"errors"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// AssetDao is a read-only view onto the external inventory tables
// (assets_hosts, assets_groups — spec §3, §6). The core never writes these;
// InitDB deliberately omits them from AutoMigrate.
type AssetDao interface {
	GetHost(ctx context.Context, id string) (*model.Host, error)
	ListHostsByIDs(ctx context.Context, ids []string) ([]*model.Host, error)
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	// ListHostsByGroup expands a group reference into its member hosts at
	// submission time, before the target set is frozen onto the job
	// (spec §4.1 — "group membership resolved once, at creation").
	ListHostsByGroup(ctx context.Context, groupID string) ([]*model.Host, error)
}

type assetDAO struct{}

// NewAssetDao constructs the default GORM-backed AssetDao.
func NewAssetDao() AssetDao {
	return &assetDAO{}
}

func (d *assetDAO) GetHost(ctx context.Context, id string) (*model.Host, error) {
	var h model.Host
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.HostNotFound)
		}
		return nil, err
	}
	return &h, nil
}

func (d *assetDAO) ListHostsByIDs(ctx context.Context, ids []string) ([]*model.Host, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var hosts []*model.Host
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&hosts).Error
	return hosts, err
}

func (d *assetDAO) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.GroupNotFound)
		}
		return nil, err
	}
	return &g, nil
}

func (d *assetDAO) ListHostsByGroup(ctx context.Context, groupID string) ([]*model.Host, error) {
	var hosts []*model.Host
	err := db.WithContext(ctx).
		Where("JSON_CONTAINS(group_ids, JSON_QUOTE(?))", groupID).
		Find(&hosts).Error
	return hosts, err
}
