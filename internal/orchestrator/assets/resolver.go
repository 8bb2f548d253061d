package assets

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
)

// Resolver expands a submission's host/group references into a frozen,
// deduplicated host list, once, at job creation (spec §4.1 — "group
// membership resolved once, at creation; later membership changes never
// affect an already-created job").
type Resolver struct {
	assetDao dao.AssetDao
}

// NewResolver constructs a Resolver against the default AssetDao.
func NewResolver() *Resolver {
	return &Resolver{assetDao: dao.NewAssetDao()}
}

// Resolve returns the deduplicated, active hosts named by hostIDs directly
// or indirectly through groupIDs. An empty overall result is a
// RequestInvalid — a job with zero targets is never created.
func (r *Resolver) Resolve(ctx context.Context, hostIDs, groupIDs []string) ([]*model.Host, error) {
	seen := make(map[string]*model.Host)

	if len(hostIDs) > 0 {
		hosts, err := r.assetDao.ListHostsByIDs(ctx, hostIDs)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			seen[h.ID] = h
		}
	}

	for _, gid := range groupIDs {
		hosts, err := r.assetDao.ListHostsByGroup(ctx, gid)
		if err != nil {
			return nil, err
		}
		for _, h := range hosts {
			seen[h.ID] = h
		}
	}

	result := make([]*model.Host, 0, len(seen))
	for _, h := range seen {
		if h.State != model.HostStateActive {
			continue
		}
		result = append(result, h)
	}
	if len(result) == 0 {
		return nil, common.NewErrNo(common.RequestInvalid)
	}
	return result, nil
}

// AnyCritical reports whether any resolved group is marked critical — one
// of the approval triggers (spec §4.5).
func (r *Resolver) AnyCritical(ctx context.Context, groupIDs []string) (bool, error) {
	for _, gid := range groupIDs {
		g, err := r.assetDao.GetGroup(ctx, gid)
		if err != nil {
			return false, err
		}
		if g.IsCritical {
			return true, nil
		}
	}
	return false, nil
}
