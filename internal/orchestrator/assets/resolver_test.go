package assets

import (
	"context"
	"testing"

	"github.com/fleetops/fleetops/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssetDao struct {
	hostsByID    map[string]*model.Host
	hostsByGroup map[string][]*model.Host
	groups       map[string]*model.Group
}

func (f *fakeAssetDao) GetHost(ctx context.Context, id string) (*model.Host, error) {
	return f.hostsByID[id], nil
}

func (f *fakeAssetDao) ListHostsByIDs(ctx context.Context, ids []string) ([]*model.Host, error) {
	var out []*model.Host
	for _, id := range ids {
		if h, ok := f.hostsByID[id]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeAssetDao) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	return f.groups[id], nil
}

func (f *fakeAssetDao) ListHostsByGroup(ctx context.Context, groupID string) ([]*model.Host, error) {
	return f.hostsByGroup[groupID], nil
}

func TestResolver_DedupsHostsFromIDsAndGroups(t *testing.T) {
	h1 := &model.Host{ID: "h1", State: model.HostStateActive}
	h2 := &model.Host{ID: "h2", State: model.HostStateActive}
	dao := &fakeAssetDao{
		hostsByID:    map[string]*model.Host{"h1": h1},
		hostsByGroup: map[string][]*model.Host{"g1": {h1, h2}},
	}
	r := &Resolver{assetDao: dao}

	hosts, err := r.Resolve(context.Background(), []string{"h1"}, []string{"g1"})
	require.NoError(t, err)
	assert.Len(t, hosts, 2)
}

func TestResolver_ExcludesInactiveHosts(t *testing.T) {
	active := &model.Host{ID: "h1", State: model.HostStateActive}
	decommissioned := &model.Host{ID: "h2", State: model.HostStateDecommissioned}
	dao := &fakeAssetDao{hostsByID: map[string]*model.Host{"h1": active, "h2": decommissioned}}
	r := &Resolver{assetDao: dao}

	hosts, err := r.Resolve(context.Background(), []string{"h1", "h2"}, nil)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "h1", hosts[0].ID)
}

func TestResolver_EmptyResultIsRequestInvalid(t *testing.T) {
	dao := &fakeAssetDao{}
	r := &Resolver{assetDao: dao}

	_, err := r.Resolve(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestResolver_AnyCritical_TrueWhenOneGroupCritical(t *testing.T) {
	dao := &fakeAssetDao{groups: map[string]*model.Group{
		"g1": {ID: "g1", IsCritical: false},
		"g2": {ID: "g2", IsCritical: true},
	}}
	r := &Resolver{assetDao: dao}

	critical, err := r.AnyCritical(context.Background(), []string{"g1", "g2"})
	require.NoError(t, err)
	assert.True(t, critical)
}

func TestResolver_AnyCritical_FalseWhenNoneCritical(t *testing.T) {
	dao := &fakeAssetDao{groups: map[string]*model.Group{
		"g1": {ID: "g1", IsCritical: false},
	}}
	r := &Resolver{assetDao: dao}

	critical, err := r.AnyCritical(context.Background(), []string{"g1"})
	require.NoError(t, err)
	assert.False(t, critical)
}
