package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablegate/tablegate/internal/gateway"
)

func TestComputeSyncPlan(t *testing.T) {
	source := []gateway.Record{
		rec("s1", map[string]any{"Key": "K1", "Val": "new"}),
		rec("s2", map[string]any{"Key": "K2", "Val": "same"}),
		rec("s3", map[string]any{"Key": "K3", "Val": "changed"}),
	}
	target := []gateway.Record{
		rec("t1", map[string]any{"Key": "K2", "Val": "same"}),
		rec("t2", map[string]any{"Key": "K3", "Val": "old"}),
		rec("t3", map[string]any{"Key": "K4", "Val": "orphan"}),
	}

	plan := ComputeSyncPlan(source, target, "Key")

	assert.Equal(t, 3, plan.SourceCount)
	assert.Equal(t, 3, plan.TargetCount)

	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "s1", plan.ToCreate[0].ID)

	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, "s3", plan.ToUpdate[0].Source.ID)
	assert.Equal(t, "t2", plan.ToUpdate[0].Target.ID)
	assert.Equal(t, "K3", plan.ToUpdate[0].KeyValue)

	require.Len(t, plan.ToDelete, 1)
	assert.Equal(t, "t3", plan.ToDelete[0].ID)
}

func TestComputeSyncPlanSkipsMissingKeys(t *testing.T) {
	source := []gateway.Record{
		rec("s1", map[string]any{"Key": ""}),
		rec("s2", map[string]any{"Other": "x"}),
	}
	target := []gateway.Record{
		rec("t1", map[string]any{"Key": nil}),
	}

	plan := ComputeSyncPlan(source, target, "Key")
	assert.Empty(t, plan.ToCreate)
	assert.Empty(t, plan.ToUpdate)
	assert.Empty(t, plan.ToDelete)
}

func TestComputeSyncPlanLastTargetWins(t *testing.T) {
	source := []gateway.Record{
		rec("s1", map[string]any{"Key": "K1", "Val": "v"}),
	}
	target := []gateway.Record{
		rec("t1", map[string]any{"Key": "K1", "Val": "old"}),
		rec("t2", map[string]any{"Key": "K1", "Val": "v"}),
	}

	plan := ComputeSyncPlan(source, target, "Key")
	assert.Empty(t, plan.ToUpdate, "source matches the last target record with the key")
	assert.Empty(t, plan.ToDelete)
}
