package analysis

import (
	"fmt"
	"reflect"

	"github.com/tablegate/tablegate/internal/gateway"
)

// UpdatePair couples a source record with the differing target record that
// shares its key value.
type UpdatePair struct {
	Source   gateway.Record
	Target   gateway.Record
	KeyValue any
}

// SyncPlan is the advisory diff between a source and a target table keyed by
// one field. It is always a dry-run artifact; nothing here executes writes.
type SyncPlan struct {
	SourceCount int
	TargetCount int
	ToCreate    []gateway.Record
	ToUpdate    []UpdatePair
	ToDelete    []gateway.Record
}

// keyString stringifies a key-field value; empty means the record has no
// usable key and is skipped.
func keyString(v any) string {
	if v == nil || v == "" {
		return ""
	}
	return fmt.Sprint(v)
}

// ComputeSyncPlan diffs source records against target records by key field:
// source keys absent from the target become creates, present-but-different
// field maps become updates, and target keys never seen in the source become
// deletes. When the target holds several records with the same key, the last
// one wins the index, matching a by-key upsert semantic.
func ComputeSyncPlan(source, target []gateway.Record, keyField string) SyncPlan {
	plan := SyncPlan{SourceCount: len(source), TargetCount: len(target)}

	targetIndex := map[string]gateway.Record{}
	var targetOrder []string
	for _, rec := range target {
		key := keyString(rec.Fields[keyField])
		if key == "" {
			continue
		}
		if _, seen := targetIndex[key]; !seen {
			targetOrder = append(targetOrder, key)
		}
		targetIndex[key] = rec
	}

	sourceKeys := map[string]struct{}{}
	for _, rec := range source {
		key := keyString(rec.Fields[keyField])
		if key == "" {
			continue
		}
		sourceKeys[key] = struct{}{}

		targetRec, ok := targetIndex[key]
		if !ok {
			plan.ToCreate = append(plan.ToCreate, rec)
			continue
		}
		if !reflect.DeepEqual(rec.Fields, targetRec.Fields) {
			plan.ToUpdate = append(plan.ToUpdate, UpdatePair{
				Source:   rec,
				Target:   targetRec,
				KeyValue: rec.Fields[keyField],
			})
		}
	}

	for _, key := range targetOrder {
		if _, ok := sourceKeys[key]; !ok {
			plan.ToDelete = append(plan.ToDelete, targetIndex[key])
		}
	}
	return plan
}
