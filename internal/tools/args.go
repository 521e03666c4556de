package tools

import (
	"encoding/json"

	"github.com/tablegate/tablegate/pkg/toolerr"
	"github.com/tablegate/tablegate/pkg/validation"
)

// decodeArgs binds a raw argument map onto a typed input struct and runs
// struct validation. Missing required keys surface as MissingArgumentError;
// type mismatches and rule violations as ValidationError.
func decodeArgs(args map[string]any, in any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return &toolerr.ValidationError{Msg: "arguments are not valid JSON: " + err.Error()}
	}
	if err := json.Unmarshal(raw, in); err != nil {
		return &toolerr.ValidationError{Msg: "invalid argument types: " + err.Error()}
	}
	if err := validation.ValidateStruct(in); err != nil {
		var missing *toolerr.MissingArgumentError
		if asMissing(err, &missing) {
			return missing
		}
		return &toolerr.ValidationError{Msg: err.Error()}
	}
	return nil
}

func asMissing(err error, target **toolerr.MissingArgumentError) bool {
	m, ok := err.(*toolerr.MissingArgumentError)
	if ok {
		*target = m
	}
	return ok
}

// clampPositive returns v bounded to (0, max], substituting fallback when v
// is unset or non-positive.
func clampPositive(v, fallback, max int) int {
	if v <= 0 {
		v = fallback
	}
	if max > 0 && v > max {
		v = max
	}
	return v
}
