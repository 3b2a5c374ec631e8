package model

import (
	"fmt"
	"math"

	"github.com/roach88/joe/internal/record"
)

// Checks returns the Go-side invariants referenced by the declarations.
func Checks() map[string]record.Check {
	return map[string]record.Check{
		"propagator_steps":      propagatorSteps,
		"propagator_tolerances": propagatorTolerances,
		"battery_discharge":     batteryDischarge,
		"result_lengths":        resultLengths,
	}
}

// propagatorSteps orders the step sizes: 0 <= min_step <= first_step <= max_step,
// where an absent min is 0 and an absent max is unbounded.
var propagatorSteps = record.Check{
	Name: "propagator_steps",
	Func: func(in *record.Instance) error {
		lo, hasMin := in.Float("min_step")
		hi, hasMax := in.Float("max_step")
		if !hasMax {
			hi = math.Inf(1)
		}
		if hasMin && (lo < 0 || lo > hi) {
			return fmt.Errorf("min_step must be within [0, max_step], got %v", lo)
		}
		if hasMax && hi < lo {
			return fmt.Errorf("max_step must be at least min_step, got %v", hi)
		}
		if first, ok := in.Float("first_step"); ok && (first < lo || first > hi) {
			return fmt.Errorf("first_step must be within [min_step, max_step], got %v", first)
		}
		return nil
	},
}

var propagatorTolerances = record.Check{
	Name:  "propagator_tolerances",
	Field: "tolerances",
	Func: func(in *record.Instance) error {
		v, _ := in.Get("tolerances")
		tol, ok := v.([]any)
		if !ok || len(tol) != 2 {
			return fmt.Errorf("tolerances must be a pair")
		}
		abs, ok := tol[0].(float64)
		if !ok || abs <= 0 {
			return fmt.Errorf("absolute tolerance must be positive, got %v", tol[0])
		}
		if tol[1] == nil {
			return nil
		}
		if rel, ok := tol[1].(float64); !ok || rel <= 0 {
			return fmt.Errorf("relative tolerance must be positive, got %v", tol[1])
		}
		return nil
	},
}

var batteryDischarge = record.Predicate(
	"battery_discharge",
	"recommended_discharge_rate",
	"recommended_discharge_rate must not exceed maximum_discharge_rate",
	func(in *record.Instance) bool {
		rec, _ := in.Float("recommended_discharge_rate")
		max, _ := in.Float("maximum_discharge_rate")
		return rec <= max
	},
)

// resultSeries are the PropagationResult fields sampled at every timestamp.
var resultSeries = []string{
	"orbits", "masses", "attitudes", "lighting_ratios", "thrust_directions",
	"thrust_magnitudes", "delta_v", "total_impulse",
}

var resultLengths = record.Check{
	Name: "result_lengths",
	Func: func(in *record.Instance) error {
		n := seriesLen(in, "timestamps")
		for _, f := range resultSeries {
			if got := seriesLen(in, f); got != n {
				return fmt.Errorf("%s has %d samples, timestamps has %d", f, got, n)
			}
		}
		return nil
	},
}

func seriesLen(in *record.Instance, field string) int {
	v, _ := in.Get(field)
	items, _ := v.([]any)
	return len(items)
}
