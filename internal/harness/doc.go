// Package harness runs record construction scenarios.
//
// A scenario is a YAML file listing construction steps against a
// compiler.Registry, what each step is expected to produce, and assertions
// over the records built along the way. The harness is used by `joe test`
// and by the golden tests of this repository.
//
// # Scenario Format
//
//	name: sso_orbit
//	description: "Orbit template with an override"
//	id_prefix: orbit
//	steps:
//	  - construct: Orbit
//	    template: SSO-LEO
//	    input: { true_anomaly: 10.0 }
//	    as: sso
//	    put: true
//	    expect:
//	      fields: { inclination: 98.2 }
//	  - decode: Orbit
//	    json: '{"eccentricity": 1.5}'
//	    expect:
//	      error: VALIDATION_FAILED
//	      path: eccentricity
//	assertions:
//	  - type: universe_size
//	    count: 1
//	  - type: stored_count
//	    record_type: Orbit
//	    count: 1
//
// # Step Kinds
//
//   - construct: builds a record of the named type from input, optionally
//     starting from a registered template
//   - decode: builds a record of the named type from JSON text
//
// A step without an expect clause must succeed.
//
// # Assertion Types
//
//   - equal / not_equal: structural equality of two named records
//   - same: two record paths resolve to the one consolidated instance
//   - universe_size: number of canonical records built by the scenario
//   - stored_count: number of stored records of a type
//
// # Deterministic Testing
//
// Every scenario runs with sequential identifiers (testutil.SequentialIDs),
// a logical clock (testutil.LogicalClock), one consolidation universe
// and a fresh in-memory store, so the step trace is byte-identical across
// runs and can be compared against golden files.
package harness
