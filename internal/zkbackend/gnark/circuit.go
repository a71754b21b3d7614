package gnark

import "github.com/consensys/gnark/frontend"

// DefaultCircuit is the circuit name this backend compiles when the caller
// does not name one.
const DefaultCircuit = "score_ge"

// ThresholdCircuit proves knowledge of a private score that meets or
// exceeds a public threshold. Both values are fixed-point integers scaled
// from the domain floats before they reach the circuit.
type ThresholdCircuit struct {
	Score     frontend.Variable `gnark:",secret"`
	Threshold frontend.Variable `gnark:",public"`
}

// Define declares the single greater-or-equal constraint.
func (c *ThresholdCircuit) Define(api frontend.API) error {
	api.AssertIsLessOrEqual(c.Threshold, c.Score)
	return nil
}

// circuits maps logical circuit names to constructors. The compile stage
// resolves the circuit path's base name against this table.
var circuits = map[string]func() frontend.Circuit{
	DefaultCircuit: func() frontend.Circuit { return &ThresholdCircuit{} },
}
