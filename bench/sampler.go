package bench

import (
	"context"

	"github.com/jimmy2822/homebrew-goxel/common"
)

// Operation is one unit of work a sampler can time. Method and Params
// drive the daemon RPC form, Argv drives the one-shot CLI form.
type Operation struct {
	Name   string
	Method string
	Params map[string]interface{}
	Argv   []string
}

// A Sampler times a single operation. Implementations record failures
// in the returned sample rather than aborting the run.
type Sampler interface {
	Sample(ctx context.Context, op Operation) common.Sample
	Close() error
}

// BasicOperations is the fixed workload both modes exercise: create a
// scene, place and read back a voxel, then query status.
func BasicOperations() []Operation {
	return []Operation{
		{
			Name:   "create_project",
			Method: "goxel.create_project",
			Params: map[string]interface{}{"name": "bench"},
			Argv:   []string{"create", "bench"},
		},
		{
			Name:   "add_voxel",
			Method: "goxel.add_voxel",
			Params: map[string]interface{}{"x": 0, "y": 0, "z": 0, "color": "#FF0000"},
			Argv:   []string{"add-voxel", "0", "0", "0", "#FF0000"},
		},
		{
			Name:   "get_voxel",
			Method: "goxel.get_voxel",
			Params: map[string]interface{}{"x": 0, "y": 0, "z": 0},
			Argv:   []string{"get-voxel", "0", "0", "0"},
		},
		{
			Name:   "get_status",
			Method: "goxel.get_status",
			Params: map[string]interface{}{},
			Argv:   []string{"status"},
		},
	}
}
