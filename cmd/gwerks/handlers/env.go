package handlers

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gwerks/gwerks/internal/config"
)

// Env prints the runtime the other commands would use.
func Env(g Globals) error {
	rt, err := ResolveRuntime(g)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendRows([]table.Row{
		{"Environment", string(rt.Environment)},
		{"Region", string(rt.Region)},
		{"Profile", rt.Profile},
		{"Live", rt.Environment.IsLive()},
	})
	if legacy, ok := rt.Environment.LegacyAlias(); ok {
		t.AppendRow(table.Row{"Also matches", string(legacy)})
	}
	fmt.Fprintln(g.out(), t.Render())
	fmt.Fprintf(g.out(), "Valid environments: %v\n", config.ValidEnvironments())
	return nil
}
