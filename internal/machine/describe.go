package machine

import (
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Describe renders the machine as a two-column info table. protected is
// the current termination protection flag, which is not part of the
// instance description.
func (m *Machine) Describe(protected bool) string {
	t := table.NewWriter()
	t.AppendRows([]table.Row{
		{"Name", m.Name},
		{"Environment", string(m.Environment)},
		{"Region", string(m.Region)},
		{"Instance ID", m.InstanceID},
		{"State", string(m.State)},
		{"Subnet", m.SubnetID},
		{"Private IP", m.PrivateIP},
		{"Public IP", m.PublicIP},
	})
	if m.ReservedIP != "" {
		t.AppendRow(table.Row{"Reserved IP", m.ReservedIP})
	}
	t.AppendRows([]table.Row{
		{"Platform", m.Platform},
		{"Spot", strconv.FormatBool(m.IsSpot())},
		{"Termination Protection", strconv.FormatBool(protected)},
	})

	keys := make([]string, 0, len(m.Tags))
	for k := range m.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{"Tag: " + k, m.Tags[k]})
	}
	return t.Render()
}
