package cmd

import (
	"io"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/resy"
	"github.com/jedib0t/go-pretty/v6/table"
)

func renderSlots(w io.Writer, v resy.Venue, slots []availability.TimeSlot) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Venue", "Date", "Party", "#", "Time"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 30},
		{Number: 2, AutoMerge: true},
		{Number: 3, AutoMerge: true},
	})
	for i, s := range slots {
		t.AppendRow(table.Row{v.Name, s.Key.Date, s.Key.PartySize, i + 1, s.Label}, rowConfigAutoMerge)
	}
	t.Render()
}

func renderVenue(w io.Writer, v resy.Venue) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Slug", "Name", "Neighborhood"})
	t.AppendRow(table.Row{v.ID, v.Slug, v.Name, v.Neighborhood})
	t.Render()
}
