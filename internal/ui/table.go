package ui

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ICEServerRow is one configured NAT-traversal helper.
type ICEServerRow struct {
	Kind string // "STUN" or "TURN"
	URL  string
}

// RenderICEServers prints the ICE servers the call will use.
func RenderICEServers(rows []ICEServerRow) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Kind", "Server"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Kind, r.URL})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter},
	})
	t.Render()
}

// CallSummary is the end-of-call report.
type CallSummary struct {
	RoomID   string
	Duration string
	Outcome  string
}

// RenderCallSummary prints the final call stats table.
func RenderCallSummary(summary CallSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Room", summary.RoomID},
		{"Duration", summary.Duration},
		{"Outcome", summary.Outcome},
	})
	t.Render()
}

// RoomInfo is the shareable room banner shown to the host.
type RoomInfo struct {
	RoomID   string
	RoomLink string
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Room ready!\n\n%s Room ID:    %s\n%s Call Link:  %s",
		IconRoom,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconLink, MutedStyle.Render(r.RoomLink),
	)
	return SuccessBoxStyle.Render(content)
}

// RenderRoomInfo prints the room banner.
func RenderRoomInfo(roomID, roomLink string) {
	info := RoomInfo{RoomID: roomID, RoomLink: roomLink}
	fmt.Println(info.View())
}
