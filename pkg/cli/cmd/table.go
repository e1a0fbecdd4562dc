package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rzbill/labnet/pkg/cli/format"
	"github.com/rzbill/labnet/pkg/types"
)

// ResourceTable renders topology and probe history resources as tables.
type ResourceTable struct {
	ShowHeaders bool

	tableRenderer *pterm.TablePrinter
}

// NewResourceTable creates a table renderer with the default header style.
func NewResourceTable() *ResourceTable {
	headerStyle := pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	return &ResourceTable{
		ShowHeaders:   true,
		tableRenderer: pterm.DefaultTable.WithHeaderStyle(headerStyle),
	}
}

func (t *ResourceTable) render(w io.Writer, headers []string, rows [][]string) error {
	data := rows
	if t.ShowHeaders {
		data = append([][]string{headers}, rows...)
	}
	out, err := t.tableRenderer.WithHasHeader(t.ShowHeaders).WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// RenderNodes renders one row per node with the tor it is attached to.
func (t *ResourceTable) RenderNodes(w io.Writer, topo *types.Topology) error {
	headers := []string{"NAME", "ROLE", "TOR", "ROUTABLE", "STORAGE"}
	rows := make([][]string, 0, len(topo.Nodes))
	for _, n := range topo.Nodes {
		tor, ok := topo.AttachmentOf(n.Name)
		if !ok {
			tor = format.Dim("<none>")
		}
		rows = append(rows, []string{
			n.Name,
			string(n.Role),
			tor,
			format.Bool(n.Routable),
			fmt.Sprintf("%s %s", n.LocalStorage.DevicePath, n.LocalStorage.Size),
		})
	}
	return t.render(w, headers, rows)
}

// RenderLinks renders one row per link, tors first and core last.
func (t *ResourceTable) RenderLinks(w io.Writer, topo *types.Topology) error {
	headers := []string{"NAME", "TIER", "MEMBERS", "TRIVIAL_OK", "BANDWIDTH", "LATENCY"}
	links := topo.Links()
	rows := make([][]string, 0, len(links))
	for _, l := range links {
		members := l.MemberNames(types.MemberNode)
		members = append(members, l.MemberNames(types.MemberLink)...)
		memberCol := strings.Join(members, ",")
		if memberCol == "" {
			memberCol = format.Warning("<empty>")
		}
		rows = append(rows, []string{
			l.Name,
			string(l.Tier),
			memberCol,
			format.Bool(l.TrivialOK),
			fmt.Sprintf("%d", l.Bandwidth),
			fmt.Sprintf("%g", l.Latency),
		})
	}
	return t.render(w, headers, rows)
}
