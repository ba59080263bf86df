package orchestrator

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderReport prints the per-service and per-link outcome tables.
func (o *Orchestrator) renderReport() {
	fmt.Fprintln(o.opts.Out)

	services := table.NewWriter()
	services.SetOutputMirror(o.opts.Out)
	services.SetStyle(table.StyleLight)
	services.AppendHeader(table.Row{"Service", "Node", "URL", "Status"})
	for _, r := range o.report.Services {
		services.AppendRow(table.Row{
			r.Service,
			orDash(r.Node),
			orDash(r.URL),
			serviceStatus(r),
		})
	}
	services.Render()

	if len(o.report.Links) > 0 {
		fmt.Fprintln(o.opts.Out)
		links := table.NewWriter()
		links.SetOutputMirror(o.opts.Out)
		links.SetStyle(table.StyleLight)
		links.AppendHeader(table.Row{"From", "Env Var", "To", "URL", "Injected"})
		for _, l := range o.report.Links {
			injected := "no"
			if l.Injected {
				injected = "yes"
			}
			links.AppendRow(table.Row{l.From, l.EnvVar, l.To, orDash(l.URL), injected})
		}
		links.Render()
	}
	fmt.Fprintln(o.opts.Out)
}

func serviceStatus(r ServiceResult) string {
	switch {
	case r.Deployed && r.Ready:
		return text.FgGreen.Sprint("deployed")
	case r.Deployed:
		return text.FgYellow.Sprint("deployed (starting)")
	default:
		return text.FgRed.Sprint("not deployed")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
