package stitch

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type GraphInfo struct {
	Services []ServiceInfo
}

// ServiceInfo describes one planned node. A binding resolved in two scopes,
// for example shared through a pointer and unique through Owned, appears
// once per scope.
type ServiceInfo struct {
	ID           string
	Key          string
	Scope        string
	Module       string
	Forward      bool
	Dependencies []string
	Dependents   []string
	Instantiated bool
}

func (i *Injector) Graph() GraphInfo {
	nodes := i.internal.Nodes()
	graph := i.internal.Graph()

	services := make([]ServiceInfo, 0, len(nodes))
	for _, n := range nodes {
		services = append(
			services, ServiceInfo{
				ID:           n.ID,
				Key:          n.Key,
				Scope:        n.Scope.String(),
				Module:       n.Module,
				Forward:      n.Forward,
				Dependencies: n.Dependencies,
				Dependents:   graph.Dependents(n.ID),
				Instantiated: n.Instantiated,
			},
		)
	}

	return GraphInfo{Services: services}
}

func (i *Injector) PrintGraph() {
	i.FprintGraph(os.Stdout)
}

func (i *Injector) FprintGraph(w io.Writer) {
	info := i.Graph()

	if len(info.Services) == 0 {
		_, _ = fmt.Fprintln(w, "(empty injector)")
		return
	}

	for _, svc := range info.Services {
		status := "○"
		if svc.Instantiated {
			status = "●"
		}

		if len(svc.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, svc.ID)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, svc.ID, strings.Join(svc.Dependencies, ", "))
		}
	}
}

func (i *Injector) SprintGraph() string {
	var sb strings.Builder
	i.FprintGraph(&sb)
	return sb.String()
}

func (i *Injector) PrintGraphDOT() {
	i.FprintGraphDOT(os.Stdout)
}

func (i *Injector) FprintGraphDOT(w io.Writer) {
	info := i.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Services {
		label := escapeLabel(svc.Key) + " (" + svc.Scope + ")"
		style := ""
		switch {
		case svc.Instantiated:
			style = ", style=filled, fillcolor=lightblue"
		case svc.Forward:
			style = ", style=dashed"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.ID, label, style)
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Services {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.ID, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (i *Injector) SprintGraphDOT() string {
	var sb strings.Builder
	i.FprintGraphDOT(&sb)
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		s = s[idx+1:]
	}
	return s
}
