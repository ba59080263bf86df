package dependency

import (
	"testing"

	"github.com/Mandala-Network/Mandala-CLI/internal/manifest"
)

func position(t *testing.T, order []string, name string) int {
	t.Helper()
	for i, n := range order {
		if n == name {
			return i
		}
	}
	t.Fatalf("service %q missing from order %v", name, order)
	return -1
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name     string
		services []string
		links    []manifest.ServiceLink
		acyclic  bool
		// before lists pairs (a, b) where a must precede b in the output
		before [][2]string
	}{
		{
			name:     "no links keeps declared order",
			services: []string{"c", "a", "b"},
			acyclic:  true,
			before:   [][2]string{{"c", "a"}, {"a", "b"}},
		},
		{
			name:     "provider before consumer",
			services: []string{"frontend", "api"},
			links: []manifest.ServiceLink{
				{From: "frontend", To: "api", EnvVar: "API_URL"},
			},
			acyclic: true,
			before:  [][2]string{{"api", "frontend"}},
		},
		{
			name:     "chain",
			services: []string{"web", "api", "db"},
			links: []manifest.ServiceLink{
				{From: "web", To: "api", EnvVar: "API_URL"},
				{From: "api", To: "db", EnvVar: "DB_URL"},
			},
			acyclic: true,
			before:  [][2]string{{"db", "api"}, {"api", "web"}},
		},
		{
			name:     "diamond",
			services: []string{"a", "b", "c", "d"},
			links: []manifest.ServiceLink{
				{From: "a", To: "b", EnvVar: "B"},
				{From: "a", To: "c", EnvVar: "C"},
				{From: "b", To: "d", EnvVar: "D"},
				{From: "c", To: "d", EnvVar: "D"},
			},
			acyclic: true,
			before:  [][2]string{{"d", "b"}, {"d", "c"}, {"b", "a"}, {"c", "a"}},
		},
		{
			name:     "self link is ignored",
			services: []string{"a", "b"},
			links: []manifest.ServiceLink{
				{From: "a", To: "a", EnvVar: "SELF"},
			},
			acyclic: true,
			before:  [][2]string{{"a", "b"}},
		},
		{
			name:     "unknown endpoints are ignored",
			services: []string{"a", "b"},
			links: []manifest.ServiceLink{
				{From: "a", To: "ghost", EnvVar: "X"},
				{From: "ghost", To: "b", EnvVar: "Y"},
			},
			acyclic: true,
			before:  [][2]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, ok := Order(tt.services, tt.links)
			if ok != tt.acyclic {
				t.Fatalf("Order() acyclic = %v, want %v", ok, tt.acyclic)
			}
			if len(order) != len(tt.services) {
				t.Fatalf("order has %d entries, want %d: %v", len(order), len(tt.services), order)
			}
			seen := make(map[string]int)
			for _, n := range order {
				seen[n]++
			}
			for _, n := range tt.services {
				if seen[n] != 1 {
					t.Errorf("service %q appears %d times in %v", n, seen[n], order)
				}
			}
			for _, pair := range tt.before {
				if position(t, order, pair[0]) >= position(t, order, pair[1]) {
					t.Errorf("expected %q before %q in %v", pair[0], pair[1], order)
				}
			}
		})
	}
}

func TestOrderCycleFallsBack(t *testing.T) {
	services := []string{"a", "b"}
	links := []manifest.ServiceLink{
		{From: "a", To: "b", EnvVar: "B_URL"},
		{From: "b", To: "a", EnvVar: "A_URL"},
	}

	order, ok := Order(services, links)
	if ok {
		t.Fatal("expected cycle to be reported")
	}
	if len(order) != 2 {
		t.Fatalf("fallback order must contain every service, got %v", order)
	}
	if order[0] != "a" || order[1] != "b" {
		t.Errorf("fallback must preserve declared order, got %v", order)
	}
}

func TestOrderPartialCycle(t *testing.T) {
	// c is independent of the a<->b cycle but the whole order still falls back.
	services := []string{"a", "b", "c"}
	links := []manifest.ServiceLink{
		{From: "a", To: "b", EnvVar: "B"},
		{From: "b", To: "a", EnvVar: "A"},
	}

	order, ok := Order(services, links)
	if ok {
		t.Fatal("expected cycle to be reported")
	}
	if len(order) != 3 {
		t.Fatalf("fallback order must contain every service, got %v", order)
	}
}

func TestGraphQueries(t *testing.T) {
	services := []string{"web", "api", "db"}
	links := []manifest.ServiceLink{
		{From: "web", To: "api", EnvVar: "API_URL"},
		{From: "api", To: "db", EnvVar: "DB_URL"},
	}

	g := NewGraph(services, links)

	deps := g.Dependencies("web")
	if len(deps) != 1 || deps[0] != "api" {
		t.Errorf("Dependencies(web) = %v, want [api]", deps)
	}
	if got := g.Dependencies("db"); len(got) != 0 {
		t.Errorf("Dependencies(db) = %v, want empty", got)
	}

	dependents := g.Dependents("db")
	if len(dependents) != 1 || dependents[0] != "api" {
		t.Errorf("Dependents(db) = %v, want [api]", dependents)
	}
}
