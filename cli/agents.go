// Persona listing and pipeline routing for CLI commands.
//
// Information Hiding:
// - Persona registry hidden
// - Route parsing hidden

package cli

import (
	"fmt"
	"io"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/orchestration"
)

// ListAvailableAgents returns the names and descriptions of the built-in
// personas.
func ListAvailableAgents() []agent.Info {
	return agent.Personas().List()
}

// PrintAgents writes the persona list to w.
func PrintAgents(w io.Writer) {
	fmt.Fprintln(w, "Available agents:")
	fmt.Fprintln(w)
	for _, info := range ListAvailableAgents() {
		fmt.Fprintf(w, "  %s\n    %s\n\n", info.Name, info.Description)
	}
	fmt.Fprintln(w, "Routes for --agent:")
	fmt.Fprintf(w, "  %s     weather questions go to the weather agent, the rest to the pipeline\n", orchestration.RouteAuto)
	fmt.Fprintf(w, "  %s  always plan, search and consolidate\n", orchestration.RouteGeneral)
	fmt.Fprintf(w, "  %s  always use the weather agent\n", orchestration.RouteWeather)
}
