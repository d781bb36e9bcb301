package filtergraph

import (
	"strings"
)

// Render serializes the graph in filter_complex syntax, one stage per
// ';'-separated chain: [in]op=k=v:k=v[out].
func (g *Graph) Render() string {
	chains := make([]string, 0, len(g.Stages))
	for _, s := range g.Stages {
		chains = append(chains, renderStage(s))
	}
	return strings.Join(chains, ";")
}

func renderStage(s Stage) string {
	var sb strings.Builder
	sb.WriteString("[" + s.Input + "]")
	sb.WriteString(s.Op)

	if len(s.Params) > 0 {
		args := make([]string, 0, len(s.Params))
		for _, p := range s.Params {
			v := p.Value
			if p.Quoted {
				v = "'" + v + "'"
			}
			if p.Key != "" {
				v = p.Key + "=" + v
			}
			args = append(args, v)
		}
		sb.WriteString("=")
		sb.WriteString(strings.Join(args, ":"))
	}

	sb.WriteString("[" + s.Output + "]")
	return sb.String()
}

// MapLabel returns the output label in the form passed to -map.
func (g *Graph) MapLabel() string {
	return "[" + g.Output + "]"
}
