package analyzer

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
)

// GenerateScalingFactorCode renders the regenerated table as a Go map
// literal suitable for pasting into the scaling package.
func (a *Analyzer) GenerateScalingFactorCode() string {
	samples := a.Samples()
	factors := analyze(samples, a.baseline)
	games := distinctGames(samples)

	if len(games) == 0 {
		return "var FACTORS = map[Game]map[Game]Factor{}\n"
	}

	var b bytes.Buffer
	b.WriteString("var FACTORS = map[Game]map[Game]Factor{\n")
	for _, from := range games {
		fmt.Fprintf(&b, "%q: {\n", string(from))
		for _, to := range games {
			if to == from {
				continue
			}
			f := factorOrUnit(factors, to)
			fmt.Fprintf(&b, "%q: Bucketed{Low: %s, Mid: %s, High: %s},\n",
				string(to), formatFloat(f.Low), formatFloat(f.Mid), formatFloat(f.High))
		}
		b.WriteString("},\n")
	}
	b.WriteString("}\n")

	out, err := format.Source(b.Bytes())
	if err != nil {
		// Game names are quoted, so this only happens on a bug in the
		// template above. Fall back to the unformatted text.
		return b.String()
	}
	return string(out)
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
