package explain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// SystemPrompt frames the model as an analyst writing for non-specialists.
const SystemPrompt = "You are a professional data analyst who explains analysis results in plain, accessible language."

// WordBudget bounds the length of an explanation.
const WordBudget = 300

// resultTokenBudget caps the serialized result embedded in a prompt.
const resultTokenBudget = 6000

var modeInstructions = map[analysis.Mode]struct{ title, ask string }{
	analysis.ModeSummary: {
		"descriptive statistics",
		"Using what the columns mean, briefly describe the basic characteristics of the data, how values are spread, and the main findings.",
	},
	analysis.ModeCorrelation: {
		"correlation matrix",
		"Using what the columns mean, briefly state:\n1. which variables are strongly correlated\n2. what these correlations mean for the business\n3. how they affect practical decisions",
	},
	analysis.ModeDistribution: {
		"distribution analysis",
		"Using what the columns mean, briefly describe the shape of each distribution and the main findings.",
	},
	analysis.ModePCA: {
		"principal component analysis (PCA)",
		"Using what the columns mean, briefly describe the main findings and what they mean in practice.",
	},
	analysis.ModeClustering: {
		"clustering",
		"Using what the columns mean, briefly describe the resulting groups and what they mean in practice.",
	},
}

// BuildPrompt renders the user prompt for a result. descriptions maps column
// names to their business meaning; columns without one ask the model to infer
// it from the name.
func BuildPrompt(res *analysis.Result, descriptions map[string]string) (string, error) {
	if res == nil {
		return "", fmt.Errorf("no analysis result to explain")
	}
	body, err := json.MarshalIndent(promptView(res), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	resultText := utils.TruncateToTokenLimit(string(body), resultTokenBudget)

	inst, ok := modeInstructions[res.Mode]
	if !ok {
		inst.title = "analysis"
		inst.ask = "Using what the columns mean, briefly describe the main findings and what they mean in practice."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Explain the following %s result concisely, in no more than %d words.\n\n", inst.title, WordBudget)
	b.WriteString("Column meanings:\n")
	for _, c := range res.Columns {
		if d := strings.TrimSpace(descriptions[c]); d != "" {
			fmt.Fprintf(&b, "- %s: %s\n", c, d)
		} else {
			fmt.Fprintf(&b, "- %s: infer the business meaning from the column name\n", c)
		}
	}
	fmt.Fprintf(&b, "\nAnalysis type: %s\nResult:\n%s\n\n", res.Mode, resultText)
	if len(res.Warnings) > 0 {
		b.WriteString("Caveats reported by the engine:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
	b.WriteString(inst.ask)
	return b.String(), nil
}

// promptView drops per-row arrays that add tokens without adding meaning.
func promptView(res *analysis.Result) *analysis.Result {
	v := *res
	if res.PCA != nil {
		p := *res.PCA
		p.Transformed = nil
		v.PCA = &p
	}
	if res.Clustering != nil {
		c := *res.Clustering
		c.Labels = nil
		v.Clustering = &c
	}
	return &v
}
