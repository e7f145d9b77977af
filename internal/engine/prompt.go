package engine

import (
	"strings"

	"github.com/ICE3BR/IA-Data-Analysis/internal/analysis"
	"github.com/ICE3BR/IA-Data-Analysis/internal/store"
	"github.com/ICE3BR/IA-Data-Analysis/internal/utils"
)

const instructions = `You answer questions about a table by writing SQLite queries.
The table is named ` + store.TableName + `. Use the column names from [SCHEMA] and quote them with double quotes.
Reply with a single JSON object and nothing else:
{"type":"table|text|chart","sql":"SELECT ...","answer":"...","chart":{"kind":"bar|line|pie","x":"column","y":"column","title":"..."}}
- "table": the rows returned by sql are the answer.
- "text": a sentence in "answer"; write {value} where the single value returned by sql belongs. Omit sql if no data is needed.
- "chart": sql returns a label column and a numeric column; name them in chart.x and chart.y.
Only SELECT statements are allowed.`

// systemPrompt describes the table to the model. The data section is cut to
// maxTokens when positive.
func systemPrompt(rep *analysis.Report, ddl string, maxTokens int) string {
	var sb strings.Builder
	sb.WriteString("[SCHEMA]\n")
	sb.WriteString(ddl)
	sb.WriteString("\n\n")
	sb.WriteString(rep.Markdown())
	data := utils.TruncateToTokenLimit(sb.String(), maxTokens)

	sb.Reset()
	sb.WriteString("[INSTRUCTIONS]\n")
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(data)
	return sb.String()
}
