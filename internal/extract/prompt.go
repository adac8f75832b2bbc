package extract

import (
	"strings"
)

const ExtractionPrompt = `Extract offer items from this construction/engineering document chunk. Keep the hierarchy and do not repeat items that were already extracted.

The document is processed in overlapping chunks, in order. Use the previous context to continue the current hierarchy.

Rules:
- IGNORE image references, totals, subtotals, carry-over lines, page headers and footers
- IGNORE items already listed in the previous context; the overlap with the previous chunk repeats some text
- Main groups are top-level categories (e.g. "243. A. HEAT DISTRIBUTION")
- Sub-groups are categories inside a main group (e.g. "243. A. 1. Piping", "243. A. 2. Fittings")
- Items are individual purchasable lines: table rows with sizes or quantities, numbered equipment, material specifications
- If this chunk has no main group heading, continue the current main group: leave "name" empty and set "is_continuation" to true
- If this chunk has no sub-group heading, continue the current sub-group the same way
- Put every other property of an item (quantity, unit, unit_price, specification, ...) as extra keys next to "name"

Respond with ONLY a JSON object in this format:
{
  "groups": [
    {
      "name": "Main group name, or empty to continue the current one",
      "is_continuation": false,
      "sub_groups": [
        {
          "name": "Sub-group name, or empty to continue the current one",
          "is_continuation": false,
          "items": [
            {"name": "Item description", "quantity": 10, "unit": "m"}
          ]
        }
      ]
    }
  ]
}
Return {"groups": []} if the chunk contains no new items.`

// BuildChunkPrompt creates the full prompt for one chunk: the instructions,
// the chunk position line, the running context from earlier chunks and the
// chunk text itself.
func BuildChunkPrompt(chunkInfo, previousContext, chunkText string) string {
	var sb strings.Builder
	sb.WriteString(ExtractionPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString("Chunk info: ")
	sb.WriteString(chunkInfo)
	sb.WriteString("\n\nPrevious context:\n")
	sb.WriteString(previousContext)
	sb.WriteString("\n---\n")
	sb.WriteString(chunkText)
	return sb.String()
}
