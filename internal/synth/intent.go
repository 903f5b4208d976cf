package synth

import "strings"

// intentCategory binds a query intent to its vocabulary and its fixed answer
// framing. Categories are evaluated in declaration order and the first whose
// vocabulary intersects the query wins.
type intentCategory struct {
	name     string
	keywords []string
	header   string
	notFound string
}

var intentCategories = []intentCategory{
	{
		name:     "maintenance",
		keywords: []string{"maintenance", "schedule", "service", "inspection", "cleaning", "replacement"},
		header:   "Based on the documentation, here are the maintenance requirements:",
		notFound: "No specific maintenance information found in the documentation. Please refer to the manufacturer's guidelines.",
	},
	{
		name:     "specification",
		keywords: []string{"specification", "spec", "parameter", "dimension", "capacity", "voltage", "current", "temperature"},
		header:   "Technical specifications from the documentation:",
		notFound: "No specific technical specifications found in the documentation.",
	},
	{
		name:     "troubleshooting",
		keywords: []string{"troubleshoot", "error", "problem", "issue", "fault", "diagnostic", "solution"},
		header:   "Troubleshooting information from the documentation:",
		notFound: "No specific troubleshooting information found in the documentation.",
	},
	{
		name:     "installation",
		keywords: []string{"installation", "setup", "mount", "connect", "wire", "install", "assembly"},
		header:   "Installation instructions from the documentation:",
		notFound: "No specific installation information found in the documentation.",
	},
}

// classifyIntent returns the first category whose vocabulary appears in the
// query, or nil for the generic handler.
func classifyIntent(query string) *intentCategory {
	lower := strings.ToLower(query)
	for i := range intentCategories {
		for _, keyword := range intentCategories[i].keywords {
			if strings.Contains(lower, keyword) {
				return &intentCategories[i]
			}
		}
	}
	return nil
}
