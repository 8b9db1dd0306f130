package entitlements

import "sort"

// Tool describes a documentation tool variant gated by subscription tier.
type Tool struct {
	ID           string
	Name         string
	Description  string
	RequiredTier Tier
}

// ToolAccess annotates a tool with whether a given subject may use it.
type ToolAccess struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	RequiredTier Tier   `json:"requiredTier"`
	Accessible   bool   `json:"accessible"`
}

var tools = []Tool{
	{
		ID:           "wound-note",
		Name:         "Wound Note",
		Description:  "Structured wound documentation templates",
		RequiredTier: TierStandard,
	},
	{
		ID:           "key-bindings",
		Name:         "Key Bindings",
		Description:  "Text expansion shortcuts for the browser extension",
		RequiredTier: TierStandard,
	},
	{
		ID:           "assessment-builder",
		Name:         "Assessment Builder",
		Description:  "Guided head-to-toe assessment narratives",
		RequiredTier: TierGold,
	},
	{
		ID:           "discharge-summary",
		Name:         "Discharge Summary",
		Description:  "Discharge summary generator with care instructions",
		RequiredTier: TierGold,
	},
	{
		ID:           "key-binding-groups",
		Name:         "Key Binding Groups",
		Description:  "Organise key bindings into groups including curated system sets",
		RequiredTier: GroupManagementTier,
	},
}

// Tools returns the tool catalog ordered by required tier then name.
func Tools() []Tool {
	out := make([]Tool, len(tools))
	copy(out, tools)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RequiredTier != out[j].RequiredTier {
			return out[i].RequiredTier < out[j].RequiredTier
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// LookupTool returns the tool with the given identifier.
func LookupTool(id string) (Tool, bool) {
	for _, tool := range tools {
		if tool.ID == id {
			return tool, true
		}
	}
	return Tool{}, false
}

// Catalog annotates every tool with the subject's access.
func Catalog(subject Subject) []ToolAccess {
	list := Tools()
	out := make([]ToolAccess, 0, len(list))
	for _, tool := range list {
		out = append(out, ToolAccess{
			ID:           tool.ID,
			Name:         tool.Name,
			Description:  tool.Description,
			RequiredTier: tool.RequiredTier,
			Accessible:   CanAccessToolVariant(subject, tool.RequiredTier),
		})
	}
	return out
}
