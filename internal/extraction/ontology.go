package extraction

// EntityTypeDef constrains one allowed entity label in an ontology.
type EntityTypeDef struct {
	Label              string   `yaml:"label" json:"label"`
	RequiredProperties []string `yaml:"requiredProperties" json:"requiredProperties,omitempty"`
	Description        string   `yaml:"description" json:"description,omitempty"`
}

// RelationshipTypeDef constrains one allowed relationship type,
// optionally restricting its endpoint labels.
type RelationshipTypeDef struct {
	Type         string   `yaml:"type" json:"type"`
	FromLabels   []string `yaml:"fromLabels" json:"fromLabels,omitempty"`
	ToLabels     []string `yaml:"toLabels" json:"toLabels,omitempty"`
	Description  string   `yaml:"description" json:"description,omitempty"`
}

// Ontology is the optional schema hint composed into the extraction
// prompt: allowed entity/relationship types and their constraints.
type Ontology struct {
	EntityTypes       []EntityTypeDef       `yaml:"entityTypes" json:"entityTypes,omitempty"`
	RelationshipTypes []RelationshipTypeDef `yaml:"relationshipTypes" json:"relationshipTypes,omitempty"`
}

// Template is the caller-overridable extraction prompt template. A
// caller's partial template is overlaid on DefaultTemplate() field by
// field: empty fields inherit the default.
type Template struct {
	Role                  string   `yaml:"role" json:"role,omitempty"`
	Task                  string   `yaml:"task" json:"task,omitempty"`
	FormatRules           []string `yaml:"formatRules" json:"formatRules,omitempty"`
	ExtractionConstraints []string `yaml:"extractionConstraints" json:"extractionConstraints,omitempty"`
	SemanticConstraints   []string `yaml:"semanticConstraints" json:"semanticConstraints,omitempty"`
	Ontology              *Ontology `yaml:"ontology" json:"ontology,omitempty"`
	OutputFormatExample   string   `yaml:"outputFormatExample" json:"outputFormatExample,omitempty"`
}

// Merge overlays a partial override template onto the receiver
// (normally the default), returning a new Template. Zero-value fields
// in override are left as the receiver's value.
func (t Template) Merge(override Template) Template {
	out := t
	if override.Role != "" {
		out.Role = override.Role
	}
	if override.Task != "" {
		out.Task = override.Task
	}
	if len(override.FormatRules) > 0 {
		out.FormatRules = override.FormatRules
	}
	if len(override.ExtractionConstraints) > 0 {
		out.ExtractionConstraints = override.ExtractionConstraints
	}
	if len(override.SemanticConstraints) > 0 {
		out.SemanticConstraints = override.SemanticConstraints
	}
	if override.Ontology != nil {
		out.Ontology = override.Ontology
	}
	if override.OutputFormatExample != "" {
		out.OutputFormatExample = override.OutputFormatExample
	}
	return out
}

// DefaultTemplate is the built-in extraction prompt template.
func DefaultTemplate() Template {
	return Template{
		Role: "You are a precise knowledge-graph extraction engine for a multi-tenant GraphRAG system.",
		Task: "Read the user-supplied text and extract every entity and relationship it states or clearly implies.",
		FormatRules: []string{
			"Respond with a single JSON object and nothing else: no prose, no Markdown code fences.",
			`The JSON object has exactly two top-level keys: "entities" and "relationships".`,
			`Each entity has a "label" (PascalCase, e.g. "Person", "Company") and a "properties" object containing at least "name" or "title".`,
			`Each relationship has "from", "to" (entity names as they appear in your "entities" list) and "type" (UPPERCASE_WITH_UNDERSCORES, e.g. "WORKS_FOR").`,
		},
		ExtractionConstraints: []string{
			"Do not invent entities or facts that are not present in the text.",
			"Do not create a relationship whose endpoints are the same entity.",
			"Do not emit duplicate relationships with the same from/to/type triple.",
		},
		SemanticConstraints: []string{
			"Prefer the most specific entity label available (e.g. \"Company\" over \"Organization\" when the text is clearly about a company).",
			"Use the entity's canonical name consistently across entities and relationships.",
		},
		OutputFormatExample: `{"entities":[{"label":"Person","properties":{"name":"Alice"}},{"label":"Company","properties":{"name":"Acme Corp"}}],"relationships":[{"from":"Alice","to":"Acme Corp","type":"WORKS_FOR","properties":{}}]}`,
	}
}
