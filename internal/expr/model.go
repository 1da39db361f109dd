package expr

// EvalModel is the whitelist of syntactic constructs admissible in a user
// expression: node kinds, attribute (method) names, and free function
// names. It is shared by all projects in a Registry and selected by the
// master config's `model` key.
type EvalModel struct {
	Nodes      map[NodeKind]bool
	Attributes map[string]bool
	Functions  map[string]bool
}

func newModel(nodes []NodeKind, attrs, funcs []string) EvalModel {
	m := EvalModel{
		Nodes:      make(map[NodeKind]bool, len(nodes)),
		Attributes: make(map[string]bool, len(attrs)),
		Functions:  make(map[string]bool, len(funcs)),
	}
	for _, n := range nodes {
		m.Nodes[n] = true
	}
	for _, a := range attrs {
		m.Attributes[a] = true
	}
	for _, f := range funcs {
		m.Functions[f] = true
	}
	return m
}

// baseNodes are the node kinds present in every preset: comparisons,
// boolean ops, membership, literals and arithmetic.
var baseNodes = []NodeKind{
	NodeLiteral, NodeName, NodeListLit,
	NodeBoolOp, NodeUnaryNot, NodeUnaryNeg,
	NodeCompare, NodeIn, NodeBinOp,
}

// BaseModel returns the `base` preset: comparisons, boolean ops,
// membership, literals, arithmetic; no attributes; no calls.
func BaseModel() EvalModel {
	return newModel(baseNodes, nil, nil)
}

// DefaultModel returns the `default` preset: base ∪ call nodes, attribute
// nodes; attribute whitelist {startswith, endswith, upper, lower}; function
// whitelist {int, round}.
func DefaultModel() EvalModel {
	nodes := append(append([]NodeKind{}, baseNodes...), NodeAttr, NodeCall)
	attrs := []string{"startswith", "endswith", "upper", "lower"}
	funcs := []string{"int", "round"}
	return newModel(nodes, attrs, funcs)
}

// ExtendedModel returns the `extended` preset: default plus any
// user-added nodes/attributes/functions from the master config.
func ExtendedModel(extraNodes []NodeKind, extraAttrs, extraFuncs []string) EvalModel {
	m := DefaultModel()
	for _, n := range extraNodes {
		m.Nodes[n] = true
	}
	for _, a := range extraAttrs {
		m.Attributes[a] = true
	}
	for _, f := range extraFuncs {
		m.Functions[f] = true
	}
	return m
}

// CustomModel returns the `custom` preset: empty base plus exactly what
// the user lists.
func CustomModel(nodes []NodeKind, attrs, funcs []string) EvalModel {
	return newModel(nodes, attrs, funcs)
}

// ModelFromPreset resolves the master config `model` key (base, default,
// custom, extended) into a concrete EvalModel.
func ModelFromPreset(preset string, extraNodes []NodeKind, extraAttrs, extraFuncs []string) EvalModel {
	switch preset {
	case "base":
		return BaseModel()
	case "extended":
		return ExtendedModel(extraNodes, extraAttrs, extraFuncs)
	case "custom":
		return CustomModel(extraNodes, extraAttrs, extraFuncs)
	default:
		return DefaultModel()
	}
}
