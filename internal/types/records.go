package types

// Record is the flat storage form of one node. Position in the tree is carried by
// ParentID, BranchFlag and BranchIndex only; child arrays are never stored.
//
// BranchFlag is true for the true branch (and LOOKUP parameters), false for the
// false branch, nil for roots.
type Record struct {
	ID               NodeID  `db:"node_id" json:"id"`
	ParentID         *NodeID `db:"parent_id" json:"parentId"`
	BranchFlag       *bool   `db:"branch_flag" json:"branchFlag"`
	BranchIndex      *int    `db:"branch_index" json:"branchIndex"`
	ConditionType    string  `db:"condition_type" json:"conditionType"`
	ParamID          string  `db:"param_id" json:"paramId"`
	Operation        string  `db:"operation" json:"operation"`
	StandardValue    string  `db:"standard_value" json:"standardValue"`
	LeftType         string  `db:"left_type" json:"leftType"`
	LeftValue        string  `db:"left_value" json:"leftValue"`
	Comparator       string  `db:"comparator" json:"comparator"`
	RightType        string  `db:"right_type" json:"rightType"`
	RightValue       string  `db:"right_value" json:"rightValue"`
	UOM              string  `db:"uom" json:"uom"`
	Comment          string  `db:"comment" json:"comment"`
	LookupParamType  string  `db:"lookup_param_type" json:"lookupParamType"`
	LookupParamValue string  `db:"lookup_param_value" json:"lookupParamValue"`
	Combinator       string  `db:"combinator" json:"combinator"`
}
