package rules

import (
	"errors"
	"testing"

	"github.com/solatis/formulatree/internal/types"
)

func TestEditor_AddRootRow(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)

	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.AddRootRow(tr))

	if len(tr.Roots) != 2 {
		t.Fatalf("len(Roots) = %d, want 2", len(tr.Roots))
	}
	for i, r := range tr.Roots {
		if r.ID != types.NodeID(i+1) {
			t.Errorf("Roots[%d].ID = %d, want %d", i, r.ID, i+1)
		}
		if r.Role != types.RoleRoot || r.ParentID != nil || r.Index != i {
			t.Errorf("Roots[%d] position = (%s, %v, %d), want (root, nil, %d)", i, r.Role, r.ParentID, r.Index, i)
		}
		if r.Type() != types.ConditionNone {
			t.Errorf("Roots[%d].Type() = %s, want None", i, r.Type())
		}
	}
}

func TestEditor_SetConditionTypeTransitions(t *testing.T) {
	tests := []struct {
		name      string
		from      types.ConditionType
		to        types.ConditionType
		wantTrue  int
		wantFalse int
		expanded  bool
	}{
		{"none to none", types.ConditionNone, types.ConditionNone, 0, 0, false},
		{"none to if", types.ConditionNone, types.ConditionIf, 1, 0, true},
		{"none to if-else", types.ConditionNone, types.ConditionIfElse, 1, 1, true},
		{"none to lookup", types.ConditionNone, types.ConditionLookup, 3, 0, true},
		{"if to none", types.ConditionIf, types.ConditionNone, 0, 0, false},
		{"if to if-else", types.ConditionIf, types.ConditionIfElse, 1, 1, true},
		{"if-else to if", types.ConditionIfElse, types.ConditionIf, 1, 0, true},
		{"if-else to lookup", types.ConditionIfElse, types.ConditionLookup, 3, 0, true},
		{"lookup to if", types.ConditionLookup, types.ConditionIf, 3, 0, true},
		{"lookup to if-else", types.ConditionLookup, types.ConditionIfElse, 3, 1, true},
		{"lookup to none", types.ConditionLookup, types.ConditionNone, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must := mustTree(t)
			ed := NewEditor(&types.Tree{}, nil)
			tr := must(ed.AddRootRow(&types.Tree{}))
			root := tr.Roots[0].ID
			tr = must(ed.SetConditionType(tr, root, tt.from))
			tr = must(ed.SetConditionType(tr, root, tt.to))

			n := tr.Find(root)
			if n.Type() != tt.to {
				t.Errorf("Type() = %s, want %s", n.Type(), tt.to)
			}
			if len(n.TrueChildren) != tt.wantTrue {
				t.Errorf("len(TrueChildren) = %d, want %d", len(n.TrueChildren), tt.wantTrue)
			}
			if len(n.FalseChildren) != tt.wantFalse {
				t.Errorf("len(FalseChildren) = %d, want %d", len(n.FalseChildren), tt.wantFalse)
			}
			if n.Expanded != tt.expanded {
				t.Errorf("Expanded = %v, want %v", n.Expanded, tt.expanded)
			}
			if n.HasChildren() != (tt.wantTrue+tt.wantFalse > 0) {
				t.Errorf("HasChildren() = %v, want %v", n.HasChildren(), tt.wantTrue+tt.wantFalse > 0)
			}
		})
	}
}

func TestEditor_IfElseChildrenGetDistinctIDs(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIfElse))

	n := tr.Find(1)
	trueID, falseID := n.TrueChildren[0].ID, n.FalseChildren[0].ID
	if trueID == falseID {
		t.Fatalf("true and false child share id %d", trueID)
	}
	if trueID != 2 || falseID != 3 {
		t.Errorf("child ids = (%d, %d), want (2, 3)", trueID, falseID)
	}
	if n.TrueChildren[0] == n.FalseChildren[0] {
		t.Error("true and false child are the same object")
	}
}

func TestEditor_SetConditionTypeIdempotent(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))

	once := must(ed.SetConditionType(tr, 1, types.ConditionIfElse))
	twice := must(ed.SetConditionType(once, 1, types.ConditionIfElse))

	a, b := once.Find(1), twice.Find(1)
	if len(b.TrueChildren) != len(a.TrueChildren) || len(b.FalseChildren) != len(a.FalseChildren) {
		t.Fatalf("children after second call = (%d, %d), want (%d, %d)",
			len(b.TrueChildren), len(b.FalseChildren), len(a.TrueChildren), len(a.FalseChildren))
	}
	if b.TrueChildren[0].ID != a.TrueChildren[0].ID || b.FalseChildren[0].ID != a.FalseChildren[0].ID {
		t.Error("second call replaced existing children")
	}
}

func TestEditor_LookupKeepsExistingChildren(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))
	tr = must(ed.AddChild(tr, 1, types.RoleTrue))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionLookup))

	n := tr.Find(1)
	if len(n.TrueChildren) != 3 {
		t.Fatalf("len(TrueChildren) = %d, want 3", len(n.TrueChildren))
	}
	want := []types.NodeID{2, 3, 4}
	for i, c := range n.TrueChildren {
		if c.ID != want[i] {
			t.Errorf("TrueChildren[%d].ID = %d, want %d", i, c.ID, want[i])
		}
		if c.Role != types.RoleLookupParam {
			t.Errorf("TrueChildren[%d].Role = %s, want lookup-param", i, c.Role)
		}
		if c.Index != i {
			t.Errorf("TrueChildren[%d].Index = %d, want %d", i, c.Index, i)
		}
	}
}

func TestEditor_SwitchingIfElseKeepsComparison(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))
	tr = must(ed.SetField(tr, 1, FieldLeftType, string(types.OperandParamID)))
	tr = must(ed.SetField(tr, 1, FieldLeftValue, "1000"))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIfElse))

	c := tr.Find(1).Comparison()
	if !c.Else || c.Left.Value != "1000" || c.Left.Type != types.OperandParamID {
		t.Errorf("Comparison = %+v, want IF-ELSE keeping left operand", c)
	}
}

func TestEditor_CopyOnWrite(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	before := must(ed.AddRootRow(&types.Tree{}))
	before = must(ed.SetConditionType(before, 1, types.ConditionIfElse))

	after := must(ed.SetField(before, 2, FieldComment, "changed"))
	after = must(ed.AddChild(after, 1, types.RoleFalse))

	if got := before.Find(2).Comment; got != "" {
		t.Errorf("old snapshot comment = %q, want empty", got)
	}
	if got := len(before.Find(1).FalseChildren); got != 1 {
		t.Errorf("old snapshot false children = %d, want 1", got)
	}
	if before.Find(1) == after.Find(1) {
		t.Error("snapshots share the root node")
	}
	if after.Find(2).Comment != "changed" {
		t.Errorf("new snapshot comment = %q, want changed", after.Find(2).Comment)
	}
}

func TestEditor_AddChild(t *testing.T) {
	tests := []struct {
		name    string
		ct      types.ConditionType
		role    types.BranchRole
		wantErr error
	}{
		{"true branch on if", types.ConditionIf, types.RoleTrue, nil},
		{"false branch on if-else", types.ConditionIfElse, types.RoleFalse, nil},
		{"false branch on if", types.ConditionIf, types.RoleFalse, types.ErrBranchNotAllowed},
		{"param on lookup", types.ConditionLookup, types.RoleLookupParam, nil},
		{"true branch on lookup", types.ConditionLookup, types.RoleTrue, nil},
		{"param on if", types.ConditionIf, types.RoleLookupParam, types.ErrBranchNotAllowed},
		{"true branch on none", types.ConditionNone, types.RoleTrue, types.ErrBranchNotAllowed},
		{"root role", types.ConditionIf, types.RoleRoot, types.ErrBranchNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must := mustTree(t)
			ed := NewEditor(&types.Tree{}, nil)
			tr := must(ed.AddRootRow(&types.Tree{}))
			tr = must(ed.SetConditionType(tr, 1, tt.ct))
			before := len(tr.Find(1).Children(tt.role))

			got, err := ed.AddChild(tr, 1, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddChild() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if got != nil {
					t.Error("AddChild() returned a tree on error")
				}
				return
			}
			branch := got.Find(1).Children(tt.role)
			if len(branch) != before+1 {
				t.Fatalf("branch length = %d, want %d", len(branch), before+1)
			}
			last := branch[len(branch)-1]
			if last.Index != before {
				t.Errorf("new child Index = %d, want %d", last.Index, before)
			}
			if !got.Find(1).Expanded {
				t.Error("parent not expanded after AddChild")
			}
		})
	}
}

func TestEditor_RemoveChild(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))
	tr = must(ed.AddChild(tr, 1, types.RoleTrue))
	tr = must(ed.AddChild(tr, 1, types.RoleTrue))

	tr = must(ed.RemoveChild(tr, 1, types.RoleTrue, 1))

	n := tr.Find(1)
	if len(n.TrueChildren) != 2 {
		t.Fatalf("len(TrueChildren) = %d, want 2", len(n.TrueChildren))
	}
	if n.TrueChildren[0].ID != 2 || n.TrueChildren[1].ID != 4 {
		t.Errorf("remaining ids = (%d, %d), want (2, 4)", n.TrueChildren[0].ID, n.TrueChildren[1].ID)
	}
	for i, c := range n.TrueChildren {
		if c.Index != i {
			t.Errorf("TrueChildren[%d].Index = %d, want %d", i, c.Index, i)
		}
	}

	// Removed ids are never reissued.
	tr = must(ed.AddChild(tr, 1, types.RoleTrue))
	if got := tr.Find(1).TrueChildren[2].ID; got != 5 {
		t.Errorf("id after removal = %d, want 5", got)
	}
}

func TestEditor_RemoveChildRespectsMinimums(t *testing.T) {
	tests := []struct {
		name  string
		ct    types.ConditionType
		role  types.BranchRole
		extra int
		index int
		want  int
	}{
		{"last if child", types.ConditionIf, types.RoleTrue, 0, 0, 1},
		{"last if-else false child", types.ConditionIfElse, types.RoleFalse, 0, 0, 1},
		{"required lookup param", types.ConditionLookup, types.RoleLookupParam, 0, 2, 3},
		{"required lookup param with extras", types.ConditionLookup, types.RoleLookupParam, 2, 0, 5},
		{"optional lookup param", types.ConditionLookup, types.RoleLookupParam, 2, 3, 4},
		{"second if child", types.ConditionIf, types.RoleTrue, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must := mustTree(t)
			ed := NewEditor(&types.Tree{}, nil)
			tr := must(ed.AddRootRow(&types.Tree{}))
			tr = must(ed.SetConditionType(tr, 1, tt.ct))
			for i := 0; i < tt.extra; i++ {
				tr = must(ed.AddChild(tr, 1, tt.role))
			}

			tr = must(ed.RemoveChild(tr, 1, tt.role, tt.index))

			if got := len(tr.Find(1).Children(tt.role)); got != tt.want {
				t.Errorf("branch length = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEditor_RemoveChildOutOfRange(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))

	if _, err := ed.RemoveChild(tr, 1, types.RoleTrue, 5); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("RemoveChild() error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := ed.RemoveChild(tr, 99, types.RoleTrue, 0); !errors.Is(err, types.ErrNodeNotFound) {
		t.Errorf("RemoveChild() error = %v, want ErrNodeNotFound", err)
	}
}

func TestEditor_RemoveRow(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.AddRootRow(tr))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIfElse))

	same := must(ed.RemoveRow(tr, 3))
	if same.Len() != tr.Len() || same.Find(3) == nil {
		t.Errorf("RemoveRow(nested id) changed the tree: %v", collectIDs(same))
	}
	if _, err := ed.RemoveRow(tr, 99); !errors.Is(err, types.ErrNodeNotFound) {
		t.Errorf("RemoveRow(unknown id) error = %v, want ErrNodeNotFound", err)
	}

	tr = must(ed.RemoveRow(tr, 1))

	if len(tr.Roots) != 1 || tr.Roots[0].ID != 2 {
		t.Fatalf("roots after RemoveRow = %v, want [2]", collectIDs(tr))
	}
	if tr.Roots[0].Index != 0 {
		t.Errorf("remaining root Index = %d, want 0", tr.Roots[0].Index)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (subtree removed)", tr.Len())
	}
}

func TestEditor_RemoveRowPurgesNestedDuplicates(t *testing.T) {
	corrupt := tree(
		ifNode(1, types.Operand{}, types.Operand{}, "=",
			computationNode(5, "1", types.OpAdd, "1"),
			computationNode(6, "1", types.OpAdd, "1")),
		computationNode(5, "2", types.OpAdd, "2"),
	)
	ed := NewEditor(corrupt, nil)

	tr, err := ed.RemoveRow(corrupt, 5)
	if err != nil {
		t.Fatalf("RemoveRow() error = %v", err)
	}

	got := collectIDs(tr)
	want := []types.NodeID{1, 6}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ids after purge = %v, want %v", got, want)
	}
	if tr.Find(6).Index != 0 {
		t.Errorf("sibling Index = %d, want 0", tr.Find(6).Index)
	}
}

func TestEditor_ToggleExpanded(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))

	collapsed := must(ed.ToggleExpanded(tr, 1))
	if collapsed.Find(1).Expanded {
		t.Error("Expanded = true after toggle, want false")
	}
	if len(collapsed.Find(1).TrueChildren) != 1 {
		t.Error("toggle changed children")
	}
	if !must(ed.ToggleExpanded(collapsed, 1)).Find(1).Expanded {
		t.Error("Expanded = false after second toggle, want true")
	}
}

func TestEditor_SetField(t *testing.T) {
	catalog := NewCatalog([]ParamOption{{Value: "17132", Label: "Labor", Description: "Labor hours"}}, nil)
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, catalog)
	tr := must(ed.AddRootRow(&types.Tree{}))

	tr = must(ed.SetField(tr, 1, FieldParamID, "17132"))
	tr = must(ed.SetField(tr, 1, FieldOperation, "*"))
	tr = must(ed.SetField(tr, 1, FieldOperand, "84"))
	tr = must(ed.SetField(tr, 1, FieldComment, "labor"))

	c := tr.Find(1).Computation()
	if c.ParamDescription != "Labor hours" {
		t.Errorf("ParamDescription = %q, want %q", c.ParamDescription, "Labor hours")
	}
	if c.Operation != types.OpMul || c.Operand != "84" {
		t.Errorf("Computation = %+v", c)
	}
	if tr.Find(1).Comment != "labor" {
		t.Errorf("Comment = %q, want labor", tr.Find(1).Comment)
	}
}

func TestEditor_SetFieldErrors(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.AddRootRow(tr))
	tr = must(ed.SetConditionType(tr, 2, types.ConditionLookup))

	tests := []struct {
		name    string
		id      types.NodeID
		field   Field
		value   string
		wantErr error
	}{
		{"comparison field on none", 1, FieldLeftValue, "x", types.ErrInactiveField},
		{"computation field on lookup", 2, FieldParamID, "x", types.ErrInactiveField},
		{"param field on root", 1, FieldLookupParamValue, "x", types.ErrInactiveField},
		{"unknown field", 1, Field("colour"), "x", types.ErrUnknownField},
		{"bad operation", 1, FieldOperation, "%", types.ErrInvalidValue},
		{"bad combinator", 1, FieldCombinator, "Number", types.ErrInvalidValue},
		{"bad param type", 3, FieldLookupParamType, "Blob", types.ErrInvalidValue},
		{"missing node", 99, FieldComment, "x", types.ErrNodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ed.SetField(tr, tt.id, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SetField() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Error("SetField() returned a tree on error")
			}
		})
	}
}

func TestEditor_ComparatorAliasNormalised(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))
	tr = must(ed.SetField(tr, 1, FieldComparator, "<>"))

	if got := tr.Find(1).Comparison().Comparator; got != "!=" {
		t.Errorf("Comparator = %q, want !=", got)
	}
}

func TestEditor_NestedLookupParam(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionLookup))
	param := tr.Find(1).TrueChildren[2].ID

	tr = must(ed.SetField(tr, param, FieldLookupParamType, string(types.LookupNested)))

	n := tr.Find(param)
	if n.Type() != types.ConditionLookup {
		t.Fatalf("nested param Type() = %s, want LOOKUP", n.Type())
	}
	if len(n.TrueChildren) != types.MinLookupParams {
		t.Errorf("nested params = %d, want %d", len(n.TrueChildren), types.MinLookupParams)
	}
	if n.Param.Type != types.LookupNested {
		t.Errorf("Param.Type = %q, want Nested LOOKUP", n.Param.Type)
	}

	tr = must(ed.SetField(tr, param, FieldLookupParamType, string(types.LookupNumber)))
	n = tr.Find(param)
	if n.Type() != types.ConditionNone || n.HasChildren() {
		t.Errorf("after leaving Nested LOOKUP: Type() = %s, HasChildren() = %v", n.Type(), n.HasChildren())
	}
}

func TestEditor_LookupParamClearedWhenRoleChanges(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	tr = must(ed.SetConditionType(tr, 1, types.ConditionLookup))
	tr = must(ed.SetField(tr, 2, FieldLookupParamValue, "15080"))

	tr = must(ed.SetConditionType(tr, 1, types.ConditionIf))

	n := tr.Find(2)
	if n.Role != types.RoleTrue {
		t.Errorf("Role = %s, want true-branch", n.Role)
	}
	if n.Param != (types.LookupParam{}) {
		t.Errorf("Param = %+v, want zero", n.Param)
	}
}

func TestEditor_DepthLimit(t *testing.T) {
	must := mustTree(t)
	ed := NewEditor(&types.Tree{}, nil)
	tr := must(ed.AddRootRow(&types.Tree{}))
	id := types.NodeID(1)
	var err error
	for depth := 0; depth < types.MaxTreeDepth; depth++ {
		var next *types.Tree
		next, err = ed.SetConditionType(tr, id, types.ConditionIf)
		if err != nil {
			break
		}
		tr = next
		id = tr.Find(id).TrueChildren[0].ID
	}
	if !errors.Is(err, types.ErrTreeTooLarge) {
		t.Fatalf("deep nesting error = %v, want ErrTreeTooLarge", err)
	}
	_, ancestors := tr.FindWithAncestors(id)
	if len(ancestors) != types.MaxTreeDepth-1 {
		t.Errorf("deepest node depth = %d, want %d", len(ancestors), types.MaxTreeDepth-1)
	}
}

func TestEditor_Apply(t *testing.T) {
	ed := NewEditor(&types.Tree{}, nil)
	tr := &types.Tree{}
	steps := []Mutation{
		{Op: OpAddRootRow},
		{Op: OpSetConditionType, ID: 1, ConditionType: types.ConditionIfElse},
		{Op: OpAddChild, ID: 1, Role: "false"},
		{Op: OpSetField, ID: 4, Field: FieldComment, Value: "else step"},
		{Op: OpRemoveChild, ID: 1, Role: "false", Index: 0},
		{Op: OpToggleExpanded, ID: 1},
	}
	for i, m := range steps {
		next, err := ed.Apply(tr, m)
		if err != nil {
			t.Fatalf("step %d (%s) error = %v", i, m.Op, err)
		}
		tr = next
	}

	n := tr.Find(1)
	if len(n.FalseChildren) != 1 || n.FalseChildren[0].ID != 4 {
		t.Fatalf("false children = %v, want [4]", n.FalseChildren)
	}
	if n.FalseChildren[0].Comment != "else step" {
		t.Errorf("Comment = %q, want else step", n.FalseChildren[0].Comment)
	}
	if n.Expanded {
		t.Error("Expanded = true, want false after toggle")
	}

	if _, err := ed.Apply(tr, Mutation{Op: "explode"}); !errors.Is(err, types.ErrUnknownMutation) {
		t.Errorf("Apply(unknown) error = %v, want ErrUnknownMutation", err)
	}
	if _, err := ed.Apply(tr, Mutation{Op: OpSetConditionType, ID: 1, ConditionType: "SWITCH"}); !errors.Is(err, types.ErrUnknownConditionType) {
		t.Errorf("Apply(bad type) error = %v, want ErrUnknownConditionType", err)
	}
	if _, err := ed.Apply(tr, Mutation{Op: OpAddChild, ID: 1, Role: "sideways"}); !errors.Is(err, types.ErrInvalidValue) {
		t.Errorf("Apply(bad role) error = %v, want ErrInvalidValue", err)
	}
}

func TestEditor_NormalizeTopsUpMinimums(t *testing.T) {
	short := tree(
		lookupNode(1, lookupParamNode(2, types.LookupNumber, "1")),
		&types.Node{ID: 3, Condition: types.Comparison{Else: true}},
	)
	ed := NewEditor(short, nil)

	tr, err := ed.Normalize(short)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := len(tr.Find(1).TrueChildren); got != 3 {
		t.Errorf("lookup params = %d, want 3", got)
	}
	if tr.Find(2).Param.Value != "1" {
		t.Error("existing lookup param lost")
	}
	n := tr.Find(3)
	if len(n.TrueChildren) != 1 || len(n.FalseChildren) != 1 {
		t.Errorf("if-else children = (%d, %d), want (1, 1)", len(n.TrueChildren), len(n.FalseChildren))
	}
	ids := collectIDs(tr)
	seen := map[types.NodeID]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %d after Normalize", id)
		}
		seen[id] = true
	}
}
