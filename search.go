package accounts

// Message-list searches are described by a tree of conditions that a storage
// layer translates into its own query language. The account contributes the
// folder-scoping part of the tree based on its display mode and special
// folders.

// SearchField identifies the message or folder attribute a condition tests.
type SearchField string

const (
	FieldFolder       SearchField = "FOLDER"
	FieldDisplayClass SearchField = "DISPLAY_CLASS"
)

// SearchAttribute is the comparison a condition applies.
type SearchAttribute string

const (
	AttrEquals    SearchAttribute = "EQUALS"
	AttrNotEquals SearchAttribute = "NOT_EQUALS"
)

// FolderClass is the sync/display priority class assigned to a folder.
type FolderClass string

const (
	FolderClassFirst  FolderClass = "FIRST_CLASS"
	FolderClassSecond FolderClass = "SECOND_CLASS"
)

// Condition is a single field comparison.
type Condition struct {
	Field     SearchField
	Attribute SearchAttribute
	Value     string
}

// NodeOp is the operator of an inner condition-tree node.
type NodeOp string

const (
	OpAnd       NodeOp = "AND"
	OpOr        NodeOp = "OR"
	OpCondition NodeOp = "CONDITION"
)

// ConditionNode is a node in the condition tree. Leaves hold a Condition;
// inner nodes combine their children with And or Or.
type ConditionNode struct {
	Op        NodeOp
	Left      *ConditionNode
	Right     *ConditionNode
	Condition *Condition
}

func leaf(c Condition) *ConditionNode {
	cond := c
	return &ConditionNode{Op: OpCondition, Condition: &cond}
}

// And rewrites the node in place to (old AND c).
func (n *ConditionNode) And(c Condition) {
	old := *n
	*n = ConditionNode{Op: OpAnd, Left: &old, Right: leaf(c)}
}

// Or rewrites the node in place to (old OR c).
func (n *ConditionNode) Or(c Condition) {
	old := *n
	*n = ConditionNode{Op: OpOr, Left: &old, Right: leaf(c)}
}

// Search is a message search under construction.
type Search struct {
	Name string
	root *ConditionNode
}

// NewSearch returns an empty search.
func NewSearch(name string) *Search {
	return &Search{Name: name}
}

// And adds a condition conjunctively to the whole tree.
func (s *Search) And(c Condition) {
	if s.root == nil {
		s.root = leaf(c)
		return
	}
	s.root.And(c)
}

// Or adds a condition disjunctively to the whole tree.
func (s *Search) Or(c Condition) {
	if s.root == nil {
		s.root = leaf(c)
		return
	}
	s.root.Or(c)
}

// Conditions returns the root of the condition tree, or nil for an
// unconstrained search.
func (s *Search) Conditions() *ConditionNode {
	return s.root
}

// LimitToDisplayableFolders narrows the search to the folders the account's
// display mode shows.
func (a *Account) LimitToDisplayableFolders(search *Search) {
	switch a.FolderDisplayMode() {
	case FolderModeFirstClass:
		search.And(Condition{Field: FieldDisplayClass, Attribute: AttrEquals, Value: string(FolderClassFirst)})
	case FolderModeFirstAndSecondClass:
		search.And(Condition{Field: FieldDisplayClass, Attribute: AttrEquals, Value: string(FolderClassFirst)})
		second := Condition{Field: FieldDisplayClass, Attribute: AttrEquals, Value: string(FolderClassSecond)}
		// OR the second-class test against the display-class leaf just
		// added, not against the whole tree, so earlier conditions keep
		// their conjunction.
		root := search.Conditions()
		if root.Right != nil {
			root.Right.Or(second)
		} else {
			search.Or(second)
		}
	case FolderModeNotSecondClass:
		search.And(Condition{Field: FieldDisplayClass, Attribute: AttrNotEquals, Value: string(FolderClassSecond)})
	default:
		// FolderModeAll: no constraint.
	}
}

// ExcludeSpecialFolders narrows the search to exclude the trash, drafts,
// spam, outbox and sent folders. The inbox is always included, even when a
// special folder points at it.
func (a *Account) ExcludeSpecialFolders(search *Search) {
	a.excludeFolder(search, a.TrashFolder())
	a.excludeFolder(search, a.DraftsFolder())
	a.excludeFolder(search, a.SpamFolder())
	a.excludeFolder(search, a.OutboxFolder())
	a.excludeFolder(search, a.SentFolder())
	search.Or(Condition{Field: FieldFolder, Attribute: AttrEquals, Value: a.InboxFolder()})
}

// ExcludeUnwantedFolders narrows the search to exclude the trash, spam and
// outbox folders. The inbox is always included.
func (a *Account) ExcludeUnwantedFolders(search *Search) {
	a.excludeFolder(search, a.TrashFolder())
	a.excludeFolder(search, a.SpamFolder())
	a.excludeFolder(search, a.OutboxFolder())
	search.Or(Condition{Field: FieldFolder, Attribute: AttrEquals, Value: a.InboxFolder()})
}

func (a *Account) excludeFolder(search *Search, folder string) {
	if folder != "" {
		search.And(Condition{Field: FieldFolder, Attribute: AttrNotEquals, Value: folder})
	}
}
