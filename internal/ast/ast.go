// Package ast defines the syntax tree produced by the parser: a closed set
// of node variants sharing a common header (kind, source file, span, tags).
// Nodes form a DAG rooted at Module; parents own children, there are no back
// references.
package ast

import "fmt"

// Kind tags a node variant.
type Kind int

const (
	KindInvalid Kind = iota

	// atoms
	KindQualname
	KindName
	KindInt
	KindFloat
	KindBool
	KindString
	KindChar
	KindNull

	// top level
	KindModule
	KindImport
	KindFuncDef
	KindParam
	KindMacro
	KindFuncOverload
	KindConst
	KindStruct
	KindField
	KindTest
	KindTag

	// expressions
	KindBinop
	KindUnary
	KindNot
	KindAnd
	KindOr
	KindComparisonChain
	KindTernary
	KindReref
	KindBroadcast
	KindAsync
	KindAwait
	KindArray
	KindFuncCall
	KindSlice
	KindSubscript
	KindFieldAccess

	// types
	KindSimpleType
	KindPointerType
	KindMutableType
	KindOptionalType
	KindArrayType
	KindFuncType
	KindTemplateType
	KindUnionType

	// statements
	KindBlock
	KindVarDecl
	KindOpAssign
	KindAssignChain
	KindAssignParallel
	KindIfStatement
	KindWhileLoop
	KindForSimple
	KindForRange
	KindForParallel
	KindForLoop
	KindMatchCase
	KindMatch
	KindContext
	KindWith
	KindReturn
	KindBreak
	KindSkip
	KindFail
	KindAssert
	KindDefer
	KindCancel

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:         "Invalid",
	KindQualname:        "Qualname",
	KindName:            "Name",
	KindInt:             "Int",
	KindFloat:           "Float",
	KindBool:            "Bool",
	KindString:          "String",
	KindChar:            "Char",
	KindNull:            "Null",
	KindModule:          "Module",
	KindImport:          "Import",
	KindFuncDef:         "FuncDef",
	KindParam:           "Param",
	KindMacro:           "Macro",
	KindFuncOverload:    "FuncOverload",
	KindConst:           "Const",
	KindStruct:          "Struct",
	KindField:           "Field",
	KindTest:            "Test",
	KindTag:             "Tag",
	KindBinop:           "Binop",
	KindUnary:           "Unary",
	KindNot:             "Not",
	KindAnd:             "And",
	KindOr:              "Or",
	KindComparisonChain: "ComparisonChain",
	KindTernary:         "Ternary",
	KindReref:           "Reref",
	KindBroadcast:       "Broadcast",
	KindAsync:           "Async",
	KindAwait:           "Await",
	KindArray:           "Array",
	KindFuncCall:        "FuncCall",
	KindSlice:           "Slice",
	KindSubscript:       "Subscript",
	KindFieldAccess:     "FieldAccess",
	KindSimpleType:      "SimpleType",
	KindPointerType:     "PointerType",
	KindMutableType:     "MutableType",
	KindOptionalType:    "OptionalType",
	KindArrayType:       "ArrayType",
	KindFuncType:        "FuncType",
	KindTemplateType:    "TemplateType",
	KindUnionType:       "UnionType",
	KindBlock:           "Block",
	KindVarDecl:         "VarDecl",
	KindOpAssign:        "OpAssign",
	KindAssignChain:     "AssignChain",
	KindAssignParallel:  "AssignParallel",
	KindIfStatement:     "IfStatement",
	KindWhileLoop:       "WhileLoop",
	KindForSimple:       "ForSimple",
	KindForRange:        "ForRange",
	KindForParallel:     "ForParallel",
	KindForLoop:         "ForLoop",
	KindMatchCase:       "MatchCase",
	KindMatch:           "Match",
	KindContext:         "Context",
	KindWith:            "With",
	KindReturn:          "Return",
	KindBreak:           "Break",
	KindSkip:            "Skip",
	KindFail:            "Fail",
	KindAssert:          "Assert",
	KindDefer:           "Defer",
	KindCancel:          "Cancel",
}

func (k Kind) String() string {
	if k > KindInvalid && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in serialized dumps.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Span is an inclusive source region in 1-based lines and columns.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Valid reports (start_line, start_col) <= (end_line, end_col)
// lexicographically.
func (s Span) Valid() bool {
	if s.StartLine != s.EndLine {
		return s.StartLine < s.EndLine
	}
	return s.StartCol <= s.EndCol
}

func (s Span) String() string {
	return fmt.Sprintf("%d,%d..%d,%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

// NodeInfo is the header every node variant embeds.
type NodeInfo struct {
	NodeKind Kind   `json:"kind"`
	File     string `json:"file,omitempty"`
	Span     Span   `json:"span"`
	Tags     []*Tag `json:"tags,omitempty"`
}

// Node is any syntax tree node.
type Node interface {
	Kind() Kind
	Info() *NodeInfo
}

// Kind returns the variant tag.
func (n *NodeInfo) Kind() Kind { return n.NodeKind }

// Info exposes the common header.
func (n *NodeInfo) Info() *NodeInfo { return n }

// Tag is an attribute annotation attached to a node.
type Tag struct {
	NodeInfo
	Name *Qualname `json:"name"`
	Args []Node    `json:"args,omitempty"`
}
