package classfile

import (
	"fmt"
	"strings"
)

// FieldType is one decoded field descriptor.
type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// String renders the type the way it is written in Java source, such as
// "java.lang.String[]".
func (ft *FieldType) String() string {
	name := ft.BaseType
	if name == "" {
		name = strings.ReplaceAll(ft.ClassName, "/", ".")
	}
	return name + strings.Repeat("[]", ft.ArrayDepth)
}

func (ft *FieldType) IsArray() bool     { return ft.ArrayDepth > 0 }
func (ft *FieldType) IsPrimitive() bool { return ft.BaseType != "" && ft.ArrayDepth == 0 }
func (ft *FieldType) IsReference() bool { return ft.ClassName != "" || ft.ArrayDepth > 0 }

// MethodDescriptor is a decoded method descriptor. ReturnType is nil for
// void methods.
type MethodDescriptor struct {
	Parameters []FieldType
	ReturnType *FieldType
}

func (md *MethodDescriptor) String() string {
	params := make([]string, len(md.Parameters))
	for i := range md.Parameters {
		params[i] = md.Parameters[i].String()
	}
	ret := "void"
	if md.ReturnType != nil {
		ret = md.ReturnType.String()
	}
	return "(" + strings.Join(params, ", ") + ") " + ret
}

// ParseFieldDescriptor parses a field descriptor such as "[I". The whole
// string must be exactly one field type.
func ParseFieldDescriptor(desc string) (*FieldType, error) {
	ft, rest, ok := cutFieldType(desc)
	if !ok || rest != "" {
		return nil, fmt.Errorf("%w: field descriptor %q", ErrInvalidDescriptor, desc)
	}
	return ft, nil
}

// ParseMethodDescriptor parses a method descriptor such as
// "(ILjava/lang/String;)V". V is only accepted as the return type.
func ParseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	bad := fmt.Errorf("%w: method descriptor %q", ErrInvalidDescriptor, desc)
	rest, ok := strings.CutPrefix(desc, "(")
	if !ok {
		return nil, bad
	}

	md := &MethodDescriptor{}
	for !strings.HasPrefix(rest, ")") {
		ft, next, ok := cutFieldType(rest)
		if !ok {
			return nil, bad
		}
		md.Parameters = append(md.Parameters, *ft)
		rest = next
	}
	rest = rest[1:]

	if rest == "V" {
		return md, nil
	}
	ret, rest, ok := cutFieldType(rest)
	if !ok || rest != "" {
		return nil, bad
	}
	md.ReturnType = ret
	return md, nil
}

// cutFieldType decodes the field type at the start of s and returns the
// remainder.
func cutFieldType(s string) (ft *FieldType, rest string, ok bool) {
	ft = &FieldType{}
	for strings.HasPrefix(s, "[") {
		ft.ArrayDepth++
		s = s[1:]
	}
	if s == "" {
		return nil, "", false
	}
	if name, ok := baseTypes[s[0]]; ok {
		ft.BaseType = name
		return ft, s[1:], true
	}
	if s[0] != 'L' {
		return nil, "", false
	}
	name, rest, found := strings.Cut(s[1:], ";")
	if !found || name == "" {
		return nil, "", false
	}
	ft.ClassName = name
	return ft, rest, true
}
