package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/dhamidi/classdump/classfile"
)

type JSONEncoder struct {
	w     io.Writer
	class *classfile.ClassFile
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	if e.class == nil {
		return nil, errors.New("no class to encode")
	}
	data, err := e.buildClassData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

type jsonClass struct {
	Name         string         `json:"name"`
	SuperClass   string         `json:"superClass,omitempty"`
	Interfaces   []string       `json:"interfaces,omitempty"`
	Flags        []string       `json:"flags,omitempty"`
	Version      jsonVersion    `json:"version"`
	ConstantPool []jsonConstant `json:"constantPool"`
	Fields       []jsonMember   `json:"fields,omitempty"`
	Methods      []jsonMember   `json:"methods,omitempty"`
	SourceFile   string         `json:"sourceFile,omitempty"`
}

type jsonVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
	Name  string `json:"name"`
}

type jsonConstant struct {
	Index uint16 `json:"index"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type jsonMember struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Type       string   `json:"type,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
}

func (e *JSONEncoder) buildClassData() (jsonClass, error) {
	c := e.class
	var data jsonClass
	var err error

	if data.Name, err = c.ClassName(); err != nil {
		return data, fmt.Errorf("this class: %w", err)
	}
	if data.SuperClass, _, err = c.SuperClassName(); err != nil {
		return data, fmt.Errorf("super class: %w", err)
	}
	if data.Interfaces, err = c.InterfaceNames(); err != nil {
		return data, fmt.Errorf("interfaces: %w", err)
	}
	for _, flag := range c.AccessFlags.ClassFlags() {
		if flag.Set {
			data.Flags = append(data.Flags, flag.Label)
		}
	}
	data.Version = jsonVersion{Major: c.MajorVersion, Minor: c.MinorVersion}
	if data.Version.Name, err = c.VersionName(); err != nil {
		return data, err
	}

	p := newPrinter(c.ConstantPool, termenv.Ascii)
	data.ConstantPool = make([]jsonConstant, 0, len(c.ConstantPool))
	for i, entry := range c.ConstantPool {
		if entry == nil {
			continue
		}
		text, err := p.entry(entry)
		if err != nil {
			return data, fmt.Errorf("constant pool entry %d: %w", i+1, err)
		}
		data.ConstantPool = append(data.ConstantPool, jsonConstant{
			Index: uint16(i + 1),
			Kind:  entry.Tag().String(),
			Value: text,
		})
	}

	if data.Fields, err = e.buildFields(); err != nil {
		return data, err
	}
	if data.Methods, err = e.buildMethods(); err != nil {
		return data, err
	}
	if data.SourceFile, err = c.SourceFile(); err != nil {
		return data, fmt.Errorf("source file: %w", err)
	}
	return data, nil
}

func (e *JSONEncoder) buildFields() ([]jsonMember, error) {
	cp := e.class.ConstantPool
	result := make([]jsonMember, len(e.class.Fields))
	for i := range e.class.Fields {
		f := &e.class.Fields[i]
		desc, err := f.Descriptor(cp)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		result[i] = jsonMember{
			Name:       f.Name,
			Descriptor: desc,
			Modifiers:  fieldModifiers(f),
		}
		if ft, err := classfile.ParseFieldDescriptor(desc); err == nil {
			result[i].Type = ft.String()
		}
	}
	return result, nil
}

func fieldModifiers(f *classfile.FieldInfo) []string {
	var mods []string
	if f.IsPublic() {
		mods = append(mods, "public")
	}
	if f.IsPrivate() {
		mods = append(mods, "private")
	}
	if f.IsProtected() {
		mods = append(mods, "protected")
	}
	if f.IsStatic() {
		mods = append(mods, "static")
	}
	if f.IsFinal() {
		mods = append(mods, "final")
	}
	if f.IsVolatile() {
		mods = append(mods, "volatile")
	}
	if f.IsTransient() {
		mods = append(mods, "transient")
	}
	if f.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	if f.IsEnum() {
		mods = append(mods, "enum")
	}
	return mods
}

func (e *JSONEncoder) buildMethods() ([]jsonMember, error) {
	cp := e.class.ConstantPool
	result := make([]jsonMember, len(e.class.Methods))
	for i := range e.class.Methods {
		m := &e.class.Methods[i]
		desc, err := m.Descriptor(cp)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Name, err)
		}
		result[i] = jsonMember{
			Name:       m.Name,
			Descriptor: desc,
			Kind:       methodKind(m),
			Modifiers:  methodModifiers(m),
		}
		if md, err := classfile.ParseMethodDescriptor(desc); err == nil {
			result[i].Type = md.String()
		}
	}
	return result, nil
}

// methodKind names the JVM's special methods. Ordinary methods have no kind.
func methodKind(m *classfile.MethodInfo) string {
	switch {
	case m.IsConstructor():
		return "constructor"
	case m.IsStaticInitializer():
		return "static initializer"
	}
	return ""
}

func methodModifiers(m *classfile.MethodInfo) []string {
	var mods []string
	if m.IsPublic() {
		mods = append(mods, "public")
	}
	if m.IsPrivate() {
		mods = append(mods, "private")
	}
	if m.IsProtected() {
		mods = append(mods, "protected")
	}
	if m.IsStatic() {
		mods = append(mods, "static")
	}
	if m.IsFinal() {
		mods = append(mods, "final")
	}
	if m.IsAbstract() {
		mods = append(mods, "abstract")
	}
	if m.IsSynchronized() {
		mods = append(mods, "synchronized")
	}
	if m.IsNative() {
		mods = append(mods, "native")
	}
	if m.IsBridge() {
		mods = append(mods, "bridge")
	}
	if m.IsVarargs() {
		mods = append(mods, "varargs")
	}
	if m.IsSynthetic() {
		mods = append(mods, "synthetic")
	}
	return mods
}
