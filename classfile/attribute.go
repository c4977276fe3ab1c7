package classfile

import "fmt"

// Attribute is the decoded value of a recognized attribute.
type Attribute interface {
	AttributeName() string
}

// AttributeInfo is an attribute as it appears on a class, field, method or
// Code attribute. Attributes with unrecognized names are skipped during
// decoding and never appear here.
type AttributeInfo struct {
	NameIndex uint16
	Name      string
	Length    uint32
	Value     Attribute
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

type LineNumberTableAttribute struct {
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type LocalVariableTableAttribute struct {
	LocalVariableTable []LocalVariableEntry
}

type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

type SyntheticAttribute struct{}

type DeprecatedAttribute struct{}

type SignatureAttribute struct {
	SignatureIndex uint16
}

type BootstrapMethodsAttribute struct {
	BootstrapMethods []BootstrapMethod
}

type BootstrapMethod struct {
	BootstrapMethodRef uint16
	BootstrapArguments []uint16
}

type NestHostAttribute struct {
	HostClassIndex uint16
}

type NestMembersAttribute struct {
	Classes []uint16
}

type PermittedSubclassesAttribute struct {
	Classes []uint16
}

type EnclosingMethodAttribute struct {
	ClassIndex uint16
	// MethodIndex is a NameAndType, or 0 outside a method body.
	MethodIndex uint16
}

type SourceDebugExtensionAttribute struct {
	DebugExtension string
}

type LocalVariableTypeTableAttribute struct {
	LocalVariableTypeTable []LocalVariableTypeEntry
}

type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

// MethodParameter has NameIndex 0 for an unnamed parameter.
type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

type RecordAttribute struct {
	Components []RecordComponentInfo
}

type RecordComponentInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (*ConstantValueAttribute) AttributeName() string       { return "ConstantValue" }
func (*CodeAttribute) AttributeName() string                { return "Code" }
func (*ExceptionsAttribute) AttributeName() string          { return "Exceptions" }
func (*SourceFileAttribute) AttributeName() string          { return "SourceFile" }
func (*LineNumberTableAttribute) AttributeName() string     { return "LineNumberTable" }
func (*LocalVariableTableAttribute) AttributeName() string  { return "LocalVariableTable" }
func (*InnerClassesAttribute) AttributeName() string        { return "InnerClasses" }
func (*SyntheticAttribute) AttributeName() string           { return "Synthetic" }
func (*DeprecatedAttribute) AttributeName() string          { return "Deprecated" }
func (*SignatureAttribute) AttributeName() string           { return "Signature" }
func (*BootstrapMethodsAttribute) AttributeName() string    { return "BootstrapMethods" }
func (*NestHostAttribute) AttributeName() string            { return "NestHost" }
func (*NestMembersAttribute) AttributeName() string         { return "NestMembers" }
func (*PermittedSubclassesAttribute) AttributeName() string { return "PermittedSubclasses" }

func (*EnclosingMethodAttribute) AttributeName() string        { return "EnclosingMethod" }
func (*SourceDebugExtensionAttribute) AttributeName() string   { return "SourceDebugExtension" }
func (*LocalVariableTypeTableAttribute) AttributeName() string { return "LocalVariableTypeTable" }
func (*MethodParametersAttribute) AttributeName() string       { return "MethodParameters" }
func (*RecordAttribute) AttributeName() string                 { return "Record" }

func (a *AttributeInfo) AsCode() *CodeAttribute {
	code, _ := a.Value.(*CodeAttribute)
	return code
}

func (a *AttributeInfo) AsLineNumberTable() *LineNumberTableAttribute {
	lnt, _ := a.Value.(*LineNumberTableAttribute)
	return lnt
}

func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute {
	sf, _ := a.Value.(*SourceFileAttribute)
	return sf
}

func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	cv, _ := a.Value.(*ConstantValueAttribute)
	return cv
}

func (a *AttributeInfo) AsRecord() *RecordAttribute {
	rec, _ := a.Value.(*RecordAttribute)
	return rec
}

// FindAttribute returns the first attribute with the given name.
func FindAttribute(attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if attrs[i].Name == name {
			return &attrs[i]
		}
	}
	return nil
}

// readAttributes decodes a u2-counted attribute list. Each attribute's
// declared length is checked against the bytes its decoding consumed.
func readAttributes(r *reader, cp ConstantPool) ([]AttributeInfo, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}

	attrs := make([]AttributeInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		nameIndex := r.readU2()
		if r.err != nil {
			return nil, r.err
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("attribute %d name: %w", i, err)
		}
		length := r.readU4()
		if r.err != nil {
			return nil, r.err
		}
		log.Debugf("attribute %d/%d has name %s and length %d", i+1, count, name, length)

		r.begin()
		value, err := readAttribute(r, cp, name, length)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if err := r.end(length, name+" attribute"); err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		attrs = append(attrs, AttributeInfo{
			NameIndex: nameIndex,
			Name:      name,
			Length:    length,
			Value:     value,
		})
	}
	return attrs, nil
}

func readAttribute(r *reader, cp ConstantPool, name string, length uint32) (Attribute, error) {
	var attr Attribute
	switch name {
	case "ConstantValue":
		attr = &ConstantValueAttribute{ConstantValueIndex: r.readU2()}
	case "Code":
		code, err := readCodeAttribute(r, cp)
		if err != nil {
			return nil, err
		}
		attr = code
	case "Exceptions":
		attr = &ExceptionsAttribute{ExceptionIndexTable: readU2List(r)}
	case "SourceFile":
		attr = &SourceFileAttribute{SourceFileIndex: r.readU2()}
	case "LineNumberTable":
		attr = readLineNumberTable(r)
	case "LocalVariableTable":
		attr = readLocalVariableTable(r)
	case "InnerClasses":
		attr = readInnerClasses(r)
	case "Synthetic":
		attr = &SyntheticAttribute{}
	case "Deprecated":
		attr = &DeprecatedAttribute{}
	case "Signature":
		attr = &SignatureAttribute{SignatureIndex: r.readU2()}
	case "BootstrapMethods":
		attr = readBootstrapMethods(r)
	case "NestHost":
		attr = &NestHostAttribute{HostClassIndex: r.readU2()}
	case "NestMembers":
		attr = &NestMembersAttribute{Classes: readU2List(r)}
	case "PermittedSubclasses":
		attr = &PermittedSubclassesAttribute{Classes: readU2List(r)}
	case "EnclosingMethod":
		attr = &EnclosingMethodAttribute{ClassIndex: r.readU2(), MethodIndex: r.readU2()}
	case "SourceDebugExtension":
		attr = &SourceDebugExtensionAttribute{DebugExtension: string(r.readBytes(int(length)))}
	case "LocalVariableTypeTable":
		attr = readLocalVariableTypeTable(r)
	case "MethodParameters":
		attr = readMethodParameters(r)
	case "Record":
		rec, err := readRecord(r, cp)
		if err != nil {
			return nil, err
		}
		attr = rec
	case "RuntimeVisibleAnnotations":
		attr = &RuntimeVisibleAnnotationsAttribute{Annotations: readAnnotations(r)}
	case "RuntimeInvisibleAnnotations":
		attr = &RuntimeInvisibleAnnotationsAttribute{Annotations: readAnnotations(r)}
	case "RuntimeVisibleParameterAnnotations":
		attr = &RuntimeVisibleParameterAnnotationsAttribute{ParameterAnnotations: readParameterAnnotations(r)}
	case "RuntimeInvisibleParameterAnnotations":
		attr = &RuntimeInvisibleParameterAnnotationsAttribute{ParameterAnnotations: readParameterAnnotations(r)}
	case "RuntimeVisibleTypeAnnotations":
		attr = &RuntimeVisibleTypeAnnotationsAttribute{Annotations: readTypeAnnotations(r)}
	case "RuntimeInvisibleTypeAnnotations":
		attr = &RuntimeInvisibleTypeAnnotationsAttribute{Annotations: readTypeAnnotations(r)}
	case "AnnotationDefault":
		attr = &AnnotationDefaultAttribute{DefaultValue: readElementValue(r)}
	case "Module":
		attr = readModule(r)
	case "ModulePackages":
		attr = &ModulePackagesAttribute{PackageIndex: readU2List(r)}
	case "ModuleMainClass":
		attr = &ModuleMainClassAttribute{MainClassIndex: r.readU2()}
	default:
		// StackMapTable is skipped too.
		log.Debugf("skipping %d bytes for %s", length, name)
		r.skip(int(length))
	}
	if r.err != nil {
		return nil, r.err
	}
	return attr, nil
}

func readCodeAttribute(r *reader, cp ConstantPool) (*CodeAttribute, error) {
	code := &CodeAttribute{
		MaxStack:  r.readU2(),
		MaxLocals: r.readU2(),
	}
	codeLength := r.readU4()
	code.Code = r.readBytes(int(codeLength))

	exceptionTableLength := r.readU2()
	if r.err != nil {
		return nil, r.err
	}
	code.ExceptionTable = make([]ExceptionTableEntry, exceptionTableLength)
	for i := range code.ExceptionTable {
		code.ExceptionTable[i] = ExceptionTableEntry{
			StartPC:   r.readU2(),
			EndPC:     r.readU2(),
			HandlerPC: r.readU2(),
			CatchType: r.readU2(),
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	attrs, err := readAttributes(r, cp)
	if err != nil {
		return nil, err
	}
	code.Attributes = attrs
	return code, nil
}

func readU2List(r *reader) []uint16 {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	list := make([]uint16, count)
	for i := range list {
		list[i] = r.readU2()
	}
	return list
}

func readLineNumberTable(r *reader) *LineNumberTableAttribute {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	lnt := &LineNumberTableAttribute{
		LineNumberTable: make([]LineNumberEntry, count),
	}
	for i := range lnt.LineNumberTable {
		lnt.LineNumberTable[i] = LineNumberEntry{
			StartPC:    r.readU2(),
			LineNumber: r.readU2(),
		}
	}
	return lnt
}

func readLocalVariableTable(r *reader) *LocalVariableTableAttribute {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	lvt := &LocalVariableTableAttribute{
		LocalVariableTable: make([]LocalVariableEntry, count),
	}
	for i := range lvt.LocalVariableTable {
		lvt.LocalVariableTable[i] = LocalVariableEntry{
			StartPC:         r.readU2(),
			Length:          r.readU2(),
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
			Index:           r.readU2(),
		}
	}
	return lvt
}

func readInnerClasses(r *reader) *InnerClassesAttribute {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	ic := &InnerClassesAttribute{
		Classes: make([]InnerClassEntry, count),
	}
	for i := range ic.Classes {
		ic.Classes[i] = InnerClassEntry{
			InnerClassInfoIndex:   r.readU2(),
			OuterClassInfoIndex:   r.readU2(),
			InnerNameIndex:        r.readU2(),
			InnerClassAccessFlags: AccessFlags(r.readU2()),
		}
	}
	return ic
}

func readBootstrapMethods(r *reader) *BootstrapMethodsAttribute {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	bm := &BootstrapMethodsAttribute{
		BootstrapMethods: make([]BootstrapMethod, count),
	}
	for i := range bm.BootstrapMethods {
		bm.BootstrapMethods[i] = BootstrapMethod{
			BootstrapMethodRef: r.readU2(),
			BootstrapArguments: readU2List(r),
		}
	}
	return bm
}

func readLocalVariableTypeTable(r *reader) *LocalVariableTypeTableAttribute {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	lvtt := &LocalVariableTypeTableAttribute{
		LocalVariableTypeTable: make([]LocalVariableTypeEntry, count),
	}
	for i := range lvtt.LocalVariableTypeTable {
		lvtt.LocalVariableTypeTable[i] = LocalVariableTypeEntry{
			StartPC:        r.readU2(),
			Length:         r.readU2(),
			NameIndex:      r.readU2(),
			SignatureIndex: r.readU2(),
			Index:          r.readU2(),
		}
	}
	return lvtt
}

// readMethodParameters decodes a u1-counted parameter list.
func readMethodParameters(r *reader) *MethodParametersAttribute {
	count := r.readU1()
	if r.err != nil {
		return nil
	}
	mp := &MethodParametersAttribute{
		Parameters: make([]MethodParameter, count),
	}
	for i := range mp.Parameters {
		mp.Parameters[i] = MethodParameter{
			NameIndex:   r.readU2(),
			AccessFlags: AccessFlags(r.readU2()),
		}
	}
	return mp
}

func readRecord(r *reader, cp ConstantPool) (*RecordAttribute, error) {
	count := r.readU2()
	if r.err != nil {
		return nil, r.err
	}
	rec := &RecordAttribute{
		Components: make([]RecordComponentInfo, count),
	}
	for i := range rec.Components {
		c := RecordComponentInfo{
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
		}
		attrs, err := readAttributes(r, cp)
		if err != nil {
			return nil, fmt.Errorf("record component %d: %w", i, err)
		}
		c.Attributes = attrs
		rec.Components[i] = c
	}
	return rec, nil
}
