package classfile

type FieldInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	Name            string
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (f *FieldInfo) Descriptor(cp ConstantPool) (string, error) {
	return cp.Utf8(f.DescriptorIndex)
}

// Type resolves and parses the field descriptor.
func (f *FieldInfo) Type(cp ConstantPool) (*FieldType, error) {
	desc, err := f.Descriptor(cp)
	if err != nil {
		return nil, err
	}
	return ParseFieldDescriptor(desc)
}

// ConstantValue returns the ConstantValue attribute of a static final field.
func (f *FieldInfo) ConstantValue() *ConstantValueAttribute {
	attr := FindAttribute(f.Attributes, "ConstantValue")
	if attr == nil {
		return nil
	}
	return attr.AsConstantValue()
}

func (f *FieldInfo) IsPublic() bool    { return f.AccessFlags.IsPublic() }
func (f *FieldInfo) IsPrivate() bool   { return f.AccessFlags.IsPrivate() }
func (f *FieldInfo) IsProtected() bool { return f.AccessFlags.IsProtected() }
func (f *FieldInfo) IsStatic() bool    { return f.AccessFlags.IsStatic() }
func (f *FieldInfo) IsFinal() bool     { return f.AccessFlags.IsFinal() }
func (f *FieldInfo) IsVolatile() bool  { return f.AccessFlags.IsVolatile() }
func (f *FieldInfo) IsTransient() bool { return f.AccessFlags.IsTransient() }
func (f *FieldInfo) IsSynthetic() bool { return f.AccessFlags.IsSynthetic() }
func (f *FieldInfo) IsEnum() bool      { return f.AccessFlags.IsEnum() }
