package classfile

type MethodInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	Name            string
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func (m *MethodInfo) Descriptor(cp ConstantPool) (string, error) {
	return cp.Utf8(m.DescriptorIndex)
}

// Signature resolves and parses the method descriptor.
func (m *MethodInfo) Signature(cp ConstantPool) (*MethodDescriptor, error) {
	desc, err := m.Descriptor(cp)
	if err != nil {
		return nil, err
	}
	return ParseMethodDescriptor(desc)
}

func (m *MethodInfo) Code() *CodeAttribute {
	attr := FindAttribute(m.Attributes, "Code")
	if attr == nil {
		return nil
	}
	return attr.AsCode()
}

func (m *MethodInfo) IsPublic() bool       { return m.AccessFlags.IsPublic() }
func (m *MethodInfo) IsPrivate() bool      { return m.AccessFlags.IsPrivate() }
func (m *MethodInfo) IsProtected() bool    { return m.AccessFlags.IsProtected() }
func (m *MethodInfo) IsStatic() bool       { return m.AccessFlags.IsStatic() }
func (m *MethodInfo) IsFinal() bool        { return m.AccessFlags.IsFinal() }
func (m *MethodInfo) IsSynchronized() bool { return m.AccessFlags.IsSynchronized() }
func (m *MethodInfo) IsBridge() bool       { return m.AccessFlags.IsBridge() }
func (m *MethodInfo) IsVarargs() bool      { return m.AccessFlags.IsVarargs() }
func (m *MethodInfo) IsNative() bool       { return m.AccessFlags.IsNative() }
func (m *MethodInfo) IsAbstract() bool     { return m.AccessFlags.IsAbstract() }
func (m *MethodInfo) IsStrict() bool       { return m.AccessFlags.IsStrict() }
func (m *MethodInfo) IsSynthetic() bool    { return m.AccessFlags.IsSynthetic() }

func (m *MethodInfo) IsConstructor() bool {
	return m.Name == "<init>"
}

func (m *MethodInfo) IsStaticInitializer() bool {
	return m.Name == "<clinit>"
}
