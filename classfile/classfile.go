package classfile

// ClassFile is a decoded class file. It is not modified after Parse
// returns and may be read from several goroutines.
type ClassFile struct {
	Magic             uint32
	MinorVersion      uint16
	MajorVersion      uint16
	ConstantPoolCount uint16
	ConstantPool      ConstantPool
	AccessFlags       AccessFlags
	ThisClass         uint16
	SuperClass        uint16
	Interfaces        []uint16
	Fields            []FieldInfo
	Methods           []MethodInfo
	Attributes        []AttributeInfo
}

func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperClassName resolves the superclass. ok is false for a class without
// one, which is only legal for java/lang/Object.
func (cf *ClassFile) SuperClassName() (name string, ok bool, err error) {
	if cf.SuperClass == 0 {
		return "", false, nil
	}
	name, err = cf.ConstantPool.ClassName(cf.SuperClass)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		name, err := cf.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

func (cf *ClassFile) VersionName() (string, error) {
	return VersionName(cf.MajorVersion)
}

func (cf *ClassFile) IsClass() bool {
	return !cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsModule()
}

func (cf *ClassFile) IsInterface() bool {
	return cf.AccessFlags.IsInterface() && !cf.AccessFlags.IsAnnotation()
}

func (cf *ClassFile) GetField(name string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name {
			return &cf.Fields[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name != name {
			continue
		}
		if descriptor == "" {
			return &cf.Methods[i]
		}
		if d, err := cf.Methods[i].Descriptor(cf.ConstantPool); err == nil && d == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

func (cf *ClassFile) GetAttribute(name string) *AttributeInfo {
	return FindAttribute(cf.Attributes, name)
}

// SourceFile returns the name recorded in the SourceFile attribute, or ""
// when the class has none.
func (cf *ClassFile) SourceFile() (string, error) {
	attr := cf.GetAttribute("SourceFile")
	if attr == nil {
		return "", nil
	}
	sf := attr.AsSourceFile()
	if sf == nil {
		return "", nil
	}
	return cf.ConstantPool.Utf8(sf.SourceFileIndex)
}
