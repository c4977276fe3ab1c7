package classfile

import "fmt"

// CheckReferences resolves every constant pool index the class refers to
// and checks that each lands on the kind of entry its referrer expects.
func (cf *ClassFile) CheckReferences() error {
	cp := cf.ConstantPool
	for i, entry := range cp {
		if entry == nil {
			continue
		}
		if err := cp.checkEntry(entry); err != nil {
			return fmt.Errorf("constant pool entry %d (%s): %w", i+1, entry.Tag(), err)
		}
	}

	if _, err := cf.ClassName(); err != nil {
		return fmt.Errorf("this class: %w", err)
	}
	if _, _, err := cf.SuperClassName(); err != nil {
		return fmt.Errorf("super class: %w", err)
	}
	if _, err := cf.InterfaceNames(); err != nil {
		return fmt.Errorf("interfaces: %w", err)
	}

	for i := range cf.Fields {
		f := &cf.Fields[i]
		if _, err := f.Type(cp); err != nil {
			return fmt.Errorf("field %s descriptor: %w", f.Name, err)
		}
		if err := cp.checkAttributes(f.Attributes); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if _, err := m.Signature(cp); err != nil {
			return fmt.Errorf("method %s descriptor: %w", m.Name, err)
		}
		if err := cp.checkAttributes(m.Attributes); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	if err := cp.checkAttributes(cf.Attributes); err != nil {
		return fmt.Errorf("class: %w", err)
	}
	return cf.checkBootstrapIndices()
}

func (cp ConstantPool) checkEntry(entry ConstantPoolEntry) error {
	var err error
	switch e := entry.(type) {
	case *ConstantClassInfo:
		_, err = cp.Utf8(e.NameIndex)
	case *ConstantStringInfo:
		_, err = cp.Utf8(e.StringIndex)
	case *ConstantFieldrefInfo, *ConstantMethodrefInfo, *ConstantInterfaceMethodrefInfo:
		err = cp.checkMemberRef(entry)
	case *ConstantNameAndTypeInfo:
		if _, err = cp.Utf8(e.NameIndex); err == nil {
			_, err = cp.Utf8(e.DescriptorIndex)
		}
	case *ConstantMethodHandleInfo:
		err = cp.checkMethodHandle(e)
	case *ConstantMethodTypeInfo:
		_, err = cp.Utf8(e.DescriptorIndex)
	case *ConstantDynamicInfo:
		_, _, err = cp.NameAndTypeStrings(e.NameAndTypeIndex)
	case *ConstantInvokeDynamicInfo:
		_, _, err = cp.NameAndTypeStrings(e.NameAndTypeIndex)
	case *ConstantModuleInfo:
		_, err = cp.Utf8(e.NameIndex)
	case *ConstantPackageInfo:
		_, err = cp.Utf8(e.NameIndex)
	}
	return err
}

func (cp ConstantPool) checkMemberRef(entry ConstantPoolEntry) error {
	var ref ConstantMemberrefInfo
	switch e := entry.(type) {
	case *ConstantFieldrefInfo:
		ref = e.ConstantMemberrefInfo
	case *ConstantMethodrefInfo:
		ref = e.ConstantMemberrefInfo
	case *ConstantInterfaceMethodrefInfo:
		ref = e.ConstantMemberrefInfo
	}
	if _, err := cp.ClassName(ref.ClassIndex); err != nil {
		return err
	}
	_, _, err := cp.NameAndTypeStrings(ref.NameAndTypeIndex)
	return err
}

func (cp ConstantPool) checkMethodHandle(mh *ConstantMethodHandleInfo) error {
	target, err := cp.Entry(mh.ReferenceIndex)
	if err != nil {
		return err
	}
	var ok bool
	switch mh.ReferenceKind {
	case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
		_, ok = target.(*ConstantFieldrefInfo)
	case RefInvokeVirtual, RefNewInvokeSpecial:
		_, ok = target.(*ConstantMethodrefInfo)
	case RefInvokeStatic, RefInvokeSpecial:
		switch target.(type) {
		case *ConstantMethodrefInfo, *ConstantInterfaceMethodrefInfo:
			ok = true
		}
	case RefInvokeInterface:
		_, ok = target.(*ConstantInterfaceMethodrefInfo)
	default:
		return fmt.Errorf("%w: unknown method handle kind %d", ErrUnexpectedEntry, uint8(mh.ReferenceKind))
	}
	if !ok {
		return fmt.Errorf("%w: %s handle points at %s (%d)", ErrUnexpectedEntry, mh.ReferenceKind, target.Tag(), mh.ReferenceIndex)
	}
	return nil
}

// optionalClass resolves a class index where 0 means "none".
func (cp ConstantPool) optionalClass(index uint16) error {
	if index == 0 {
		return nil
	}
	_, err := cp.ClassName(index)
	return err
}

func (cp ConstantPool) optionalUtf8(index uint16) error {
	if index == 0 {
		return nil
	}
	_, err := cp.Utf8(index)
	return err
}

func (cp ConstantPool) checkAttributes(attrs []AttributeInfo) error {
	for i := range attrs {
		if err := cp.checkAttribute(attrs[i].Value); err != nil {
			return fmt.Errorf("attribute %s: %w", attrs[i].Name, err)
		}
	}
	return nil
}

func (cp ConstantPool) checkAttribute(attr Attribute) error {
	switch a := attr.(type) {
	case *ConstantValueAttribute:
		entry, err := cp.Entry(a.ConstantValueIndex)
		if err != nil {
			return err
		}
		switch entry.(type) {
		case *ConstantIntegerInfo, *ConstantFloatInfo, *ConstantLongInfo, *ConstantDoubleInfo, *ConstantStringInfo:
			return nil
		}
		return fmt.Errorf("%w: constant value %d is %s", ErrUnexpectedEntry, a.ConstantValueIndex, entry.Tag())
	case *CodeAttribute:
		for _, ex := range a.ExceptionTable {
			if err := cp.optionalClass(ex.CatchType); err != nil {
				return fmt.Errorf("catch type: %w", err)
			}
		}
		return cp.checkAttributes(a.Attributes)
	case *ExceptionsAttribute:
		return cp.checkClassList(a.ExceptionIndexTable)
	case *SourceFileAttribute:
		_, err := cp.Utf8(a.SourceFileIndex)
		return err
	case *LocalVariableTableAttribute:
		for _, lv := range a.LocalVariableTable {
			if _, err := cp.Utf8(lv.NameIndex); err != nil {
				return err
			}
			if _, err := cp.Utf8(lv.DescriptorIndex); err != nil {
				return err
			}
		}
	case *InnerClassesAttribute:
		for _, ic := range a.Classes {
			if _, err := cp.ClassName(ic.InnerClassInfoIndex); err != nil {
				return err
			}
			if err := cp.optionalClass(ic.OuterClassInfoIndex); err != nil {
				return err
			}
			if err := cp.optionalUtf8(ic.InnerNameIndex); err != nil {
				return err
			}
		}
	case *SignatureAttribute:
		_, err := cp.Utf8(a.SignatureIndex)
		return err
	case *BootstrapMethodsAttribute:
		for _, bm := range a.BootstrapMethods {
			if _, err := entryAs[*ConstantMethodHandleInfo](cp, bm.BootstrapMethodRef, ConstantMethodHandle); err != nil {
				return err
			}
			for _, arg := range bm.BootstrapArguments {
				if _, err := cp.Entry(arg); err != nil {
					return err
				}
			}
		}
	case *NestHostAttribute:
		_, err := cp.ClassName(a.HostClassIndex)
		return err
	case *NestMembersAttribute:
		return cp.checkClassList(a.Classes)
	case *PermittedSubclassesAttribute:
		return cp.checkClassList(a.Classes)
	case *EnclosingMethodAttribute:
		if _, err := cp.ClassName(a.ClassIndex); err != nil {
			return err
		}
		if a.MethodIndex != 0 {
			_, _, err := cp.NameAndTypeStrings(a.MethodIndex)
			return err
		}
	case *LocalVariableTypeTableAttribute:
		for _, lv := range a.LocalVariableTypeTable {
			if _, err := cp.Utf8(lv.NameIndex); err != nil {
				return err
			}
			if _, err := cp.Utf8(lv.SignatureIndex); err != nil {
				return err
			}
		}
	case *MethodParametersAttribute:
		for _, p := range a.Parameters {
			if err := cp.optionalUtf8(p.NameIndex); err != nil {
				return err
			}
		}
	case *RecordAttribute:
		for _, c := range a.Components {
			name, err := cp.Utf8(c.NameIndex)
			if err != nil {
				return fmt.Errorf("record component: %w", err)
			}
			desc, err := cp.Utf8(c.DescriptorIndex)
			if err != nil {
				return fmt.Errorf("record component %s: %w", name, err)
			}
			if _, err := ParseFieldDescriptor(desc); err != nil {
				return fmt.Errorf("record component %s: %w", name, err)
			}
			if err := cp.checkAttributes(c.Attributes); err != nil {
				return fmt.Errorf("record component %s: %w", name, err)
			}
		}
	case *RuntimeVisibleAnnotationsAttribute:
		return cp.checkAnnotations(a.Annotations)
	case *RuntimeInvisibleAnnotationsAttribute:
		return cp.checkAnnotations(a.Annotations)
	case *RuntimeVisibleParameterAnnotationsAttribute:
		for _, param := range a.ParameterAnnotations {
			if err := cp.checkAnnotations(param); err != nil {
				return err
			}
		}
	case *RuntimeInvisibleParameterAnnotationsAttribute:
		for _, param := range a.ParameterAnnotations {
			if err := cp.checkAnnotations(param); err != nil {
				return err
			}
		}
	case *RuntimeVisibleTypeAnnotationsAttribute:
		return cp.checkTypeAnnotations(a.Annotations)
	case *RuntimeInvisibleTypeAnnotationsAttribute:
		return cp.checkTypeAnnotations(a.Annotations)
	case *AnnotationDefaultAttribute:
		return cp.checkElementValue(a.DefaultValue)
	case *ModuleAttribute:
		return cp.checkModule(a)
	case *ModulePackagesAttribute:
		return cp.checkPackageList(a.PackageIndex)
	case *ModuleMainClassAttribute:
		_, err := cp.ClassName(a.MainClassIndex)
		return err
	}
	return nil
}

func (cp ConstantPool) checkClassList(indices []uint16) error {
	for _, idx := range indices {
		if _, err := cp.ClassName(idx); err != nil {
			return err
		}
	}
	return nil
}

// checkBootstrapIndices checks that dynamic constants point at an existing
// BootstrapMethods entry.
func (cf *ClassFile) checkBootstrapIndices() error {
	var methods int
	if attr := cf.GetAttribute("BootstrapMethods"); attr != nil {
		if bm, ok := attr.Value.(*BootstrapMethodsAttribute); ok {
			methods = len(bm.BootstrapMethods)
		}
	}
	for i, entry := range cf.ConstantPool {
		var idx uint16
		switch e := entry.(type) {
		case *ConstantDynamicInfo:
			idx = e.BootstrapMethodAttrIndex
		case *ConstantInvokeDynamicInfo:
			idx = e.BootstrapMethodAttrIndex
		default:
			continue
		}
		if int(idx) >= methods {
			return fmt.Errorf("constant pool entry %d (%s): %w: bootstrap method %d of %d", i+1, entry.Tag(), ErrBadIndex, idx, methods)
		}
	}
	return nil
}
