package classfile

import "fmt"

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

// ConstantMemberrefInfo is the shared layout of field, method and
// interface method references.
type ConstantMemberrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantFieldrefInfo struct{ ConstantMemberrefInfo }

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct{ ConstantMemberrefInfo }

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct{ ConstantMemberrefInfo }

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

type ConstantMethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (c *ConstantMethodHandleInfo) Tag() ConstantTag { return ConstantMethodHandle }

type ConstantMethodTypeInfo struct {
	DescriptorIndex uint16
}

func (c *ConstantMethodTypeInfo) Tag() ConstantTag { return ConstantMethodType }

type ConstantDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantDynamicInfo) Tag() ConstantTag { return ConstantDynamic }

type ConstantInvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (c *ConstantInvokeDynamicInfo) Tag() ConstantTag { return ConstantInvokeDynamic }

type ConstantModuleInfo struct {
	NameIndex uint16
}

func (c *ConstantModuleInfo) Tag() ConstantTag { return ConstantModule }

type ConstantPackageInfo struct {
	NameIndex uint16
}

func (c *ConstantPackageInfo) Tag() ConstantTag { return ConstantPackage }

// ConstantPool holds the entries of a class file, where position i holds
// logical index i+1. The slot following a Long or Double is nil and cannot
// be referenced.
type ConstantPool []ConstantPoolEntry

// Entry returns the entry at a 1-based index.
func (cp ConstantPool) Entry(index uint16) (ConstantPoolEntry, error) {
	if index == 0 || int(index) > len(cp) {
		return nil, fmt.Errorf("%w: %d (pool has %d entries)", ErrBadIndex, index, len(cp))
	}
	entry := cp[index-1]
	if entry == nil {
		return nil, fmt.Errorf("%w: %d is the unusable slot after a long or double", ErrBadIndex, index)
	}
	return entry, nil
}

func entryAs[T ConstantPoolEntry](cp ConstantPool, index uint16, want ConstantTag) (T, error) {
	var zero T
	entry, err := cp.Entry(index)
	if err != nil {
		return zero, err
	}
	typed, ok := entry.(T)
	if !ok {
		return zero, fmt.Errorf("%w: index %d is %s, expected %s", ErrUnexpectedEntry, index, entry.Tag(), want)
	}
	return typed, nil
}

// Utf8 returns the text of the Utf8 entry at index.
func (cp ConstantPool) Utf8(index uint16) (string, error) {
	entry, err := entryAs[*ConstantUtf8Info](cp, index, ConstantUtf8)
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

// ClassName follows a Class entry to its name.
func (cp ConstantPool) ClassName(index uint16) (string, error) {
	entry, err := entryAs[*ConstantClassInfo](cp, index, ConstantClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8(entry.NameIndex)
}

func (cp ConstantPool) NameAndType(index uint16) (*ConstantNameAndTypeInfo, error) {
	return entryAs[*ConstantNameAndTypeInfo](cp, index, ConstantNameAndType)
}

func (cp ConstantPool) NameAndTypeStrings(index uint16) (name, descriptor string, err error) {
	nt, err := cp.NameAndType(index)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(nt.NameIndex); err != nil {
		return "", "", err
	}
	if descriptor, err = cp.Utf8(nt.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// MemberRef resolves a field, method or interface method reference to its
// owning class, member name and descriptor.
func (cp ConstantPool) MemberRef(index uint16) (className, name, descriptor string, err error) {
	entry, err := cp.Entry(index)
	if err != nil {
		return "", "", "", err
	}
	var ref ConstantMemberrefInfo
	switch e := entry.(type) {
	case *ConstantFieldrefInfo:
		ref = e.ConstantMemberrefInfo
	case *ConstantMethodrefInfo:
		ref = e.ConstantMemberrefInfo
	case *ConstantInterfaceMethodrefInfo:
		ref = e.ConstantMemberrefInfo
	default:
		return "", "", "", fmt.Errorf("%w: index %d is %s, expected a member reference", ErrUnexpectedEntry, index, entry.Tag())
	}
	if className, err = cp.ClassName(ref.ClassIndex); err != nil {
		return "", "", "", err
	}
	if name, descriptor, err = cp.NameAndTypeStrings(ref.NameAndTypeIndex); err != nil {
		return "", "", "", err
	}
	return className, name, descriptor, nil
}

func (cp ConstantPool) StringConstant(index uint16) (string, error) {
	entry, err := entryAs[*ConstantStringInfo](cp, index, ConstantString)
	if err != nil {
		return "", err
	}
	return cp.Utf8(entry.StringIndex)
}

func (cp ConstantPool) MethodType(index uint16) (string, error) {
	entry, err := entryAs[*ConstantMethodTypeInfo](cp, index, ConstantMethodType)
	if err != nil {
		return "", err
	}
	return cp.Utf8(entry.DescriptorIndex)
}

func (cp ConstantPool) ModuleName(index uint16) (string, error) {
	entry, err := entryAs[*ConstantModuleInfo](cp, index, ConstantModule)
	if err != nil {
		return "", err
	}
	return cp.Utf8(entry.NameIndex)
}

func (cp ConstantPool) PackageName(index uint16) (string, error) {
	entry, err := entryAs[*ConstantPackageInfo](cp, index, ConstantPackage)
	if err != nil {
		return "", err
	}
	return cp.Utf8(entry.NameIndex)
}

// readConstantPool decodes logical entries 1 through count-1.
func readConstantPool(r *reader, count uint16) (ConstantPool, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: constant pool count is 0", ErrBadIndex)
	}
	cp := make(ConstantPool, count-1)
	for i := uint16(1); i < count; i++ {
		entry, wide, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("read constant pool entry %d: %w", i, err)
		}
		cp[i-1] = entry
		if wide {
			if i+1 >= count {
				return nil, fmt.Errorf("%w: %s at %d needs two slots but the pool ends", ErrBadIndex, entry.Tag(), i)
			}
			i++
		}
	}
	log.Debugf("constant pool has %d slots", len(cp))
	if err := cp.checkIndices(); err != nil {
		return nil, err
	}
	return cp, nil
}

func readConstantPoolEntry(r *reader) (ConstantPoolEntry, bool, error) {
	tag := ConstantTag(r.readU1())
	if r.err != nil {
		return nil, false, r.err
	}

	var entry ConstantPoolEntry
	wide := false
	switch tag {
	case ConstantUtf8:
		length := r.readU2()
		entry = &ConstantUtf8Info{Value: r.readString(int(length))}
	case ConstantInteger:
		entry = &ConstantIntegerInfo{Value: r.readI4()}
	case ConstantFloat:
		entry = &ConstantFloatInfo{Value: r.readF4()}
	case ConstantLong:
		entry = &ConstantLongInfo{Value: r.readI8()}
		wide = true
	case ConstantDouble:
		entry = &ConstantDoubleInfo{Value: r.readF8()}
		wide = true
	case ConstantClass:
		entry = &ConstantClassInfo{NameIndex: r.readU2()}
	case ConstantString:
		entry = &ConstantStringInfo{StringIndex: r.readU2()}
	case ConstantFieldref:
		entry = &ConstantFieldrefInfo{readMemberref(r)}
	case ConstantMethodref:
		entry = &ConstantMethodrefInfo{readMemberref(r)}
	case ConstantInterfaceMethodref:
		entry = &ConstantInterfaceMethodrefInfo{readMemberref(r)}
	case ConstantNameAndType:
		entry = &ConstantNameAndTypeInfo{
			NameIndex:       r.readU2(),
			DescriptorIndex: r.readU2(),
		}
	case ConstantMethodHandle:
		entry = &ConstantMethodHandleInfo{
			ReferenceKind:  MethodHandleKind(r.readU1()),
			ReferenceIndex: r.readU2(),
		}
	case ConstantMethodType:
		entry = &ConstantMethodTypeInfo{DescriptorIndex: r.readU2()}
	case ConstantDynamic:
		entry = &ConstantDynamicInfo{
			BootstrapMethodAttrIndex: r.readU2(),
			NameAndTypeIndex:         r.readU2(),
		}
	case ConstantInvokeDynamic:
		entry = &ConstantInvokeDynamicInfo{
			BootstrapMethodAttrIndex: r.readU2(),
			NameAndTypeIndex:         r.readU2(),
		}
	case ConstantModule:
		entry = &ConstantModuleInfo{NameIndex: r.readU2()}
	case ConstantPackage:
		entry = &ConstantPackageInfo{NameIndex: r.readU2()}
	default:
		return nil, false, fmt.Errorf("%w: %d", ErrUnknownTag, uint8(tag))
	}
	if r.err != nil {
		return nil, false, r.err
	}
	return entry, wide, nil
}

func readMemberref(r *reader) ConstantMemberrefInfo {
	return ConstantMemberrefInfo{
		ClassIndex:       r.readU2(),
		NameAndTypeIndex: r.readU2(),
	}
}

// references lists the pool indices stored in an entry. The bootstrap
// method index of dynamic entries points into the BootstrapMethods
// attribute, not the pool, and is not included.
func references(entry ConstantPoolEntry) []uint16 {
	switch e := entry.(type) {
	case *ConstantClassInfo:
		return []uint16{e.NameIndex}
	case *ConstantStringInfo:
		return []uint16{e.StringIndex}
	case *ConstantFieldrefInfo:
		return []uint16{e.ClassIndex, e.NameAndTypeIndex}
	case *ConstantMethodrefInfo:
		return []uint16{e.ClassIndex, e.NameAndTypeIndex}
	case *ConstantInterfaceMethodrefInfo:
		return []uint16{e.ClassIndex, e.NameAndTypeIndex}
	case *ConstantNameAndTypeInfo:
		return []uint16{e.NameIndex, e.DescriptorIndex}
	case *ConstantMethodHandleInfo:
		return []uint16{e.ReferenceIndex}
	case *ConstantMethodTypeInfo:
		return []uint16{e.DescriptorIndex}
	case *ConstantDynamicInfo:
		return []uint16{e.NameAndTypeIndex}
	case *ConstantInvokeDynamicInfo:
		return []uint16{e.NameAndTypeIndex}
	case *ConstantModuleInfo:
		return []uint16{e.NameIndex}
	case *ConstantPackageInfo:
		return []uint16{e.NameIndex}
	}
	return nil
}

func (cp ConstantPool) checkIndices() error {
	for i, entry := range cp {
		if entry == nil {
			continue
		}
		for _, ref := range references(entry) {
			if _, err := cp.Entry(ref); err != nil {
				return fmt.Errorf("constant pool entry %d (%s): %w", i+1, entry.Tag(), err)
			}
		}
	}
	return nil
}
