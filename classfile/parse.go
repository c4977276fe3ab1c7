package classfile

import (
	"fmt"
	"io"
	"os"
)

func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a class file. Any truncation, length mismatch, bad index
// or unknown tag aborts decoding; no partial result is returned.
func Parse(rd io.Reader) (*ClassFile, error) {
	r := newReader(rd)

	cf := &ClassFile{Magic: r.readU4()}
	if r.err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", r.err)
	}
	if err := CheckMagic(cf.Magic); err != nil {
		return nil, err
	}

	cf.MinorVersion = r.readU2()
	cf.MajorVersion = r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read version: %w", r.err)
	}
	if _, err := VersionName(cf.MajorVersion); err != nil {
		return nil, err
	}

	cf.ConstantPoolCount = r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read constant pool count: %w", r.err)
	}
	cp, err := readConstantPool(r, cf.ConstantPoolCount)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = cp

	cf.AccessFlags = AccessFlags(r.readU2())
	cf.ThisClass = r.readU2()
	cf.SuperClass = r.readU2()
	cf.Interfaces = readU2List(r)
	if r.err != nil {
		return nil, fmt.Errorf("failed to read class info: %w", r.err)
	}

	fieldsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read fields count: %w", r.err)
	}
	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		m, err := readMember(r, cp)
		if err != nil {
			return nil, fmt.Errorf("failed to read field %d: %w", i, err)
		}
		cf.Fields[i] = FieldInfo(m)
	}

	methodsCount := r.readU2()
	if r.err != nil {
		return nil, fmt.Errorf("failed to read methods count: %w", r.err)
	}
	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		m, err := readMember(r, cp)
		if err != nil {
			return nil, fmt.Errorf("failed to read method %d: %w", i, err)
		}
		cf.Methods[i] = m
	}

	attrs, err := readAttributes(r, cp)
	if err != nil {
		return nil, fmt.Errorf("failed to read class attributes: %w", err)
	}
	cf.Attributes = attrs

	return cf, nil
}

// readMember reads the layout shared by field_info and method_info.
func readMember(r *reader, cp ConstantPool) (MethodInfo, error) {
	m := MethodInfo{
		AccessFlags: AccessFlags(r.readU2()),
		NameIndex:   r.readU2(),
	}
	if r.err != nil {
		return m, r.err
	}
	name, err := cp.Utf8(m.NameIndex)
	if err != nil {
		return m, fmt.Errorf("name: %w", err)
	}
	m.Name = name
	m.DescriptorIndex = r.readU2()
	if r.err != nil {
		return m, r.err
	}
	log.Debugf("member %s has descriptor index %d", name, m.DescriptorIndex)
	if m.Attributes, err = readAttributes(r, cp); err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}
