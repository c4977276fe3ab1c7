package classfile

import (
	"encoding/binary"
	"fmt"
)

type Annotation struct {
	TypeIndex         uint16
	ElementValuePairs []ElementValuePair
}

type ElementValuePair struct {
	ElementNameIndex uint16
	Value            ElementValue
}

// ElementValue is one annotation element. Value holds a constant pool index
// (uint16) for the constant and class tags, an EnumConstValue for 'e', an
// Annotation for '@' and an ArrayValue for '['.
type ElementValue struct {
	Tag   byte
	Value any
}

type EnumConstValue struct {
	TypeNameIndex  uint16
	ConstNameIndex uint16
}

type ArrayValue struct {
	Values []ElementValue
}

type TypeAnnotation struct {
	TargetType uint8
	// TargetInfo is the raw target_info union; its layout depends on
	// TargetType.
	TargetInfo        []byte
	TargetPath        []TypePathEntry
	TypeIndex         uint16
	ElementValuePairs []ElementValuePair
}

type TypePathEntry struct {
	TypePathKind      uint8
	TypeArgumentIndex uint8
}

type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

type RuntimeInvisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

type RuntimeVisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

type RuntimeInvisibleParameterAnnotationsAttribute struct {
	ParameterAnnotations [][]Annotation
}

type RuntimeVisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

type RuntimeInvisibleTypeAnnotationsAttribute struct {
	Annotations []TypeAnnotation
}

type AnnotationDefaultAttribute struct {
	DefaultValue ElementValue
}

func (*RuntimeVisibleAnnotationsAttribute) AttributeName() string {
	return "RuntimeVisibleAnnotations"
}

func (*RuntimeInvisibleAnnotationsAttribute) AttributeName() string {
	return "RuntimeInvisibleAnnotations"
}

func (*RuntimeVisibleParameterAnnotationsAttribute) AttributeName() string {
	return "RuntimeVisibleParameterAnnotations"
}

func (*RuntimeInvisibleParameterAnnotationsAttribute) AttributeName() string {
	return "RuntimeInvisibleParameterAnnotations"
}

func (*RuntimeVisibleTypeAnnotationsAttribute) AttributeName() string {
	return "RuntimeVisibleTypeAnnotations"
}

func (*RuntimeInvisibleTypeAnnotationsAttribute) AttributeName() string {
	return "RuntimeInvisibleTypeAnnotations"
}

func (*AnnotationDefaultAttribute) AttributeName() string { return "AnnotationDefault" }

func readAnnotations(r *reader) []Annotation {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	annotations := make([]Annotation, count)
	for i := range annotations {
		annotations[i] = readAnnotation(r)
	}
	return annotations
}

func readParameterAnnotations(r *reader) [][]Annotation {
	count := r.readU1()
	if r.err != nil {
		return nil
	}
	params := make([][]Annotation, count)
	for i := range params {
		params[i] = readAnnotations(r)
	}
	return params
}

func readAnnotation(r *reader) Annotation {
	return Annotation{
		TypeIndex:         r.readU2(),
		ElementValuePairs: readElementValuePairs(r),
	}
}

func readElementValuePairs(r *reader) []ElementValuePair {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	pairs := make([]ElementValuePair, count)
	for i := range pairs {
		pairs[i] = ElementValuePair{
			ElementNameIndex: r.readU2(),
			Value:            readElementValue(r),
		}
		if r.err != nil {
			return nil
		}
	}
	return pairs
}

func readElementValue(r *reader) ElementValue {
	ev := ElementValue{Tag: r.readU1()}
	if r.err != nil {
		return ev
	}
	switch ev.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		ev.Value = r.readU2()
	case 'e':
		ev.Value = EnumConstValue{
			TypeNameIndex:  r.readU2(),
			ConstNameIndex: r.readU2(),
		}
	case '@':
		ev.Value = readAnnotation(r)
	case '[':
		count := r.readU2()
		if r.err != nil {
			return ev
		}
		values := make([]ElementValue, count)
		for i := range values {
			values[i] = readElementValue(r)
			if r.err != nil {
				return ev
			}
		}
		ev.Value = ArrayValue{Values: values}
	default:
		r.fail(fmt.Errorf("%w: element value tag %q", ErrUnknownTag, ev.Tag))
	}
	return ev
}

func readTypeAnnotations(r *reader) []TypeAnnotation {
	count := r.readU2()
	if r.err != nil {
		return nil
	}
	annotations := make([]TypeAnnotation, count)
	for i := range annotations {
		annotations[i] = readTypeAnnotation(r)
		if r.err != nil {
			return nil
		}
	}
	return annotations
}

func readTypeAnnotation(r *reader) TypeAnnotation {
	ta := TypeAnnotation{TargetType: r.readU1()}
	if r.err != nil {
		return ta
	}
	var size int
	switch ta.TargetType {
	case 0x00, 0x01, 0x16:
		size = 1
	case 0x10, 0x11, 0x12, 0x17, 0x42, 0x43, 0x44, 0x45, 0x46:
		size = 2
	case 0x13, 0x14, 0x15:
	case 0x47, 0x48, 0x49, 0x4A, 0x4B:
		size = 3
	case 0x40, 0x41:
		// localvar_target: u2 table length, then {start_pc, length, index}.
		length := r.readU2()
		ta.TargetInfo = append(binary.BigEndian.AppendUint16(nil, length), r.readBytes(int(length)*6)...)
	default:
		r.fail(fmt.Errorf("%w: type annotation target 0x%02X", ErrUnknownTag, ta.TargetType))
		return ta
	}
	if size > 0 {
		ta.TargetInfo = r.readBytes(size)
	}

	pathLength := r.readU1()
	if r.err != nil {
		return ta
	}
	ta.TargetPath = make([]TypePathEntry, pathLength)
	for i := range ta.TargetPath {
		ta.TargetPath[i] = TypePathEntry{
			TypePathKind:      r.readU1(),
			TypeArgumentIndex: r.readU1(),
		}
	}
	ta.TypeIndex = r.readU2()
	ta.ElementValuePairs = readElementValuePairs(r)
	return ta
}

func (cp ConstantPool) checkAnnotations(annotations []Annotation) error {
	for i := range annotations {
		if err := cp.checkAnnotation(&annotations[i]); err != nil {
			return err
		}
	}
	return nil
}

func (cp ConstantPool) checkAnnotation(a *Annotation) error {
	desc, err := cp.Utf8(a.TypeIndex)
	if err != nil {
		return fmt.Errorf("annotation type: %w", err)
	}
	if _, err := ParseFieldDescriptor(desc); err != nil {
		return fmt.Errorf("annotation type: %w", err)
	}
	return cp.checkElementValuePairs(a.ElementValuePairs)
}

func (cp ConstantPool) checkElementValuePairs(pairs []ElementValuePair) error {
	for _, pair := range pairs {
		name, err := cp.Utf8(pair.ElementNameIndex)
		if err != nil {
			return fmt.Errorf("element name: %w", err)
		}
		if err := cp.checkElementValue(pair.Value); err != nil {
			return fmt.Errorf("element %s: %w", name, err)
		}
	}
	return nil
}

// checkElementValue checks that constant tags point at the pool entry kind
// their tag names.
func (cp ConstantPool) checkElementValue(ev ElementValue) error {
	var err error
	switch v := ev.Value.(type) {
	case uint16:
		switch ev.Tag {
		case 'B', 'C', 'I', 'S', 'Z':
			_, err = entryAs[*ConstantIntegerInfo](cp, v, ConstantInteger)
		case 'D':
			_, err = entryAs[*ConstantDoubleInfo](cp, v, ConstantDouble)
		case 'F':
			_, err = entryAs[*ConstantFloatInfo](cp, v, ConstantFloat)
		case 'J':
			_, err = entryAs[*ConstantLongInfo](cp, v, ConstantLong)
		case 's', 'c':
			_, err = cp.Utf8(v)
		}
	case EnumConstValue:
		if _, err = cp.Utf8(v.TypeNameIndex); err == nil {
			_, err = cp.Utf8(v.ConstNameIndex)
		}
	case Annotation:
		err = cp.checkAnnotation(&v)
	case ArrayValue:
		for _, elem := range v.Values {
			if err = cp.checkElementValue(elem); err != nil {
				break
			}
		}
	}
	return err
}

func (cp ConstantPool) checkTypeAnnotations(annotations []TypeAnnotation) error {
	for _, ta := range annotations {
		a := Annotation{TypeIndex: ta.TypeIndex, ElementValuePairs: ta.ElementValuePairs}
		if err := cp.checkAnnotation(&a); err != nil {
			return err
		}
	}
	return nil
}
