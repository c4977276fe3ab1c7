package format

import (
	"encoding"

	"github.com/dhamidi/classdump/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *classfile.ClassFile) error
}

var (
	_ Encoder = (*DisassemblyEncoder)(nil)
	_ Encoder = (*JSONEncoder)(nil)
)
