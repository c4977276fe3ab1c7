package classfile

import "errors"

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrUnsupportedVersion = errors.New("unsupported class file version")
	ErrUnknownTag         = errors.New("unknown constant pool tag")
	ErrLengthMismatch     = errors.New("declared length does not match bytes read")
	ErrBadIndex           = errors.New("constant pool index out of range")
	ErrUnexpectedEntry    = errors.New("expected entry missing")
	ErrInvalidUTF8        = errors.New("invalid modified UTF-8")
	ErrInvalidDescriptor  = errors.New("malformed descriptor")
)
