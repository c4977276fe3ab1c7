// Package classfiletest builds synthetic class files for tests.
//
// The builder writes bytes directly and knows nothing about the decoder,
// so it can produce files the decoder must reject: wrong attribute
// lengths, unknown tags, dangling indices.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"math"
)

type Builder struct {
	Magic  uint32
	Minor  uint16
	Major  uint16
	Access uint16

	pool  bytes.Buffer
	next  uint16
	names map[string]uint16

	this       uint16
	super      uint16
	interfaces []uint16

	fields  []member
	methods []member
	attrs   []Attr
}

type member struct {
	access uint16
	name   uint16
	desc   uint16
	attrs  []Attr
}

// Attr is an encoded attribute body. Length, when non-nil, replaces the
// real body length in the attribute header.
type Attr struct {
	NameIndex uint16
	Body      []byte
	Length    *uint32
}

// WithLength returns a copy of a that declares n bytes regardless of its
// body.
func (a Attr) WithLength(n uint32) Attr {
	a.Length = &n
	return a
}

// New returns a builder for a public class file of major version 52.
func New() *Builder {
	return &Builder{
		Magic:  0xCAFEBABE,
		Major:  52,
		Access: 0x0021,
		next:   1,
		names:  map[string]uint16{},
	}
}

func (b *Builder) add(slots uint16, tag byte, payload ...byte) uint16 {
	idx := b.next
	b.pool.WriteByte(tag)
	b.pool.Write(payload)
	b.next += slots
	return idx
}

// Raw appends an entry with an arbitrary tag and payload.
func (b *Builder) Raw(tag byte, payload ...byte) uint16 {
	return b.add(1, tag, payload...)
}

func (b *Builder) Utf8(s string) uint16 {
	return b.add(1, 1, append(u2(uint16(len(s))), s...)...)
}

// Name returns the index of a Utf8 entry for s, adding one on first use.
func (b *Builder) Name(s string) uint16 {
	if idx, ok := b.names[s]; ok {
		return idx
	}
	idx := b.Utf8(s)
	b.names[s] = idx
	return idx
}

func (b *Builder) Integer(v int32) uint16 {
	return b.add(1, 3, u4(uint32(v))...)
}

func (b *Builder) Float(v float32) uint16 {
	return b.add(1, 4, u4(math.Float32bits(v))...)
}

// Long adds a Long entry, which takes two logical slots.
func (b *Builder) Long(v int64) uint16 {
	return b.add(2, 5, u8(uint64(v))...)
}

// Double adds a Double entry, which takes two logical slots.
func (b *Builder) Double(v float64) uint16 {
	return b.add(2, 6, u8(math.Float64bits(v))...)
}

func (b *Builder) ClassRef(nameIndex uint16) uint16 {
	return b.add(1, 7, u2(nameIndex)...)
}

func (b *Builder) Class(name string) uint16 {
	return b.ClassRef(b.Name(name))
}

func (b *Builder) StringConstant(s string) uint16 {
	return b.add(1, 8, u2(b.Name(s))...)
}

func (b *Builder) NameAndType(name, desc string) uint16 {
	return b.add(1, 12, cat(u2(b.Name(name)), u2(b.Name(desc)))...)
}

func (b *Builder) Fieldref(class, name, desc string) uint16 {
	return b.memberref(9, class, name, desc)
}

func (b *Builder) Methodref(class, name, desc string) uint16 {
	return b.memberref(10, class, name, desc)
}

func (b *Builder) InterfaceMethodref(class, name, desc string) uint16 {
	return b.memberref(11, class, name, desc)
}

func (b *Builder) memberref(tag byte, class, name, desc string) uint16 {
	c := b.Class(class)
	nt := b.NameAndType(name, desc)
	return b.add(1, tag, cat(u2(c), u2(nt))...)
}

func (b *Builder) MethodHandle(kind uint8, ref uint16) uint16 {
	return b.add(1, 15, append([]byte{kind}, u2(ref)...)...)
}

func (b *Builder) MethodType(desc string) uint16 {
	return b.add(1, 16, u2(b.Name(desc))...)
}

func (b *Builder) Dynamic(bootstrap uint16, name, desc string) uint16 {
	return b.add(1, 17, cat(u2(bootstrap), u2(b.NameAndType(name, desc)))...)
}

func (b *Builder) InvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	return b.add(1, 18, cat(u2(bootstrap), u2(b.NameAndType(name, desc)))...)
}

func (b *Builder) Module(name string) uint16 {
	return b.add(1, 19, u2(b.Name(name))...)
}

func (b *Builder) Package(name string) uint16 {
	return b.add(1, 20, u2(b.Name(name))...)
}

func (b *Builder) This(idx uint16)  { b.this = idx }
func (b *Builder) Super(idx uint16) { b.super = idx }

func (b *Builder) Interface(idx uint16) {
	b.interfaces = append(b.interfaces, idx)
}

func (b *Builder) Field(access uint16, name, desc string, attrs ...Attr) {
	b.fields = append(b.fields, member{access, b.Name(name), b.Name(desc), attrs})
}

func (b *Builder) Method(access uint16, name, desc string, attrs ...Attr) {
	b.methods = append(b.methods, member{access, b.Name(name), b.Name(desc), attrs})
}

// FieldAt adds a field whose name and descriptor are raw pool indices.
func (b *Builder) FieldAt(access, name, desc uint16, attrs ...Attr) {
	b.fields = append(b.fields, member{access, name, desc, attrs})
}

// MethodAt adds a method whose name and descriptor are raw pool indices.
func (b *Builder) MethodAt(access, name, desc uint16, attrs ...Attr) {
	b.methods = append(b.methods, member{access, name, desc, attrs})
}

// Attribute adds class-level attributes.
func (b *Builder) Attribute(attrs ...Attr) {
	b.attrs = append(b.attrs, attrs...)
}

// Attr builds an attribute with the given name and raw body.
func (b *Builder) Attr(name string, body ...byte) Attr {
	return Attr{NameIndex: b.Name(name), Body: body}
}

// Handler is one exception table row.
type Handler struct {
	StartPC, EndPC, HandlerPC, CatchType uint16
}

// Code builds a Code attribute, nesting attrs inside it.
func (b *Builder) Code(maxStack, maxLocals uint16, code []byte, handlers []Handler, attrs ...Attr) Attr {
	var body bytes.Buffer
	body.Write(u2(maxStack))
	body.Write(u2(maxLocals))
	body.Write(u4(uint32(len(code))))
	body.Write(code)
	body.Write(u2(uint16(len(handlers))))
	for _, h := range handlers {
		body.Write(cat(u2(h.StartPC), u2(h.EndPC), u2(h.HandlerPC), u2(h.CatchType)))
	}
	writeAttrs(&body, attrs)
	return b.Attr("Code", body.Bytes()...)
}

// LineNumbers builds a LineNumberTable from (pc, line) pairs.
func (b *Builder) LineNumbers(pairs ...uint16) Attr {
	body := u2(uint16(len(pairs) / 2))
	for _, v := range pairs {
		body = append(body, u2(v)...)
	}
	return b.Attr("LineNumberTable", body...)
}

// BootstrapMethods builds a BootstrapMethods attribute. Each method is the
// method handle index followed by its static argument indices.
func (b *Builder) BootstrapMethods(methods ...[]uint16) Attr {
	body := u2(uint16(len(methods)))
	for _, m := range methods {
		body = append(body, u2(m[0])...)
		body = append(body, U2List(m[1:]...)...)
	}
	return b.Attr("BootstrapMethods", body...)
}

// U2List builds the body of a u2-counted index list attribute such as
// Exceptions or NestMembers.
func U2List(indices ...uint16) []byte {
	body := u2(uint16(len(indices)))
	for _, idx := range indices {
		body = append(body, u2(idx)...)
	}
	return body
}

// Attrs encodes a u2-counted attribute list for bodies that nest one, such
// as a Record component.
func Attrs(attrs ...Attr) []byte {
	var out bytes.Buffer
	writeAttrs(&out, attrs)
	return out.Bytes()
}

// Count is the constant_pool_count the file will declare.
func (b *Builder) Count() uint16 { return b.next }

func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	out.Write(u4(b.Magic))
	out.Write(u2(b.Minor))
	out.Write(u2(b.Major))
	out.Write(u2(b.next))
	out.Write(b.pool.Bytes())
	out.Write(u2(b.Access))
	out.Write(u2(b.this))
	out.Write(u2(b.super))
	out.Write(U2List(b.interfaces...))
	writeMembers(&out, b.fields)
	writeMembers(&out, b.methods)
	writeAttrs(&out, b.attrs)
	return out.Bytes()
}

func writeMembers(out *bytes.Buffer, members []member) {
	out.Write(u2(uint16(len(members))))
	for _, m := range members {
		out.Write(cat(u2(m.access), u2(m.name), u2(m.desc)))
		writeAttrs(out, m.attrs)
	}
}

func writeAttrs(out *bytes.Buffer, attrs []Attr) {
	out.Write(u2(uint16(len(attrs))))
	for _, a := range attrs {
		length := uint32(len(a.Body))
		if a.Length != nil {
			length = *a.Length
		}
		out.Write(u2(a.NameIndex))
		out.Write(u4(length))
		out.Write(a.Body)
	}
}

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u4(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }
func u8(v uint64) []byte { return binary.BigEndian.AppendUint64(nil, v) }

func cat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
