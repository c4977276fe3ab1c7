package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/dhamidi/classdump/classfile"
	"github.com/dhamidi/classdump/classfile/classfiletest"
)

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }

func parse(t *testing.T, b *classfiletest.Builder) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cf
}

func disassemble(t *testing.T, cf *classfile.ClassFile, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewDisassemblyEncoder(&buf, opts...).Encode(cf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.String()
}

func TestDisassemblyMinimalClass(t *testing.T) {
	b := classfiletest.New()
	b.This(b.Class("Foo"))
	got := disassemble(t, parse(t, b))

	want := `Prelude: 0xCAFEBABE
Version: 52.0 (8)
Constant pool count: 3
  1. Utf8: Foo
  2. Class: Foo (1)
Flags:
  public: true
  final: false
  super: true
  interface: false
  abstract: false
  synthetic: false
  annotation: false
  enum: false
  module: false
This class: Foo (2)
Number of interfaces: 0
Number of fields: 0
Number of methods: 0
`
	if got != want {
		t.Errorf("disassembly mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if strings.Contains(got, "Super class") {
		t.Errorf("root class printed a super class line")
	}
}

func fullClass() *classfiletest.Builder {
	b := classfiletest.New()
	b.This(b.Class("Foo"))
	b.Super(b.Class("java/lang/Object"))
	b.Interface(b.Class("java/lang/Runnable"))
	b.Integer(42)
	b.Float(1.5)
	b.Long(7)
	b.Double(2.5)
	b.StringConstant("hi")
	b.Fieldref("Foo", "x", "I")
	b.InterfaceMethodref("java/util/List", "size", "()I")
	b.MethodHandle(6, b.Methodref("Foo", "run", "()V"))
	b.MethodType("(I)V")
	b.InvokeDynamic(0, "apply", "()Ljava/lang/Runnable;")
	b.Module("java.base")
	b.Package("java/lang")

	b.Field(0x0002, "x", "I")
	b.Field(0x0001, "names", "[Ljava/lang/String;")
	handlers := []classfiletest.Handler{
		{StartPC: 0, EndPC: 1, HandlerPC: 1, CatchType: b.Class("java/lang/Exception")},
		{StartPC: 0, EndPC: 1, HandlerPC: 1},
	}
	b.Method(0x0001, "run", "()V", b.Code(1, 1, []byte{0xB1}, handlers, b.LineNumbers(0, 3)))
	b.Attribute(b.Attr("SourceFile", u2(b.Name("Foo.java"))...))
	return b
}

func TestDisassemblyFullClass(t *testing.T) {
	got := disassemble(t, parse(t, fullClass()))

	for _, want := range []string{
		"Super class: java/lang/Object (",
		"Number of interfaces: 1\n  java/lang/Runnable (",
		". Integer: 42\n",
		". Float: 1.5\n",
		". Long: 7\n",
		". Double: 2.5\n",
		`. String: "hi" (`,
		". Field ref: Foo.x I, class index: ",
		". Interface method ref: java/util/List.size ()I, class index: ",
		". Method ref: Foo.run ()V, class index: ",
		". Name and type: xI, name index: ",
		". Method handle: REF_invokeStatic Foo.run ()V (",
		". Method type: (I)V (",
		". Invoke dynamic: apply ()Ljava/lang/Runnable;, bootstrap method: 0, name and type index: ",
		". Module: java.base (",
		". Package: java/lang (",
		"Number of fields: 2\n  x I\n  names [Ljava/lang/String;\n",
		"Number of methods: 1\n  run at ",
		"    Code: max stack 1, max locals 1, code length 1\n",
		"    Exception table: 0-1 -> 1 (java/lang/Exception)\n",
		"    Exception table: 0-1 -> 1 (any)\n",
		"    Line numbers: 0 -> 3\n",
		"Source file: Foo.java\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("disassembly missing %q\n%s", want, got)
		}
	}
}

func TestDisassemblySkipsPaddingSlots(t *testing.T) {
	b := classfiletest.New()
	b.Long(1)
	b.This(b.Class("Foo"))
	got := disassemble(t, parse(t, b))

	if !strings.Contains(got, "  1. Long: 1\n  3. Utf8: Foo\n") {
		t.Errorf("entry after a long should be at index 3\n%s", got)
	}
	if strings.Contains(got, "  2. ") {
		t.Errorf("padding slot printed\n%s", got)
	}
}

func TestDisassemblyColor(t *testing.T) {
	cf := parse(t, fullClass())

	plainText := disassemble(t, cf)
	if strings.Contains(plainText, "\x1b[") {
		t.Errorf("default profile emitted escape sequences")
	}

	colored := disassemble(t, cf, WithColorProfile(termenv.ANSI))
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("ANSI profile emitted no escape sequences")
	}
	if !strings.Contains(colored, "Prelude") || !strings.Contains(colored, "Field ref") {
		t.Errorf("colored output lost its text\n%s", colored)
	}
}

func TestDisassemblyResolutionFailure(t *testing.T) {
	b := classfiletest.New()
	b.This(b.Class("Foo"))
	b.Raw(9, append(u2(b.Name("Foo")), u2(b.NameAndType("x", "I"))...)...)
	cf := parse(t, b)

	var buf bytes.Buffer
	err := NewDisassemblyEncoder(&buf).Encode(cf)
	if !errors.Is(err, classfile.ErrUnexpectedEntry) {
		t.Fatalf("Encode = %v, want ErrUnexpectedEntry", err)
	}
	if buf.Len() != 0 {
		t.Errorf("partial output written on failure:\n%s", buf.String())
	}
}

func TestDisassemblyThisClassNotAClass(t *testing.T) {
	b := classfiletest.New()
	b.This(b.Utf8("Foo"))
	err := NewDisassemblyEncoder(&bytes.Buffer{}).Encode(parse(t, b))
	if !errors.Is(err, classfile.ErrUnexpectedEntry) {
		t.Fatalf("Encode = %v, want ErrUnexpectedEntry", err)
	}
	if !strings.Contains(err.Error(), "this class") {
		t.Errorf("error %q does not name this class", err)
	}
}

func TestMarshalTextWithoutClass(t *testing.T) {
	if _, err := NewDisassemblyEncoder(&bytes.Buffer{}).MarshalText(); err == nil {
		t.Error("expected an error without a class")
	}
	if _, err := NewJSONEncoder(&bytes.Buffer{}).MarshalText(); err == nil {
		t.Error("expected an error without a class")
	}
}
