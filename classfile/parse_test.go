package classfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/dhamidi/classdump/classfile/classfiletest"
)

func bytesReader(b *classfiletest.Builder) io.Reader {
	return bytes.NewReader(b.Bytes())
}

func mustParse(t *testing.T, b *classfiletest.Builder) *ClassFile {
	t.Helper()
	cf, err := Parse(bytesReader(b))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cf
}

// testClass mirrors a small compiled class:
//
//	public class MyClass extends java.lang.Object implements A {
//	    public static final int staticFinalValue = 989;
//	    private int privateInt;
//	    public int intMethod() { return 9; }
//	}
func testClass() *classfiletest.Builder {
	b := classfiletest.New()
	b.This(b.Class("MyClass"))
	b.Super(b.Class("java/lang/Object"))
	b.Interface(b.Class("A"))
	b.Methodref("java/lang/Object", "<init>", "()V")
	value := b.Integer(989)

	b.Field(0x0019, "staticFinalValue", "I", b.Attr("ConstantValue", byte(value>>8), byte(value)))
	b.Field(0x0002, "privateInt", "I")

	code := b.Code(1, 1, []byte{0x10, 0x09, 0xAC}, nil, b.LineNumbers(0, 7))
	b.Method(0x0001, "intMethod", "()I", code)

	b.Attribute(b.Attr("SourceFile", u2(b.Name("MyClass.java"))...))
	return b
}

func u2(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func TestParseMinimalClass(t *testing.T) {
	b := classfiletest.New()
	b.Access = 0
	name := b.Utf8("Foo")
	b.This(b.ClassRef(name))

	cf := mustParse(t, b)

	if cf.Magic != Magic {
		t.Errorf("Magic = %#x", cf.Magic)
	}
	if cf.MajorVersion != 52 || cf.MinorVersion != 0 {
		t.Errorf("version = %d.%d, want 52.0", cf.MajorVersion, cf.MinorVersion)
	}
	if v, err := cf.VersionName(); err != nil || v != "8" {
		t.Errorf("VersionName() = %q, %v", v, err)
	}
	if cf.ConstantPoolCount != 3 || len(cf.ConstantPool) != 2 {
		t.Errorf("pool count = %d, len = %d", cf.ConstantPoolCount, len(cf.ConstantPool))
	}
	if got, err := cf.ClassName(); err != nil || got != "Foo" {
		t.Errorf("ClassName() = %q, %v", got, err)
	}
	if _, ok, err := cf.SuperClassName(); ok || err != nil {
		t.Errorf("SuperClassName() ok = %v, err = %v; want no superclass", ok, err)
	}
	if len(cf.Interfaces) != 0 || len(cf.Fields) != 0 || len(cf.Methods) != 0 || len(cf.Attributes) != 0 {
		t.Errorf("expected empty tables, got %d interfaces, %d fields, %d methods, %d attributes",
			len(cf.Interfaces), len(cf.Fields), len(cf.Methods), len(cf.Attributes))
	}
	if err := cf.CheckReferences(); err != nil {
		t.Errorf("CheckReferences: %v", err)
	}
}

func TestParseClassFile(t *testing.T) {
	cf := mustParse(t, testClass())

	t.Run("class names", func(t *testing.T) {
		if got, _ := cf.ClassName(); got != "MyClass" {
			t.Errorf("ClassName() = %q", got)
		}
		if got, ok, _ := cf.SuperClassName(); !ok || got != "java/lang/Object" {
			t.Errorf("SuperClassName() = %q, %v", got, ok)
		}
		names, err := cf.InterfaceNames()
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Compare([]string{"A"}, names); diff != "" {
			t.Errorf("InterfaceNames() diff (-want +got):\n%s", diff)
		}
	})

	t.Run("access flags", func(t *testing.T) {
		if !cf.AccessFlags.IsPublic() || !cf.AccessFlags.IsSuper() {
			t.Error("expected public super class")
		}
		if !cf.IsClass() || cf.IsInterface() {
			t.Error("expected a class")
		}
	})

	t.Run("fields", func(t *testing.T) {
		if len(cf.Fields) != 2 {
			t.Fatalf("len(Fields) = %d, want 2", len(cf.Fields))
		}
		f := cf.GetField("staticFinalValue")
		if f == nil {
			t.Fatal("staticFinalValue not found")
		}
		if !f.IsPublic() || !f.IsStatic() || !f.IsFinal() {
			t.Error("staticFinalValue should be public static final")
		}
		if d, err := f.Descriptor(cf.ConstantPool); err != nil || d != "I" {
			t.Errorf("Descriptor() = %q, %v", d, err)
		}
		cv := f.ConstantValue()
		if cv == nil {
			t.Fatal("missing ConstantValue")
		}
		if e, ok := cf.ConstantPool[cv.ConstantValueIndex-1].(*ConstantIntegerInfo); !ok || e.Value != 989 {
			t.Errorf("constant value entry = %#v", cf.ConstantPool[cv.ConstantValueIndex-1])
		}
		if p := cf.GetField("privateInt"); p == nil || !p.IsPrivate() || p.ConstantValue() != nil {
			t.Errorf("privateInt = %#v", p)
		}
	})

	t.Run("method code", func(t *testing.T) {
		m := cf.GetMethod("intMethod", "()I")
		if m == nil {
			t.Fatal("intMethod not found")
		}
		if cf.GetMethod("intMethod", "()V") != nil {
			t.Error("descriptor should narrow the lookup")
		}
		want := &CodeAttribute{
			MaxStack:       1,
			MaxLocals:      1,
			Code:           []byte{0x10, 0x09, 0xAC},
			ExceptionTable: []ExceptionTableEntry{},
			Attributes: []AttributeInfo{{
				NameIndex: m.Code().Attributes[0].NameIndex,
				Name:      "LineNumberTable",
				Length:    6,
				Value:     &LineNumberTableAttribute{LineNumberTable: []LineNumberEntry{{StartPC: 0, LineNumber: 7}}},
			}},
		}
		if diff := pretty.Compare(want, m.Code()); diff != "" {
			t.Errorf("Code diff (-want +got):\n%s", diff)
		}
	})

	t.Run("source file", func(t *testing.T) {
		if got, err := cf.SourceFile(); err != nil || got != "MyClass.java" {
			t.Errorf("SourceFile() = %q, %v", got, err)
		}
	})

	if err := cf.CheckReferences(); err != nil {
		t.Errorf("CheckReferences: %v", err)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MyClass.class")
	if err := os.WriteFile(path, testClass().Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	cf, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got, _ := cf.ClassName(); got != "MyClass" {
		t.Errorf("ClassName() = %q", got)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.class")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}

func TestParseRejectsHeader(t *testing.T) {
	t.Run("magic", func(t *testing.T) {
		b := classfiletest.New()
		b.Magic = 0xCAFEBABB
		if _, err := Parse(bytesReader(b)); !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("err = %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		b := classfiletest.New()
		b.Major = 65
		if _, err := Parse(bytesReader(b)); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("err = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("empty pool count", func(t *testing.T) {
		data := []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 0}
		if _, err := Parse(bytes.NewReader(data)); !errors.Is(err, ErrBadIndex) {
			t.Errorf("err = %v, want ErrBadIndex", err)
		}
	})
}

func TestParseTruncated(t *testing.T) {
	data := testClass().Bytes()
	for n := 0; n < len(data); n++ {
		if _, err := Parse(bytes.NewReader(data[:n])); err == nil {
			t.Fatalf("Parse of first %d of %d bytes succeeded", n, len(data))
		}
	}
}

func TestParseMemberNameMustBeUtf8(t *testing.T) {
	b := classfiletest.New()
	this := b.Class("Foo")
	b.This(this)
	b.MethodAt(0, this, b.Name("()V"))
	_, err := Parse(bytesReader(b))
	if !errors.Is(err, ErrUnexpectedEntry) {
		t.Fatalf("err = %v, want ErrUnexpectedEntry", err)
	}
}
