package classfile

import (
	"errors"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/dhamidi/classdump/classfile/classfiletest"
)

func TestConstantPoolDecode(t *testing.T) {
	b := classfiletest.New()
	this := b.Class("Foo")
	integer := b.Integer(-7)
	long := b.Long(1 << 40)
	str := b.StringConstant("hi")
	double := b.Double(2.5)
	float := b.Float(1.25)
	field := b.Fieldref("Foo", "x", "I")
	method := b.Methodref("java/lang/Object", "<init>", "()V")
	imethod := b.InterfaceMethodref("java/lang/Runnable", "run", "()V")
	handle := b.MethodHandle(6, method)
	mtype := b.MethodType("()V")
	indy := b.InvokeDynamic(0, "run", "()Ljava/lang/Runnable;")
	dyn := b.Dynamic(0, "value", "I")
	mod := b.Module("java.base")
	pkg := b.Package("java/lang")
	b.This(this)
	b.Attribute(b.BootstrapMethods([]uint16{handle}))

	cf := mustParse(t, b)
	cp := cf.ConstantPool

	if got, want := len(cp), int(b.Count())-1; got != want {
		t.Fatalf("len(pool) = %d, want %d", got, want)
	}
	if cf.ConstantPoolCount != b.Count() {
		t.Errorf("ConstantPoolCount = %d, want %d", cf.ConstantPoolCount, b.Count())
	}

	t.Run("primitives", func(t *testing.T) {
		if e, ok := cp[integer-1].(*ConstantIntegerInfo); !ok || e.Value != -7 {
			t.Errorf("integer entry = %#v", cp[integer-1])
		}
		if e, ok := cp[long-1].(*ConstantLongInfo); !ok || e.Value != 1<<40 {
			t.Errorf("long entry = %#v", cp[long-1])
		}
		if e, ok := cp[double-1].(*ConstantDoubleInfo); !ok || e.Value != 2.5 {
			t.Errorf("double entry = %#v", cp[double-1])
		}
		if e, ok := cp[float-1].(*ConstantFloatInfo); !ok || e.Value != 1.25 {
			t.Errorf("float entry = %#v", cp[float-1])
		}
	})

	t.Run("wide entries reserve a slot", func(t *testing.T) {
		if cp[long] != nil {
			t.Errorf("slot after long = %#v, want nil", cp[long])
		}
		if cp[double] != nil {
			t.Errorf("slot after double = %#v, want nil", cp[double])
		}
		if _, err := cp.Entry(long + 1); !errors.Is(err, ErrBadIndex) {
			t.Errorf("Entry(long+1) = %v, want ErrBadIndex", err)
		}
		if e, ok := cp[long+1].(*ConstantUtf8Info); !ok || e.Value != "hi" {
			t.Errorf("entry after long = %#v, want Utf8 \"hi\" at index %d", cp[long+1], long+2)
		}
		if str != long+3 {
			t.Errorf("string index = %d, want %d", str, long+3)
		}
	})

	t.Run("resolution", func(t *testing.T) {
		if got, err := cp.ClassName(this); err != nil || got != "Foo" {
			t.Errorf("ClassName(this) = %q, %v", got, err)
		}
		if got, err := cp.StringConstant(str); err != nil || got != "hi" {
			t.Errorf("StringConstant = %q, %v", got, err)
		}
		if got, err := cp.MethodType(mtype); err != nil || got != "()V" {
			t.Errorf("MethodType = %q, %v", got, err)
		}
		if got, err := cp.ModuleName(mod); err != nil || got != "java.base" {
			t.Errorf("ModuleName = %q, %v", got, err)
		}
		if got, err := cp.PackageName(pkg); err != nil || got != "java/lang" {
			t.Errorf("PackageName = %q, %v", got, err)
		}

		type ref struct{ Class, Name, Descriptor string }
		for idx, want := range map[uint16]ref{
			field:   {"Foo", "x", "I"},
			method:  {"java/lang/Object", "<init>", "()V"},
			imethod: {"java/lang/Runnable", "run", "()V"},
		} {
			c, n, d, err := cp.MemberRef(idx)
			if err != nil {
				t.Errorf("MemberRef(%d): %v", idx, err)
				continue
			}
			if diff := pretty.Compare(want, ref{c, n, d}); diff != "" {
				t.Errorf("MemberRef(%d) diff (-want +got):\n%s", idx, diff)
			}
		}

		nt := cp[indy-1].(*ConstantInvokeDynamicInfo).NameAndTypeIndex
		if name, desc, err := cp.NameAndTypeStrings(nt); err != nil || name != "run" || desc != "()Ljava/lang/Runnable;" {
			t.Errorf("NameAndTypeStrings = %q %q %v", name, desc, err)
		}
		if _, ok := cp[dyn-1].(*ConstantDynamicInfo); !ok {
			t.Errorf("dynamic entry = %#v", cp[dyn-1])
		}
		if mh, ok := cp[handle-1].(*ConstantMethodHandleInfo); !ok || mh.ReferenceKind != RefInvokeStatic || mh.ReferenceIndex != method {
			t.Errorf("method handle = %#v", cp[handle-1])
		}
	})

	t.Run("wrong variant", func(t *testing.T) {
		if _, err := cp.Utf8(this); !errors.Is(err, ErrUnexpectedEntry) {
			t.Errorf("Utf8(class) = %v, want ErrUnexpectedEntry", err)
		}
		if _, err := cp.ClassName(integer); !errors.Is(err, ErrUnexpectedEntry) {
			t.Errorf("ClassName(integer) = %v, want ErrUnexpectedEntry", err)
		}
		if _, err := cp.NameAndType(field); !errors.Is(err, ErrUnexpectedEntry) {
			t.Errorf("NameAndType(fieldref) = %v, want ErrUnexpectedEntry", err)
		}
		if _, _, _, err := cp.MemberRef(str); !errors.Is(err, ErrUnexpectedEntry) {
			t.Errorf("MemberRef(string) = %v, want ErrUnexpectedEntry", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		for _, idx := range []uint16{0, uint16(len(cp) + 1), 0xFFFF} {
			if _, err := cp.Utf8(idx); !errors.Is(err, ErrBadIndex) {
				t.Errorf("Utf8(%d) = %v, want ErrBadIndex", idx, err)
			}
		}
	})

	t.Run("repeated lookups", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if got, err := cp.ClassName(this); err != nil || got != "Foo" {
				t.Fatalf("lookup %d: %q, %v", i, got, err)
			}
		}
	})

	if err := cf.CheckReferences(); err != nil {
		t.Errorf("CheckReferences: %v", err)
	}
}

func TestConstantPoolUnknownTag(t *testing.T) {
	for _, tag := range []byte{0, 2, 13, 14, 21, 0xFF} {
		b := classfiletest.New()
		b.Utf8("Foo")
		b.Raw(tag, 0, 0)
		_, err := Parse(bytesReader(b))
		if !errors.Is(err, ErrUnknownTag) {
			t.Errorf("tag %d: err = %v, want ErrUnknownTag", tag, err)
		}
	}
}

func TestConstantPoolIndicesChecked(t *testing.T) {
	t.Run("dangling", func(t *testing.T) {
		b := classfiletest.New()
		b.This(b.ClassRef(99))
		_, err := Parse(bytesReader(b))
		if !errors.Is(err, ErrBadIndex) {
			t.Fatalf("err = %v, want ErrBadIndex", err)
		}
	})

	t.Run("zero", func(t *testing.T) {
		b := classfiletest.New()
		b.This(b.ClassRef(0))
		if _, err := Parse(bytesReader(b)); !errors.Is(err, ErrBadIndex) {
			t.Fatalf("err = %v, want ErrBadIndex", err)
		}
	})

	t.Run("padding slot", func(t *testing.T) {
		b := classfiletest.New()
		long := b.Long(1)
		b.This(b.ClassRef(long + 1))
		if _, err := Parse(bytesReader(b)); !errors.Is(err, ErrBadIndex) {
			t.Fatalf("err = %v, want ErrBadIndex", err)
		}
	})
}

func TestConstantPoolInvalidUtf8(t *testing.T) {
	b := classfiletest.New()
	b.Raw(1, 0, 2, 0xFF, 0xFE)
	if _, err := Parse(bytesReader(b)); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("err = %v, want ErrInvalidUTF8", err)
	}
}
