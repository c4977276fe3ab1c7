package classfile

import (
	"errors"
	"testing"
)

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		desc       string
		baseType   string
		className  string
		arrayDepth int
		str        string
	}{
		{"I", "int", "", 0, "int"},
		{"Z", "boolean", "", 0, "boolean"},
		{"Ljava/lang/String;", "", "java/lang/String", 0, "java.lang.String"},
		{"[I", "int", "", 1, "int[]"},
		{"[[D", "double", "", 2, "double[][]"},
		{"[Ljava/lang/Object;", "", "java/lang/Object", 1, "java.lang.Object[]"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			ft, err := ParseFieldDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseFieldDescriptor(%q): %v", tt.desc, err)
			}
			if ft.BaseType != tt.baseType {
				t.Errorf("BaseType = %q, want %q", ft.BaseType, tt.baseType)
			}
			if ft.ClassName != tt.className {
				t.Errorf("ClassName = %q, want %q", ft.ClassName, tt.className)
			}
			if ft.ArrayDepth != tt.arrayDepth {
				t.Errorf("ArrayDepth = %d, want %d", ft.ArrayDepth, tt.arrayDepth)
			}
			if got := ft.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}

	for _, bad := range []string{"", "Q", "[", "V", "L;", "Ljava/lang/String", "II"} {
		if _, err := ParseFieldDescriptor(bad); !errors.Is(err, ErrInvalidDescriptor) {
			t.Errorf("ParseFieldDescriptor(%q) = %v, want ErrInvalidDescriptor", bad, err)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc string
		str  string
	}{
		{"()V", "() void"},
		{"()I", "() int"},
		{"(II)I", "(int, int) int"},
		{"([Ljava/lang/String;)V", "(java.lang.String[]) void"},
		{"(IDLjava/lang/Thread;)Ljava/lang/Object;", "(int, double, java.lang.Thread) java.lang.Object"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			md, err := ParseMethodDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseMethodDescriptor(%q): %v", tt.desc, err)
			}
			if got := md.String(); got != tt.str {
				t.Errorf("String() = %q, want %q", got, tt.str)
			}
		})
	}

	for _, bad := range []string{"", "V", "(I", "()", "()VV", "(Q)V", "(V)V"} {
		if _, err := ParseMethodDescriptor(bad); !errors.Is(err, ErrInvalidDescriptor) {
			t.Errorf("ParseMethodDescriptor(%q) = %v, want ErrInvalidDescriptor", bad, err)
		}
	}
}

func TestFieldTypePredicates(t *testing.T) {
	tests := []struct {
		desc                        string
		array, primitive, reference bool
	}{
		{"I", false, true, false},
		{"[I", true, false, true},
		{"Ljava/lang/Object;", false, false, true},
	}
	for _, tt := range tests {
		ft, err := ParseFieldDescriptor(tt.desc)
		if err != nil {
			t.Fatalf("ParseFieldDescriptor(%q): %v", tt.desc, err)
		}
		if ft.IsArray() != tt.array || ft.IsPrimitive() != tt.primitive || ft.IsReference() != tt.reference {
			t.Errorf("%q: array=%t primitive=%t reference=%t", tt.desc, ft.IsArray(), ft.IsPrimitive(), ft.IsReference())
		}
	}
}
