package format

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dhamidi/classdump/classfile"
)

// DisassemblyEncoder renders a decoded class file as line-oriented text.
type DisassemblyEncoder struct {
	w       io.Writer
	class   *classfile.ClassFile
	profile termenv.Profile
}

type Option func(*DisassemblyEncoder)

// WithColorProfile styles section labels and constant kinds for the given
// terminal profile. termenv.Ascii turns styling off.
func WithColorProfile(p termenv.Profile) Option {
	return func(e *DisassemblyEncoder) { e.profile = p }
}

func NewDisassemblyEncoder(w io.Writer, opts ...Option) *DisassemblyEncoder {
	e := &DisassemblyEncoder{w: w, profile: termenv.Ascii}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *DisassemblyEncoder) Encode(class *classfile.ClassFile) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *DisassemblyEncoder) MarshalText() ([]byte, error) {
	if e.class == nil {
		return nil, errors.New("no class to encode")
	}
	p := newPrinter(e.class.ConstantPool, e.profile)
	if err := p.class(e.class); err != nil {
		return nil, err
	}
	return []byte(p.sb.String()), nil
}

type printer struct {
	sb    strings.Builder
	cp    classfile.ConstantPool
	label func(string) string
	kind  func(string) string
}

func plain(s string) string { return s }

func newPrinter(cp classfile.ConstantPool, profile termenv.Profile) *printer {
	p := &printer{cp: cp, label: plain, kind: plain}
	if profile == termenv.Ascii {
		return p
	}
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)
	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	kind := r.NewStyle().Foreground(lipgloss.Color("1"))
	p.label = func(s string) string { return label.Render(s) }
	p.kind = func(s string) string { return kind.Render(s) }
	return p
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
}

// line writes "Label: value".
func (p *printer) line(label, format string, args ...any) {
	p.sb.WriteString(p.label(label))
	p.sb.WriteString(": ")
	p.printf(format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) class(cf *classfile.ClassFile) error {
	version, err := cf.VersionName()
	if err != nil {
		return err
	}
	p.line("Prelude", "0x%X", cf.Magic)
	p.line("Version", "%d.%d (%s)", cf.MajorVersion, cf.MinorVersion, version)
	p.line("Constant pool count", "%d", cf.ConstantPoolCount)
	for i, entry := range cf.ConstantPool {
		if entry == nil {
			continue
		}
		text, err := p.entry(entry)
		if err != nil {
			return fmt.Errorf("constant pool entry %d: %w", i+1, err)
		}
		p.printf("  %d. %s: %s\n", i+1, p.kind(entry.Tag().String()), text)
	}

	p.sb.WriteString(p.label("Flags") + ":\n")
	for _, flag := range cf.AccessFlags.ClassFlags() {
		p.printf("  %s: %t\n", flag.Label, flag.Set)
	}

	name, err := cf.ClassName()
	if err != nil {
		return fmt.Errorf("this class: %w", err)
	}
	p.line("This class", "%s (%d)", name, cf.ThisClass)
	super, ok, err := cf.SuperClassName()
	if err != nil {
		return fmt.Errorf("super class: %w", err)
	}
	if ok {
		p.line("Super class", "%s (%d)", super, cf.SuperClass)
	}

	interfaces, err := cf.InterfaceNames()
	if err != nil {
		return fmt.Errorf("interfaces: %w", err)
	}
	p.line("Number of interfaces", "%d", len(interfaces))
	for i, iface := range interfaces {
		p.printf("  %s (%d)\n", iface, cf.Interfaces[i])
	}

	p.line("Number of fields", "%d", len(cf.Fields))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		desc, err := f.Descriptor(p.cp)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		p.printf("  %s %s\n", f.Name, desc)
	}

	p.line("Number of methods", "%d", len(cf.Methods))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		p.printf("  %s at %d\n", m.Name, m.DescriptorIndex)
		if code := m.Code(); code != nil {
			if err := p.code(code); err != nil {
				return fmt.Errorf("method %s: %w", m.Name, err)
			}
		}
	}

	source, err := cf.SourceFile()
	if err != nil {
		return fmt.Errorf("source file: %w", err)
	}
	if source != "" {
		p.line("Source file", "%s", source)
	}
	return nil
}

func (p *printer) code(code *classfile.CodeAttribute) error {
	p.printf("    Code: max stack %d, max locals %d, code length %d\n",
		code.MaxStack, code.MaxLocals, len(code.Code))
	for _, ex := range code.ExceptionTable {
		catch := "any"
		if ex.CatchType != 0 {
			name, err := p.cp.ClassName(ex.CatchType)
			if err != nil {
				return fmt.Errorf("catch type: %w", err)
			}
			catch = name
		}
		p.printf("    Exception table: %d-%d -> %d (%s)\n", ex.StartPC, ex.EndPC, ex.HandlerPC, catch)
	}
	if attr := classfile.FindAttribute(code.Attributes, "LineNumberTable"); attr != nil {
		if lnt := attr.AsLineNumberTable(); lnt != nil {
			for _, ln := range lnt.LineNumberTable {
				p.printf("    Line numbers: %d -> %d\n", ln.StartPC, ln.LineNumber)
			}
		}
	}
	return nil
}

// entry renders the resolved text of one constant pool entry.
func (p *printer) entry(entry classfile.ConstantPoolEntry) (string, error) {
	cp := p.cp
	switch e := entry.(type) {
	case *classfile.ConstantUtf8Info:
		return e.Value, nil
	case *classfile.ConstantIntegerInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantFloatInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantLongInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantDoubleInfo:
		return fmt.Sprint(e.Value), nil
	case *classfile.ConstantClassInfo:
		name, err := cp.Utf8(e.NameIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%d)", name, e.NameIndex), nil
	case *classfile.ConstantStringInfo:
		s, err := cp.Utf8(e.StringIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q (%d)", s, e.StringIndex), nil
	case *classfile.ConstantFieldrefInfo:
		return p.memberRef(e.ConstantMemberrefInfo)
	case *classfile.ConstantMethodrefInfo:
		return p.memberRef(e.ConstantMemberrefInfo)
	case *classfile.ConstantInterfaceMethodrefInfo:
		return p.memberRef(e.ConstantMemberrefInfo)
	case *classfile.ConstantNameAndTypeInfo:
		name, err := cp.Utf8(e.NameIndex)
		if err != nil {
			return "", err
		}
		desc, err := cp.Utf8(e.DescriptorIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%s, name index: %d, descriptor index: %d", name, desc, e.NameIndex, e.DescriptorIndex), nil
	case *classfile.ConstantMethodHandleInfo:
		class, name, desc, err := cp.MemberRef(e.ReferenceIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s.%s %s (%d)", e.ReferenceKind, class, name, desc, e.ReferenceIndex), nil
	case *classfile.ConstantMethodTypeInfo:
		desc, err := cp.Utf8(e.DescriptorIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%d)", desc, e.DescriptorIndex), nil
	case *classfile.ConstantDynamicInfo:
		return p.dynamic(e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case *classfile.ConstantInvokeDynamicInfo:
		return p.dynamic(e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case *classfile.ConstantModuleInfo:
		name, err := cp.Utf8(e.NameIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%d)", name, e.NameIndex), nil
	case *classfile.ConstantPackageInfo:
		name, err := cp.Utf8(e.NameIndex)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%d)", name, e.NameIndex), nil
	}
	return "", fmt.Errorf("%w: %s", classfile.ErrUnknownTag, entry.Tag())
}

func (p *printer) memberRef(ref classfile.ConstantMemberrefInfo) (string, error) {
	class, err := p.cp.ClassName(ref.ClassIndex)
	if err != nil {
		return "", err
	}
	name, desc, err := p.cp.NameAndTypeStrings(ref.NameAndTypeIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s %s, class index: %d, name and type index: %d",
		class, name, desc, ref.ClassIndex, ref.NameAndTypeIndex), nil
}

func (p *printer) dynamic(bootstrap, nameAndType uint16) (string, error) {
	name, desc, err := p.cp.NameAndTypeStrings(nameAndType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s, bootstrap method: %d, name and type index: %d", name, desc, bootstrap, nameAndType), nil
}
