package classfile

import "fmt"

// ModuleAttribute describes a module-info class.
type ModuleAttribute struct {
	ModuleNameIndex    uint16
	ModuleFlags        uint16
	ModuleVersionIndex uint16
	Requires           []ModuleRequires
	Exports            []ModuleExports
	Opens              []ModuleOpens
	Uses               []uint16
	Provides           []ModuleProvides
}

type ModuleRequires struct {
	RequiresIndex        uint16
	RequiresFlags        uint16
	RequiresVersionIndex uint16
}

type ModuleExports struct {
	ExportsIndex   uint16
	ExportsFlags   uint16
	ExportsToIndex []uint16
}

type ModuleOpens struct {
	OpensIndex   uint16
	OpensFlags   uint16
	OpensToIndex []uint16
}

type ModuleProvides struct {
	ProvidesIndex     uint16
	ProvidesWithIndex []uint16
}

type ModulePackagesAttribute struct {
	PackageIndex []uint16
}

type ModuleMainClassAttribute struct {
	MainClassIndex uint16
}

func (*ModuleAttribute) AttributeName() string          { return "Module" }
func (*ModulePackagesAttribute) AttributeName() string  { return "ModulePackages" }
func (*ModuleMainClassAttribute) AttributeName() string { return "ModuleMainClass" }

func (a *AttributeInfo) AsModule() *ModuleAttribute {
	m, _ := a.Value.(*ModuleAttribute)
	return m
}

func readModule(r *reader) *ModuleAttribute {
	m := &ModuleAttribute{
		ModuleNameIndex:    r.readU2(),
		ModuleFlags:        r.readU2(),
		ModuleVersionIndex: r.readU2(),
	}

	count := r.readU2()
	if r.err != nil {
		return nil
	}
	m.Requires = make([]ModuleRequires, count)
	for i := range m.Requires {
		m.Requires[i] = ModuleRequires{
			RequiresIndex:        r.readU2(),
			RequiresFlags:        r.readU2(),
			RequiresVersionIndex: r.readU2(),
		}
	}

	count = r.readU2()
	if r.err != nil {
		return nil
	}
	m.Exports = make([]ModuleExports, count)
	for i := range m.Exports {
		m.Exports[i] = ModuleExports{
			ExportsIndex:   r.readU2(),
			ExportsFlags:   r.readU2(),
			ExportsToIndex: readU2List(r),
		}
	}

	count = r.readU2()
	if r.err != nil {
		return nil
	}
	m.Opens = make([]ModuleOpens, count)
	for i := range m.Opens {
		m.Opens[i] = ModuleOpens{
			OpensIndex:   r.readU2(),
			OpensFlags:   r.readU2(),
			OpensToIndex: readU2List(r),
		}
	}

	m.Uses = readU2List(r)

	count = r.readU2()
	if r.err != nil {
		return nil
	}
	m.Provides = make([]ModuleProvides, count)
	for i := range m.Provides {
		m.Provides[i] = ModuleProvides{
			ProvidesIndex:     r.readU2(),
			ProvidesWithIndex: readU2List(r),
		}
	}
	return m
}

// checkModule resolves every index of a Module attribute. Version indices
// are optional.
func (cp ConstantPool) checkModule(m *ModuleAttribute) error {
	if _, err := cp.ModuleName(m.ModuleNameIndex); err != nil {
		return fmt.Errorf("module name: %w", err)
	}
	if err := cp.optionalUtf8(m.ModuleVersionIndex); err != nil {
		return fmt.Errorf("module version: %w", err)
	}
	for _, req := range m.Requires {
		if _, err := cp.ModuleName(req.RequiresIndex); err != nil {
			return fmt.Errorf("requires: %w", err)
		}
		if err := cp.optionalUtf8(req.RequiresVersionIndex); err != nil {
			return fmt.Errorf("requires version: %w", err)
		}
	}
	for _, exp := range m.Exports {
		if err := cp.checkPackageTargets(exp.ExportsIndex, exp.ExportsToIndex); err != nil {
			return fmt.Errorf("exports: %w", err)
		}
	}
	for _, open := range m.Opens {
		if err := cp.checkPackageTargets(open.OpensIndex, open.OpensToIndex); err != nil {
			return fmt.Errorf("opens: %w", err)
		}
	}
	if err := cp.checkClassList(m.Uses); err != nil {
		return fmt.Errorf("uses: %w", err)
	}
	for _, p := range m.Provides {
		if _, err := cp.ClassName(p.ProvidesIndex); err != nil {
			return fmt.Errorf("provides: %w", err)
		}
		if err := cp.checkClassList(p.ProvidesWithIndex); err != nil {
			return fmt.Errorf("provides with: %w", err)
		}
	}
	return nil
}

func (cp ConstantPool) checkPackageTargets(pkg uint16, modules []uint16) error {
	if _, err := cp.PackageName(pkg); err != nil {
		return err
	}
	for _, idx := range modules {
		if _, err := cp.ModuleName(idx); err != nil {
			return err
		}
	}
	return nil
}

func (cp ConstantPool) checkPackageList(indices []uint16) error {
	for _, idx := range indices {
		if _, err := cp.PackageName(idx); err != nil {
			return err
		}
	}
	return nil
}
