package eval

import (
	"context"
	"encoding/binary"

	"quarry/internal/diag"
	"quarry/internal/module"
	"quarry/internal/resolve"
	"quarry/internal/symbols"
	"quarry/internal/trace"
)

// EvalContext resolves names to values at one stopped location. It
// glues the resolver to the expression machine: names resolve against
// the block covering the provider's IP, and the resulting location
// programs run against the provider's state.
type EvalContext struct {
	provider DataProvider
	loaded   *module.LoadedModule
	catalog  *module.Catalog
	tracer   trace.Tracer
}

// NewContext builds an evaluation context. loaded is the module the IP
// is in; catalog may be nil when only one module exists.
func NewContext(p DataProvider, loaded *module.LoadedModule, catalog *module.Catalog, tracer trace.Tracer) *EvalContext {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &EvalContext{provider: p, loaded: loaded, catalog: catalog, tracer: tracer}
}

// FindContext builds the resolver context for the current IP.
func (ec *EvalContext) FindContext() resolve.Context {
	fc := resolve.Context{Catalog: ec.catalog}
	if ec.loaded == nil {
		return fc
	}
	fc.Module = ec.loaded.Module
	if rel, ok := ec.loaded.Context.AbsoluteToRelative(ec.provider.IP()); ok {
		fc.Block = ec.loaded.Module.BlockForIP(rel)
	}
	return fc
}

// GetNamedValue resolves an identifier at the current location and
// computes its value. Only variables and data members can carry
// values; anything else resolves as not found.
func (ec *EvalContext) GetNamedValue(ctx context.Context, id symbols.Identifier) (Value, error) {
	fc := ec.FindContext()
	opts := resolve.Options{Vars: true, Members: true, MaxResults: 1}
	found := resolve.FindName(fc, opts, id)
	if found.Kind == resolve.FoundNone {
		return Value{}, diag.NewNotFound(id.Full())
	}
	return ec.ResolveFound(ctx, found)
}

// ResolveFound computes the value behind a lookup result.
func (ec *EvalContext) ResolveFound(ctx context.Context, found resolve.FoundName) (Value, error) {
	switch found.Kind {
	case resolve.FoundVariable:
		return ec.GetVariableValue(ctx, found.Variable)
	case resolve.FoundMember:
		return ec.resolveMember(ctx, found.Object)
	}
	return Value{}, diag.New(diag.NotFound, "%s does not have a value", found.Kind)
}

// GetVariableValue runs a variable's location program and reads the
// value it locates.
//
// Two failure shapes matter to the caller and get distinct errors: a
// variable with no location at all was optimized out, while a location
// list that just does not cover the current IP makes the value
// unavailable here (it may exist at other addresses).
func (ec *EvalContext) GetVariableValue(ctx context.Context, v *symbols.Variable) (Value, error) {
	if v.Location.IsNull() {
		if v.External {
			if ext, ok := ec.resolveExtern(v); ok {
				return ec.GetVariableValue(ctx, ext)
			}
		}
		return Value{}, diag.NewOptimizedOut(v.AssignedName())
	}

	relIP := uint64(0)
	if ec.loaded != nil {
		relIP, _ = ec.loaded.Context.AbsoluteToRelative(ec.provider.IP())
	}
	expr, ok := v.Location.ExprForIP(relIP)
	if !ok {
		return Value{}, diag.NewUnavailable(v.AssignedName())
	}

	t, size, err := ec.concreteSized(v.Type, v.AssignedName())
	if err != nil {
		return Value{}, err
	}
	res, err := ec.evaluator().Eval(ctx, expr)
	if err != nil {
		return Value{}, err
	}
	return ec.materialize(ctx, res, t, size)
}

// GetConcreteType strips typedefs and qualifiers, then replaces forward
// declarations with their definition found through the index, so the
// result always carries a layout when one exists anywhere.
func (ec *EvalContext) GetConcreteType(t symbols.Type) symbols.Type {
	t = symbols.StripCVT(t)
	if t == nil || !t.IsDeclaration() {
		return t
	}
	id := symbols.FullIdentifier(t)
	id.Qual = symbols.QualGlobal
	fc := resolve.Context{Catalog: ec.catalog}
	if ec.loaded != nil {
		fc.Module = ec.loaded.Module
	}
	found := resolve.FindName(fc, resolve.Options{Types: true, MaxResults: 1}, id)
	if found.Kind != resolve.FoundType || found.Type.IsDeclaration() {
		return t
	}
	trace.Emitf(ec.tracer, trace.LevelDebug, "eval", "resolved forward declaration %s", id.Full())
	return symbols.StripCVT(found.Type)
}

func (ec *EvalContext) evaluator() *Evaluator {
	var sc module.SymbolContext
	if ec.loaded != nil {
		sc = ec.loaded.Context
	}
	return NewEvaluator(ec.provider, sc)
}

// resolveExtern chases an extern declaration to the defining variable
// elsewhere in the catalog.
func (ec *EvalContext) resolveExtern(v *symbols.Variable) (*symbols.Variable, bool) {
	id := symbols.FullIdentifier(v)
	id.Qual = symbols.QualGlobal
	fc := resolve.Context{Catalog: ec.catalog}
	if ec.loaded != nil {
		fc.Module = ec.loaded.Module
	}
	found := resolve.FindName(fc, resolve.Options{Vars: true, MaxResults: 1}, id)
	if found.Kind != resolve.FoundVariable || found.Variable == v {
		return nil, false
	}
	if found.Variable.Location.IsNull() {
		return nil, false
	}
	return found.Variable, true
}

// resolveStaticMember chases a static member declaration to the
// defining variable, filed in the index under the class scope by its
// specification link.
func (ec *EvalContext) resolveStaticMember(dm *symbols.DataMember) (*symbols.Variable, bool) {
	id := symbols.FullIdentifier(dm)
	id.Qual = symbols.QualGlobal
	fc := resolve.Context{Catalog: ec.catalog}
	if ec.loaded != nil {
		fc.Module = ec.loaded.Module
	}
	found := resolve.FindName(fc, resolve.Options{Vars: true, MaxResults: 1}, id)
	if found.Kind != resolve.FoundVariable || found.Variable.Location.IsNull() {
		return nil, false
	}
	return found.Variable, true
}

// resolveMember reads a member off the current method's receiver.
// Class constants and static members need no object at all.
func (ec *EvalContext) resolveMember(ctx context.Context, obj resolve.Member) (Value, error) {
	dm := obj.Member
	t, size, err := ec.concreteSized(dm.Type, dm.AssignedName())
	if err != nil {
		return Value{}, err
	}

	if dm.ConstSet {
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, dm.ConstValue)
		if size < 8 {
			data = data[:size]
		}
		return Value{Type: t, Data: data, Register: -1}, nil
	}

	// A static member has no slot in the object layout; its storage is
	// the out-of-line definition, found like any other global.
	if dm.External {
		if def, ok := ec.resolveStaticMember(dm); ok {
			return ec.GetVariableValue(ctx, def)
		}
		return Value{}, diag.NewOptimizedOut(dm.AssignedName())
	}

	thisVal, err := ec.receiverValue(ctx)
	if err != nil {
		return Value{}, err
	}
	addr := thisVal.Uint() + obj.Offset
	data, err := ec.provider.ReadMemory(ctx, addr, uint32(size))
	if err != nil {
		return Value{}, diag.Wrap(diag.ReadFailed, err, "member %s at %#x", dm.AssignedName(), addr)
	}
	val := Value{Type: t, Data: data, Address: addr, HasAddress: true, Register: -1}
	if dm.HasBitLayout {
		return extractBitfield(val, dm, t), nil
	}
	return val, nil
}

// receiverValue evaluates the "this" pointer of the containing method.
func (ec *EvalContext) receiverValue(ctx context.Context) (Value, error) {
	fc := ec.FindContext()
	fn := symbols.ContainingFunction(fc.Block)
	if fn == nil || !fn.ObjectPtr.IsValid() {
		return Value{}, diag.New(diag.BadReceiver, "no object pointer in scope")
	}
	tv, ok := fn.ObjectPtr.Get().(*symbols.Variable)
	if !ok {
		return Value{}, diag.New(diag.BadReceiver, "malformed object pointer")
	}
	return ec.GetVariableValue(ctx, tv)
}

// concreteSized resolves the concrete type and rejects zero-size types
// before any memory is touched.
func (ec *EvalContext) concreteSized(lazy symbols.LazySymbol, display string) (symbols.Type, uint64, error) {
	var t symbols.Type
	if lazy.IsValid() {
		t, _ = lazy.Get().(symbols.Type)
	}
	t = ec.GetConcreteType(t)
	if t == nil {
		return nil, 0, diag.New(diag.DecodeCorrupt, "%s has no type", display)
	}
	size := typeSize(t)
	if size == 0 {
		return nil, 0, diag.New(diag.DecodeCorrupt, "type of %s has zero size", display)
	}
	return t, size, nil
}

func typeSize(t symbols.Type) uint64 {
	if arr, ok := t.(*symbols.ArrayType); ok {
		elem, ok := arr.ValueType.Get().(symbols.Type)
		if !ok {
			return 0
		}
		return arr.Length * typeSize(symbols.StripCVT(elem))
	}
	return t.ByteSize()
}

// materialize turns a machine result into value bytes of the wanted
// size.
func (ec *EvalContext) materialize(ctx context.Context, res Result, t symbols.Type, size uint64) (Value, error) {
	if res.Kind == ResultAddress {
		data, err := ec.provider.ReadMemory(ctx, res.Value, uint32(size))
		if err != nil {
			return Value{}, diag.Wrap(diag.ReadFailed, err, "value at %#x", res.Value)
		}
		if uint64(len(data)) < size {
			return Value{}, diag.New(diag.ReadFailed, "short read at %#x", res.Value)
		}
		return Value{Type: t, Data: data[:size], Address: res.Value, HasAddress: true, Register: -1}, nil
	}

	if res.ImplicitData != nil {
		data := res.ImplicitData
		if uint64(len(data)) > size {
			data = data[:size]
		}
		return Value{Type: t, Data: data, Register: -1}, nil
	}
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, res.Value)
	if size < 8 {
		data = data[:size]
	}
	return Value{Type: t, Data: data, Register: res.Register}, nil
}

// extractBitfield pulls the member's bits out of the storage unit,
// little-endian, sign-extending when the type is signed.
func extractBitfield(storage Value, dm *symbols.DataMember, t symbols.Type) Value {
	raw := storage.Uint()
	raw >>= dm.DataBitOffs & 63
	if dm.BitSize < 64 {
		raw &= (1 << dm.BitSize) - 1
	}
	if isSignedType(t) && dm.BitSize > 0 && dm.BitSize < 64 {
		if raw&(1<<(dm.BitSize-1)) != 0 {
			raw |= ^uint64(0) << dm.BitSize
		}
	}
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, raw)
	if n := len(storage.Data); n < 8 {
		data = data[:n]
	}
	out := storage
	out.Data = data
	return out
}

func isSignedType(t symbols.Type) bool {
	switch v := t.(type) {
	case *symbols.BaseType:
		return v.IsSigned()
	case *symbols.Enumeration:
		return v.Signed
	}
	return false
}
