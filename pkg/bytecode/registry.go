package bytecode

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"
)

// RegistryVersion is the version of the built-in function table.
const RegistryVersion uint16 = 1

// FuncPrefix marks a name as a function reference in source text.
const FuncPrefix = "$"

// Built-in function ids. These are the contract between compiler and VM.
const (
	FuncConcat uint16 = 1
	FuncPrint  uint16 = 2
)

// Function is one registry entry.
type Function struct {
	Name    string `toml:"name"`    // source name, including the "$" prefix
	ID      uint16 `toml:"id"`      // id emitted into FuncCall instructions
	Builtin string `toml:"builtin"` // name of the native implementation in the VM
}

// Registry maps function names to ids and ids to native builtins. The same
// registry value is handed to the compiler and the VM; a program compiled
// against one registry version must run against the same version.
type Registry struct {
	Version uint16

	byName map[string]Function
	byID   map[uint16]Function
}

// DefaultFunctions returns the built-in table: $concat=1, $print=2.
func DefaultFunctions() []Function {
	return []Function{
		{Name: "$concat", ID: FuncConcat, Builtin: "concat"},
		{Name: "$print", ID: FuncPrint, Builtin: "print"},
	}
}

// DefaultRegistry returns the built-in table at RegistryVersion.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(RegistryVersion, DefaultFunctions()...)
	if err != nil {
		panic(err) // static table
	}
	return r
}

// NewRegistry validates fns and builds a registry.
func NewRegistry(version uint16, fns ...Function) (*Registry, error) {
	r := &Registry{
		Version: version,
		byName:  make(map[string]Function, len(fns)),
		byID:    make(map[uint16]Function, len(fns)),
	}
	for _, fn := range fns {
		if err := r.add(fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(fn Function) error {
	switch {
	case !strings.HasPrefix(fn.Name, FuncPrefix) || len(fn.Name) == len(FuncPrefix):
		return &RegistryError{Name: fn.Name, ID: fn.ID, Reason: "name must start with " + FuncPrefix}
	case fn.ID == NoSlot:
		return &RegistryError{Name: fn.Name, ID: fn.ID, Reason: "id 0 is reserved"}
	case fn.Builtin == "":
		return &RegistryError{Name: fn.Name, ID: fn.ID, Reason: "missing builtin"}
	}
	if _, dup := r.byName[fn.Name]; dup {
		return &RegistryError{Name: fn.Name, ID: fn.ID, Reason: "duplicate name"}
	}
	if _, dup := r.byID[fn.ID]; dup {
		return &RegistryError{Name: fn.Name, ID: fn.ID, Reason: "duplicate id"}
	}
	r.byName[fn.Name] = fn
	r.byID[fn.ID] = fn
	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.byName[name]
	return fn, ok
}

// ByID returns the function with the given id.
func (r *Registry) ByID(id uint16) (Function, bool) {
	fn, ok := r.byID[id]
	return fn, ok
}

// Functions returns all entries ordered by id.
func (r *Registry) Functions() []Function {
	fns := make([]Function, 0, len(r.byID))
	for _, fn := range r.byID {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].ID < fns[j].ID })
	return fns
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Fingerprint returns a stable hex digest of the version and every entry.
// Two registries with equal fingerprints produce identical bytecode.
func (r *Registry) Fingerprint() string {
	h := sha256.New()
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], r.Version)
	h.Write(buf[:])
	for _, fn := range r.Functions() {
		binary.LittleEndian.PutUint16(buf[:], fn.ID)
		h.Write(buf[:])
		h.Write([]byte(fn.Name))
		h.Write([]byte{0})
		h.Write([]byte(fn.Builtin))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
