package types

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

const resolvedCacheSize = 512

// Registry maps type names to descriptors. Families and aliases live in
// lock-free maps since lookups vastly outnumber registrations; resolved
// parametric descriptors are memoized in an LRU keyed by canonical name.
type Registry struct {
	families *xsync.MapOf[string, *family] // keyed by lower-cased family name
	aliases  *xsync.MapOf[string, string]  // lower-cased alias -> canonical family
	resolved *lru.Cache[string, *Type]
}

// NewRegistry creates an empty registry. Most callers want Default().
func NewRegistry() *Registry {
	cache, err := lru.New[string, *Type](resolvedCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}
	return &Registry{
		families: xsync.NewMapOf[string, *family](),
		aliases:  xsync.NewMapOf[string, string](),
		resolved: cache,
	}
}

// RegisterSimple registers a family that takes no arguments.
func (r *Registry) RegisterSimple(name string) {
	r.families.Store(strings.ToLower(name), &family{name: name})
}

// RegisterParametric registers a family taking literal arguments, e.g. a
// fixed width or a precision/scale pair.
func (r *Registry) RegisterParametric(name string, minArgs, maxArgs int) {
	r.families.Store(strings.ToLower(name), &family{name: name, minArgs: minArgs, maxArgs: maxArgs})
}

// RegisterNested registers a family whose arguments are themselves types.
func (r *Registry) RegisterNested(name string, minArgs, maxArgs int) {
	r.families.Store(strings.ToLower(name), &family{name: name, minArgs: minArgs, maxArgs: maxArgs, nested: true})
}

// RegisterAlias maps an alternative spelling to a registered family.
func (r *Registry) RegisterAlias(alias, canonical string) {
	r.aliases.Store(strings.ToLower(alias), canonical)
}

// Get resolves a textual type name to its descriptor. The descriptor's
// Name is canonical: aliases expanded and family spelling normalized.
func (r *Registry) Get(name string) (*Type, error) {
	name = strings.TrimSpace(name)
	if t, ok := r.resolved.Get(name); ok {
		return t, nil
	}
	t, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	r.resolved.Add(name, t)
	return t, nil
}

func (r *Registry) resolve(name string) (*Type, error) {
	head, args, err := splitTypeName(name)
	if err != nil {
		return nil, err
	}
	fam := r.lookupFamily(head)
	if fam == nil {
		return nil, &UnknownTypeError{Name: name}
	}
	if !fam.argCountValid(len(args)) {
		return nil, &MalformedTypeError{Name: name, Msg: "wrong number of type arguments"}
	}
	if len(args) == 0 {
		return &Type{Name: fam.name, Family: fam.name}, nil
	}

	canonical := make([]string, len(args))
	for i, arg := range args {
		if fam.nested && looksLikeType(arg) {
			nested, err := r.Get(arg)
			if err != nil {
				return nil, err
			}
			canonical[i] = nested.Name
			continue
		}
		canonical[i] = arg
	}
	return &Type{
		Name:   fam.name + "(" + strings.Join(canonical, ", ") + ")",
		Family: fam.name,
		Args:   canonical,
	}, nil
}

func (r *Registry) lookupFamily(head string) *family {
	key := strings.ToLower(head)
	if fam, ok := r.families.Load(key); ok {
		return fam
	}
	if canonical, ok := r.aliases.Load(key); ok {
		if fam, ok := r.families.Load(strings.ToLower(canonical)); ok {
			return fam
		}
	}
	return nil
}

var defaultRegistry = buildDefault()

// Default returns the shared registry with the standard families and
// aliases registered.
func Default() *Registry { return defaultRegistry }

func buildDefault() *Registry {
	r := NewRegistry()

	for _, name := range []string{
		"Int8", "Int16", "Int32", "Int64", "Int128", "Int256",
		"UInt8", "UInt16", "UInt32", "UInt64", "UInt128", "UInt256",
		"Float32", "Float64",
		"String", "Bool", "UUID",
		"Date", "Date32", "DateTime",
		"IPv4", "IPv6",
	} {
		r.RegisterSimple(name)
	}

	r.RegisterParametric("FixedString", 1, 1)
	r.RegisterParametric("DateTime64", 1, 2)
	r.RegisterParametric("Decimal", 2, 2)

	r.RegisterNested("Nullable", 1, 1)
	r.RegisterNested("Array", 1, 1)
	r.RegisterNested("LowCardinality", 1, 1)
	r.RegisterNested("Map", 2, 2)
	r.RegisterNested("Tuple", 1, -1)

	// SQL-standard spellings
	r.RegisterAlias("TINYINT", "Int8")
	r.RegisterAlias("SMALLINT", "Int16")
	r.RegisterAlias("INT", "Int32")
	r.RegisterAlias("INTEGER", "Int32")
	r.RegisterAlias("BIGINT", "Int64")
	r.RegisterAlias("FLOAT", "Float32")
	r.RegisterAlias("DOUBLE", "Float64")
	r.RegisterAlias("VARCHAR", "String")
	r.RegisterAlias("TEXT", "String")
	r.RegisterAlias("BLOB", "String")
	r.RegisterAlias("BOOLEAN", "Bool")

	return r
}
