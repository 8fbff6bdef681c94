// Package functions implements the OdhQL function registry and the
// built-in function set.
//
// Functions are vectorized: they receive whole columns (or literal
// scalars) and the caller's row count, and return one column. Each
// function declares its parameters; the registry checks arity and argument
// kinds against those descriptors before the function body runs.
package functions

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

// ApplyFunc evaluates a validated call.
type ApplyFunc func(c *Call) (*frame.Column, error)

// Function is a registered OdhQL function.
type Function struct {
	// Name as displayed in errors and listings
	Name string
	// Params describes the positional parameters in order
	Params []Param
	// Returns tags the result column; zero infers the type from the values
	Returns frame.OdhType
	// Doc is a one-line description for listings
	Doc   string
	Apply ApplyFunc
}

// MinArgs returns the number of required arguments.
func (f *Function) MinArgs() int {
	n := 0
	for _, p := range f.Params {
		if p.Optional || p.Variadic {
			break
		}
		n++
	}
	return n
}

// MaxArgs returns the maximum number of arguments, or -1 for variadic
// functions.
func (f *Function) MaxArgs() int {
	if len(f.Params) > 0 && f.Params[len(f.Params)-1].Variadic {
		return -1
	}
	return len(f.Params)
}

// Signature renders the parameter list, e.g. "TRIM(value, [chars])".
func (f *Function) Signature() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		switch {
		case p.Variadic:
			parts[i] = p.Name + "..."
		case p.Optional:
			parts[i] = "[" + p.Name + "]"
		default:
			parts[i] = p.Name
		}
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Registry maps case-insensitive names to functions.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]*Function)}
}

// Register adds or replaces a function.
func (r *Registry) Register(f *Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToLower(f.Name)] = f
}

// RegisterFunc adds a plugin function that only declares its minimum
// argument count. Any number of further arguments is accepted.
func (r *Registry) RegisterFunc(name string, minArgs int, apply ApplyFunc) {
	params := make([]Param, 0, minArgs+1)
	for i := 0; i < minArgs; i++ {
		params = append(params, Param{Name: fmt.Sprintf("arg%d", i+1)})
	}
	params = append(params, Param{Name: "rest", Variadic: true})
	r.Register(&Function{Name: name, Params: params, Apply: apply})
}

// Lookup finds a function by name, ignoring case.
func (r *Registry) Lookup(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[strings.ToLower(name)]
	return f, ok
}

// Functions returns every registered function sorted by name.
func (r *Registry) Functions() []*Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Function, 0, len(r.functions))
	for _, f := range r.functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call validates the arguments against the function's descriptors and
// applies it. rows is the row count literals are broadcast to.
func (r *Registry) Call(name string, args []Arg, rows int) (*frame.Column, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, frame.NewExecutionError("unknown function %q", name)
	}
	call, err := f.bind(args, rows)
	if err != nil {
		return nil, err
	}
	col, err := f.Apply(call)
	if err != nil {
		return nil, err
	}
	if col.Len() != rows {
		return nil, frame.NewExecutionError("function %s returned %d rows, expected %d", f.Name, col.Len(), rows)
	}
	if f.Returns != 0 && !col.Typed() {
		col = col.WithType(f.Returns)
	}
	return col.Rename(f.Name), nil
}

// bind checks arity, fills defaults and runs the per-parameter assertions.
func (f *Function) bind(args []Arg, rows int) (*Call, error) {
	minArgs, maxArgs := f.MinArgs(), f.MaxArgs()
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, frame.NewExecutionError("function %s takes %s arguments, got %d: %s",
			f.Name, arityText(minArgs, maxArgs), len(args), f.Signature())
	}

	bound := make([]Arg, len(args), len(f.Params)+len(args))
	copy(bound, args)
	for i := len(args); i < len(f.Params); i++ {
		p := f.Params[i]
		if p.Variadic {
			break
		}
		bound = append(bound, Scalar(p.Default))
	}

	c := &Call{Function: f, Args: bound, Rows: rows}
	for i := range c.Args {
		if err := c.check(i); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func arityText(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d", minArgs)
	case minArgs == maxArgs:
		return strconv.Itoa(minArgs)
	default:
		return fmt.Sprintf("%d to %d", minArgs, maxArgs)
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry holding every built-in function. It is
// built once and shared; use NewDefault for a registry you can extend.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewDefault()
	})
	return defaultRegistry
}

// NewDefault returns a fresh registry holding every built-in function.
func NewDefault() *Registry {
	r := NewRegistry()
	for _, f := range builtins() {
		r.Register(f)
	}
	return r
}

func builtins() []*Function {
	var all []*Function
	all = append(all, stringFunctions()...)
	all = append(all, miscFunctions()...)
	all = append(all, geometryFunctions()...)
	return all
}
