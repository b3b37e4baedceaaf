package runtime

import "lox-lang/internal/token"

// Environment is one scope of variable bindings, chained to the scope that
// encloses it. A child never outlives the need for its parent: it holds the
// only reference the chain needs, and nothing stores a child into an
// ancestor, so the chain is acyclic.
type Environment struct {
	values    map[string]Value
	enclosing *Environment
}

// NewEnvironment creates a scope nested in enclosing (nil for the globals).
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values:    make(map[string]Value),
		enclosing: enclosing,
	}
}

// Enclosing returns the parent scope, or nil for the outermost one.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this scope, replacing any earlier binding of the
// same name here. It never touches enclosing scopes.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get looks name up by walking the chain outward.
func (e *Environment) Get(name token.Token) (Value, error) {
	for env := e; env != nil; env = env.enclosing {
		if val, ok := env.values[name.Lexeme]; ok {
			return val, nil
		}
	}
	return nil, undefinedVariable(name)
}

// Assign stores into the nearest existing binding of name. It never creates
// a binding.
func (e *Environment) Assign(name token.Token, value Value) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			return nil
		}
	}
	return undefinedVariable(name)
}

// Ancestor returns the scope exactly distance links out.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.enclosing
	}
	return env
}

// GetAt reads name from the scope distance links out, without searching.
// The distance comes from the resolver and is trusted.
func (e *Environment) GetAt(distance int, name string) Value {
	if v, ok := e.Ancestor(distance).values[name]; ok {
		return v
	}
	return Nil{}
}

// AssignAt writes name into the scope distance links out.
func (e *Environment) AssignAt(distance int, name string, value Value) {
	e.Ancestor(distance).values[name] = value
}
