package program

import "fmt"

// Value is a numeric expression resolved at instantiation time: a constant
// plus an optional scaled parameter reference. Constraints built during the
// contribute phase use Values so the program stays symbolic until LoadData
// has populated the parameter tables.
type Value struct {
	Const float64
	Param string
	Key   string
	Scale float64
}

// Const returns a plain numeric Value.
func Const(v float64) Value { return Value{Const: v} }

// ParamRef returns a Value that resolves to the parameter at (table, key).
func ParamRef(table, key string) Value {
	return Value{Param: table, Key: key, Scale: 1}
}

// ScaledParamRef returns a Value resolving to scale times the parameter at
// (table, key).
func ScaledParamRef(table, key string, scale float64) Value {
	return Value{Param: table, Key: key, Scale: scale}
}

// resolve evaluates the Value against the builder's parameter tables. A
// referenced parameter that was never loaded is an error, not a zero;
// missing data must fail loudly.
func (v Value) resolve(b *Builder) (float64, error) {
	if v.Param == "" {
		return v.Const, nil
	}
	p, ok := b.Param(v.Param, v.Key)
	if !ok {
		return 0, fmt.Errorf("parameter %s[%s] referenced but never loaded", v.Param, v.Key)
	}
	return v.Const + v.Scale*p, nil
}

// T builds a Term with a constant coefficient.
func T(coeff float64, varName string, key ...string) Term {
	return Term{Ref: VarRef{Var: varName, Key: key}, Coeff: Const(coeff)}
}

// TV builds a Term with a Value coefficient.
func TV(coeff Value, varName string, key ...string) Term {
	return Term{Ref: VarRef{Var: varName, Key: key}, Coeff: coeff}
}
