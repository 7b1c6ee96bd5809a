// Package calc implements the CALC formula evaluator: a validator, an
// operator table and a precedence-climbing engine over an explicit frame
// stack.
package calc

// Arity is the number of operands an operator takes.
type Arity int

const (
	Unary  Arity = 1
	Binary Arity = 2
)

// String returns a debug-friendly name for the arity.
func (a Arity) String() string {
	switch a {
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Operator is an entry in the operator table. Lower Rank binds tighter.
type Operator struct {
	Symbol byte
	Rank   int
	Arity  Arity
	Name   string
}

// Prefix reports whether the operator may appear where a value is expected.
// The dice operator doubles as a prefix: "d6" rolls one six-sided die.
func (o Operator) Prefix() bool {
	return o.Rank == rankPrefix
}

const (
	rankPrefix = 1 // ~ ! d
	rankPower  = 2 // ^
	rankMul    = 3 // * / % \
	rankAdd    = 4 // + -
	rankAnd    = 5 // &
	rankXor    = 6 // $
	rankOr     = 7 // |
)

var operators = [...]Operator{
	{'~', rankPrefix, Unary, "ones complement"},
	{'!', rankPrefix, Unary, "logical not"},
	{'d', rankPrefix, Binary, "dice"},
	{'^', rankPower, Binary, "power"},
	{'*', rankMul, Binary, "multiply"},
	{'/', rankMul, Binary, "divide"},
	{'%', rankMul, Binary, "modulus"},
	{'\\', rankMul, Binary, "integer divide"},
	{'+', rankAdd, Binary, "add"},
	{'-', rankAdd, Binary, "subtract"},
	{'&', rankAnd, Binary, "bitwise and"},
	{'$', rankXor, Binary, "bitwise xor"},
	{'|', rankOr, Binary, "bitwise or"},
}

// opTable maps a symbol to its index in operators plus one; zero means absent.
var opTable [256]uint8

func init() {
	for i, op := range operators {
		opTable[op.Symbol] = uint8(i + 1)
	}
}

// Lookup returns the operator for a symbol.
func Lookup(symbol byte) (Operator, bool) {
	idx := opTable[symbol]
	if idx == 0 {
		return Operator{}, false
	}
	return operators[idx-1], true
}

// Operators returns the operator table in rank order.
func Operators() []Operator {
	out := make([]Operator, len(operators))
	copy(out, operators[:])
	return out
}

// rankOf returns the rank of symbol, or 0 when it is not an operator.
func rankOf(symbol byte) int {
	op, ok := Lookup(symbol)
	if !ok {
		return 0
	}
	return op.Rank
}
