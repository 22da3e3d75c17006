package query

import "strconv"

// Operator is a numeric comparison operator.
type Operator string

// Comparison operators.
const (
	Eq Operator = "="
	Lt Operator = "<"
	Gt Operator = ">"
	Le Operator = "<="
	Ge Operator = ">="
)

// IsValid checks if the operator is one of the supported values.
func (o Operator) IsValid() bool {
	switch o {
	case Eq, Lt, Gt, Le, Ge:
		return true
	}
	return false
}

// NumericConstraint is a comparison such as mv<=3 or usd<5.
type NumericConstraint struct {
	Field    string
	Operator Operator
	Value    float64
}

// String renders the constraint as field<op><value>.
func (n NumericConstraint) String() string {
	return n.Field + string(n.Operator) + strconv.FormatFloat(n.Value, 'f', -1, 64)
}
