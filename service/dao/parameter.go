package dao

// List parameter names understood by the stores.
const (
	ParamStatus = "Status"
	ParamName   = "Name"
)

type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a single or multi value parameter.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
