package execution

// Option is a single named parameter together with its candidate values.
type Option struct {
	Name   string
	Values []string
}

// ParameterSet is an ordered collection of options. Order is significant:
// it fixes the iteration order of the matrix expansion.
type ParameterSet []Option

// Names returns the option names in declaration order.
func (p ParameterSet) Names() []string {
	names := make([]string, len(p))
	for idx, opt := range p {
		names[idx] = opt.Name
	}
	return names
}

// Param binds one option to one concrete value.
type Param struct {
	Name  string
	Value string
}
