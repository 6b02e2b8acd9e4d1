package criteria

import (
	"github.com/viant/strider/service/dao"
)

// Match reports whether the named field value satisfies every parameter
// addressing it. Parameters for other fields are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		value, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !matchValue(value, parameter.Value) {
			return false
		}
	}
	return true
}

// FilterByStatus matches a task status against the Status parameter.
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	return Match(map[string]string{dao.ParamStatus: status}, parameters)
}

func matchValue(value string, expected interface{}) bool {
	switch actual := expected.(type) {
	case string:
		return value == actual
	case []string:
		for _, s := range actual {
			if value == s {
				return true
			}
		}
		return false
	}
	return true
}
