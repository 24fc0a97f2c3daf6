package checkout

import (
	"fmt"
	"sort"
	"strings"
)

// Address is the shipping destination collected at checkout.
type Address struct {
	Street string `json:"street" validate:"required,max=200"`
	City   string `json:"city" validate:"required,max=100"`
	State  string `json:"state" validate:"required,max=100"`
	Zip    string `json:"zip" validate:"required,max=20"`
}

// Format renders the address as "street, city, state zip".
func (a Address) Format() string {
	return fmt.Sprintf("%s, %s, %s %s",
		strings.TrimSpace(a.Street),
		strings.TrimSpace(a.City),
		strings.TrimSpace(a.State),
		strings.TrimSpace(a.Zip),
	)
}

func (a Address) missingFields() []string {
	var missing []string
	for name, value := range map[string]string{
		"street": a.Street,
		"city":   a.City,
		"state":  a.State,
		"zip":    a.Zip,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
