package util

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

// LoadConfig fills the fields of the struct pointed to by c from environment
// variables. The variable name is the `env` struct tag, or prefix + field name.
// Fields missing from the environment keep their default; a missing field
// without a default is an error.
func LoadConfig(prefix string, c any) error {
	rt, rc := reflect.TypeOf(c).Elem(), reflect.ValueOf(c).Elem()
	for i := 0; i < rt.NumField(); i++ {
		rft := rt.Field(i)
		if !rft.IsExported() {
			continue
		}
		name := rft.Tag.Get("env")
		if name == "" {
			name = prefix + rft.Name
		}
		s, ok := os.LookupEnv(name)
		if !ok && !rc.Field(i).IsZero() {
			continue
		} else if !ok {
			return fmt.Errorf("failed to lookup field %q in env (%s)", rft.Name, name)
		}
		if rft.Type.Kind() == reflect.String {
			rc.Field(i).SetString(s)
		} else if err := json.Unmarshal([]byte(s), rc.Field(i).Addr().Interface()); err != nil {
			return fmt.Errorf("failed to unmarshal %q(%s) from %q", name, rft.Type, s)
		}
	}
	return nil
}
