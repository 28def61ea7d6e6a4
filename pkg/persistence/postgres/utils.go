package postgres // import "github.com/joincivil/civil-chainlist/pkg/persistence/postgres"

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DbFieldNameFromModelName gets the field name from db given model name
func DbFieldNameFromModelName(exampleStruct interface{}, fieldName string) (string, error) {
	sType := reflect.TypeOf(exampleStruct)
	field, ok := sType.FieldByName(fieldName)
	if !ok {
		return "", fmt.Errorf("%s does not exist", fieldName)
	}
	return field.Tag.Get("db"), nil
}

// GetAllStructFieldsForQuery is a helper to get all the field names for a
// postgres struct. If colon is true, also returns the named parameter version
// of the list, to use in insert statements.
func GetAllStructFieldsForQuery(exampleStruct interface{}, colon bool) (string, string) {
	fields, fieldsColon := structFieldNames(exampleStruct)
	if !colon {
		return strings.Join(fields, ", "), ""
	}
	return strings.Join(fields, ", "), strings.Join(fieldsColon, ", ")
}

func structFieldNames(exampleStruct interface{}) ([]string, []string) {
	sType := reflect.TypeOf(exampleStruct)
	fields := make([]string, 0, sType.NumField())
	fieldsColon := make([]string, 0, sType.NumField())
	for i := 0; i < sType.NumField(); i++ {
		tag := sType.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, tag)
		fieldsColon = append(fieldsColon, ":"+tag)
	}
	return fields, fieldsColon
}

// AddressToString converts an address to its hex string, the zero address
// to an empty string
func AddressToString(address common.Address) string {
	if address == (common.Address{}) {
		return ""
	}
	return address.Hex()
}

// StringToAddress converts a hex string to an address, an empty string to
// the zero address
func StringToAddress(address string) common.Address {
	if address == "" {
		return common.Address{}
	}
	return common.HexToAddress(address)
}

// ListStringToString joins a list of strings to a comma separated string
func ListStringToString(strs []string) string {
	return strings.Join(strs, ",")
}

// StringToListString splits a comma separated string into a list of strings
func StringToListString(str string) []string {
	if str == "" {
		return []string{}
	}
	return strings.Split(str, ",")
}
