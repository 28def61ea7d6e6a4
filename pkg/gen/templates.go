package gen

const eventListTmpl = `
// Code generated by 'gen/eventlistgen'  DO NOT EDIT.
// IT SHOULD NOT BE EDITED BY HAND AS ANY CHANGES MAY BE OVERWRITTEN
// Please reference 'gen/eventlistgen' for more details
// File was generated at {{.GenTime}}

package {{.PackageName}}
{{range .Contracts}}
// EventTypes{{.Name}} returns the event types for {{.Name}}
func EventTypes{{.Name}}() []string {
	return []string{
{{- range .EventNames}}
		"{{.}}",
{{- end}}
	}
}

// IsValid{{.Name}}EventName returns true if the name is a valid event for {{.Name}}
func IsValid{{.Name}}EventName(name string) bool {
	for _, eventName := range EventTypes{{.Name}}() {
		if name == eventName {
			return true
		}
	}
	return false
}
{{end}}
`
