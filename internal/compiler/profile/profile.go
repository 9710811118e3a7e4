// Package profile holds the fixed table of languages the code runner accepts.
package profile

import (
	"sort"
	"strings"
)

// LanguageProfile describes how one language is shaped for the remote sandbox.
type LanguageProfile struct {
	Name            string
	SandboxID       string
	DefaultFileName string
	Extension       string

	// RequiresEntryPointWrap marks languages whose public top-level type must match the file name.
	RequiresEntryPointWrap bool

	// Judge0ID is the language id used by the Judge0 provider.
	Judge0ID int
}

var profiles = map[string]LanguageProfile{
	"python":     {Name: "python", SandboxID: "python", DefaultFileName: "main.py", Extension: ".py", Judge0ID: 71},
	"javascript": {Name: "javascript", SandboxID: "javascript", DefaultFileName: "main.js", Extension: ".js", Judge0ID: 63},
	"java":       {Name: "java", SandboxID: "java", DefaultFileName: "Main.java", Extension: ".java", RequiresEntryPointWrap: true, Judge0ID: 62},
	"cpp":        {Name: "cpp", SandboxID: "cpp", DefaultFileName: "main.cpp", Extension: ".cpp", Judge0ID: 54},
	"c":          {Name: "c", SandboxID: "c", DefaultFileName: "main.c", Extension: ".c", Judge0ID: 50},
	"csharp":     {Name: "csharp", SandboxID: "csharp", DefaultFileName: "Main.cs", Extension: ".cs", Judge0ID: 51},
	"go":         {Name: "go", SandboxID: "go", DefaultFileName: "main.go", Extension: ".go", Judge0ID: 60},
	"rust":       {Name: "rust", SandboxID: "rust", DefaultFileName: "main.rs", Extension: ".rs", Judge0ID: 73},
}

// Resolve looks a language up by name, ignoring case and surrounding space.
func Resolve(language string) (LanguageProfile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(language))]
	return p, ok
}

// Supported returns the supported language names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
