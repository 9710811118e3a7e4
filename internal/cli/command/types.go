package command

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ArgType describes how a positional argument is consumed.
type ArgType int

const (
	ArgString ArgType = iota
	ArgInt64
	ArgFile
	// ArgRest swallows every remaining token, joined by spaces.
	ArgRest
)

// Arg defines a positional argument.
type Arg struct {
	Name     string
	Prompt   string
	Type     ArgType
	Required bool
}

// Command defines a CLI command binding.
type Command struct {
	Name         string
	Method       string
	PathTemplate string
	RequiresAuth bool
	Summary      string
	Args         []Arg
	payload      func(Params) (interface{}, error)
}

// Usage renders "name <required> [optional]".
func (c Command) Usage() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, arg := range c.Args {
		name := arg.Name
		if arg.Type == ArgRest {
			name += "..."
		}
		if arg.Required {
			fmt.Fprintf(&b, " <%s>", name)
		} else {
			fmt.Fprintf(&b, " [%s]", name)
		}
	}
	return b.String()
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method string
	Path   string
	Auth   bool
	Body   []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

// Bind maps positional tokens onto cmd.Args. Missing arguments are left unset
// so the caller can prompt for them.
func Bind(cmd Command, tokens []string) (Params, error) {
	params := Params{}
	i := 0
	for _, arg := range cmd.Args {
		if i >= len(tokens) {
			break
		}
		if arg.Type == ArgRest {
			params.Set(arg.Name, strings.Join(tokens[i:], " "))
			i = len(tokens)
			break
		}
		params.Set(arg.Name, tokens[i])
		i++
	}
	if i < len(tokens) {
		return nil, fmt.Errorf("too many arguments, usage: %s", cmd.Usage())
	}
	return params, nil
}

// Missing lists required args without a value.
func Missing(cmd Command, params Params) []Arg {
	var missing []Arg
	for _, arg := range cmd.Args {
		if arg.Required && strings.TrimSpace(params.Get(arg.Name)) == "" {
			missing = append(missing, arg)
		}
	}
	return missing
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}

func ParseJSON(value string) (json.RawMessage, error) {
	raw := strings.TrimSpace(value)
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("invalid json content")
	}
	return json.RawMessage(raw), nil
}
