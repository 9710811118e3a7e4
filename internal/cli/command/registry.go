package command

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Registry returns all API commands keyed by name.
func Registry() map[string]Command {
	commands := []Command{
		{
			Name:         "register",
			Method:       http.MethodPost,
			PathTemplate: "/api/auth/register",
			Summary:      "create an account and store its token",
			Args: []Arg{
				{Name: "name", Prompt: "name", Required: true},
				{Name: "email", Prompt: "email", Required: true},
				{Name: "password", Prompt: "password", Required: true},
			},
			payload: func(p Params) (interface{}, error) {
				return map[string]string{
					"name":     p.Get("name"),
					"email":    p.Get("email"),
					"password": p.Get("password"),
				}, nil
			},
		},
		{
			Name:         "login",
			Method:       http.MethodPost,
			PathTemplate: "/api/auth/login",
			Summary:      "log in and store the token",
			Args: []Arg{
				{Name: "email", Prompt: "email", Required: true},
				{Name: "password", Prompt: "password", Required: true},
			},
			payload: func(p Params) (interface{}, error) {
				return map[string]string{
					"email":    p.Get("email"),
					"password": p.Get("password"),
				}, nil
			},
		},
		{
			Name:         "logout",
			Method:       http.MethodPost,
			PathTemplate: "/api/auth/logout",
			RequiresAuth: true,
			Summary:      "revoke the stored token",
		},
		{
			Name:         "me",
			Method:       http.MethodGet,
			PathTemplate: "/api/auth/me",
			RequiresAuth: true,
			Summary:      "show the current user",
		},
		{
			Name:         "languages",
			Method:       http.MethodGet,
			PathTemplate: "/api/compiler/languages",
			RequiresAuth: true,
			Summary:      "list runnable languages",
		},
		{
			Name:         "run",
			Method:       http.MethodPost,
			PathTemplate: "/api/compiler/execute",
			RequiresAuth: true,
			Summary:      "execute a source file",
			Args: []Arg{
				{Name: "lang", Prompt: "language", Required: true},
				{Name: "file", Prompt: "source file", Type: ArgFile, Required: true},
				{Name: "stdin", Prompt: "stdin file", Type: ArgFile},
			},
			payload: buildRunPayload,
		},
		{
			Name:         "test",
			Method:       http.MethodPost,
			PathTemplate: "/api/compiler/test",
			RequiresAuth: true,
			Summary:      "run a source file against JSON test cases",
			Args: []Arg{
				{Name: "lang", Prompt: "language", Required: true},
				{Name: "file", Prompt: "source file", Type: ArgFile, Required: true},
				{Name: "cases", Prompt: "test cases file (JSON)", Type: ArgFile, Required: true},
			},
			payload: buildTestPayload,
		},
		{
			Name:         "interview",
			Method:       http.MethodPost,
			PathTemplate: "/api/interview/start",
			RequiresAuth: true,
			Summary:      "start an interview for a job title",
			Args: []Arg{
				{Name: "jobTitle", Prompt: "job title", Type: ArgRest, Required: true},
			},
			payload: func(p Params) (interface{}, error) {
				return map[string]string{"jobTitle": p.Get("jobTitle")}, nil
			},
		},
		{
			Name:         "answer",
			Method:       http.MethodPost,
			PathTemplate: "/api/interview/:questionId/answer",
			RequiresAuth: true,
			Summary:      "submit an answer to a question",
			Args: []Arg{
				{Name: "questionId", Prompt: "question id", Type: ArgInt64, Required: true},
				{Name: "text", Prompt: "answer", Type: ArgRest, Required: true},
			},
			payload: func(p Params) (interface{}, error) {
				return map[string]string{"answer": p.Get("text")}, nil
			},
		},
		{
			Name:         "history",
			Method:       http.MethodGet,
			PathTemplate: "/api/interview/history",
			RequiresAuth: true,
			Summary:      "list past interviews",
		},
		{
			Name:         "health",
			Method:       http.MethodGet,
			PathTemplate: "/health",
			Summary:      "check backend health",
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Name] = cmd
	}
	return result
}

// Names returns command names in alphabetical order.
func Names(commands map[string]Command) []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildRequest validates params and renders the HTTP request for cmd.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	if missing := Missing(cmd, params); len(missing) > 0 {
		return RequestSpec{}, fmt.Errorf("missing argument: %s", missing[0].Name)
	}
	for _, arg := range cmd.Args {
		if arg.Type == ArgInt64 && params.Get(arg.Name) != "" {
			if _, err := ParseInt64(params.Get(arg.Name)); err != nil {
				return RequestSpec{}, fmt.Errorf("invalid %s: %w", arg.Name, err)
			}
		}
	}
	path, err := buildPath(cmd, params)
	if err != nil {
		return RequestSpec{}, err
	}

	var body []byte
	if cmd.payload != nil {
		payload, err := cmd.payload(params)
		if err != nil {
			return RequestSpec{}, err
		}
		body, err = json.Marshal(payload)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
		}
	}

	return RequestSpec{
		Method: cmd.Method,
		Path:   path,
		Auth:   cmd.RequiresAuth,
		Body:   body,
	}, nil
}

func buildPath(cmd Command, params Params) (string, error) {
	path := cmd.PathTemplate
	for _, arg := range cmd.Args {
		placeholder := ":" + arg.Name
		if strings.Contains(path, placeholder) {
			value := params.Get(arg.Name)
			if value == "" {
				return "", fmt.Errorf("missing path parameter: %s", arg.Name)
			}
			path = strings.ReplaceAll(path, placeholder, value)
		}
	}
	return path, nil
}

func buildRunPayload(params Params) (interface{}, error) {
	source, err := ReadFile(params.Get("file"))
	if err != nil {
		return nil, err
	}
	payload := map[string]string{
		"language":   params.Get("lang"),
		"sourceCode": source,
	}
	if params.Get("stdin") != "" {
		stdin, err := ReadFile(params.Get("stdin"))
		if err != nil {
			return nil, err
		}
		payload["stdin"] = stdin
	}
	return payload, nil
}

type testCase struct {
	Input          string `json:"input"`
	ExpectedOutput *string `json:"expectedOutput,omitempty"`
}

func buildTestPayload(params Params) (interface{}, error) {
	source, err := ReadFile(params.Get("file"))
	if err != nil {
		return nil, err
	}
	raw, err := ReadFile(params.Get("cases"))
	if err != nil {
		return nil, err
	}
	casesJSON, err := ParseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid test cases: %w", err)
	}
	var cases []testCase
	if err := json.Unmarshal(casesJSON, &cases); err != nil {
		return nil, fmt.Errorf("test cases must be a JSON array of {input, expectedOutput}: %w", err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("at least one test case is required")
	}
	return map[string]interface{}{
		"language":   params.Get("lang"),
		"sourceCode": source,
		"testCases":  cases,
	}, nil
}
