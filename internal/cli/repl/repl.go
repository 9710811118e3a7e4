package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"mockinterview/internal/cli/command"
	httpclient "mockinterview/internal/cli/http"
	"mockinterview/internal/cli/state"
	pkgerrors "mockinterview/pkg/errors"

	"github.com/google/shlex"
)

const prompt = "mockctl> "

// ErrExit is returned by Exec for exit and quit.
var ErrExit = errors.New("exit")

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	commands   map[string]command.Command
	tokenState *state.TokenState
	statePath  string
	prettyJSON bool
	in         *bufio.Reader
	out        *bufio.Writer
}

func New(client *httpclient.Client, commands map[string]command.Command, tokenState *state.TokenState, statePath string, prettyJSON bool, in io.Reader, out io.Writer) *Session {
	return &Session{
		client:     client,
		commands:   commands,
		tokenState: tokenState,
		statePath:  statePath,
		prettyJSON: prettyJSON,
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
	}
}

// Run reads lines until exit, EOF or ctx cancellation.
func (s *Session) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		s.print(prompt)
		line, err := s.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if !errors.Is(err, io.EOF) {
				s.printLine("read input failed: %v", err)
			}
			s.printLine("")
			return
		}
		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				s.printLine("bye")
				return
			}
			s.printLine("error: %v", err)
		}
	}
}

// Exec runs one input line.
func (s *Session) Exec(ctx context.Context, line string) error {
	tokens, err := shlex.Split(strings.TrimSpace(line))
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	return s.ExecArgs(ctx, tokens)
}

// ExecArgs runs an already split command, as passed on the command line.
func (s *Session) ExecArgs(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	switch tokens[0] {
	case "exit", "quit":
		return ErrExit
	case "help":
		s.printHelp()
		return nil
	case "set":
		return s.handleSet(tokens[1:])
	case "show":
		s.handleShow()
		return nil
	}

	cmd, ok := s.commands[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s (try help)", tokens[0])
	}
	params, err := command.Bind(cmd, tokens[1:])
	if err != nil {
		return err
	}
	if err := s.promptMissing(cmd, params); err != nil {
		return err
	}
	if cmd.RequiresAuth && s.tokenState.AccessToken == "" {
		return fmt.Errorf("%s requires login", cmd.Name)
	}
	if cmd.RequiresAuth && s.tokenState.Expired(time.Now()) {
		s.printLine("warning: stored token expired at %s", s.tokenState.ExpiresAt.Format(time.RFC3339))
	}
	req, err := command.BuildRequest(cmd, params)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, req.Method, req.Path, req.Auth, req.Body)
	if err != nil {
		return err
	}
	s.renderResponse(resp)
	s.updateTokenFromResponse(cmd, resp.Body)
	return nil
}

func (s *Session) handleSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set base <url> | set token <token> | set timeout <duration>")
	}
	switch args[0] {
	case "base":
		s.client.SetBaseURL(args[1])
		s.printLine("base set to %s", s.client.BaseURL())
	case "timeout":
		dur, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		if dur <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		s.client.SetTimeout(dur)
		s.printLine("timeout set to %s", dur)
	case "token":
		*s.tokenState = state.TokenState{AccessToken: args[1]}
		if err := state.Save(s.statePath, *s.tokenState); err != nil {
			return fmt.Errorf("save token failed: %w", err)
		}
		s.printLine("token updated")
	default:
		return fmt.Errorf("unknown set target %q", args[0])
	}
	return nil
}

func (s *Session) handleShow() {
	s.printLine("base: %s", s.client.BaseURL())
	s.printLine("timeout: %s", s.client.Timeout())
	s.printLine("state: %s", s.statePath)
	token := s.tokenState.AccessToken
	switch {
	case token == "":
		token = "<empty>"
	case len(token) > 12:
		token = token[:6] + "..." + token[len(token)-4:]
	}
	s.printLine("token: %s", token)
	if s.tokenState.Email != "" {
		s.printLine("user: %s (id %d)", s.tokenState.Email, s.tokenState.UserID)
	}
	if !s.tokenState.ExpiresAt.IsZero() {
		s.printLine("expires: %s", s.tokenState.ExpiresAt.Format(time.RFC3339))
	}
}

func (s *Session) promptMissing(cmd command.Command, params command.Params) error {
	for _, arg := range command.Missing(cmd, params) {
		s.printLine("%s:", arg.Prompt)
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read input failed: %w", err)
		}
		params.Set(arg.Name, strings.TrimSpace(line))
	}
	return nil
}

func (s *Session) renderResponse(resp httpclient.ResponseInfo) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration.Round(time.Millisecond))
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func (s *Session) updateTokenFromResponse(cmd command.Command, body []byte) {
	type authData struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		Email     string    `json:"email"`
		UserID    int64     `json:"userId"`
	}
	type respEnvelope struct {
		Code int      `json:"code"`
		Data authData `json:"data"`
	}
	switch cmd.Name {
	case "login", "register", "logout":
	default:
		return
	}
	var resp respEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return
	}
	if resp.Code != int(pkgerrors.Success) {
		return
	}
	if cmd.Name == "logout" {
		*s.tokenState = state.TokenState{}
		if err := state.Clear(s.statePath); err != nil {
			s.printLine("clear token failed: %v", err)
		}
		return
	}
	if resp.Data.Token == "" {
		return
	}
	*s.tokenState = state.TokenState{
		AccessToken: resp.Data.Token,
		ExpiresAt:   resp.Data.ExpiresAt,
		Email:       resp.Data.Email,
		UserID:      resp.Data.UserID,
	}
	if err := state.Save(s.statePath, *s.tokenState); err != nil {
		s.printLine("save token failed: %v", err)
	}
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	for _, name := range command.Names(s.commands) {
		cmd := s.commands[name]
		s.printLine("  %-34s %s", cmd.Usage(), cmd.Summary)
	}
	s.printLine("system: help | exit | show | set base|token|timeout <value>")
	s.printLine("examples:")
	s.printLine("  login ada@example.com secret")
	s.printLine("  run python ./main.py ./input.txt")
	s.printLine("  interview \"Backend Go Developer\"")
	s.printLine("  answer 12 \"I would shard by tenant id\"")
}

func (s *Session) print(text string) {
	_, _ = s.out.WriteString(text)
	_ = s.out.Flush()
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
	_ = s.out.Flush()
}
