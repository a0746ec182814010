// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	ruleIndent  = 4  // spaces to indent rule entries
	nameWidth   = 35 // Base width for rule name
	modeWidth   = 15 // Width for match mode
	statusWidth = 15 // Width for status text
)

// 🎯 RuleOperation represents one rule applied to one file
type RuleOperation struct {
	Name     string // Rule name
	Mode     string // Span matching mode
	Matches  int    // Spans the rule found
	Replaced bool   // Whether the first span was replaced
}

// Status returns the short status text for the rule
func (op RuleOperation) Status() string {
	switch {
	case op.Matches == 0:
		return "no match"
	case op.Matches > 1:
		return fmt.Sprintf("ambiguous (%d)", op.Matches)
	case op.Replaced:
		return "replaced"
	default:
		return "matched"
	}
}

// 📦 FileOperation represents a patch run on one file
type FileOperation struct {
	Path   string // Target path
	Rules  int    // Number of rules in the set
	DryRun bool   // Whether writes are suppressed
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog      zerolog.Logger
	console   io.Writer
	detail    io.Writer // file, rule and warning lines; console when nil
	mu        sync.Mutex
	currentOp *FileOperation
	rules     []RuleOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// WithDetail sends per-file progress, rule lines and warnings to w, keeping
// console for results
func (l *Logger) WithDetail(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detail = w
	return l
}

func (l *Logger) detailOut() io.Writer {
	if l.detail == nil {
		return l.console
	}
	return l.detail
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, falling back to a quiet stdout logger
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(io.Discard, zerolog.Disabled)
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatRuleOperation formats a rule operation for display
func (l *Logger) formatRuleOperation(op RuleOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.Matches == 0:
		symbol = '-'
		symbolColor = color.FgYellow
	case op.Matches > 1:
		symbol = '!'
		symbolColor = color.FgRed
	case op.Replaced:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var modeColor color.Attribute
	switch op.Mode {
	case "structural":
		modeColor = color.FgCyan
	default:
		modeColor = color.FgYellow
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", ruleIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		color.New(modeColor).Sprint(fmt.Sprintf("%-*s", modeWidth, op.Mode)),
		fmt.Sprintf("%-*s", statusWidth, op.Status()))
}

// 📝 LogRuleOperation logs the outcome of one rule
func (l *Logger) LogRuleOperation(ctx context.Context, op RuleOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rules = append(l.rules, op)

	fmt.Fprintln(l.detailOut(), l.formatRuleOperation(op))

	evt := l.zlog.Info()
	if op.Matches != 1 {
		evt = l.zlog.Warn()
	}
	evt.
		Str("rule", op.Name).
		Str("mode", op.Mode).
		Int("matches", op.Matches).
		Bool("replaced", op.Replaced).
		Msg("rule applied")
}

// 📝 StartFileOperation starts a new file operation
func (l *Logger) StartFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.rules = nil

	verb := "patching"
	if op.DryRun {
		verb = "checking"
	}
	fmt.Fprintf(l.detailOut(), "[%s %s]\n", verb, color.New(color.FgCyan).Sprint(op.Path))

	l.zlog.Info().
		Str("file", op.Path).
		Int("rules", op.Rules).
		Bool("dry_run", op.DryRun).
		Msg("starting file operation")
}

// 📝 EndFileOperation ends the current file operation
func (l *Logger) EndFileOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	replaced := 0
	for _, r := range l.rules {
		if r.Replaced {
			replaced++
		}
	}

	l.zlog.Info().
		Str("file", l.currentOp.Path).
		Int("rules", len(l.rules)).
		Int("replaced", replaced).
		Msg("file operation complete")

	l.currentOp = nil
	l.rules = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("patchrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.detailOut(), "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

// 🧺 Buffered returns a logger whose output is held until flush is called
func (l *Logger) Buffered() (*Logger, func()) {
	l.mu.Lock()
	separate := l.detail != nil
	l.mu.Unlock()

	out := &bytes.Buffer{}
	child := &Logger{zlog: l.zlog, console: out}
	var detail *bytes.Buffer
	if separate {
		detail = &bytes.Buffer{}
		child.detail = detail
	}

	return child, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if detail != nil {
			l.detail.Write(detail.Bytes())
		}
		l.console.Write(out.Bytes())
	}
}

// 📝 Write prints raw text to the console
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.console.Write(p)
}
