// Package server exposes the RBSL compiler to editors over the Language
// Server Protocol.
package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/rbsl/compiler"
	"github.com/chazu/rbsl/pkg/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "rbsl-lsp"

var log = commonlog.GetLogger("rbsl.server")

// LspServer serves diagnostics, completion, hover and go-to-definition for
// RBSL scripts. Every request compiles the document text independently.
type LspServer struct {
	registry *bytecode.Registry

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a language server that resolves functions against reg.
func NewLSP(reg *bytecode.Registry) *LspServer {
	if reg == nil {
		reg = bytecode.DefaultRegistry()
	}
	s := &LspServer{
		registry: reg,
		docs:     make(map[string]string),
		version:  "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Infof("initializing, registry version %d", s.registry.Version)

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"#", "$"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return s.complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(text, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if !strings.HasPrefix(word, "#") {
		return nil, nil
	}

	for _, a := range assignments(text) {
		if a.name == word {
			pos := positionAt(text, a.offset)
			end := positionAt(text, a.offset+len(word))
			return []protocol.Location{{
				URI:   uri,
				Range: protocol.Range{Start: pos, End: end},
			}}, nil
		}
	}
	return nil, nil
}

// --- Compiler-backed logic ---

func (s *LspServer) complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	if strings.HasPrefix(prefix, bytecode.FuncPrefix) {
		for _, fn := range s.registry.Functions() {
			if !strings.HasPrefix(fn.Name, prefix) {
				continue
			}
			kind := protocol.CompletionItemKindFunction
			detail := fmt.Sprintf("function #%d (%s)", fn.ID, fn.Builtin)
			insert := fn.Name + "("
			items = append(items, protocol.CompletionItem{
				Label:      fn.Name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &insert,
			})
		}
		return items
	}

	seen := make(map[string]bool)
	for _, a := range assignments(text) {
		if seen[a.name] || !strings.HasPrefix(a.name, prefix) {
			continue
		}
		seen[a.name] = true
		kind := protocol.CompletionItemKindVariable
		detail := "variable"
		name := a.name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &name,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func (s *LspServer) hover(text, word string) *protocol.Hover {
	var b strings.Builder

	switch {
	case strings.HasPrefix(word, bytecode.FuncPrefix):
		fn, ok := s.registry.Lookup(word)
		if !ok {
			return nil
		}
		fmt.Fprintf(&b, "**%s**\n\nfunction id %d, builtin `%s`, registry v%d",
			fn.Name, fn.ID, fn.Builtin, s.registry.Version)

	case strings.HasPrefix(word, "#"):
		var count int
		for _, a := range assignments(text) {
			if a.name == word {
				count++
			}
		}
		if count == 0 {
			return nil
		}
		fmt.Fprintf(&b, "**%s**\n\nassigned %d time(s)", word, count)
		if unit, err := compiler.Compile(text, s.registry); err == nil {
			if slot, ok := unit.Statics[word]; ok {
				fmt.Fprintf(&b, ", static slot %d", slot)
			}
		}

	default:
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// assignment is a variable target found in a document.
type assignment struct {
	name   string
	offset int
}

// assignments lists every statement that parses as an assignment, in
// source order. Statements that fail to parse are skipped so a single
// typo does not hide every other variable.
func assignments(text string) []assignment {
	var out []assignment
	for _, frag := range compiler.Segment(text) {
		if frag.Empty() {
			continue
		}
		cmd, err := compiler.ParseStatement(frag)
		if err != nil || cmd.Kind != compiler.KindAssign {
			continue
		}
		out = append(out, assignment{name: cmd.Target, offset: cmd.Offset})
	}
	return out
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text, s.registry)
	log.Debugf("%s: %d diagnostic(s)", uri, len(diagnostics))

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose compiles text and reports the first error, if any. Compilation
// stops at the first failure, so there is at most one diagnostic.
func diagnose(text string, reg *bytecode.Registry) []protocol.Diagnostic {
	_, err := compiler.Compile(text, reg)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	offset, _ := compiler.ErrorOffset(err)
	start := positionAt(text, offset)
	end := positionAt(text, statementEnd(text, offset))

	severity := protocol.DiagnosticSeverityError
	source := lspName
	return []protocol.Diagnostic{{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

// statementEnd returns the offset of the delimiter or line end following
// offset, whichever comes first.
func statementEnd(text string, offset int) int {
	if offset >= len(text) {
		return len(text)
	}
	if i := strings.IndexAny(text[offset:], ";\n"); i >= 0 {
		return offset + i
	}
	return len(text)
}

// --- Text position helpers ---

// positionAt converts a byte offset into an LSP position. Characters are
// counted in UTF-16 code units.
func positionAt(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	var line, char protocol.UInteger
	for i := 0; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			line++
			char = 0
		} else {
			char += protocol.UInteger(utf16.RuneLen(r))
		}
		i += size
	}
	return protocol.Position{Line: line, Character: char}
}

// offsetAt converts an LSP position back into a byte offset.
func offsetAt(text string, pos protocol.Position) int {
	var line, char protocol.UInteger
	for i := 0; i < len(text); {
		if line == pos.Line && char >= pos.Character {
			return i
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			if line == pos.Line {
				return i
			}
			line++
			char = 0
		} else {
			char += protocol.UInteger(utf16.RuneLen(r))
		}
		i += size
	}
	return len(text)
}

func isNameChar(c byte) bool {
	return c < utf8.RuneSelf && (unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) || c == '_')
}

func isSigil(c byte) bool {
	return c == '#' || c == '$'
}

// extractPrefix returns the sigil-led name fragment before the cursor for
// completion, e.g. "#na" or "$pr".
func extractPrefix(text string, pos protocol.Position) string {
	col := offsetAt(text, pos)

	start := col
	for start > 0 && isNameChar(text[start-1]) {
		start--
	}
	if start == 0 || !isSigil(text[start-1]) {
		return ""
	}
	return text[start-1 : col]
}

// extractWord returns the full sigil-led name under the cursor.
func extractWord(text string, pos protocol.Position) string {
	col := offsetAt(text, pos)

	start := col
	for start > 0 && isNameChar(text[start-1]) {
		start--
	}
	// Cursor on the sigil itself.
	if start == col && col < len(text) && isSigil(text[col]) {
		start = col + 1
		col = start
	} else if start == 0 || !isSigil(text[start-1]) {
		return ""
	}

	end := col
	for end < len(text) && isNameChar(text[end]) {
		end++
	}
	if start == end {
		return ""
	}
	return text[start-1 : end]
}

func boolPtr(b bool) *bool {
	return &b
}
