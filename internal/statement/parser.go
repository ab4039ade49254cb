package statement

import (
	"strings"

	"github.com/ritamzico/truth/internal/fault"
	"github.com/ritamzico/truth/internal/pattern"
	"github.com/ritamzico/truth/internal/scan"
	"github.com/ritamzico/truth/internal/subject"
	"github.com/ritamzico/truth/internal/uri"
)

// Parser turns lines of source text into Statements, interning Terms
// through a single Program-scoped Interner (§9).
type Parser struct {
	interner *subject.Interner
}

// NewParser returns a Parser that interns Terms through in.
func NewParser(in *subject.Interner) *Parser {
	return &Parser{interner: in}
}

const (
	commentToken = "//"
	jointToken   = ":"
	combinator   = ","
	listOperator = "..."
	patternDelim = "/"
)

// ParseLine parses one line of source text (without its trailing newline)
// into a Statement. The parser always succeeds in constructing a Statement
// (§7): unparsable lines are marked cruft with an attached fault rather
// than rejected.
func (p *Parser) ParseLine(text string) *Statement {
	st := &Statement{SourceText: text, JointPosition: -1}
	s := scan.New(text)

	ws, mixed := s.ReadWhitespace()
	st.Indent = len(ws)
	if mixed {
		st.Faults = append(st.Faults, fault.New(fault.TabsAndSpaces, st, "statement mixes tabs and spaces in its indentation"))
	}

	if !s.More() {
		st.set(FlagWhitespace)
		return st
	}

	if s.Peek(commentToken) {
		after := text[s.Pos()+len(commentToken):]
		if after == "" || after[0] == ' ' || after[0] == '\t' {
			st.set(FlagComment)
			return st
		}
	}

	if cruftFault, ok := p.probeUnparsablePrefix(s, st); ok {
		st.Faults = append(st.Faults, cruftFault)
		st.set(FlagCruft)
		st.CruftObjects = append(st.CruftObjects, st)
		return st
	}

	if proto, ok := matchUriProtocol(s); ok {
		p.parseUriStatement(s, st, proto)
		p.finalizeStatement(st)
		return st
	}

	if s.Peek(patternDelim) {
		s.Read(patternDelim)
		p.parsePatternStatement(s, st)
	} else {
		p.parseDeclarations(s, st)
	}

	p.parseJointAndAnnotations(s, st)
	p.finalizeStatement(st)
	p.validate(st)
	return st
}

// probeUnparsablePrefix implements §4.2 step 4.
func (p *Parser) probeUnparsablePrefix(s *scan.Scanner, st *Statement) (fault.Fault, bool) {
	rest := s.Text()[s.Pos():]
	switch {
	case strings.HasPrefix(rest, combinator):
		return fault.New(fault.StatementBeginsWithComma, st, "statement begins with a comma"), true
	case strings.HasPrefix(rest, listOperator):
		return fault.New(fault.StatementBeginsWithEllipsis, st, "statement begins with an ellipsis"), true
	case strings.HasPrefix(rest, `\`) && len(rest) > 1 && (rest[1] == ' ' || rest[1] == '\t'):
		return fault.New(fault.StatementBeginsWithEscapedSpace, st, "statement begins with an escaped space"), true
	case rest == `\`:
		return fault.New(fault.StatementContainsOnlyEscapeCharacter, st, "statement contains only an escape character"), true
	}
	return fault.Fault{}, false
}

func matchUriProtocol(s *scan.Scanner) (uri.Protocol, bool) {
	for _, proto := range uri.Registered {
		prefix := string(proto) + "//"
		if s.Peek(prefix) {
			return proto, true
		}
	}
	return "", false
}

// parseUriStatement implements §4.2 step 5. URI statements have exactly
// one declaration and zero annotations (§3 invariant ii), so parsing stops
// once the URI token is read.
func (p *Parser) parseUriStatement(s *scan.Scanner, st *Statement, proto uri.Protocol) {
	start := s.Pos()
	s.Read(string(proto) + "//")
	raw := s.ReadUntil(" ", "\t")

	u, err := uri.Parse(proto, raw)
	end := s.Pos()
	sp := &Span{Start: start, End: end, Parent: st}
	if err != nil {
		sp.Subject = subject.Void
	} else {
		sp.Subject = subject.NewUri(u)
	}
	st.AllDeclarations = append(st.AllDeclarations, sp)
	st.set(FlagHasUri)
}

// parsePatternStatement implements §4.2 step 6. s is positioned right
// after the opening '/'.
func (p *Parser) parsePatternStatement(s *scan.Scanner, st *Statement) {
	start := s.Pos() - 1
	pat, issues := pattern.Parse(s)
	end := s.Pos()

	sp := &Span{Start: start, End: end, Subject: subject.NewPattern(pat), Parent: st}
	st.AllDeclarations = append(st.AllDeclarations, sp)
	st.set(FlagHasPattern)
	if pat.Total {
		st.set(FlagHasTotalPattern)
	} else {
		st.set(FlagHasPartialPattern)
	}

	for _, iss := range issues {
		translatePatternIssue(st, sp, iss)
	}
}

func translatePatternIssue(st *Statement, sp *Span, iss pattern.Issue) {
	is := &InfixSpan{Start: iss.Offset, End: iss.Offset, Parent: st, Detail: iss.Detail}
	var code fault.Code
	var msg string
	var source fault.Source = is

	switch iss.Code {
	case pattern.IssueEmptyPattern, pattern.IssueUnclosedGroup, pattern.IssueConsecutiveQuantifiers,
		pattern.IssueQuantifierWithoutUnit, pattern.IssueUnclosedInfix:
		code, msg, source = fault.PatternInvalid, "pattern is invalid", sp
	case pattern.IssueDuplicateIdentifierInInfix:
		code, msg = fault.DuplicateIdentifierInInfix, "duplicate identifier "+iss.Detail+" in infix"
	case pattern.IssueSelfReferentialInfixType:
		code, msg = fault.SelfReferentialInfixType, "infix type "+iss.Detail+" is self-referential"
	case pattern.IssueListOperatorInInfixIdentifier:
		code, msg = fault.ListOperatorInInfixIdentifier, "list operator used in infix identifier "+iss.Detail
	case pattern.IssuePopulationInfixMultipleDeclarations:
		code, msg = fault.PopulationInfixMultipleDeclarations, "population infix has multiple declarations"
	case pattern.IssuePortabilityInfixMultipleDefinitions:
		code, msg = fault.PortabilityInfixMultipleDefinitions, "portability infix has multiple definitions sharing compatible types"
	case pattern.IssueInfixHoleUsesListOperator:
		code, msg = fault.InfixHoleUsesListOperator, "infix hole "+iss.Detail+" uses the list operator"
	default:
		code, msg, source = fault.PatternInvalid, "pattern is invalid", sp
	}

	f := fault.New(code, source, msg)
	st.Faults = append(st.Faults, f)
	if f.Severity == fault.Error {
		st.set(FlagCruft)
		st.CruftObjects = append(st.CruftObjects, source)
	}
}

// parseDeclarations implements §4.2 step 7: identifiers separated by the
// combinator, stopping at the joint or end-of-line.
func (p *Parser) parseDeclarations(s *scan.Scanner, st *Statement) {
	for {
		skipHorizontalSpace(s)
		if !s.More() || atJoint(s) {
			return
		}
		start := s.Pos()
		text := readIdentifier(s)
		end := s.Pos()
		if text == "" {
			return
		}
		term := p.interner.Intern(text)
		sp := &Span{Start: start, End: end, Subject: subject.NewTerm(term), Parent: st}
		st.AllDeclarations = append(st.AllDeclarations, sp)

		skipHorizontalSpace(s)
		if !s.Read(combinator) {
			return
		}
	}
}

// parseJointAndAnnotations implements §4.2 steps 8-9.
func (p *Parser) parseJointAndAnnotations(s *scan.Scanner, st *Statement) {
	skipHorizontalSpace(s)
	if !atJoint(s) {
		return
	}
	st.JointPosition = s.Pos()
	s.Read(jointToken)

	sumStart := s.Pos()
	for {
		skipHorizontalSpace(s)
		if !s.More() {
			break
		}
		start := s.Pos()
		text := readIdentifier(s)
		end := s.Pos()
		if text == "" {
			break
		}
		term := p.interner.Intern(text)
		sp := &Span{Start: start, End: end, Subject: subject.NewTerm(term), Parent: st}
		st.AllAnnotations = append(st.AllAnnotations, sp)

		skipHorizontalSpace(s)
		if !s.Read(combinator) {
			break
		}
	}
	st.Sum = strings.TrimSpace(s.Text()[sumStart:])
}

// atJoint reports whether the scanner is positioned at a joint: ':'
// followed by space/tab or end-of-line.
func atJoint(s *scan.Scanner) bool {
	if !s.Peek(jointToken) {
		return false
	}
	rest := s.Text()[s.Pos()+1:]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func skipHorizontalSpace(s *scan.Scanner) {
	s.ReadWhitespace()
}

// readIdentifier reads graphemes until a boundary: whitespace, the
// combinator, a joint, or end-of-line.
func readIdentifier(s *scan.Scanner) string {
	var b strings.Builder
	for s.More() {
		if s.Peek(" ") || s.Peek("\t") || s.Peek(combinator) {
			break
		}
		if atJoint(s) {
			break
		}
		g, ok := s.ReadGrapheme()
		if !ok {
			break
		}
		if g.IsBlockReference() {
			b.WriteString(`\u{` + g.BlockName + `}`)
			continue
		}
		b.WriteString(g.Text)
	}
	return b.String()
}

// finalizeStatement implements §4.2 step 10.
func (p *Parser) finalizeStatement(st *Statement) {
	if st.JointPosition < 0 {
		return
	}
	switch {
	case len(st.AllDeclarations) == 0 && len(st.AllAnnotations) == 0:
		sp := &Span{Start: st.JointPosition, End: st.JointPosition, Subject: subject.Void, Parent: st}
		st.AllDeclarations = append(st.AllDeclarations, sp)
		st.set(FlagVacuous)
	case len(st.AllDeclarations) > 0 && len(st.AllAnnotations) == 0:
		st.set(FlagRefresh)
	}
}

// validate implements the post-parse validations of §4.2.
func (p *Parser) validate(st *Statement) {
	validateDuplicateDeclarations(st)
	validateListIntrinsicExtendingList(st)
	validatePatternAnnotationRequirements(st)
}

func validateDuplicateDeclarations(st *Statement) {
	seen := make(map[string]bool, len(st.AllDeclarations))
	for _, sp := range st.AllDeclarations {
		if sp.Subject.Kind() != subject.KindTerm {
			continue
		}
		spelling := sp.Subject.Term().Spelling
		if seen[spelling] {
			f := fault.Newf(fault.DuplicateDeclaration, sp, "duplicate declaration %q", spelling)
			st.Faults = append(st.Faults, f)
			st.set(FlagCruft)
			st.CruftObjects = append(st.CruftObjects, sp)
		}
		seen[spelling] = true
	}
}

func validateListIntrinsicExtendingList(st *Statement) {
	anyListDeclaration := false
	for _, sp := range st.AllDeclarations {
		if sp.Subject.Kind() == subject.KindTerm && sp.Subject.Term().IsList {
			anyListDeclaration = true
			break
		}
	}
	if !anyListDeclaration {
		return
	}
	for _, sp := range st.AllAnnotations {
		if sp.Subject.Kind() == subject.KindTerm && sp.Subject.Term().IsList {
			f := fault.New(fault.ListIntrinsicExtendingList, sp, "a list-marked annotation extends a list-marked declaration")
			st.Faults = append(st.Faults, f)
			st.set(FlagCruft)
			st.CruftObjects = append(st.CruftObjects, sp)
		}
	}
}

func validatePatternAnnotationRequirements(st *Statement) {
	if !st.HasPattern() {
		return
	}
	sp := st.AllDeclarations[0]
	pat := sp.Subject.Pattern()

	if len(st.AllAnnotations) == 0 {
		f := fault.New(fault.PatternWithoutAnnotation, sp, "pattern has no annotation")
		st.Faults = append(st.Faults, f)
		st.set(FlagCruft)
		st.CruftObjects = append(st.CruftObjects, sp)
	} else {
		pat.CRC = pattern.ComputeCRC(st.AnnotationTexts())
	}

	if pat.CanMatchEmpty() {
		st.Faults = append(st.Faults, fault.New(fault.PatternCanMatchEmpty, sp, "pattern can match the empty string"))
	}

	if st.HasPartialPattern() && pat.MatchesString(combinator) {
		f := fault.New(fault.PatternPartialWithCombinator, sp, "partial pattern literally matches the combinator")
		st.Faults = append(st.Faults, f)
		st.set(FlagCruft)
		st.CruftObjects = append(st.CruftObjects, sp)
	}
}
