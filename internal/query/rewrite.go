package query

import (
	"strings"
	"unicode"

	"github.com/lib/pq"
)

// keywords are PostgreSQL reserved and type/function-name keywords plus the
// clause words that may not be quoted. A column sharing one of these names
// must be written quoted (`Order`, [Order] or "Order").
var keywords = wordSet(`all analyse analyze and any array as asc asymmetric
authorization between bigint binary boolean both by case cast char character
check coalesce collate column constraint create cross current_date
current_time current_timestamp decimal default deferrable desc distinct do
else end except exists extract false fetch float for foreign from full grant
greatest group having ilike in initially inner int integer intersect into is
isnull join lateral leading least left like limit localtime localtimestamp
natural not notnull null nullif nulls numeric offset on only or order outer
over overlaps partition placing primary real references returning right
select similar smallint some substring symmetric table then to trailing trim
true union unique using varchar variadic verbose when where window with`)

// fieldWords act as keywords only in keyword position: between "(" and FROM
// (EXTRACT(YEAR FROM d)), before a string literal (DATE '2024-01-01') or
// after one (INTERVAL '1' MONTH). Elsewhere they may name a column.
var fieldWords = wordSet(`century date day decade dow doy epoch hour interval
microseconds millennium milliseconds minute month quarter second time
timestamp week year`)

func wordSet(s string) map[string]bool {
	m := map[string]bool{}
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

type tokenKind int

const (
	tokNone tokenKind = iota
	tokIdent
	tokKeyword
	tokString
	tokPunct
)

// Rewrite translates a positional-table query into PostgreSQL: "FROM ?"
// becomes the given table, backtick and bracket identifiers become double
// quoted, and bare words naming a known column are quoted with the column's
// exact case so mixed-case names survive identifier folding. String literals
// pass through untouched; keywords and function calls are never quoted.
func Rewrite(q, table string, columns []string) string {
	byFold := make(map[string]string, len(columns))
	for _, c := range columns {
		byFold[strings.ToLower(c)] = c
	}

	var b strings.Builder
	rs := []rune(q)
	last, lastPunct := tokNone, rune(0)
	var lastWord string
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
			i++
			continue
		case r == '\'':
			j := i + 1
			for j < len(rs) {
				if rs[j] == '\'' {
					if j+1 < len(rs) && rs[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			end := min(j+1, len(rs))
			b.WriteString(string(rs[i:end]))
			i = end
			last = tokString
		case r == '"' || r == '`' || (r == '[' && !subscript(last, lastWord, lastPunct)):
			closer := r
			if r == '[' {
				closer = ']'
			}
			j := i + 1
			for j < len(rs) && rs[j] != closer {
				j++
			}
			if r == '"' {
				b.WriteString(string(rs[i:min(j+1, len(rs))]))
			} else {
				b.WriteString(pq.QuoteIdentifier(string(rs[i+1 : j])))
			}
			i = min(j+1, len(rs))
			last = tokIdent
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			b.WriteString(string(rs[i:j]))
			i = j
			last, lastPunct = tokPunct, '0'
		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '$') {
				j++
			}
			word := string(rs[i:j])
			fold := strings.ToLower(word)
			k := skipSpace(rs, j)

			if fold == "from" && k < len(rs) && rs[k] == '?' {
				b.WriteString("FROM " + pq.QuoteIdentifier(table))
				i = k + 1
				last = tokIdent
				continue
			}
			if isKeyword(fold, last, lastPunct, rs, k) {
				b.WriteString(word)
				last, lastWord = tokKeyword, fold
				i = j
				continue
			}
			isCall := k < len(rs) && rs[k] == '('
			if col, ok := byFold[fold]; ok && !isCall && col != strings.ToLower(col) {
				b.WriteString(pq.QuoteIdentifier(col))
			} else {
				b.WriteString(word)
			}
			last, lastWord = tokIdent, fold
			i = j
		default:
			b.WriteRune(r)
			i++
			last, lastPunct = tokPunct, r
		}
	}
	return b.String()
}

func isKeyword(fold string, last tokenKind, lastPunct rune, rs []rune, next int) bool {
	if keywords[fold] {
		return true
	}
	if !fieldWords[fold] {
		return false
	}
	if last == tokString || (next < len(rs) && rs[next] == '\'') {
		return true
	}
	return last == tokPunct && lastPunct == '(' && nextWordIs(rs, next, "from")
}

// subscript reports whether a '[' following the previous token indexes an
// array (ARRAY[1,2], col[1], f(x)[1]) rather than opening a bracket identifier.
func subscript(last tokenKind, lastWord string, lastPunct rune) bool {
	switch last {
	case tokIdent:
		return true
	case tokKeyword:
		return lastWord == "array"
	case tokPunct:
		return lastPunct == ')' || lastPunct == ']'
	}
	return false
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func nextWordIs(rs []rune, i int, want string) bool {
	j := i
	for j < len(rs) && (unicode.IsLetter(rs[j]) || rs[j] == '_') {
		j++
	}
	return j > i && strings.EqualFold(string(rs[i:j]), want) &&
		(j == len(rs) || !(unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_'))
}
