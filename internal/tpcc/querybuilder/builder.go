// Package querybuilder renders "first matching row" and "locked" SELECTs for each supported SQL dialect. All
// functions are pure: the output depends only on the Select fragment and the Capabilities.
package querybuilder

import (
	"strconv"
	"strings"
)

type Family string

const (
	MySQL      Family = "mysql"
	PostgreSQL Family = "postgresql"
	Oracle     Family = "oracle"
	SQLServer  Family = "sqlserver"
	DB2        Family = "db2"
	Dameng     Family = "dameng"
	OceanBase  Family = "oceanbase"
	TiDB       Family = "tidb"
	SQLite     Family = "sqlite"
	YashanDB   Family = "yashandb"
	GBase8s    Family = "gbase8s"
	Sybase     Family = "sybase"
	HANA       Family = "hana"
)

type PlaceholderStyle int

const (
	// QuestionMark placeholders: ?
	QuestionMark PlaceholderStyle = iota
	// Dollar placeholders: $1, $2, ...
	Dollar
	// Colon placeholders: :1, :2, ...
	Colon
	// AtP placeholders: @p1, @p2, ...
	AtP
)

// Capabilities describes what a dialect can express. Family is only consulted to pick the row-limit keyword
// and lock hint when the dialect has no LIMIT clause.
type Capabilities struct {
	Family                             Family
	SupportsRowLimit                   bool
	RequiresRowIdRewriteForLockedLimit bool
	SupportsRowLocking                 bool
	Placeholder                        PlaceholderStyle
}

// Select is a single-table query fragment. Where and OrderBy are raw SQL without their keywords.
type Select struct {
	Columns string
	Table   string
	Where   string
	OrderBy string
}

func (s Select) String() string {
	return s.render("")
}

// render assembles the query with an optional lock hint placed directly after the table name.
func (s Select) render(hint string) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(s.Columns)
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table)
	if hint != "" {
		sb.WriteString(" ")
		sb.WriteString(hint)
	}
	if s.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.Where)
	}
	if s.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(s.OrderBy)
	}
	return sb.String()
}

func (s Select) withColumnPrefix(prefix string) Select {
	s.Columns = prefix + s.Columns
	return s
}

type Builder struct {
	caps Capabilities
}

func New(caps Capabilities) Builder {
	return Builder{caps: caps}
}

func (b Builder) Capabilities() Capabilities {
	return b.caps
}

// FirstRow returns a query yielding at most the first row of s.
func (b Builder) FirstRow(s Select) string {
	switch {
	case b.caps.SupportsRowLimit:
		return s.String() + " LIMIT 1"
	case b.caps.RequiresRowIdRewriteForLockedLimit:
		return "SELECT * FROM (" + s.String() + ") WHERE ROWNUM = 1"
	}
	switch b.caps.Family {
	case SQLServer, Sybase:
		return s.withColumnPrefix("TOP 1 ").String()
	case GBase8s:
		return s.withColumnPrefix("FIRST 1 ").String()
	default:
		return s.String() + " FETCH FIRST 1 ROWS ONLY"
	}
}

// FirstRowLocked returns a query yielding at most the first row of s with that row locked for update. Dialects
// without row locking get the unlocked FirstRow form.
func (b Builder) FirstRowLocked(s Select) string {
	if !b.caps.SupportsRowLocking {
		return b.FirstRow(s)
	}
	switch {
	case b.caps.SupportsRowLimit:
		return s.String() + " LIMIT 1 FOR UPDATE"
	case b.caps.RequiresRowIdRewriteForLockedLimit:
		inner := Select{Columns: "ROWID", Table: s.Table, Where: s.Where, OrderBy: s.OrderBy}
		return "SELECT " + s.Columns + " FROM " + s.Table +
			" WHERE ROWID = (SELECT ROWID FROM (" + inner.String() + ") WHERE ROWNUM = 1) FOR UPDATE"
	}
	if hint := b.lockHint(); hint != "" {
		return s.withColumnPrefix("TOP 1 ").render(hint)
	}
	if b.caps.Family == GBase8s {
		return s.withColumnPrefix("FIRST 1 ").String() + " FOR UPDATE"
	}
	return s.String() + " FETCH FIRST 1 ROWS ONLY FOR UPDATE"
}

// Locked returns s with every matching row locked for update.
func (b Builder) Locked(s Select) string {
	if !b.caps.SupportsRowLocking {
		return s.String()
	}
	if hint := b.lockHint(); hint != "" {
		return s.render(hint)
	}
	return s.String() + " FOR UPDATE"
}

func (b Builder) lockHint() string {
	switch b.caps.Family {
	case SQLServer:
		return "WITH (UPDLOCK, ROWLOCK)"
	case Sybase:
		return "HOLDLOCK"
	default:
		return ""
	}
}

// Rebind rewrites the ? placeholders in query into the dialect's placeholder style. Question marks inside
// single-quoted literals are left alone.
func (b Builder) Rebind(query string) string {
	if b.caps.Placeholder == QuestionMark {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 16)
	inLiteral := false
	n := 0
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			sb.WriteString(b.placeholder(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (b Builder) placeholder(n int) string {
	switch b.caps.Placeholder {
	case Dollar:
		return "$" + strconv.Itoa(n)
	case Colon:
		return ":" + strconv.Itoa(n)
	case AtP:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}
