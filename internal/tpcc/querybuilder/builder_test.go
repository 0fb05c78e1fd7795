package querybuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var (
	limitCaps   = Capabilities{Family: MySQL, SupportsRowLimit: true, SupportsRowLocking: true}
	oracleCaps  = Capabilities{Family: Oracle, RequiresRowIdRewriteForLockedLimit: true, SupportsRowLocking: true, Placeholder: Colon}
	db2Caps     = Capabilities{Family: DB2, SupportsRowLocking: true}
	mssqlCaps   = Capabilities{Family: SQLServer, SupportsRowLocking: true, Placeholder: AtP}
	sybaseCaps  = Capabilities{Family: Sybase, SupportsRowLocking: true}
	gbaseCaps   = Capabilities{Family: GBase8s, SupportsRowLocking: true}
	sqliteCaps  = Capabilities{Family: SQLite, SupportsRowLimit: true}
	newOrderSel = Select{
		Columns: "no_o_id",
		Table:   "new_order",
		Where:   "no_w_id = ? AND no_d_id = ?",
		OrderBy: "no_o_id",
	}
)

func TestSelect_String(t *testing.T) {
	assert.Equal(t, "SELECT no_o_id FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id", newOrderSel.String())
	assert.Equal(t, "SELECT COUNT(*) FROM warehouse", Select{Columns: "COUNT(*)", Table: "warehouse"}.String())
}

func TestFirstRow(t *testing.T) {
	base := newOrderSel.String()
	tests := map[string]struct {
		caps     Capabilities
		expected string
	}{
		"limit":     {caps: limitCaps, expected: base + " LIMIT 1"},
		"oracle":    {caps: oracleCaps, expected: "SELECT * FROM (" + base + ") WHERE ROWNUM = 1"},
		"db2":       {caps: db2Caps, expected: base + " FETCH FIRST 1 ROWS ONLY"},
		"sqlserver": {caps: mssqlCaps, expected: "SELECT TOP 1 no_o_id FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id"},
		"sybase":    {caps: sybaseCaps, expected: "SELECT TOP 1 no_o_id FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id"},
		"gbase8s":   {caps: gbaseCaps, expected: "SELECT FIRST 1 no_o_id FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id"},
		"sqlite":    {caps: sqliteCaps, expected: base + " LIMIT 1"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, New(tc.caps).FirstRow(newOrderSel))
		})
	}
}

func TestFirstRowLocked(t *testing.T) {
	base := newOrderSel.String()
	tests := map[string]struct {
		caps     Capabilities
		expected string
	}{
		"limit": {caps: limitCaps, expected: base + " LIMIT 1 FOR UPDATE"},
		"oracle": {
			caps:     oracleCaps,
			expected: "SELECT no_o_id FROM new_order WHERE ROWID = (SELECT ROWID FROM (SELECT ROWID FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id) WHERE ROWNUM = 1) FOR UPDATE",
		},
		"db2":       {caps: db2Caps, expected: base + " FETCH FIRST 1 ROWS ONLY FOR UPDATE"},
		"sqlserver": {caps: mssqlCaps, expected: "SELECT TOP 1 no_o_id FROM new_order WITH (UPDLOCK, ROWLOCK) WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id"},
		"sybase":    {caps: sybaseCaps, expected: "SELECT TOP 1 no_o_id FROM new_order HOLDLOCK WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id"},
		"gbase8s":   {caps: gbaseCaps, expected: "SELECT FIRST 1 no_o_id FROM new_order WHERE no_w_id = ? AND no_d_id = ? ORDER BY no_o_id FOR UPDATE"},
		"sqlite":    {caps: sqliteCaps, expected: base + " LIMIT 1"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, New(tc.caps).FirstRowLocked(newOrderSel))
		})
	}
}

func TestLocked(t *testing.T) {
	district := Select{Columns: "d_tax, d_next_o_id", Table: "district", Where: "d_w_id = ? AND d_id = ?"}
	tests := map[string]struct {
		caps     Capabilities
		expected string
	}{
		"limit":     {caps: limitCaps, expected: "SELECT d_tax, d_next_o_id FROM district WHERE d_w_id = ? AND d_id = ? FOR UPDATE"},
		"oracle":    {caps: oracleCaps, expected: "SELECT d_tax, d_next_o_id FROM district WHERE d_w_id = ? AND d_id = ? FOR UPDATE"},
		"sqlserver": {caps: mssqlCaps, expected: "SELECT d_tax, d_next_o_id FROM district WITH (UPDLOCK, ROWLOCK) WHERE d_w_id = ? AND d_id = ?"},
		"sybase":    {caps: sybaseCaps, expected: "SELECT d_tax, d_next_o_id FROM district HOLDLOCK WHERE d_w_id = ? AND d_id = ?"},
		"sqlite":    {caps: sqliteCaps, expected: "SELECT d_tax, d_next_o_id FROM district WHERE d_w_id = ? AND d_id = ?"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, New(tc.caps).Locked(district))
		})
	}
}

func TestRebind(t *testing.T) {
	query := "UPDATE customer SET c_data = '?' WHERE c_w_id = ? AND c_id = ?"
	tests := map[string]struct {
		style    PlaceholderStyle
		expected string
	}{
		"question": {style: QuestionMark, expected: query},
		"dollar":   {style: Dollar, expected: "UPDATE customer SET c_data = '?' WHERE c_w_id = $1 AND c_id = $2"},
		"colon":    {style: Colon, expected: "UPDATE customer SET c_data = '?' WHERE c_w_id = :1 AND c_id = :2"},
		"atp":      {style: AtP, expected: "UPDATE customer SET c_data = '?' WHERE c_w_id = @p1 AND c_id = @p2"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, New(Capabilities{Placeholder: tc.style}).Rebind(query))
		})
	}
}

var limitingConstructs = []string{"LIMIT", "FETCH FIRST", "TOP 1", "SELECT FIRST 1", "ROWNUM"}

func countConstructs(sql string) int {
	n := 0
	for _, c := range limitingConstructs {
		if strings.Contains(sql, c) {
			n++
		}
	}
	return n
}

func TestFirstRowForms_ExactlyOneLimitingConstruct(t *testing.T) {
	identifier := rapid.StringMatching(`[a-z][a-z_]{0,12}`)
	rapid.Check(t, func(t *rapid.T) {
		caps := rapid.SampledFrom([]Capabilities{limitCaps, oracleCaps, db2Caps, mssqlCaps, sybaseCaps, gbaseCaps, sqliteCaps}).Draw(t, "caps")
		s := Select{
			Columns: identifier.Draw(t, "columns"),
			Table:   identifier.Draw(t, "table"),
			Where:   identifier.Draw(t, "where") + " = ?",
			OrderBy: identifier.Draw(t, "orderBy"),
		}
		b := New(caps)

		first := b.FirstRow(s)
		locked := b.FirstRowLocked(s)
		if n := countConstructs(first); n != 1 {
			t.Fatalf("%s: expected one limiting construct, got %d", first, n)
		}
		if n := countConstructs(locked); n != 1 {
			t.Fatalf("%s: expected one limiting construct, got %d", locked, n)
		}
		if b.FirstRow(s) != first || b.FirstRowLocked(s) != locked {
			t.Fatalf("rewrites are not deterministic")
		}
		if caps.SupportsRowLocking && !strings.Contains(locked, "FOR UPDATE") && !strings.Contains(locked, "LOCK") {
			t.Fatalf("%s: locking dialect produced an unlocked query", locked)
		}
		if !caps.SupportsRowLocking && locked != first {
			t.Fatalf("non-locking dialect should fall back to the first-row form")
		}
	})
}
