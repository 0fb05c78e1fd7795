package dialect

import (
	"fmt"
	"strings"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

// CreateStatements returns the DDL for the whole schema, tables before the indexes on them.
func (d Definition) CreateStatements() []string {
	var statements []string
	for _, t := range Tables {
		statements = append(statements, d.createTable(t))
		if !d.InlineIndexes {
			for _, idx := range t.Indexes {
				statements = append(statements, d.createIndex(t, idx))
			}
		}
	}
	return statements
}

// DropStatements returns one DROP TABLE per table in dependency order.
func (d Definition) DropStatements() []string {
	statements := make([]string, 0, len(model.DropOrder))
	for _, table := range model.DropOrder {
		switch d.DDLStyle {
		case DDLIfNotExists:
			statements = append(statements, "DROP TABLE IF EXISTS "+table)
		case DDLSysObjects:
			statements = append(statements, sysObjectsGuard(table, "IF EXISTS")+"DROP TABLE "+table)
		default:
			statements = append(statements, "DROP TABLE "+table)
		}
	}
	return statements
}

func (d Definition) createTable(t Table) string {
	lines := make([]string, 0, len(t.Columns)+len(t.Indexes)+1)
	for _, c := range t.Columns {
		lines = append(lines, "    "+d.columnDefinition(c))
	}
	if t.PrimaryKey != "" {
		lines = append(lines, "    PRIMARY KEY ("+t.PrimaryKey+")")
	}
	if d.InlineIndexes {
		for _, idx := range t.Indexes {
			lines = append(lines, "    INDEX "+idx.Name+" ("+idx.Columns+")")
		}
	}
	body := " (\n" + strings.Join(lines, ",\n") + "\n)" + d.TableSuffix

	switch d.DDLStyle {
	case DDLIfNotExists:
		return "CREATE TABLE IF NOT EXISTS " + t.Name + body
	case DDLSysObjects:
		return sysObjectsGuard(t.Name, "IF NOT EXISTS") + "CREATE TABLE " + t.Name + body
	default:
		return "CREATE TABLE " + t.Name + body
	}
}

func (d Definition) createIndex(t Table, idx Index) string {
	if d.DDLStyle == DDLIfNotExists {
		return "CREATE INDEX IF NOT EXISTS " + idx.Name + " ON " + t.Name + " (" + idx.Columns + ")"
	}
	return "CREATE INDEX " + idx.Name + " ON " + t.Name + " (" + idx.Columns + ")"
}

func (d Definition) columnDefinition(c Column) string {
	def := c.Name + " " + d.columnType(c)
	if c.NotNull {
		return def + " NOT NULL"
	}
	return def + d.NullableSuffix
}

func (d Definition) columnType(c Column) string {
	template := d.Types[c.Kind]
	if !strings.Contains(template, "%") {
		return template
	}
	if c.Kind == KindDecimal {
		return fmt.Sprintf(template, c.Size, c.Scale)
	}
	return fmt.Sprintf(template, c.Size)
}

func sysObjectsGuard(table string, condition string) string {
	return condition + " (SELECT 1 FROM sysobjects WHERE name = '" + table + "' AND type = 'U') "
}
