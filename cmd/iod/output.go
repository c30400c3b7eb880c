// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"

	"github.com/invowk/iod/internal/loader"
)

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputTOML  outputFormat = "toml"
)

// ErrInvalidOutputFormat is the sentinel error wrapped by InvalidOutputFormatError.
var ErrInvalidOutputFormat = errors.New("invalid output format")

type (
	// outputFormat selects how resolved modules are printed.
	outputFormat string

	// InvalidOutputFormatError is returned for an unknown --output value.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value string
	}

	// moduleDocument is the TOML root; TOML has no top-level arrays.
	moduleDocument struct {
		Modules []*loader.Module `toml:"module"`
	}
)

// Error implements the error interface.
func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: table, json, toml)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat so callers can use errors.Is for programmatic detection.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the format is known, and a list of validation
// errors if it is not.
func (f outputFormat) IsValid() (bool, []error) {
	switch f {
	case outputTable, outputJSON, outputTOML:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: string(f)}}
	}
}

// writeModules prints mods to w in the requested format.
func writeModules(w io.Writer, format outputFormat, mods []*loader.Module) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(mods)
	case outputTOML:
		enc := toml.NewEncoder(w)
		return enc.Encode(moduleDocument{Modules: mods})
	default:
		_, err := fmt.Fprintln(w, moduleTable(mods))
		return err
	}
}

// moduleTable renders mods as a bordered table with one row per module.
func moduleTable(mods []*loader.Module) string {
	rows := make([][]string, len(mods))
	for i, m := range mods {
		rows[i] = []string{m.ImportPath, m.Name, m.Version, string(m.Source), m.Entry}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("IMPORT PATH", "NAME", "VERSION", "SOURCE", "ENTRY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 3 && row >= 0 && row < len(mods) && mods[row].Source == loader.SourceEphemeral {
				return tableCellStyle.Foreground(ColorWarning)
			}
			return tableCellStyle
		}).
		String()
}
