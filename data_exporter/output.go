package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/template"
)

type templateArguments struct {
	SessionNo uint
	Seed      string
}

// outputName expands the --out template. "-" stays "-" (stdout).
func outputName(text string, args templateArguments) (string, error) {
	if text == "-" {
		return text, nil
	}

	outFileNameTemplate, err := template.New("").Parse(text)
	if err != nil {
		return "", fmt.Errorf("error while creating the output filename template: %w", err)
	}

	outFileNameBuf := bytes.Buffer{}
	if err = outFileNameTemplate.Execute(&outFileNameBuf, args); err != nil {
		return "", fmt.Errorf("error while executing the output filename template: %w", err)
	}

	return outFileNameBuf.String(), nil
}

type table struct {
	columns []string
	rows    [][]string
	// written instead of rows for json output
	value interface{}
}

func (t *table) write(w io.Writer, format string, titles bool) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(t.value)
	}

	csvWriter := csv.NewWriter(w)

	if titles {
		if err := csvWriter.Write(t.columns); err != nil {
			return err
		}
	}

	if err := csvWriter.WriteAll(t.rows); err != nil {
		return err
	}

	return csvWriter.Error()
}

func writeTable(out string, args templateArguments, format string, titles bool, t *table) error {
	name, err := outputName(out, args)
	if err != nil {
		return err
	}

	if name == "-" {
		return t.write(os.Stdout, format, titles)
	}

	outFile, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("error while creating the output file %q: %w", name, err)
	}

	if err = t.write(outFile, format, titles); err != nil {
		_ = outFile.Close()
		return err
	}

	return outFile.Close()
}
