// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type excelProcessor struct{}

// Process extracts text from XLSX bytes using a markdownification
// strategy: each sheet becomes a heading, each data row is rendered
// as "Row N: Header: Value, Header: Value...".
func (excelProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "Excel", 0); err != nil {
		return "", err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open Excel content: %w", err)
	}
	defer f.Close()

	var builder strings.Builder

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("no sheets found in Excel content")
	}

	for sheetIdx, sheetName := range sheetList {
		if sheetIdx > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))

		rows, err := f.GetRows(sheetName)
		if err != nil {
			builder.WriteString(fmt.Sprintf("(unable to read sheet %s: %v)\n", sheetName, err))
			continue
		}
		if len(rows) == 0 {
			continue
		}

		headers := rows[0]
		if len(headers) == 0 {
			continue
		}

		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			row := rows[rowIdx]

			var rowParts []string
			for colIdx, header := range headers {
				if colIdx < len(row) && row[colIdx] != "" {
					value := strings.TrimSpace(row[colIdx])
					if value == "" {
						continue
					}
					headerName := strings.TrimSpace(header)
					if headerName == "" {
						headerName = fmt.Sprintf("Column %d", colIdx+1)
					}
					rowParts = append(rowParts, fmt.Sprintf("%s: %s", headerName, value))
				}
			}

			if len(rowParts) > 0 {
				builder.WriteString(fmt.Sprintf("Row %d: %s\n", rowIdx+1, strings.Join(rowParts, ", ")))
			}
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", noTextExtracted("Excel")
	}
	return result, nil
}
