// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mnako/letters"
)

type emailProcessor struct{}

// Process extracts text from EML bytes: a metadata header block
// followed by the text body, falling back to the raw HTML body when
// no plain-text part is present.
func (emailProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "EML", 0); err != nil {
		return "", err
	}

	email, err := letters.ParseEmail(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse EML content: %w", err)
	}

	var builder strings.Builder

	if email.Headers.Subject != "" {
		builder.WriteString(fmt.Sprintf("Subject: %s\n", email.Headers.Subject))
	}

	if len(email.Headers.From) > 0 {
		from := email.Headers.From[0]
		sender := from.Address
		if from.Name != "" {
			sender = fmt.Sprintf("%s <%s>", from.Name, from.Address)
		}
		builder.WriteString(fmt.Sprintf("Sender: %s\n", sender))
	}

	if !email.Headers.Date.IsZero() {
		builder.WriteString(fmt.Sprintf("Date: %s\n", email.Headers.Date.Format(time.RFC3339)))
	}

	builder.WriteString("\n")

	bodyText := email.Text
	if bodyText == "" {
		bodyText = email.HTML
	}
	if bodyText != "" {
		builder.WriteString(bodyText)
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", noTextExtracted("EML")
	}
	return result, nil
}
