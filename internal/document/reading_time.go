// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"strings"

	"spacetraveling/internal/models"
	"spacetraveling/internal/richtext"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// ReadingTime estimates the minutes needed to read a post: the words of
// every body plus the words of every heading, divided by WordsPerMinute
// and rounded up. Sections without a heading add no heading words.
func ReadingTime(content []models.ContentBlock) int {
	words := 0
	for _, block := range content {
		words += richtext.WordCount(block.Body)
		if block.Heading != "" {
			words += len(strings.Fields(block.Heading))
		}
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
