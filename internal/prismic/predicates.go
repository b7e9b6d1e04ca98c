// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package prismic

import (
	"strconv"
	"strings"
)

// Predicate is one clause of a search query, e.g. [at(document.type,"publications")].
type Predicate string

// At matches documents whose field at path equals value.
func At(path, value string) Predicate {
	return Predicate("[at(" + path + "," + strconv.Quote(value) + ")]")
}

// Join combines predicates into the q parameter. All predicates must match.
func Join(predicates []Predicate) string {
	var b strings.Builder
	b.WriteByte('[')
	for _, p := range predicates {
		b.WriteString(string(p))
	}
	b.WriteByte(']')
	return b.String()
}

// Orderings for publication date, used to find neighbouring documents.
const (
	OrderByFirstPublicationAsc  = "[document.first_publication_date]"
	OrderByFirstPublicationDesc = "[document.first_publication_date desc]"
)
