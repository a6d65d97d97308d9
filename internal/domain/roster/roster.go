// Package roster holds the employee directory that aggregation joins
// evaluation rows against.
package roster

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UnknownLabel is the bucket label for rows with no roster match. Unmatched
// rows are labeled, never dropped, so reports keep their audit volume.
const UnknownLabel = "Unknown"

// Person is one employee directory entry.
type Person struct {
	Email         string
	Name          string
	Role          string
	Department    string
	Designation   string
	Team          string
	Supervisor    string
	QualityMentor string
	Channel       string
}

// NormalizeEmail canonicalizes an email for use as a join key: trimmed,
// lower-cased, and NFC-normalized so visually identical addresses compare
// equal.
func NormalizeEmail(email string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(email)))
}

// Directory indexes people by normalized email for aggregation joins.
type Directory struct {
	byEmail map[string]Person
}

// NewDirectory builds a directory from person records. Entries with empty
// emails are skipped; on duplicate emails the last record wins.
func NewDirectory(people []Person) *Directory {
	d := &Directory{byEmail: make(map[string]Person, len(people))}
	for _, p := range people {
		key := NormalizeEmail(p.Email)
		if key == "" {
			continue
		}
		d.byEmail[key] = p
	}
	return d
}

// Lookup returns the person for an email; ok is false when there is no
// roster match.
func (d *Directory) Lookup(email string) (Person, bool) {
	p, ok := d.byEmail[NormalizeEmail(email)]
	return p, ok
}

// Len returns the number of indexed people.
func (d *Directory) Len() int {
	return len(d.byEmail)
}

// People returns the indexed entries ordered by normalized email.
func (d *Directory) People() []Person {
	keys := make([]string, 0, len(d.byEmail))
	for k := range d.byEmail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	people := make([]Person, 0, len(keys))
	for _, k := range keys {
		people = append(people, d.byEmail[k])
	}
	return people
}
