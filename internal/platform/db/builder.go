package db

import sq "github.com/Masterminds/squirrel"

// Psql builds Postgres statements with $n placeholders.
var Psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ContainsPattern wraps a search term for ILIKE, escaping LIKE metacharacters.
func ContainsPattern(term string) string {
	r := []rune{}
	for _, c := range term {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return "%" + string(r) + "%"
}
