package recipe

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

const recipeViewColumns = `
        r.id, r.id_usuarios, r.id_categorias, r.nome, r.tempo_preparo_minutos, r.porcoes,
        r.modo_preparo, r.ingredientes, r.created_at, r.updated_at,
        u.nome, u.login, c.nome`

const recipeViewFrom = `
        FROM receitas r
        JOIN usuarios u ON u.id = r.id_usuarios
        LEFT JOIN categorias c ON c.id = r.id_categorias`

// searchQuery accumulates the predicates of a recipe listing so the count and
// the data query always share the same WHERE clause and arguments.
type searchQuery struct {
	where   []string
	args    []any
	rankArg int // placeholder index of the tsquery, 0 when there is no term
}

func newSearchQuery(f types.RecipeFilter) *searchQuery {
	q := &searchQuery{}
	if f.UserID != nil {
		q.add("r.id_usuarios = $%d", *f.UserID)
	}
	if f.CategoryID != nil {
		q.add("r.id_categorias = $%d", *f.CategoryID)
	}
	if tsq := prefixTSQuery(f.Term); tsq != "" {
		q.rankArg = q.add("r.search_vector @@ to_tsquery('simple', $%d)", tsq)
	}
	return q
}

func (q *searchQuery) add(cond string, arg any) int {
	q.args = append(q.args, arg)
	n := len(q.args)
	q.where = append(q.where, fmt.Sprintf(cond, n))
	return n
}

func (q *searchQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return "\n        WHERE " + strings.Join(q.where, " AND ")
}

func (q *searchQuery) countSQL() (string, []any) {
	return "SELECT COUNT(*) FROM receitas r" + q.whereClause(), q.args
}

func (q *searchQuery) dataSQL(page types.PageRequest) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(recipeViewColumns)
	b.WriteString(recipeViewFrom)
	b.WriteString(q.whereClause())
	b.WriteString("\n        ORDER BY ")
	if q.rankArg > 0 {
		fmt.Fprintf(&b, "ts_rank(r.search_vector, to_tsquery('simple', $%d)) DESC, ", q.rankArg)
	}
	b.WriteString("r.created_at DESC, r.id DESC")

	args := make([]any, len(q.args), len(q.args)+2)
	copy(args, q.args)
	args = append(args, page.PageSize, page.Offset())
	fmt.Fprintf(&b, "\n        LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

// prefixTSQuery turns free text into "tok1:* & tok2:*". Anything that is not a
// letter or digit separates tokens, so user input never reaches the tsquery
// parser as syntax.
func prefixTSQuery(term string) string {
	tokens := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(term)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, t := range tokens {
		tokens[i] = t + ":*"
	}
	return strings.Join(tokens, " & ")
}
