package exam

// Book is one of the works on the national first-baccalaureate French
// syllabus. The catalogue is fixed, so it ships with the binary instead
// of a table.
type Book struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"cover_image,omitempty"`
}

var books = map[string]Book{
	"dernier-jour": {
		ID:     "dernier-jour",
		Title:  "Le Dernier Jour d'un condamné",
		Author: "Victor Hugo",
	},
	"antigone": {
		ID:     "antigone",
		Title:  "Antigone",
		Author: "Jean Anouilh",
	},
	"boite-merveilles": {
		ID:     "boite-merveilles",
		Title:  "La Boîte à merveilles",
		Author: "Ahmed Sefrioui",
	},
}

var bookOrder = []string{"dernier-jour", "antigone", "boite-merveilles"}

// Books returns the catalogue in syllabus order.
func Books() []Book {
	out := make([]Book, 0, len(bookOrder))
	for _, id := range bookOrder {
		out = append(out, books[id])
	}
	return out
}

// BookByID looks a book up by its slug.
func BookByID(id string) (Book, bool) {
	b, ok := books[id]
	return b, ok
}

// BookTitle resolves a slug to its display title, falling back to the
// slug itself for unknown ids.
func BookTitle(id string) string {
	if b, ok := books[id]; ok {
		return b.Title
	}
	return id
}
