package models

// Campos permitidos para ordenar el listado
var SortableFields = []string{"name", "price", "rating", "createdAt", "category"}

const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
)

// ProductQuery describe filtros, paginación y orden del listado
type ProductQuery struct {
	Page      int
	Limit     int
	Category  string
	StoreID   *string
	Available *bool
	SortBy    string
	SortOrder string
}

// Skip retorna el número de documentos a saltar
func (q ProductQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// ProductList es la respuesta paginada del listado
type ProductList struct {
	Products []Product `json:"produtos"`
	Total    int64     `json:"total"`
	Pages    int64     `json:"pages"`
}

// PageCount calcula ceil(total / limit)
func PageCount(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return pages
}
