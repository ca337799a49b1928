package util

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Paginate clamps page/size and returns the query offset and limit.
func Paginate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}
