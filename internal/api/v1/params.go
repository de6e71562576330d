package v1

import "github.com/gin-gonic/gin"

// pageParams reads the common limit/offset query parameters, defaulting to
// the same bounds types.Pagination.GetLimit/GetOffset apply server-side.
func pageParams(c *gin.Context) (limit, offset int) {
	limit = queryInt(c, "limit", 100)
	offset = queryInt(c, "offset", 0)
	return limit, offset
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
