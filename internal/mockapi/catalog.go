package mockapi

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/phoneshop/api"
	"github.com/kochabx/phoneshop/errors"
	transporthttp "github.com/kochabx/phoneshop/transport/http"
)

func (s *Server) listCategories(c *gin.Context) {
	s.data.mu.RLock()
	out := slices.Clone(s.data.categories)
	s.data.mu.RUnlock()
	transporthttp.GinJSON(c, out)
}

func (s *Server) categoryProducts(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	transporthttp.GinJSON(c, s.products(func(p *api.Product) bool {
		return p.Category != nil && p.Category.ID == id
	}))
}

func (s *Server) products(keep func(*api.Product) bool) []api.Product {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	all := s.data.sortedProducts()
	out := all[:0]
	for _, p := range all {
		if keep == nil || keep(&p) {
			out = append(out, p)
		}
	}
	return out
}

// listProducts answers a page when page or size is given, else the full list.
func (s *Server) listProducts(c *gin.Context) {
	all := s.products(nil)
	if c.Query("page") == "" && c.Query("size") == "" {
		transporthttp.GinJSON(c, all)
		return
	}
	transporthttp.GinJSON(c, paginate(all, queryInt(c, "page", 0), queryInt(c, "size", 10)))
}

func (s *Server) filteredProducts(c *gin.Context) {
	categoryID, _ := strconv.ParseInt(c.Query("categoryId"), 10, 64)
	minPrice, _ := strconv.ParseFloat(c.Query("minPrice"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("maxPrice"), 64)
	brand := strings.ToLower(c.Query("brand"))

	out := s.products(func(p *api.Product) bool {
		price := p.Price()
		switch {
		case categoryID > 0 && (p.Category == nil || p.Category.ID != categoryID):
			return false
		case minPrice > 0 && price < minPrice:
			return false
		case maxPrice > 0 && price > maxPrice:
			return false
		case brand != "" && !strings.Contains(strings.ToLower(p.Name), brand):
			return false
		}
		return true
	})

	switch c.Query("sortBy") {
	case "price_asc":
		slices.SortStableFunc(out, func(a, b api.Product) int { return cmp.Compare(a.Price(), b.Price()) })
	case "price_desc":
		slices.SortStableFunc(out, func(a, b api.Product) int { return cmp.Compare(b.Price(), a.Price()) })
	case "best_selling":
		slices.SortStableFunc(out, func(a, b api.Product) int { return cmp.Compare(b.SoldQuantity, a.SoldQuantity) })
	}
	transporthttp.GinJSON(c, paginate(out, queryInt(c, "page", 0), queryInt(c, "size", 12)))
}

func (s *Server) product(c *gin.Context) (api.Product, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return api.Product{}, false
	}
	s.data.mu.RLock()
	p, found := s.data.products[id]
	var out api.Product
	if found {
		out = *p
	}
	s.data.mu.RUnlock()

	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy sản phẩm"))
		return api.Product{}, false
	}
	return out, true
}

func (s *Server) getProduct(c *gin.Context) {
	if p, ok := s.product(c); ok {
		transporthttp.GinJSON(c, p)
	}
}

// relatedProducts returns up to four other products of the same category.
func (s *Server) relatedProducts(c *gin.Context) {
	p, ok := s.product(c)
	if !ok {
		return
	}
	out := s.products(func(o *api.Product) bool {
		return o.ID != p.ID && o.Category != nil && p.Category != nil && o.Category.ID == p.Category.ID
	})
	transporthttp.GinJSON(c, out[:min(len(out), 4)])
}

func (s *Server) createProduct(c *gin.Context) {
	var p api.Product
	if !s.bind(c, &p) {
		return
	}
	s.data.mu.Lock()
	p.ID = s.data.next()
	s.data.products[p.ID] = &p
	s.data.mu.Unlock()
	transporthttp.GinJSON(c, p)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p api.Product
	if !s.bind(c, &p) {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, found := s.data.products[id]; !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy sản phẩm"))
		return
	}
	p.ID = id
	s.data.products[id] = &p
	transporthttp.GinJSON(c, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	s.data.mu.Lock()
	_, found := s.data.products[id]
	delete(s.data.products, id)
	s.data.mu.Unlock()

	if !found {
		transporthttp.GinJSONE(c, errors.NotFound("Không tìm thấy sản phẩm"))
		return
	}
	transporthttp.GinMessage(c, "Xóa sản phẩm thành công")
}
