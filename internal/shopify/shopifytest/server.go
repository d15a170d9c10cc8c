// Package shopifytest runs an in-memory Admin API (REST + the GraphQL
// operations the service uses) on an httptest server.
package shopifytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

const apiRoot = "/admin/api/test"

type Server struct {
	srv *httptest.Server

	mu                sync.Mutex
	nextID            int64
	Orders            map[int64]*shopify.Order
	Products          map[int64]*shopify.Product
	Metafields        []shopify.Metafield
	ProductMetafields map[int64][]shopify.Metafield
	Publications      []shopify.Publication
	Published         map[int64][]string
	Calls             []string
	// DiscardCommits makes orderEditCommit report success without
	// changing the order.
	DiscardCommits bool

	failures map[string]int
	edits    map[string]*edit
}

type edit struct {
	orderID int64
	adds    []editAdd
	qty     map[int64]int
}

type editAdd struct {
	variantID int64
	quantity  int
}

func NewServer(t testing.TB) *Server {
	s := &Server{
		nextID:            9000,
		Orders:            map[int64]*shopify.Order{},
		Products:          map[int64]*shopify.Product{},
		ProductMetafields: map[int64][]shopify.Metafield{},
		Published:         map[int64][]string{},
		failures:          map[string]int{},
		edits:             map[string]*edit{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

// Client returns an Admin API client bound to this server.
func (s *Server) Client() *shopify.Client {
	c := shopify.NewClient("test-shop", "test", "test-token", 5*time.Second)
	c.SetBaseURL(s.srv.URL + apiRoot)
	return c
}

// FailOn makes every request whose "METHOD path" starts with key answer
// status. GraphQL operations are keyed "graphql:<operation>".
func (s *Server) FailOn(key string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key] = status
}

func (s *Server) AddOrder(o shopify.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := o
	cp.LineItems = append([]shopify.LineItem(nil), o.LineItems...)
	s.Orders[o.ID] = &cp
}

func (s *Server) AddProduct(p shopify.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.Products[p.ID] = &cp
}

// SetCounter creates or overwrites a shop metafield holding an integer.
func (s *Server) SetCounter(namespace, key string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, mf := range s.Metafields {
		if mf.Namespace == namespace && mf.Key == key && mf.OwnerResource == "" {
			s.Metafields[i].Value = shopify.MetafieldValue(strconv.FormatInt(value, 10))
			return
		}
	}
	s.nextID++
	s.Metafields = append(s.Metafields, shopify.Metafield{
		ID:        s.nextID,
		Namespace: namespace,
		Key:       key,
		Type:      "number_integer",
		Value:     shopify.MetafieldValue(strconv.FormatInt(value, 10)),
	})
}

// Counter reads a shop metafield back; ok is false when it does not exist.
func (s *Server) Counter(namespace, key string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mf := range s.Metafields {
		if mf.Namespace == namespace && mf.Key == key && mf.OwnerResource == "" {
			n, _ := mf.Value.Int64()
			return n, true
		}
	}
	return 0, false
}

// LineItemMetafields returns metafields owned by a line item.
func (s *Server) LineItemMetafields(lineItemID int64) []shopify.Metafield {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shopify.Metafield
	for _, mf := range s.Metafields {
		if mf.OwnerResource == "line_item" && mf.OwnerID == lineItemID {
			out = append(out, mf)
		}
	}
	return out
}

func (s *Server) Order(id int64) shopify.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.Orders[id]; ok {
		return *o
	}
	return shopify.Order{}
}

// CallCount counts recorded calls starting with prefix.
func (s *Server) CallCount(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, apiRoot+"/")
	raw, _ := io.ReadAll(r.Body)

	if path == "graphql.json" {
		s.serveGraphQL(w, raw)
		return
	}

	call := r.Method + " " + path
	s.Calls = append(s.Calls, call)
	if status, ok := s.failureFor(call); ok {
		http.Error(w, `{"errors":"injected failure"}`, status)
		return
	}

	parts := strings.Split(strings.TrimSuffix(path, ".json"), "/")

	switch {
	case r.Method == http.MethodGet && path == "orders.json":
		name := r.URL.Query().Get("name")
		out := []shopify.Order{}
		for _, o := range s.Orders {
			if o.Name == name {
				out = append(out, *o)
			}
		}
		writeJSON(w, 200, map[string]any{"orders": out})

	case len(parts) == 2 && parts[0] == "orders":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		o, ok := s.Orders[id]
		if !ok {
			http.Error(w, `{"errors":"Not Found"}`, 404)
			return
		}
		if r.Method == http.MethodPut {
			var in struct {
				Order struct {
					Note *string `json:"note"`
				} `json:"order"`
			}
			_ = json.Unmarshal(raw, &in)
			if in.Order.Note != nil {
				o.Note = *in.Order.Note
			}
		}
		writeJSON(w, 200, map[string]any{"order": o})

	case r.Method == http.MethodGet && path == "metafields.json":
		ns, key := r.URL.Query().Get("namespace"), r.URL.Query().Get("key")
		out := []shopify.Metafield{}
		for _, mf := range s.Metafields {
			if mf.Namespace == ns && mf.Key == key && mf.OwnerResource == "" {
				out = append(out, mf)
			}
		}
		writeJSON(w, 200, map[string]any{"metafields": out})

	case r.Method == http.MethodPost && path == "metafields.json":
		var in struct {
			Metafield shopify.Metafield `json:"metafield"`
		}
		_ = json.Unmarshal(raw, &in)
		s.nextID++
		in.Metafield.ID = s.nextID
		s.Metafields = append(s.Metafields, in.Metafield)
		writeJSON(w, 201, map[string]any{"metafield": in.Metafield})

	case r.Method == http.MethodPut && len(parts) == 2 && parts[0] == "metafields":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		var in struct {
			Metafield shopify.Metafield `json:"metafield"`
		}
		_ = json.Unmarshal(raw, &in)
		for i := range s.Metafields {
			if s.Metafields[i].ID == id {
				s.Metafields[i].Value = in.Metafield.Value
				writeJSON(w, 200, map[string]any{"metafield": s.Metafields[i]})
				return
			}
		}
		http.Error(w, `{"errors":"Not Found"}`, 404)

	case r.Method == http.MethodGet && path == "products.json":
		s.listProducts(w, r)

	case r.Method == http.MethodPost && path == "products.json":
		var in struct {
			Product shopify.Product `json:"product"`
		}
		_ = json.Unmarshal(raw, &in)
		s.nextID++
		p := in.Product
		p.ID = s.nextID
		for i := range p.Variants {
			s.nextID++
			p.Variants[i].ID = s.nextID
			p.Variants[i].ProductID = p.ID
		}
		if p.Status == "" {
			p.Status = "active"
		}
		s.Products[p.ID] = &p
		writeJSON(w, 201, map[string]any{"product": p})

	case len(parts) == 2 && parts[0] == "products":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		p, ok := s.Products[id]
		if !ok {
			http.Error(w, `{"errors":"Not Found"}`, 404)
			return
		}
		if r.Method == http.MethodPut {
			var in struct {
				Product struct {
					Status string `json:"status"`
				} `json:"product"`
			}
			_ = json.Unmarshal(raw, &in)
			if in.Product.Status != "" {
				p.Status = in.Product.Status
			}
		}
		writeJSON(w, 200, map[string]any{"product": p})

	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "products" && parts[2] == "metafields":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		var in struct {
			Metafield shopify.Metafield `json:"metafield"`
		}
		_ = json.Unmarshal(raw, &in)
		s.ProductMetafields[id] = append(s.ProductMetafields[id], in.Metafield)
		writeJSON(w, 201, map[string]any{"metafield": in.Metafield})

	default:
		http.Error(w, fmt.Sprintf(`{"errors":"no route for %s"}`, call), 404)
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	since, _ := strconv.ParseInt(r.URL.Query().Get("since_id"), 10, 64)

	ids := make([]int64, 0, len(s.Products))
	for id := range s.Products {
		if id > since {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]shopify.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.Products[id])
	}
	writeJSON(w, 200, map[string]any{"products": out})
}

func (s *Server) failureFor(call string) (int, bool) {
	for k, status := range s.failures {
		if strings.HasPrefix(call, k) {
			return status, true
		}
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
